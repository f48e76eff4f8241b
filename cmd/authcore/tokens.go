// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// newTokensCmd creates the tokens subcommand.
func newTokensCmd(root *rootOptions, connect ConnectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain stored sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete sessions whose refresh token has expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd, false)
			if err != nil {
				return err
			}

			db, err := connect(cmd.Context(), cfg.Database.URL, connectOptions(cfg, logger))
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := newApp(db, cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			n, err := a.tokens.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Pruned %d expired session(s)\n", n)
			return nil
		},
	})

	return cmd
}
