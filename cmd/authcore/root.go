// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/logging"
	"github.com/holomush/authcore/internal/xdg"
)

const serviceName = "authcore"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// rootDeps are the external dependencies of the subcommands.
type rootDeps struct {
	serve     ServeDeps
	migrators MigratorFactory
	connect   ConnectFunc
}

// NewRootCmd creates the root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(rootDeps{migrators: newStoreMigrator, connect: connectPostgres})
}

func newRootCmd(deps rootDeps) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "authcore",
		Short: "authcore - credential and session service",
		Long: `authcore registers users, verifies passwords, and issues and refreshes
access/refresh token pairs backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: $AUTHCORE_CONFIG, then $XDG_CONFIG_HOME/authcore/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(opts, deps.serve))
	cmd.AddCommand(newMigrateCmd(opts, deps.migrators))
	cmd.AddCommand(newTokensCmd(opts, deps.connect))

	return cmd
}

// load reads the configuration for cmd and installs the default logger.
func (o *rootOptions) load(cmd *cobra.Command, databaseOnly bool) (*config.Config, *slog.Logger, error) {
	file := o.configFile
	if file == "" {
		file = config.FileFromEnv()
	}
	if file == "" {
		file = xdg.ConfigFile()
	}

	cfg, err := config.Load(config.LoadOptions{
		File:         file,
		Flags:        cmd.Flags(),
		DatabaseOnly: databaseOnly,
	})
	if err != nil {
		return nil, nil, err
	}

	//nolint:errcheck // validated by config.Load
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}
