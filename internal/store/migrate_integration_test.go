// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authcore/internal/store"
)

func startPostgres(ctx context.Context) (string, func()) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("authcore_test"),
		postgres.WithUsername("authcore"),
		postgres.WithPassword("authcore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	return connStr, func() { _ = container.Terminate(ctx) }
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) bool {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name,
	).Scan(&exists)
	Expect(err).NotTo(HaveOccurred())
	return exists
}

var _ = Describe("Schema", Ordered, func() {
	var (
		ctx       context.Context
		connStr   string
		terminate func()
		pool      *pgxpool.Pool
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()
		connStr, terminate = startPostgres(ctx)

		var err error
		pool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			_ = migrator.Close()
		}
		if pool != nil {
			pool.Close()
		}
		terminate()
	})

	It("starts empty", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1, 2}))
	})

	It("creates the users and tokens tables", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "a second Up is a no-op")

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(tableExists(ctx, pool, "users")).To(BeTrue())
		Expect(tableExists(ctx, pool, "tokens")).To(BeTrue())
	})

	It("rejects malformed reset codes", func() {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, reset_code)
			VALUES ('01J0000000000000000000000A', 'bad@test.fr', 'h', '12a4')
		`)
		Expect(err).To(HaveOccurred())
	})

	It("cascades user deletion to tokens", func() {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, email, password_hash) VALUES ('01J0000000000000000000000B', 'c@test.fr', 'h')
		`)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `
			INSERT INTO tokens (id, user_id, access_hash, refresh_hash, access_issued_at)
			VALUES ('01J0000000000000000000000C', '01J0000000000000000000000B', 'a', 'r', now())
		`)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = '01J0000000000000000000000B'`)
		Expect(err).NotTo(HaveOccurred())

		var n int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM tokens`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})

	It("steps down and back up", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
	})

	It("drops everything on Down", func() {
		Expect(migrator.Down()).To(Succeed())

		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(tableExists(ctx, pool, "users")).To(BeFalse())
		Expect(tableExists(ctx, pool, "tokens")).To(BeFalse())
	})
})
