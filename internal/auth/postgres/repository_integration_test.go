// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/postgres"
)

func newUser(email string) *auth.User {
	user, err := auth.NewUser("Test", "User", email, "$argon2id$hash")
	Expect(err).NotTo(HaveOccurred())
	user.CreatedAt = user.CreatedAt.Truncate(time.Microsecond)
	user.UpdatedAt = user.CreatedAt
	return user
}

var _ = Describe("UserRepository", func() {
	var (
		ctx   context.Context
		users *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = postgres.NewUserRepository(testPool)
		truncate()
	})

	It("round-trips a user", func() {
		user := newUser("test@test.fr")
		Expect(users.Create(ctx, user)).To(Succeed())

		byID, err := users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("test@test.fr"))
		Expect(byID.ResetCode).To(BeNil())
		Expect(byID.CreatedAt).To(BeTemporally("==", user.CreatedAt))

		byEmail, err := users.GetByEmail(ctx, "test@test.fr")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
	})

	It("rejects a duplicate email", func() {
		Expect(users.Create(ctx, newUser("dup@test.fr"))).To(Succeed())
		err := users.Create(ctx, newUser("dup@test.fr"))
		Expect(err).To(MatchError(auth.ErrAlreadyExists))
	})

	It("reports missing users", func() {
		_, err := users.GetByID(ctx, ulid.Make())
		Expect(err).To(MatchError(auth.ErrNotFound))
		_, err = users.GetByEmail(ctx, "ghost@test.fr")
		Expect(err).To(MatchError(auth.ErrNotFound))
		Expect(users.Update(ctx, newUser("ghost@test.fr"))).To(MatchError(auth.ErrNotFound))
	})

	It("sets and clears the reset code", func() {
		user := newUser("reset@test.fr")
		Expect(users.Create(ctx, user)).To(Succeed())

		code := "0042"
		user.ResetCode = &code
		user.Touch()
		Expect(users.Update(ctx, user)).To(Succeed())

		stored, err := users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ResetCode).To(HaveValue(Equal("0042")))

		stored.ResetCode = nil
		stored.PasswordHash = "$argon2id$new"
		Expect(users.Update(ctx, stored)).To(Succeed())

		stored, err = users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ResetCode).To(BeNil())
		Expect(stored.PasswordHash).To(Equal("$argon2id$new"))
	})
})

var _ = Describe("TokenRepository", func() {
	var (
		ctx    context.Context
		users  *postgres.UserRepository
		tokens *postgres.TokenRepository
		owner  *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = postgres.NewUserRepository(testPool)
		tokens = postgres.NewTokenRepository(testPool)
		truncate()

		owner = newUser("owner@test.fr")
		Expect(users.Create(ctx, owner)).To(Succeed())
	})

	newToken := func(access, refresh string, at time.Time) *auth.Token {
		tok, err := auth.NewToken(owner.ID, access, refresh, at.Truncate(time.Microsecond))
		Expect(err).NotTo(HaveOccurred())
		return tok
	}

	It("finds a token by either digest", func() {
		tok := newToken("a1", "r1", time.Now())
		Expect(tokens.Create(ctx, tok)).To(Succeed())

		byAccess, err := tokens.GetByAccessHash(ctx, "a1")
		Expect(err).NotTo(HaveOccurred())
		Expect(byAccess.ID).To(Equal(tok.ID))
		Expect(byAccess.UserID).To(Equal(owner.ID))

		byRefresh, err := tokens.GetByRefreshHash(ctx, "r1")
		Expect(err).NotTo(HaveOccurred())
		Expect(byRefresh.ID).To(Equal(tok.ID))
	})

	It("requires an existing owner", func() {
		tok, err := auth.NewToken(ulid.Make(), "a", "r", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(tokens.Create(ctx, tok)).To(MatchError(auth.ErrNotFound))
	})

	It("rotates the access digest", func() {
		tok := newToken("a1", "r1", time.Now())
		Expect(tokens.Create(ctx, tok)).To(Succeed())

		tok.RotateAccess("a2", time.Now().Add(time.Minute).Truncate(time.Microsecond))
		Expect(tokens.UpdateAccess(ctx, tok)).To(Succeed())

		_, err := tokens.GetByAccessHash(ctx, "a1")
		Expect(err).To(MatchError(auth.ErrNotFound))

		rotated, err := tokens.GetByAccessHash(ctx, "a2")
		Expect(err).NotTo(HaveOccurred())
		Expect(rotated.AccessIssuedAt).To(BeTemporally("==", tok.AccessIssuedAt))
		Expect(rotated.CreatedAt).To(BeTemporally("==", tok.CreatedAt))
	})

	It("deletes idempotently by access digest", func() {
		tok := newToken("a1", "r1", time.Now())
		Expect(tokens.Create(ctx, tok)).To(Succeed())

		Expect(tokens.DeleteByAccessHash(ctx, "a1")).To(BeTrue())
		Expect(tokens.DeleteByAccessHash(ctx, "a1")).To(BeFalse())
		Expect(tokens.UpdateAccess(ctx, tok)).To(MatchError(auth.ErrNotFound))
	})

	It("prunes rows created before the cutoff", func() {
		now := time.Now()
		Expect(tokens.Create(ctx, newToken("old", "old-r", now.Add(-48*time.Hour)))).To(Succeed())
		Expect(tokens.Create(ctx, newToken("new", "new-r", now))).To(Succeed())

		n, err := tokens.DeleteCreatedBefore(ctx, now.Add(-24*time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		_, err = tokens.GetByAccessHash(ctx, "new")
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Service on PostgreSQL", func() {
	It("runs a full session and reset lifecycle", func() {
		ctx := context.Background()
		truncate()

		users := postgres.NewUserRepository(testPool)
		tokens, err := auth.NewTokenService(postgres.NewTokenRepository(testPool), users, auth.TokenConfig{
			AccessSecret:  []byte("access-secret-for-integration-0123456789"),
			RefreshSecret: []byte("refresh-secret-for-integration-0123456789"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		})
		Expect(err).NotTo(HaveOccurred())
		svc, err := auth.NewAuthService(users, tokens, auth.NewArgon2idHasher(), auth.WithDelayer(auth.NoDelay{}))
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Register(ctx, auth.RegisterInput{Email: "flow@test.fr", Password: "password"})
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Register(ctx, auth.RegisterInput{Email: "flow@test.fr", Password: "password"})
		Expect(auth.PublicCode(err)).To(Equal(auth.CodeUserAlreadyExists))

		login, err := svc.Login(ctx, "flow@test.fr", "password")
		Expect(err).NotTo(HaveOccurred())

		access, err := svc.Refresh(ctx, login.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.VerifyAccess(ctx, access)
		Expect(err).NotTo(HaveOccurred())

		code, err := svc.AskResetPassword(ctx, "flow@test.fr")
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.ResetPassword(ctx, "flow@test.fr", code, "resetpassword")).To(Succeed())

		Expect(svc.Logout(ctx, access)).To(Succeed())
		_, err = svc.VerifyAccess(ctx, access)
		Expect(auth.PublicCode(err)).To(Equal(auth.CodeInvalidToken))
	})
})
