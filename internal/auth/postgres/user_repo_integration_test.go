// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// setupPostgresContainer starts a PostgreSQL container, connects a
// pool, and applies migrations.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("gatehouse_test"),
		pgcontainer.WithUsername("gatehouse"),
		pgcontainer.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		pool.Close()
		return nil, nil, err
	}
	_ = migrator.Close()

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

var _ = Describe("UserRepository", func() {
	var (
		pool    *pgxpool.Pool
		repo    *postgres.UserRepository
		cleanup func()
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewUserRepository(pool)
		ctx = context.Background()
	})

	AfterEach(func() {
		cleanup()
	})

	newUser := func(email string) *auth.User {
		user, err := auth.NewUser(email, "hashed-secret")
		Expect(err).NotTo(HaveOccurred())
		return user
	}

	Describe("Create", func() {
		It("persists and round-trips a user", func() {
			user := newUser("bob@holberton.io")
			Expect(repo.Create(ctx, user)).To(Succeed())

			stored, err := repo.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Email).To(Equal(user.Email))
			Expect(stored.PasswordHash).To(Equal(user.PasswordHash))
			Expect(stored.SessionToken).To(BeNil())
		})

		It("rejects duplicate emails case-insensitively", func() {
			Expect(repo.Create(ctx, newUser("bob@holberton.io"))).To(Succeed())

			err := repo.Create(ctx, newUser("BOB@Holberton.IO"))
			Expect(err).To(MatchError(auth.ErrAlreadyExists))
		})
	})

	Describe("GetByEmail", func() {
		It("matches regardless of case", func() {
			user := newUser("bob@holberton.io")
			Expect(repo.Create(ctx, user)).To(Succeed())

			stored, err := repo.GetByEmail(ctx, "BOB@HOLBERTON.IO")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(user.ID))
		})

		It("wraps ErrNotFound for unknown emails", func() {
			_, err := repo.GetByEmail(ctx, "ghost@holberton.io")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("session token lifecycle", func() {
		It("stores, replaces, and clears the token hash", func() {
			user := newUser("bob@holberton.io")
			Expect(repo.Create(ctx, user)).To(Succeed())

			first := auth.HashSessionToken("first-token")
			Expect(repo.Update(ctx, user.ID, auth.UserUpdate{SessionToken: &first})).To(Succeed())

			stored, err := repo.GetBySessionToken(ctx, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(user.ID))

			second := auth.HashSessionToken("second-token")
			Expect(repo.Update(ctx, user.ID, auth.UserUpdate{SessionToken: &second})).To(Succeed())

			_, err = repo.GetBySessionToken(ctx, first)
			Expect(err).To(MatchError(auth.ErrNotFound))

			Expect(repo.Update(ctx, user.ID, auth.UserUpdate{ClearSessionToken: true})).To(Succeed())
			_, err = repo.GetBySessionToken(ctx, second)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("enforces one owner per token hash", func() {
			first := newUser("bob@holberton.io")
			second := newUser("alice@holberton.io")
			Expect(repo.Create(ctx, first)).To(Succeed())
			Expect(repo.Create(ctx, second)).To(Succeed())

			hash := auth.HashSessionToken("shared-token")
			Expect(repo.Update(ctx, first.ID, auth.UserUpdate{SessionToken: &hash})).To(Succeed())

			err := repo.Update(ctx, second.ID, auth.UserUpdate{SessionToken: &hash})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdatePassword", func() {
		It("replaces the stored hash", func() {
			user := newUser("bob@holberton.io")
			Expect(repo.Create(ctx, user)).To(Succeed())

			Expect(repo.UpdatePassword(ctx, user.ID, "rehashed")).To(Succeed())

			stored, err := repo.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).To(Equal("rehashed"))
		})
	})

	Describe("Update", func() {
		It("wraps ErrNotFound for unknown users", func() {
			ghost := newUser("ghost@holberton.io")
			hash := "token-hash"

			err := repo.Update(ctx, ghost.ID, auth.UserUpdate{SessionToken: &hash})
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("stores reset tokens independently of session tokens", func() {
			user := newUser("bob@holberton.io")
			Expect(repo.Create(ctx, user)).To(Succeed())

			reset := "reset-token"
			Expect(repo.Update(ctx, user.ID, auth.UserUpdate{ResetToken: &reset})).To(Succeed())

			stored, err := repo.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ResetToken).To(HaveValue(Equal("reset-token")))
			Expect(stored.SessionToken).To(BeNil())
		})
	})
})
