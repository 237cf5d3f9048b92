// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	authmemory "github.com/gatehouse/gatehouse/internal/auth/memory"
	authpostgres "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/gate"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the API server and the observability server, connecting to
PostgreSQL when database.url is configured and falling back to the
in-memory user store otherwise.`,
		RunE: runServe,
	}

	cmd.Flags().String("server.addr", "", "API server listen address")
	cmd.Flags().String("metrics.addr", "", "observability server listen address")
	cmd.Flags().String("database.url", "", "postgres connection string")
	cmd.Flags().String("auth.scheme", "", "authentication scheme (none, basic, session)")
	cmd.Flags().String("log.format", "", "log format (text, json)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("gatehouse", version, cfg.Log.Format, cfg.Log.RedactFields)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var users auth.UserRepository
	if cfg.Database.URL != "" {
		pool, poolErr := store.NewPool(ctx, cfg.Database.URL)
		if poolErr != nil {
			return oops.Code("DB_CONNECT_FAILED").Wrap(poolErr)
		}
		defer pool.Close()
		users = authpostgres.NewUserRepository(pool)
		logger.Info("using postgres user store")
	} else {
		users = authmemory.NewUserRepository()
		logger.Warn("no database configured, using in-memory user store")
	}

	svc, err := auth.NewServiceWithLogger(users, auth.NewArgon2idHasher(), auth.NewRandomTokenGenerator(), logger)
	if err != nil {
		return err
	}

	scheme, err := gate.ParseScheme(cfg.Auth.Scheme)
	if err != nil {
		return err
	}
	accessGate, err := gate.New(scheme, cfg.Auth.CookieName, cfg.Auth.ExcludedPaths, svc)
	if err != nil {
		return err
	}

	var ready atomic.Bool
	obs := observability.NewServer(cfg.Metrics.Addr, ready.Load)
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(cfg.Server.Addr, svc, accessGate, obs.Metrics(), logger)
	if err != nil {
		return err
	}
	apiErrCh, err := api.Start()
	if err != nil {
		stopServers(logger, obs, nil)
		return err
	}
	ready.Store(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		logger.Error("api server failed", "error", serveErr)
	case serveErr := <-obsErrCh:
		logger.Error("observability server failed", "error", serveErr)
	}

	ready.Store(false)
	stopServers(logger, obs, api)
	return nil
}

func stopServers(logger *slog.Logger, obs *observability.Server, api *httpapi.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			logger.Error("api server shutdown failed", "error", err)
		}
	}
	if err := obs.Stop(ctx); err != nil {
		logger.Error("observability server shutdown failed", "error", err)
	}
}
