// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, and inspect schema migrations on the PostgreSQL database.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return oops.Code("MIGRATION_FAILED").Wrap(err)
				}
				cmd.Println("Migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				if err := m.Down(); err != nil {
					return oops.Code("MIGRATION_FAILED").Wrap(err)
				}
				cmd.Println("Migrations rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative rolls back)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("CONFIG_INVALID").With("steps", args[0]).Wrapf(err, "steps must be an integer")
				}
				if err := m.Steps(n); err != nil {
					return oops.Code("MIGRATION_FAILED").Wrap(err)
				}
				cmd.Printf("Applied %d migration step(s)\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").Wrap(err)
				}
				if version == 0 {
					cmd.Println("No migrations applied")
					return nil
				}
				cmd.Printf("Version: %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the migration version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("CONFIG_INVALID").With("version", args[0]).Wrapf(err, "version must be an integer")
				}
				if err := m.Force(version); err != nil {
					return oops.Code("MIGRATION_FAILED").Wrap(err)
				}
				cmd.Printf("Forced version to %d\n", version)
				return nil
			}),
		},
	)

	return cmd
}

// withMigrator loads configuration, opens a migrator, and closes it
// after the wrapped action runs.
func withMigrator(fn func(*cobra.Command, *store.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("database.url is required for migrations")
		}

		m, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return oops.Code("MIGRATION_FAILED").Wrap(err)
		}
		defer m.Close()

		return fn(cmd, m, args)
	}
}
