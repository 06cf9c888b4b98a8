package main

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
	"evalgallery/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect {
				plan, err := migrationPlan(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				return writeMigrationPlan(plan)
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			plan, err := migrationPlan(cfg.DBPath)
			if err != nil {
				return err
			}
			return writeMigrationPlan(plan)
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show pending migrations without applying them")
	return cmd
}

func writeMigrationPlan(plan *store.MigrationStatus) error {
	return writeOutput(plan, func() error {
		if err := writePlain("current version: %d\navailable version: %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
			return err
		}
		if len(plan.Pending) == 0 {
			return writePlain("no pending migrations\n")
		}
		for _, m := range plan.Pending {
			if err := writePlain("pending %d: %s\n", m.Version, m.Description); err != nil {
				return err
			}
		}
		return nil
	})
}

func migrationPlan(path string) (*store.MigrationStatus, error) {
	db, err := openRawDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return store.MigrationPlan(db)
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
