package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/storyloom/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, db.MigrateDown)
		},
	})

	return cmd
}

func migrate(cmd *cobra.Command, run func(conn *sql.DB, driver string) error) error {
	cfg, flush := loadConfig()
	defer flush()

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	err = run(conn.DB, cfg.DBDriver)
	if err != nil {
		return err
	}

	version, err := db.Version(conn.DB, cfg.DBDriver)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
	return nil
}
