package main

import (
	"github.com/spf13/cobra"

	"learnpath/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.NewPostgresDB(dbConfig(cfg))
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrated", "db", cfg.DBName)
		return nil
	},
}
