package main

import (
	"invoicedesk/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.NewPool(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer database.ClosePool(pool)
		return database.Migrate(cmd.Context(), pool)
	},
}
