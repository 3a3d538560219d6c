package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/org-membership-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if _, _, err := setup(); err != nil {
			return err
		}
		return database.Close()
	},
}
