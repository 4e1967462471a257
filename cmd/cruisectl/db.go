package main

import (
	"github.com/spf13/cobra"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
	Long:  `Manage the schema of the configuration revision database.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireSubcommand(cmd, "migrate, down, status")
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
