package main

import (
	"github.com/spf13/cobra"
)

// configurationCmd represents the configuration command
var configurationCmd = &cobra.Command{
	Use:   "configuration",
	Short: "Manage cruisectl settings",
	Long:  `Manage the settings cruisectl and the server read from cruise.yml and the environment.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireSubcommand(cmd, "show")
	},
}

func init() {
	rootCmd.AddCommand(configurationCmd)
}
