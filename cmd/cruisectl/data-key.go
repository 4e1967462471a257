package main

import (
	"github.com/spf13/cobra"
)

// dataKeyCmd represents the data-key command
var dataKeyCmd = &cobra.Command{
	Use:   "data-key",
	Short: "Manage the data encryption key",
	Long:  `Manage the key used to encrypt secure values in pipeline configuration files.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireSubcommand(cmd, "generate")
	},
}

func init() {
	rootCmd.AddCommand(dataKeyCmd)
}
