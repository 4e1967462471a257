package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a pipeline configuration file",
	Long: `Validate a pipeline configuration file.

Templates are expanded and parameters resolved before the configuration is
checked, exactly as the server does on load.

Example:
  cruisectl config validate cruise-config.yml
  cruisectl config validate cruise-config.yml -P env=staging`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := newDataSource(cmd, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		h, err := ds.Load()
		if err != nil {
			fmt.Printf("%s is invalid:\n", args[0])
			if !printValidationErrors(err) {
				fmt.Println("  -", err)
			}
			os.Exit(1)
		}
		fmt.Printf("%s is valid (md5: %s)\n", args[0], h.Md5)
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
