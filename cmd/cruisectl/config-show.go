package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
)

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a pipeline configuration file",
	Long: `Print a validated pipeline configuration file.

Secure values are printed encrypted. With --processed, pipelines built from
templates are printed with their stages and parameters resolved.

Example:
  cruisectl config show cruise-config.yml
  cruisectl config show cruise-config.yml --processed`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		processed, _ := cmd.Flags().GetBool("processed")

		if err := showConfig(cmd, args[0], processed); err != nil {
			if !printValidationErrors(err) {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().Bool("processed", false, "apply templates and parameters before printing")
}

func showConfig(cmd *cobra.Command, path string, processed bool) error {
	ds, err := newDataSource(cmd, path)
	if err != nil {
		return err
	}
	h, err := ds.Load()
	if err != nil {
		return err
	}

	cfg := h.ConfigForEdit
	if processed {
		cfg = h.Config
	}
	content, err := cruiseconfig.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(content))
	return nil
}
