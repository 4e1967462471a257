package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings and their sources",
	Long: `Show settings and their sources.

The values displayed by this command reflect the current state of the
settings sources: the environment variables and the settings file. They
may not reflect the values used by a running server.

Settings file location: /etc/cruise/config/cruise.yml (or CRUISE_CONFIG_PATH)

Example:
  cruisectl configuration show
  cruisectl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(output string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	switch output {
	case "json":
		jsonOutput, err := settings.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
	case "text":
		fmt.Print(settings.FormatText())
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}
