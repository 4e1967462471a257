package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
)

// configGraphCmd represents the config graph command
var configGraphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Print the pipeline dependency graph in DOT format",
	Long: `Print the pipeline dependency graph in DOT format.

Example:
  cruisectl config graph cruise-config.yml | dot -Tsvg > pipelines.svg`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := newDataSource(cmd, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		h, err := ds.Load()
		if err != nil {
			if !printValidationErrors(err) {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		}

		if err := cruiseconfig.NewDependencyGraph(h.Config).WriteDOT(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to write graph:", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configGraphCmd)
}
