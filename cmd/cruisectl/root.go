package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "cruisectl",
	Short: "Pipeline configuration tool and server",
	Long: `cruisectl validates and inspects pipeline configuration files and runs
the configuration server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

func configureLogging() {
	log.SetOutput(os.Stderr)
	level, err := config.Get().Level()
	if err != nil {
		log.WithError(err).Warn("invalid log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// requireSubcommand prints the missing subcommand error used by the command
// groups.
func requireSubcommand(cmd *cobra.Command, subcommands string) {
	fmt.Printf("error: Command '%s' requires a subcommand (%s)\n", cmd.Name(), subcommands)
	fmt.Println()
	_ = cmd.Help()
	os.Exit(1)
}

func main() {
	Execute()
}
