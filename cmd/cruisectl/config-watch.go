package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
)

// configWatchCmd represents the config watch command
var configWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a pipeline configuration file and revalidate it on change",
	Long: `Watch a pipeline configuration file and revalidate it whenever it changes.

Invalid revisions are reported and the last valid configuration is kept.

Example:
  cruisectl config watch cruise-config.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchConfig(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch config: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configWatchCmd)
}

func watchConfig(cmd *cobra.Command, path string) error {
	ds, err := newDataSource(cmd, path)
	if err != nil {
		return err
	}
	h, err := ds.Load()
	if err != nil {
		printValidationErrors(err)
		return err
	}
	ds.AddListener(configfile.ListenerFunc(func(h *configfile.Holder) {
		fmt.Printf("%s reloaded (md5: %s, pipelines: %d)\n", path, h.Md5, len(h.Config.AllPipelines()))
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{"path": path, "md5": h.Md5}).Info("watching config")
	return ds.Watch(ctx)
}
