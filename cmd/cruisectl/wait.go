package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/endpoints"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until the server has loaded its configuration",
	Long: `Wait until the server reports a loaded configuration on /api/status.

With --require-database the server must also report a reachable database;
a server running without DATABASE_URL reports "disabled" and never
satisfies it.

Example:
  cruisectl wait
  cruisectl wait --port 3000 --retries 60 --require-database`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")
		requireDB, _ := cmd.Flags().GetBool("require-database")

		url := fmt.Sprintf("http://localhost:%d/api/status", port)
		status, err := waitForServer(cmd.Context(), url, retries, interval, requireDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Server is ready (config md5: %s, database: %s)\n", status.ConfigMd5, status.Database)
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("port", "p", defaultPort(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of attempts")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between attempts")
	waitCmd.Flags().Bool("require-database", false, "Also wait for the database to be reachable")
}

// ready reports whether status satisfies the wait, and why not otherwise.
func ready(status *endpoints.StatusResponse, requireDB bool) (bool, string) {
	switch {
	case status.ConfigMd5 == "":
		return false, "configuration not loaded"
	case requireDB && status.Database != "ok":
		return false, "database " + status.Database
	}
	return true, ""
}

func fetchStatus(ctx context.Context, client *http.Client, url string) (*endpoints.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 503 still carries a status body
	var status endpoints.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &status, nil
}

func waitForServer(ctx context.Context, url string, retries int, interval time.Duration, requireDB bool) (*endpoints.StatusResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: 2 * time.Second}
	reason := "no response"

	for i := 0; i < retries; i++ {
		status, err := fetchStatus(ctx, client, url)
		if err == nil {
			ok, why := ready(status, requireDB)
			if ok {
				return status, nil
			}
			reason = why
		} else {
			reason = err.Error()
		}
		log.WithField("attempt", i+1).Debug(reason)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("gave up after %d attempts: %s", retries, reason)
}
