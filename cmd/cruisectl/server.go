package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/audit"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/configrepo"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/db"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/cruise-in-go/pkg/server/store/gorm"
)

const defaultServerPort = 8153

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return defaultServerPort
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the configuration server",
	Long: `Run the configuration server.

The server loads the file named by CRUISE_CONFIG_FILE, creating an empty
configuration when it does not exist. When DATABASE_URL is set every saved
configuration is recorded as a revision, and database migrations are run on
startup unless --no-migrate is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetInt("port")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		if err := runServer(host, strconv.Itoa(port), noMigrate); err != nil {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

func runServer(host, port string, noMigrate bool) error {
	settings := config.Get()
	if err := settings.Validate(); err != nil {
		return err
	}

	cipher, err := settings.Cipher()
	if err != nil {
		return err
	}
	var opts []configfile.Option
	if cipher != nil {
		opts = append(opts, configfile.WithCipher(cipher))
	}

	var (
		revisions store.RevisionStore
		health    store.HealthStore
	)
	if settings.DatabaseURL != "" {
		if !noMigrate {
			log.Info("running database migrations")
			if err := runMigrations(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}
		database, err := db.Connect(db.Config{})
		if err != nil {
			return err
		}
		sqlDB, err := database.DB()
		if err != nil {
			return err
		}
		audit.SetStore(audit.NewStore(sqlDB))

		repo := configrepo.NewRepository(database, settings.MaxRevisions)
		opts = append(opts, configfile.WithRecorder(repo))
		revisions = repo
		health = gormstore.NewHealthStore(database)
	} else {
		log.Info("DATABASE_URL is not set, configuration history is disabled")
	}

	ds := configfile.NewDataSource(settings.ConfigFile, opts...)
	if err := ds.EnsureExists(settings.ArtifactsDir); err != nil {
		return err
	}
	if _, err := ds.Load(); err != nil {
		return fmt.Errorf("failed to load %s: %w", settings.ConfigFile, err)
	}
	ds.AddListener(configfile.ListenerFunc(func(h *configfile.Holder) {
		audit.Log(audit.ConfigReloadEvent{Path: ds.Path(), Md5: h.Md5, Pipelines: len(h.Config.AllPipelines())})
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.WatchConfig {
		go func() {
			if err := ds.Watch(ctx); err != nil {
				log.WithError(err).Error("config watch stopped")
			}
		}()
	}

	s := server.NewServer(ds, revisions, health, host, port)
	endpoints.RegisterAll(s)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}
