//go:build !embed_migrations

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

const defaultMigrationsPath = "db/migrations"

func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	log.WithField("path", defaultMigrationsPath).Debug("using migrations from disk")
	return migrate.New("file://"+defaultMigrationsPath, dbURL)
}

func listMigrationFiles() ([]string, error) {
	entries, err := os.ReadDir(defaultMigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
