package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to the database_url setting)
	URL string
	// Debug logs every SQL statement
	Debug bool
}

// Connect establishes a database connection.
// If no URL is provided, it reads the database_url setting.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return Open(postgres.New(postgres.Config{
		DSN:                  dbURL,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), cfg.Debug || config.Get().LogLevel == "debug")
}

// Open opens a gorm connection over dialector. Tests pass a dialector over
// a mocked *sql.DB.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// URL returns the configured database URL, or "" when none is set.
func URL() string {
	return config.Get().DatabaseURL
}
