// Package config provides the server settings of cruise.
//
// Settings are read from cruise.yml in CRUISE_CONFIG_PATH (default
// /etc/cruise/config) and overridden by environment variables. Every
// attribute remembers whether its value is a default or came from the file
// or the environment.
//
// # Environment Variables
//
//   - CRUISE_CONFIG_FILE: pipeline configuration file
//   - CRUISE_ARTIFACTS_DIR: default artifacts directory
//   - CRUISE_DATA_KEY_FILE: base64 AES key for secure values
//   - CRUISE_LOG_LEVEL: logging verbosity
//   - CRUISE_SITE_URL: public base URL
//   - CRUISE_WATCH_CONFIG: reload the pipeline configuration on change
//   - CRUISE_MAX_REVISIONS: config revisions kept in the database
//   - DATABASE_URL: database connection
package config
