// Command cruisectl validates, inspects and serves pipeline configuration
// files.
//
// # Quick Start
//
//	# Generate a data key for secure values
//	cruisectl data-key generate > /etc/cruise/data_key
//
//	# Check a configuration file
//	cruisectl config validate cruise-config.yml
//
//	# Print it with templates and parameters applied
//	cruisectl config show cruise-config.yml --processed
//
//	# Record revisions in PostgreSQL
//	export DATABASE_URL=postgres://cruise@localhost/cruise?sslmode=disable
//	cruisectl db migrate
//
//	# Start the server
//	cruisectl server
//
// # Environment Variables
//
//   - CRUISE_CONFIG_PATH: directory holding cruise.yml
//   - CRUISE_CONFIG_FILE: pipeline configuration file served by the server
//   - CRUISE_DATA_KEY_FILE: file holding the base64 AES key for secure values
//   - CRUISE_LOG_LEVEL: log level (debug, info, warn, error)
//   - DATABASE_URL: PostgreSQL connection string for revision history
//   - PORT: server port (default: 8153)
package main
