package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"time"
)

// Store persists audit messages to the audit_messages table
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database connection
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists an audit event to the database
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	hostname, _ := os.Hostname()
	sdata, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		event.Facility(),
		int(event.Severity()),
		time.Now().UTC(),
		hostname,
		appName,
		os.Getpid(),
		event.MessageID(),
		sdata,
		event.Message(),
	)
	return err
}
