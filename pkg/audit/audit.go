package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SDID constants for structured data IDs (RFC5424). 32473 is the example
// Private Enterprise Number reserved by RFC5612.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// Syslog facility constants
const (
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
	FacilityLocal0   = 16 // LOG_LOCAL0 - configuration changes
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

const appName = "cruise"

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger handles audit logging in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	pid      int
}

// NewLogger creates a new audit logger writing to stdout
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stdout,
		hostname: hostname,
		pid:      os.Getpid(),
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Log writes an audit event in RFC5424 syslog format
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	pri := event.Facility()*8 + int(event.Severity())
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}
	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	logLine := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		timestamp,
		hostname,
		appName,
		l.pid,
		event.MessageID(),
		sd,
		event.Message(),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write([]byte(logLine))
}

// formatStructuredData formats the structured data according to RFC5424,
// with elements and params sorted.
// Format: [sdid param1="value1" param2="value2"][sdid2 ...]
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	var parts []string
	for _, sdid := range sortedKeys(sd) {
		params := sd[sdid]
		paramParts := []string{sdid}
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			paramParts = append(paramParts, fmt.Sprintf("%s=%s", key, escapeSDValue(params[key])))
		}
		parts = append(parts, "["+strings.Join(paramParts, " ")+"]")
	}
	return strings.Join(parts, "")
}

func sortedKeys(m map[string]map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeSDValue escapes special characters in structured data values per RFC5424
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

// DefaultLogger is the logger used by Log
var DefaultLogger = NewLogger()

var (
	defaultStore *Store
	auditEnabled = true
	enabledOnce  sync.Once
	stateMu      sync.RWMutex
)

// IsEnabled reports whether audit logging is enabled. CRUISE_AUDIT_ENABLED=false
// turns it off.
func IsEnabled() bool {
	enabledOnce.Do(func() {
		if env := os.Getenv("CRUISE_AUDIT_ENABLED"); env != "" {
			stateMu.Lock()
			auditEnabled = env != "false" && env != "0" && env != "no"
			stateMu.Unlock()
		}
	})
	stateMu.RLock()
	defer stateMu.RUnlock()
	return auditEnabled
}

// SetEnabled allows programmatic control of audit logging
func SetEnabled(enabled bool) {
	enabledOnce.Do(func() {})
	stateMu.Lock()
	defer stateMu.Unlock()
	auditEnabled = enabled
}

// SetStore makes Log persist events to s as well. A nil store disables
// persistence.
func SetStore(s *Store) {
	stateMu.Lock()
	defer stateMu.Unlock()
	defaultStore = s
}

// Log writes an event to the default logger and store, if audit is enabled
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	stateMu.RLock()
	store := defaultStore
	stateMu.RUnlock()
	if store == nil {
		return
	}
	if err := store.Save(event); err != nil {
		log.WithError(err).WithField("msgid", event.MessageID()).Warn("failed to save audit event")
	}
}
