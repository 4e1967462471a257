// Package audit records who changed or read the pipeline configuration.
//
// Events are written as RFC5424 syslog lines to stdout and, when a store is
// set, to the audit_messages table.
//
// # Event Types
//
//   - config-update: a save was accepted or rejected
//   - config-fetch: the configuration or a revision was read
//   - config-reload: a changed file was accepted
//   - access-denied: a user was refused an operation
//
// # Usage
//
//	audit.Log(audit.ConfigUpdateEvent{User: user, PreviousMd5: old, Md5: new, Success: true})
package audit
