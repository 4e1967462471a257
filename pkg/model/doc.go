// Package model defines the database models of cruise.
//
// # Database Schema
//
//   - config_revisions: every saved version of the pipeline configuration,
//     unique by the md5 of its content
//   - audit_messages: persisted audit events, written by package audit
package model
