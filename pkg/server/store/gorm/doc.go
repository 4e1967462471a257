// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package. Revision history lives in
// pkg/configrepo, which satisfies store.RevisionStore directly.
package gorm
