// Package store provides storage abstractions for the server.
//
// Endpoints depend on these interfaces rather than on the file data source
// or the database, so they can be tested with fakes.
//
// # Available Stores
//
//   - ConfigStore: the pipeline configuration, implemented by configfile.DataSource
//   - RevisionStore: configuration history, implemented by configrepo.Repository
//   - HealthStore: database connectivity, implemented in the gorm subpackage
package store
