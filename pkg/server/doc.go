// Package server provides the HTTP server of cruise.
//
// The server uses gorilla/mux for routing. Every request is access-logged
// through logrus and recovered from panics.
//
// # Server Setup
//
//	srv := server.NewServer(dataSource, revisions, health, "0.0.0.0", "8153")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
//   - ConfigStore: the loaded pipeline configuration
//   - RevisionStore: saved configuration history, optional
//   - HealthStore: database connectivity, optional
//
// The caller's identity is read from the X-Cruise-User header set by the
// authenticating proxy in front of the server. Config reads, updates and
// denied requests are written to the audit log.
package server
