package endpoints

import (
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	srv.Router.Use(middleware.Identify)

	RegisterStatusEndpoints(srv)
	// revisions live under the config prefix and must be matched first
	RegisterRevisionsEndpoints(srv)
	RegisterConfigEndpoints(srv)
	RegisterPipelinesEndpoints(srv)
}

// authorizer checks permissions against the processed configuration
func authorizer(srv *server.Server) *middleware.Authorizer {
	return middleware.NewAuthorizer(func() *cruiseconfig.CruiseConfig {
		if h := srv.ConfigStore.Current(); h != nil {
			return h.Config
		}
		return nil
	})
}
