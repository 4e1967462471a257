package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/audit"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/identity"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

// PipelineResponse is a pipeline as seen after templates and parameters are
// applied.
type PipelineResponse struct {
	Group    string                       `json:"group"`
	Pipeline *cruiseconfig.PipelineConfig `json:"pipeline"`
}

// DependenciesResponse lists the direct neighbours of a pipeline.
type DependenciesResponse struct {
	Pipeline   string   `json:"pipeline"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// RegisterPipelinesEndpoints registers the read-only pipeline endpoints.
// Access is checked per pipeline group.
func RegisterPipelinesEndpoints(s *server.Server) {
	// GET /api/admin/groups - groups visible to the caller
	s.Router.HandleFunc("/api/admin/groups", handleListGroups(s.ConfigStore)).Methods("GET")
	// GET /api/admin/groups/{group} - group definition, for its administrators
	s.Router.Handle("/api/admin/groups/{group}", authorizer(s).RequireGroupAdmin(handleGetGroup(s.ConfigStore))).Methods("GET")
	// GET /api/admin/pipelines/{name}
	s.Router.HandleFunc("/api/admin/pipelines/{name}", handleGetPipeline(s.ConfigStore)).Methods("GET")
	// GET /api/admin/pipelines/{name}/upstream - direct upstream and downstream pipelines
	s.Router.HandleFunc("/api/admin/pipelines/{name}/upstream", handlePipelineDependencies(s.ConfigStore)).Methods("GET")
}

func handleListGroups(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := configStore.Current()
		if h == nil {
			respondWithError(w, http.StatusServiceUnavailable, "configuration is not loaded")
			return
		}
		groups := h.Config.GroupsVisibleTo(identity.User(r.Context()))
		if groups == nil {
			groups = []string{}
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
	}
}

func handleGetGroup(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := configStore.Current()
		if h == nil {
			respondWithError(w, http.StatusServiceUnavailable, "configuration is not loaded")
			return
		}
		name, err := url.PathUnescape(mux.Vars(r)["group"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid group name")
			return
		}

		cfg := h.Config
		group := cfg.FindGroup(name)
		if group == nil {
			respondWithError(w, http.StatusNotFound, "Pipeline group '"+name+"' not found.")
			return
		}
		if user, ip := caller(r); !group.IsAdmin(user, cfg.SecurityConfig()) {
			audit.Log(audit.AccessDeniedEvent{User: user, ClientIP: ip, Operation: "administer", Resource: "group " + group.Name})
			respondWithError(w, http.StatusForbidden, "You are not authorized to administer pipeline group '"+name+"'.")
			return
		}
		respondWithJSON(w, http.StatusOK, group)
	}
}

// visiblePipeline finds the pipeline named in the request path, writing an
// error response when it cannot be shown to the caller.
func visiblePipeline(w http.ResponseWriter, r *http.Request, configStore store.ConfigStore) (*cruiseconfig.CruiseConfig, *cruiseconfig.PipelineConfigs, *cruiseconfig.PipelineConfig, bool) {
	h := configStore.Current()
	if h == nil {
		respondWithError(w, http.StatusServiceUnavailable, "configuration is not loaded")
		return nil, nil, nil, false
	}
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid pipeline name")
		return nil, nil, nil, false
	}

	cfg := h.Config
	p := cfg.PipelineByName(cruiseconfig.CaseInsensitiveString(name))
	if p == nil {
		respondWithError(w, http.StatusNotFound, "Pipeline '"+name+"' not found.")
		return nil, nil, nil, false
	}
	group := cfg.FindGroupOf(p.Name)
	if user, ip := caller(r); !group.HasViewPermission(user, cfg.SecurityConfig()) {
		audit.Log(audit.AccessDeniedEvent{User: user, ClientIP: ip, Operation: "view", Resource: "pipeline " + p.Name.String()})
		respondWithError(w, http.StatusForbidden, "You are not authorized to view pipeline '"+name+"'.")
		return nil, nil, nil, false
	}
	return cfg, group, p, true
}

func handleGetPipeline(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, group, p, ok := visiblePipeline(w, r, configStore)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, PipelineResponse{Group: group.Name, Pipeline: p})
	}
}

func handlePipelineDependencies(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, _, p, ok := visiblePipeline(w, r, configStore)
		if !ok {
			return
		}
		graph := cruiseconfig.NewDependencyGraph(cfg)
		upstream, err := graph.Upstream(p.Name)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		downstream, err := graph.Downstream(p.Name)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, DependenciesResponse{
			Pipeline:   p.Name.String(),
			Upstream:   nonNil(upstream),
			Downstream: nonNil(downstream),
		})
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
