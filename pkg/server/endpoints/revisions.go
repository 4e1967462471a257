package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/audit"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/configrepo"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

const defaultRevisionLimit = 20

// RevisionResponse describes a saved configuration without its content
type RevisionResponse struct {
	Md5           string    `json:"md5"`
	Username      string    `json:"username"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegisterRevisionsEndpoints registers the configuration history endpoints
func RegisterRevisionsEndpoints(s *server.Server) {
	admin := s.Router.PathPrefix("/api/admin/config/revisions").Subrouter()
	admin.Use(authorizer(s).RequireAdmin)

	// GET /api/admin/config/revisions?limit=N
	admin.HandleFunc("", handleListRevisions(s.RevisionStore)).Methods("GET")
	// GET /api/admin/config/revisions/{md5} - saved content as YAML
	admin.HandleFunc("/{md5}", handleGetRevision(s.RevisionStore)).Methods("GET")
}

func handleListRevisions(revisions store.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revisions == nil {
			respondWithError(w, http.StatusNotImplemented, "configuration history requires a database")
			return
		}
		limit := defaultRevisionLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		list, err := revisions.List(r.Context(), limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		response := make([]RevisionResponse, 0, len(list))
		for _, rev := range list {
			response = append(response, RevisionResponse{
				Md5:           rev.Md5,
				Username:      rev.Username,
				SchemaVersion: rev.SchemaVersion,
				CreatedAt:     rev.CreatedAt,
			})
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleGetRevision(revisions store.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revisions == nil {
			respondWithError(w, http.StatusNotImplemented, "configuration history requires a database")
			return
		}
		rev, err := revisions.FindByMd5(r.Context(), mux.Vars(r)["md5"])
		if errors.Is(err, configrepo.ErrRevisionNotFound) {
			respondWithError(w, http.StatusNotFound, "Revision not found.")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		user, ip := caller(r)
		audit.Log(audit.ConfigFetchEvent{User: user, ClientIP: ip, Md5: rev.Md5, Revision: true})
		respondWithYAML(w, http.StatusOK, []byte(rev.Content))
	}
}
