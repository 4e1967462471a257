package endpoints

import (
	"bytes"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/audit"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

// RegisterConfigEndpoints registers the configuration admin endpoints
func RegisterConfigEndpoints(s *server.Server) {
	admin := s.Router.PathPrefix("/api/admin/config").Subrouter()
	admin.Use(authorizer(s).RequireAdmin)

	// GET /api/admin/config - editable configuration as YAML
	admin.HandleFunc("", handleGetConfig(s.ConfigStore)).Methods("GET")
	// PUT /api/admin/config - replace the configuration
	admin.HandleFunc("", handlePutConfig(s.ConfigStore)).Methods("PUT")
	// POST /api/admin/config/validate - validate without saving
	admin.HandleFunc("/validate", handleValidateConfig(s.ConfigStore)).Methods("POST")
	// GET /api/admin/config/graph - dependency graph in DOT format
	admin.HandleFunc("/graph", handleConfigGraph(s.ConfigStore)).Methods("GET")
}

func handleGetConfig(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := configStore.Current()
		content, err := cruiseconfig.Marshal(h.ConfigForEdit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		user, ip := caller(r)
		audit.Log(audit.ConfigFetchEvent{User: user, ClientIP: ip, Md5: h.Md5})

		w.Header().Set(Md5Header, h.Md5)
		respondWithYAML(w, http.StatusOK, content)
	}
}

func handleValidateConfig(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readConfigBody(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h, err := configStore.Parse(body)
		if err != nil {
			respondWithConfigError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "md5": h.Md5})
	}
}

func handlePutConfig(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		md5 := r.Header.Get(Md5Header)
		if md5 == "" {
			respondWithError(w, http.StatusPreconditionFailed, Md5Header+" header is required")
			return
		}
		body, err := readConfigBody(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, ip := caller(r)
		event := audit.ConfigUpdateEvent{User: user, ClientIP: ip, PreviousMd5: md5}

		cfg, err := cruiseconfig.ParseBytes(body)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithConfigError(w, err)
			return
		}

		h, err := configStore.Write(r.Context(), cfg, md5, user)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			if errors.Is(err, configfile.ErrConfigFileChanged) {
				respondWithError(w, http.StatusConflict, "Someone has modified the configuration. Please update your copy of the config with the changes and try again.")
				return
			}
			log.WithFields(log.Fields{"user": user}).WithError(err).Info("rejected config update")
			respondWithConfigError(w, err)
			return
		}

		event.Md5, event.Success = h.Md5, true
		audit.Log(event)

		w.Header().Set(Md5Header, h.Md5)
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"md5": h.Md5})
	}
}

func handleConfigGraph(configStore store.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := cruiseconfig.NewDependencyGraph(configStore.Current().Config).WriteDOT(&buf); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
