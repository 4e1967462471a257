package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

// StatusResponse represents the response from /api/status
type StatusResponse struct {
	Status    string `json:"status"`
	ConfigMd5 string `json:"config_md5,omitempty"`
	Database  string `json:"database"`
}

// RegisterStatusEndpoints registers the status endpoint
func RegisterStatusEndpoints(s *server.Server) {
	// GET /api/status - no authorization required
	s.Router.HandleFunc("/api/status", handleStatus(s.ConfigStore, s.HealthStore)).Methods("GET")
}

func handleStatus(configStore store.ConfigStore, healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{Status: "ok", Database: "disabled"}
		code := http.StatusOK

		if h := configStore.Current(); h != nil {
			response.ConfigMd5 = h.Md5
		} else {
			response.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		if healthStore != nil {
			response.Database = "ok"
			if err := healthStore.CheckConnectivity(r.Context()); err != nil {
				response.Database = "unavailable"
				response.Status = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}

		respondWithJSON(w, code, response)
	}
}
