package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/identity"
)

const (
	Md5Header       = "X-Cruise-Config-Md5"
	yamlContentType = "application/x-yaml"

	maxConfigSize = 10 << 20
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithYAML(w http.ResponseWriter, code int, content []byte) {
	w.Header().Set("Content-Type", yamlContentType)
	w.WriteHeader(code)
	_, _ = w.Write(content)
}

// respondWithConfigError maps parse and validation failures to 400 and 422.
func respondWithConfigError(w http.ResponseWriter, err error) {
	var validationErr *cruiseconfig.ValidationError
	if errors.As(err, &validationErr) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "Validations failed.",
			"errors": validationErr.Messages(),
		})
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// caller returns the user and address a request comes from
func caller(r *http.Request) (user, ip string) {
	user = identity.User(r.Context())
	if addr := identity.ClientIP(r); addr != nil {
		ip = addr.String()
	}
	return user, ip
}

func readConfigBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxConfigSize {
		return nil, fmt.Errorf("configuration is larger than %d bytes", maxConfigSize)
	}
	return body, nil
}
