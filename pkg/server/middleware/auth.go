package middleware

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/audit"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/identity"
)

// ConfigFunc returns the configuration permissions are checked against, or
// nil when none is loaded.
type ConfigFunc func() *cruiseconfig.CruiseConfig

// Identify stores the request's identity in its context.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromRequest(r)
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// Authorizer checks requests against the security section of the current
// configuration.
type Authorizer struct {
	Config ConfigFunc
}

func NewAuthorizer(config ConfigFunc) *Authorizer {
	return &Authorizer{Config: config}
}

// RequireAdmin only lets system administrators through. Without security
// every user is an administrator.
func (a *Authorizer) RequireAdmin(next http.Handler) http.Handler {
	return a.require(func(cfg *cruiseconfig.CruiseConfig, user string) bool {
		return cfg.IsAdministrator(user)
	}, next)
}

// RequireGroupAdmin lets system administrators and administrators of any
// pipeline group through.
func (a *Authorizer) RequireGroupAdmin(next http.Handler) http.Handler {
	return a.require(func(cfg *cruiseconfig.CruiseConfig, user string) bool {
		return cfg.IsAdministrator(user) || cfg.IsGroupAdministrator(user)
	}, next)
}

func (a *Authorizer) require(allowed func(cfg *cruiseconfig.CruiseConfig, user string) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := a.Config()
		if cfg == nil {
			writeError(w, http.StatusServiceUnavailable, "configuration is not loaded")
			return
		}
		user := identity.User(r.Context())
		if !allowed(cfg, user) {
			log.WithFields(log.Fields{"user": user, "path": r.URL.Path}).Warn("forbidden")
			audit.Log(audit.AccessDeniedEvent{
				User:      user,
				ClientIP:  clientIP(r),
				Operation: r.Method,
				Resource:  r.URL.Path,
			})
			writeError(w, http.StatusForbidden, "You are not authorized to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := identity.ClientIP(r); ip != nil {
		return ip.String()
	}
	return ""
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
