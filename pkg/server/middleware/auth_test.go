package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig/mother"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/identity"
)

func securedConfig() *cruiseconfig.CruiseConfig {
	cfg := mother.Secure(mother.Config(mother.Pipeline("up", "dist")), "root")
	group := cfg.FindGroup(mother.DefaultGroup)
	group.Authorization = &cruiseconfig.Authorization{Admins: cruiseconfig.NewPermission([]string{"gina"})}
	return cfg
}

func serve(h http.Handler, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/admin/config", nil)
	if user != "" {
		req.Header.Set(identity.UserHeader, user)
	}
	w := httptest.NewRecorder()
	Identify(h).ServeHTTP(w, req)
	return w
}

func TestIdentify(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identity.User(r.Context())
	})

	serve(h, "alice")
	assert.Equal(t, "alice", seen)
	serve(h, "")
	assert.Equal(t, identity.Anonymous, seen)
}

func TestAuthorizer(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		config     *cruiseconfig.CruiseConfig
		groupAdmin bool
		user       string
		expected   int
	}{
		{name: "security disabled", config: mother.Config(mother.Pipeline("up", "dist")), user: "anyone", expected: http.StatusNoContent},
		{name: "system admin", config: securedConfig(), user: "root", expected: http.StatusNoContent},
		{name: "not admin", config: securedConfig(), user: "gina", expected: http.StatusForbidden},
		{name: "anonymous", config: securedConfig(), expected: http.StatusForbidden},
		{name: "group admin allowed", config: securedConfig(), groupAdmin: true, user: "gina", expected: http.StatusNoContent},
		{name: "group admin rejects others", config: securedConfig(), groupAdmin: true, user: "mallory", expected: http.StatusForbidden},
		{name: "no config", user: "root", expected: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			a := NewAuthorizer(func() *cruiseconfig.CruiseConfig { return cfg })
			h := a.RequireAdmin(ok)
			if tt.groupAdmin {
				h = a.RequireGroupAdmin(ok)
			}

			w := serve(h, tt.user)
			assert.Equal(t, tt.expected, w.Code)
			if tt.expected != http.StatusNoContent {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}
