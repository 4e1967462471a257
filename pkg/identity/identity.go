package identity

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"

	// UserHeader carries the user name set by the authenticating proxy.
	UserHeader = "X-Cruise-User"

	Anonymous = "anonymous"
)

// Identity is the user a request acts for.
type Identity struct {
	User     string
	RemoteIP net.IP
}

// FromRequest reads the user from UserHeader, falling back to Anonymous.
func FromRequest(r *http.Request) *Identity {
	user := strings.TrimSpace(r.Header.Get(UserHeader))
	if user == "" {
		user = Anonymous
	}
	return &Identity{User: user, RemoteIP: ClientIP(r)}
}

func (i *Identity) IsAnonymous() bool {
	return i.User == Anonymous
}

// ClientIP returns the first X-Forwarded-For address, or the remote address
// of the connection.
func ClientIP(r *http.Request) net.IP {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}

// User returns the user stored in ctx, or Anonymous.
func User(ctx context.Context) string {
	if id, ok := Get(ctx); ok {
		return id.User
	}
	return Anonymous
}
