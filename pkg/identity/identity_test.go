package identity

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		forwarded string
		remote    string
		expected  *Identity
	}{
		{
			name:     "named user",
			user:     " alice ",
			remote:   "10.0.0.1:5555",
			expected: &Identity{User: "alice", RemoteIP: net.ParseIP("10.0.0.1")},
		},
		{
			name:     "anonymous",
			remote:   "10.0.0.1:5555",
			expected: &Identity{User: Anonymous, RemoteIP: net.ParseIP("10.0.0.1")},
		},
		{
			name:      "forwarded",
			user:      "bob",
			forwarded: "192.168.1.7, 10.0.0.2",
			remote:    "10.0.0.1:5555",
			expected:  &Identity{User: "bob", RemoteIP: net.ParseIP("192.168.1.7")},
		},
		{
			name:      "bad forwarded header",
			user:      "bob",
			forwarded: "unknown",
			remote:    "10.0.0.1",
			expected:  &Identity{User: "bob", RemoteIP: net.ParseIP("10.0.0.1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.user != "" {
				r.Header.Set(UserHeader, tt.user)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			id := FromRequest(r)
			assert.Equal(t, tt.expected.User, id.User)
			assert.True(t, tt.expected.RemoteIP.Equal(id.RemoteIP))
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	_, ok := Get(ctx)
	assert.False(t, ok)
	assert.Equal(t, Anonymous, User(ctx))

	ctx = Set(ctx, &Identity{User: "alice"})
	id, ok := Get(ctx)
	require.True(t, ok)
	assert.False(t, id.IsAnonymous())
	assert.Equal(t, "alice", User(ctx))
}
