package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/endpoints"
)

// instanceCounter gives every server its own config directory
var instanceCounter int32

// TestContext holds what is shared by all scenarios
type TestContext struct {
	Dir        string
	DataKey    []byte
	Cipher     encryption.Cipher
	HTTPClient *http.Client
}

// NewTestContext creates a context whose servers keep their files under dir
func NewTestContext(dir string) (*TestContext, error) {
	key, err := encryption.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	cipher, err := encryption.NewAESCipher(key)
	if err != nil {
		return nil, err
	}
	return &TestContext{
		Dir:        dir,
		DataKey:    key,
		Cipher:     cipher,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// ServerInstance is a running server for a single scenario
type ServerInstance struct {
	Server     *server.Server
	DataSource *configfile.DataSource
	ServerURL  string
	ConfigPath string
	listener   net.Listener
}

// StartServer writes content to a fresh config file and serves it. Empty
// content starts the server with a new empty configuration.
func StartServer(tc *TestContext, content []byte) (*ServerInstance, error) {
	dir := filepath.Join(tc.Dir, fmt.Sprintf("server-%d", atomic.AddInt32(&instanceCounter, 1)))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "cruise-config.yml")
	if len(content) > 0 {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return nil, err
		}
	}

	ds := configfile.NewDataSource(path, configfile.WithCipher(tc.Cipher))
	if err := ds.EnsureExists("artifacts"); err != nil {
		return nil, err
	}
	if _, err := ds.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := server.NewServer(ds, nil, nil, "127.0.0.1", "0")
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	instance := &ServerInstance{
		Server:     s,
		DataSource: ds,
		ServerURL:  "http://" + listener.Addr().String(),
		ConfigPath: path,
		listener:   listener,
	}

	go func() {
		_ = s.StartWithListener(listener)
	}()

	if err := waitForServer(tc.HTTPClient, instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// Stop shuts the server down
func (si *ServerInstance) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = si.Server.Shutdown(ctx)
	_ = si.listener.Close()
}

// waitForServer polls the status endpoint until it answers or times out
func waitForServer(client *http.Client, serverURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/api/status")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 500 {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready after %s", serverURL, timeout)
}
