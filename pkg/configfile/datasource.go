// Package configfile loads, saves and watches the pipeline configuration
// file.
package configfile

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig/preprocessor"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

var ErrConfigFileChanged = errors.New("config file has been modified by someone else, please reload and try again")

// Holder is a loaded configuration.
type Holder struct {
	// Config is preprocessed and valid.
	Config *cruiseconfig.CruiseConfig
	// ConfigForEdit is the configuration as written, templates unexpanded.
	ConfigForEdit *cruiseconfig.CruiseConfig
	Md5           string
	Content       []byte
}

// Revision describes a configuration written by a DataSource.
type Revision struct {
	Md5           string
	Username      string
	SchemaVersion int
	Content       []byte
	Time          time.Time
}

type RevisionRecorder interface {
	RecordRevision(ctx context.Context, rev Revision) error
}

// Listener is told about every configuration the data source accepts.
type Listener interface {
	OnConfigChange(h *Holder)
}

type ListenerFunc func(h *Holder)

func (f ListenerFunc) OnConfigChange(h *Holder) { f(h) }

type Option func(*DataSource)

// WithCipher sets the cipher for secure values. Without one, configs
// holding plain secure values are rejected.
func WithCipher(c encryption.Cipher) Option {
	return func(ds *DataSource) { ds.cipher = c }
}

func WithRecorder(r RevisionRecorder) Option {
	return func(ds *DataSource) { ds.recorder = r }
}

// WithGlobalParams sets params visible to every pipeline.
func WithGlobalParams(params cruiseconfig.ParamsConfig) Option {
	return func(ds *DataSource) { ds.globals = params }
}

// DataSource owns one configuration file.
type DataSource struct {
	path     string
	cipher   encryption.Cipher
	globals  cruiseconfig.ParamsConfig
	recorder RevisionRecorder

	mu        sync.RWMutex
	current   *Holder
	listeners []Listener
}

func NewDataSource(path string, opts ...Option) *DataSource {
	ds := &DataSource{path: path}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

func (ds *DataSource) Path() string {
	return ds.path
}

// Current returns the last accepted configuration, or nil before the first
// successful Load.
func (ds *DataSource) Current() *Holder {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.current
}

func (ds *DataSource) AddListener(l Listener) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.listeners = append(ds.listeners, l)
}

// EnsureExists writes an empty configuration when the file is missing.
func (ds *DataSource) EnsureExists(artifactsDir string) error {
	if _, err := os.Stat(ds.path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg := cruiseconfig.NewCruiseConfig()
	cfg.Server.ArtifactsDir = artifactsDir
	content, err := cruiseconfig.Marshal(cfg)
	if err != nil {
		return err
	}
	log.WithField("path", ds.path).Info("creating empty config file")
	return writeAtomically(ds.path, content)
}

// Load reads, parses and validates the file and makes it current.
func (ds *DataSource) Load() (*Holder, error) {
	content, err := os.ReadFile(ds.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", ds.path, err)
	}
	h, err := ds.Parse(content)
	if err != nil {
		return nil, err
	}

	ds.mu.Lock()
	ds.current = h
	ds.mu.Unlock()

	log.WithFields(log.Fields{"path": ds.path, "md5": h.Md5}).Info("loaded config")
	return h, nil
}

// Parse builds a Holder from content without touching the file or the
// current configuration. Validation failures are *cruiseconfig.ValidationError.
func (ds *DataSource) Parse(content []byte) (*Holder, error) {
	cfg, err := cruiseconfig.ParseBytes(content)
	if err != nil {
		return nil, err
	}
	h, err := ds.process(cfg)
	if err != nil {
		return nil, err
	}
	h.Content, h.Md5 = content, Md5(content)
	return h, nil
}

// process encrypts secure values of cfg in place, then validates a
// preprocessed copy. Errors found on the copy are copied back onto cfg.
func (ds *DataSource) process(cfg *cruiseconfig.CruiseConfig) (*Holder, error) {
	if err := cfg.EncryptSecureProperties(ds.cipher); err != nil {
		return nil, fmt.Errorf("failed to encrypt secure properties: %w", err)
	}

	processed := cfg.Clone()
	if err := preprocessor.PreprocessAndValidate(processed, ds.globals); err != nil {
		processed.CopyErrorsTo(cfg)
		return nil, err
	}
	return &Holder{Config: processed, ConfigForEdit: cfg}, nil
}

// Write validates cfg and saves it. md5 must be the checksum of the
// configuration cfg was edited from.
func (ds *DataSource) Write(ctx context.Context, cfg *cruiseconfig.CruiseConfig, md5, user string) (*Holder, error) {
	h, listeners, err := ds.save(cfg, md5)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"path": ds.path, "md5": h.Md5, "user": user})
	logger.Info("saved config")
	if ds.recorder != nil {
		rev := Revision{Md5: h.Md5, Username: user, SchemaVersion: cfg.SchemaVersion, Content: h.Content, Time: time.Now().UTC()}
		if err := ds.recorder.RecordRevision(ctx, rev); err != nil {
			logger.WithError(err).Warn("failed to record config revision")
		}
	}
	notify(listeners, h)
	return h, nil
}

func (ds *DataSource) save(cfg *cruiseconfig.CruiseConfig, md5 string) (*Holder, []Listener, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.current != nil && ds.current.Md5 != md5 {
		return nil, nil, ErrConfigFileChanged
	}
	h, err := ds.process(cfg)
	if err != nil {
		return nil, nil, err
	}
	content, err := cruiseconfig.Marshal(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := writeAtomically(ds.path, content); err != nil {
		return nil, nil, err
	}
	h.Content, h.Md5 = content, Md5(content)
	ds.current = h
	return h, append([]Listener(nil), ds.listeners...), nil
}

// Watch reloads the file whenever it changes until ctx is done. A file that
// fails to load is logged and the last good configuration stays current.
func (ds *DataSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Saves replace the file, so the directory is watched.
	dir := filepath.Dir(ds.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	logger := log.WithField("path", ds.path)
	logger.Info("watching config file")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(ds.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				ds.reload(logger)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}

func (ds *DataSource) reload(logger *log.Entry) {
	content, err := os.ReadFile(ds.path)
	if err != nil {
		logger.WithError(err).Warn("failed to read config file")
		return
	}
	// Truncated by a save in progress.
	if len(content) == 0 {
		return
	}
	if current := ds.Current(); current != nil && current.Md5 == Md5(content) {
		return
	}
	h, err := ds.Load()
	if err != nil {
		logger.WithError(err).Error("keeping last good config")
		return
	}

	ds.mu.RLock()
	listeners := append([]Listener(nil), ds.listeners...)
	ds.mu.RUnlock()
	notify(listeners, h)
}

func notify(listeners []Listener, h *Holder) {
	for _, l := range listeners {
		l.OnConfigChange(h)
	}
}

// Md5 is the hex md5 checksum of content.
func Md5(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func writeAtomically(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
