package configfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig/mother"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

type fakeRecorder struct {
	revisions []Revision
	err       error
}

func (r *fakeRecorder) RecordRevision(_ context.Context, rev Revision) error {
	r.revisions = append(r.revisions, rev)
	return r.err
}

func writeConfig(t *testing.T, path string, cfg *cruiseconfig.CruiseConfig) []byte {
	t.Helper()
	content, err := cruiseconfig.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return content
}

func configPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "cruise-config.yml")
}

func testCipher(t *testing.T) encryption.Cipher {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := encryption.NewAESCipher(key)
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	path := configPath(t)
	content := writeConfig(t, path, mother.Chain("up", "down"))
	ds := NewDataSource(path)
	assert.Nil(t, ds.Current())

	h, err := ds.Load()
	require.NoError(t, err)

	assert.Equal(t, Md5(content), h.Md5)
	assert.Equal(t, content, h.Content)
	assert.True(t, h.Config.HasPipelineNamed("down"))
	assert.Same(t, h, ds.Current())
}

func TestLoadExpandsTemplatesOnlyInProcessedConfig(t *testing.T) {
	path := configPath(t)
	tmpl := mother.Template("base", cruiseconfig.NewStageConfig("dist", cruiseconfig.NewJobConfig("build", cruiseconfig.NewExecTask("#{tool}"))))
	cfg := mother.ConfigWithTemplates(cruiseconfig.TemplatesConfig{tmpl},
		mother.TemplatedPipeline("up", "base", cruiseconfig.NewParam("tool", "make")))
	writeConfig(t, path, cfg)

	h, err := NewDataSource(path).Load()
	require.NoError(t, err)

	processed := h.Config.PipelineByName("up")
	require.Len(t, processed.Stages, 1)
	assert.Equal(t, "make", processed.Stages[0].Jobs[0].TaskList[0].(*cruiseconfig.ExecTask).Command)
	assert.Empty(t, h.ConfigForEdit.PipelineByName("up").Stages)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewDataSource(configPath(t)).Load()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid config keeps nothing current", func(t *testing.T) {
		path := configPath(t)
		writeConfig(t, path, mother.Config(mother.Pipeline("up")))
		ds := NewDataSource(path)

		_, err := ds.Load()

		var validationErr *cruiseconfig.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Messages(), "Pipeline 'up' does not have any stages configured. A pipeline must have at least one stage.")
		assert.Nil(t, ds.Current())
	})

	t.Run("secure value without cipher", func(t *testing.T) {
		path := configPath(t)
		p := mother.Pipeline("up", "dist")
		p.EnvironmentVariables = cruiseconfig.EnvironmentVariablesConfig{cruiseconfig.NewSecureEnvironmentVariable("TOKEN", "t")}
		writeConfig(t, path, mother.Config(p))

		_, err := NewDataSource(path).Load()
		assert.ErrorIs(t, err, encryption.ErrNoCipherDefined)

		h, err := NewDataSource(path, WithCipher(testCipher(t))).Load()
		require.NoError(t, err)
		token := h.ConfigForEdit.PipelineByName("up").EnvironmentVariables.Get("TOKEN")
		assert.True(t, encryption.IsEncrypted(token.EncryptedValue))
	})
}

func TestGlobalParams(t *testing.T) {
	path := configPath(t)
	p := mother.Pipeline("up", "dist")
	p.Stages[0].Jobs[0].TaskList = cruiseconfig.Tasks{cruiseconfig.NewExecTask("#{tool}")}
	writeConfig(t, path, mother.Config(p))

	_, err := NewDataSource(path).Load()
	assert.ErrorContains(t, err, cruiseconfig.UndefinedParamError("tool"))

	h, err := NewDataSource(path, WithGlobalParams(cruiseconfig.ParamsConfig{cruiseconfig.NewParam("tool", "make")})).Load()
	require.NoError(t, err)
	assert.Equal(t, "make", h.Config.PipelineByName("up").Stages[0].Jobs[0].TaskList[0].(*cruiseconfig.ExecTask).Command)
}

func TestWrite(t *testing.T) {
	path := configPath(t)
	writeConfig(t, path, mother.Config(mother.Pipeline("up", "dist")))
	recorder := &fakeRecorder{}
	ds := NewDataSource(path, WithRecorder(recorder))
	var notified []*Holder
	ds.AddListener(ListenerFunc(func(h *Holder) { notified = append(notified, h) }))

	loaded, err := ds.Load()
	require.NoError(t, err)
	edit := loaded.ConfigForEdit
	require.NoError(t, edit.AddPipeline("other", mother.DependentPipeline("down", "up", "dist", "test")))

	t.Run("stale md5", func(t *testing.T) {
		_, err := ds.Write(context.Background(), edit, "stale", "alice")
		assert.ErrorIs(t, err, ErrConfigFileChanged)
		assert.Empty(t, recorder.revisions)
	})

	t.Run("saves, records and notifies", func(t *testing.T) {
		h, err := ds.Write(context.Background(), edit, loaded.Md5, "alice")
		require.NoError(t, err)

		onDisk, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Md5(onDisk), h.Md5)
		assert.NotEqual(t, loaded.Md5, h.Md5)
		assert.Same(t, h, ds.Current())

		require.Len(t, recorder.revisions, 1)
		assert.Equal(t, "alice", recorder.revisions[0].Username)
		assert.Equal(t, h.Md5, recorder.revisions[0].Md5)
		assert.Equal(t, cruiseconfig.CurrentSchemaVersion, recorder.revisions[0].SchemaVersion)
		require.Len(t, notified, 1)
		assert.True(t, notified[0].Config.HasPipelineNamed("down"))
	})

	t.Run("invalid config is not saved", func(t *testing.T) {
		current := ds.Current()
		broken := current.ConfigForEdit.Clone()
		require.NoError(t, broken.AddPipeline("other", mother.Pipeline("empty")))

		_, err := ds.Write(context.Background(), broken, current.Md5, "bob")

		var validationErr *cruiseconfig.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.NotEmpty(t, broken.PipelineByName("empty").Errors().On("pipeline"))
		onDisk, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, current.Md5, Md5(onDisk))
	})

	t.Run("recorder failures do not fail the save", func(t *testing.T) {
		recorder.err = errors.New("database down")
		current := ds.Current()

		_, err := ds.Write(context.Background(), current.ConfigForEdit, current.Md5, "carol")
		assert.NoError(t, err)
	})
}

func TestEnsureExists(t *testing.T) {
	path := configPath(t)
	ds := NewDataSource(path)

	require.NoError(t, ds.EnsureExists("/var/artifacts"))
	h, err := ds.Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/artifacts", h.Config.Server.ArtifactsDir)

	require.NoError(t, ds.EnsureExists("elsewhere"))
	h, err = ds.Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/artifacts", h.Config.Server.ArtifactsDir)
}

func TestWatch(t *testing.T) {
	path := configPath(t)
	writeConfig(t, path, mother.Config(mother.Pipeline("up", "dist")))
	ds := NewDataSource(path)
	_, err := ds.Load()
	require.NoError(t, err)

	changes := make(chan *Holder, 10)
	ds.AddListener(ListenerFunc(func(h *Holder) { changes <- h }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ds.Watch(ctx) }()

	updated, err := cruiseconfig.Marshal(mother.Chain("up", "down"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, updated, 0o600)
		for {
			select {
			case h := <-changes:
				if h.Config.HasPipelineNamed("down") {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 50*time.Millisecond)

	good := ds.Current().Md5
	require.NoError(t, os.WriteFile(path, []byte("pipeline_groups: [\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, good, ds.Current().Md5)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
