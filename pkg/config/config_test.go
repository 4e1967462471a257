package config

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

var settingsEnv = []string{
	"CRUISE_CONFIG_FILE", "CRUISE_ARTIFACTS_DIR", "CRUISE_DATA_KEY_FILE", "CRUISE_LOG_LEVEL",
	"CRUISE_SITE_URL", "CRUISE_WATCH_CONFIG", "CRUISE_MAX_REVISIONS", "DATABASE_URL",
}

// isolate points CRUISE_CONFIG_PATH at an empty directory and blanks every
// settings variable.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CRUISE_CONFIG_PATH", dir)
	for _, env := range settingsEnv {
		t.Setenv(env, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigFile, s.ConfigFile)
	assert.Equal(t, DefaultArtifactsDir, s.ArtifactsDir)
	assert.True(t, s.WatchConfig)
	assert.Equal(t, DefaultMaxRevisions, s.MaxRevisions)
	assert.Equal(t, filepath.Join(dir, SettingsFileName), s.SettingsFilePath())
	for _, attr := range s.Attributes() {
		assert.Equal(t, SourceDefault, attr.Source, attr.Name)
	}
	assert.NoError(t, s.Validate())
}

func TestLoadSources(t *testing.T) {
	dir := isolate(t)
	file := "config_file: /srv/cruise.yml\nlog_level: debug\nwatch_config: false\nmax_revisions: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(file), 0o600))
	t.Setenv("CRUISE_LOG_LEVEL", "warn")
	t.Setenv("CRUISE_SITE_URL", "https://ci.example.com")

	s, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		value  string
		source string
	}{
		{name: "config_file", value: "/srv/cruise.yml", source: SourceFile},
		{name: "log_level", value: "warn", source: SourceEnvironment},
		{name: "site_url", value: "https://ci.example.com", source: SourceEnvironment},
		{name: "watch_config", value: "false", source: SourceFile},
		{name: "max_revisions", value: "0", source: SourceFile},
		{name: "artifacts_dir", value: DefaultArtifactsDir, source: SourceDefault},
	}

	attrs := map[string]Attribute{}
	for _, a := range s.Attributes() {
		attrs[a.Name] = a
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, attrs[tt.name].Value)
			assert.Equal(t, tt.source, attrs[tt.name].Source)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad file", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("max_revisions: [\n"), 0o600))
		_, err := Load()
		assert.ErrorContains(t, err, "failed to parse settings file")
	})

	t.Run("bad number", func(t *testing.T) {
		isolate(t)
		t.Setenv("CRUISE_MAX_REVISIONS", "many")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid CRUISE_MAX_REVISIONS")
	})

	t.Run("bad bool", func(t *testing.T) {
		isolate(t)
		t.Setenv("CRUISE_WATCH_CONFIG", "sometimes")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid CRUISE_WATCH_CONFIG")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		errMsg string
	}{
		{name: "defaults", modify: func(*Settings) {}},
		{name: "blank config file", modify: func(s *Settings) { s.ConfigFile = " " }, errMsg: "config_file cannot be blank"},
		{name: "log level", modify: func(s *Settings) { s.LogLevel = "loud" }, errMsg: "invalid log_level: loud"},
		{name: "site url scheme", modify: func(s *Settings) { s.SiteURL = "ftp://ci" }, errMsg: "invalid site_url: ftp://ci"},
		{name: "site url host", modify: func(s *Settings) { s.SiteURL = "https://" }, errMsg: "invalid site_url: https://"},
		{name: "revisions", modify: func(s *Settings) { s.MaxRevisions = -1 }, errMsg: "max_revisions cannot be negative: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newDefault()
			tt.modify(s)
			err := s.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.errMsg)
			}
		})
	}
}

func TestCipher(t *testing.T) {
	s := newDefault()
	c, err := s.Cipher()
	require.NoError(t, err)
	assert.Nil(t, c)

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	s.DataKeyFile = filepath.Join(t.TempDir(), "data.key")
	require.NoError(t, os.WriteFile(s.DataKeyFile, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0o600))

	c, err = s.Cipher()
	require.NoError(t, err)
	encrypted, err := c.Encrypt("secret")
	require.NoError(t, err)
	assert.True(t, encryption.IsEncrypted(encrypted))

	s.DataKeyFile = filepath.Join(t.TempDir(), "missing.key")
	_, err = s.Cipher()
	assert.ErrorContains(t, err, "failed to read data key file")
}

func TestFormat(t *testing.T) {
	s := newDefault()
	s.DatabaseURL = "postgres://user:pass@db/cruise"

	text := s.FormatText()
	assert.Contains(t, text, "NAME")
	assert.Contains(t, text, "(not set)")
	assert.NotContains(t, text, "pass@db")

	out, err := s.FormatJSON()
	require.NoError(t, err)
	var decoded struct {
		Attributes []Attribute `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Attributes, len(attributeNames()))
}

func TestGetAndReload(t *testing.T) {
	isolate(t)
	t.Setenv("CRUISE_ARTIFACTS_DIR", "first")
	require.NoError(t, Reload())
	assert.Equal(t, "first", Get().ArtifactsDir)

	t.Setenv("CRUISE_ARTIFACTS_DIR", "second")
	assert.Equal(t, "first", Get().ArtifactsDir)
	require.NoError(t, Reload())
	assert.Equal(t, "second", Get().ArtifactsDir)
}
