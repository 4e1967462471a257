package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

const (
	DefaultConfigPath = "/etc/cruise/config"
	SettingsFileName  = "cruise.yml"

	DefaultConfigFile   = "/etc/cruise/cruise-config.yml"
	DefaultArtifactsDir = "artifacts"
	DefaultLogLevel     = "info"
	DefaultMaxRevisions = 100

	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

// Settings holds the server settings. They describe where the pipeline
// configuration lives and how the server treats it, not the pipeline
// configuration itself.
type Settings struct {
	// ConfigFile is the path of the pipeline configuration file
	ConfigFile string `yaml:"config_file" json:"config_file"`

	// ArtifactsDir is the default artifacts directory for new configs
	ArtifactsDir string `yaml:"artifacts_dir" json:"artifacts_dir"`

	// DataKeyFile holds the base64 AES key used for secure values
	DataKeyFile string `yaml:"data_key_file" json:"data_key_file"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// SiteURL is the public base URL of the server
	SiteURL string `yaml:"site_url" json:"site_url"`

	// WatchConfig reloads the pipeline configuration when the file changes
	WatchConfig bool `yaml:"watch_config" json:"watch_config"`

	// MaxRevisions is how many config revisions are kept, 0 keeps all
	MaxRevisions int `yaml:"max_revisions" json:"max_revisions"`

	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// sources tracks where each value came from
	sources map[string]string

	settingsFilePath string
}

// Attribute is a setting with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

var (
	globalSettings *Settings
	settingsMu     sync.RWMutex
)

// Get returns the global settings, loading them if necessary
func Get() *Settings {
	settingsMu.RLock()
	if globalSettings != nil {
		settingsMu.RUnlock()
		return globalSettings
	}
	settingsMu.RUnlock()

	settingsMu.Lock()
	defer settingsMu.Unlock()

	if globalSettings == nil {
		s, err := Load()
		if err != nil {
			log.WithError(err).Warn("using default settings")
			globalSettings = newDefault()
		} else {
			globalSettings = s
		}
	}
	return globalSettings
}

// Reload reloads the settings from file and environment
func Reload() error {
	s, err := Load()
	if err != nil {
		return err
	}

	settingsMu.Lock()
	globalSettings = s
	settingsMu.Unlock()
	return nil
}

func newDefault() *Settings {
	return &Settings{
		ConfigFile:   DefaultConfigFile,
		ArtifactsDir: DefaultArtifactsDir,
		LogLevel:     DefaultLogLevel,
		WatchConfig:  true,
		MaxRevisions: DefaultMaxRevisions,
		sources:      make(map[string]string),
	}
}

// Load loads settings from cruise.yml and environment variables.
// Environment variables take precedence over file values.
func Load() (*Settings, error) {
	s := newDefault()
	for _, name := range attributeNames() {
		s.sources[name] = SourceDefault
	}

	settingsPath := os.Getenv("CRUISE_CONFIG_PATH")
	if settingsPath == "" {
		settingsPath = DefaultConfigPath
	}
	s.settingsFilePath = filepath.Join(settingsPath, SettingsFileName)

	if data, err := os.ReadFile(s.settingsFilePath); err == nil {
		var file fileSettings
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", s.settingsFilePath, err)
		}
		s.applyFileSettings(&file)
	}

	if err := s.applyEnvSettings(); err != nil {
		return nil, err
	}
	return s, nil
}

// fileSettings distinguishes absent booleans and numbers from zero values.
type fileSettings struct {
	ConfigFile   string `yaml:"config_file"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	DataKeyFile  string `yaml:"data_key_file"`
	LogLevel     string `yaml:"log_level"`
	SiteURL      string `yaml:"site_url"`
	WatchConfig  *bool  `yaml:"watch_config"`
	MaxRevisions *int   `yaml:"max_revisions"`
	DatabaseURL  string `yaml:"database_url"`
}

func attributeNames() []string {
	return []string{
		"config_file", "artifacts_dir", "data_key_file", "log_level",
		"site_url", "watch_config", "max_revisions", "database_url",
	}
}

func (s *Settings) applyFileSettings(file *fileSettings) {
	setString := func(name string, target *string, value string) {
		if value != "" {
			*target = value
			s.sources[name] = SourceFile
		}
	}
	setString("config_file", &s.ConfigFile, file.ConfigFile)
	setString("artifacts_dir", &s.ArtifactsDir, file.ArtifactsDir)
	setString("data_key_file", &s.DataKeyFile, file.DataKeyFile)
	setString("log_level", &s.LogLevel, file.LogLevel)
	setString("site_url", &s.SiteURL, file.SiteURL)
	setString("database_url", &s.DatabaseURL, file.DatabaseURL)
	if file.WatchConfig != nil {
		s.WatchConfig = *file.WatchConfig
		s.sources["watch_config"] = SourceFile
	}
	if file.MaxRevisions != nil {
		s.MaxRevisions = *file.MaxRevisions
		s.sources["max_revisions"] = SourceFile
	}
}

func (s *Settings) applyEnvSettings() error {
	setString := func(name, env string, target *string) {
		if val := os.Getenv(env); val != "" {
			*target = val
			s.sources[name] = SourceEnvironment
		}
	}
	setString("config_file", "CRUISE_CONFIG_FILE", &s.ConfigFile)
	setString("artifacts_dir", "CRUISE_ARTIFACTS_DIR", &s.ArtifactsDir)
	setString("data_key_file", "CRUISE_DATA_KEY_FILE", &s.DataKeyFile)
	setString("log_level", "CRUISE_LOG_LEVEL", &s.LogLevel)
	setString("site_url", "CRUISE_SITE_URL", &s.SiteURL)
	setString("database_url", "DATABASE_URL", &s.DatabaseURL)

	if val := os.Getenv("CRUISE_WATCH_CONFIG"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid CRUISE_WATCH_CONFIG %q: %w", val, err)
		}
		s.WatchConfig = b
		s.sources["watch_config"] = SourceEnvironment
	}
	if val := os.Getenv("CRUISE_MAX_REVISIONS"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid CRUISE_MAX_REVISIONS %q: %w", val, err)
		}
		s.MaxRevisions = i
		s.sources["max_revisions"] = SourceEnvironment
	}
	return nil
}

// SettingsFilePath returns the path of cruise.yml
func (s *Settings) SettingsFilePath() string {
	return s.settingsFilePath
}

// Source returns the source of a setting
func (s *Settings) Source(name string) string {
	if src, ok := s.sources[name]; ok {
		return src
	}
	return SourceDefault
}

// Level parses LogLevel
func (s *Settings) Level() (log.Level, error) {
	return log.ParseLevel(s.LogLevel)
}

// Cipher returns the cipher for secure values, or nil when no data key file
// is set.
func (s *Settings) Cipher() (encryption.Cipher, error) {
	if s.DataKeyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.DataKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read data key file: %w", err)
	}
	c, err := encryption.NewAESCipherFromBase64(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid data key in %s: %w", s.DataKeyFile, err)
	}
	return c, nil
}

// Validate validates the settings
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.ConfigFile) == "" {
		return fmt.Errorf("config_file cannot be blank")
	}
	if _, err := s.Level(); err != nil {
		return fmt.Errorf("invalid log_level: %s", s.LogLevel)
	}
	if s.SiteURL != "" {
		u, err := url.Parse(s.SiteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid site_url: %s", s.SiteURL)
		}
	}
	if s.MaxRevisions < 0 {
		return fmt.Errorf("max_revisions cannot be negative: %d", s.MaxRevisions)
	}
	return nil
}

// Attributes returns every setting with its value and source
func (s *Settings) Attributes() []Attribute {
	databaseURL := ""
	if s.DatabaseURL != "" {
		databaseURL = "(set)"
	}
	return []Attribute{
		{Name: "config_file", Value: s.ConfigFile, Source: s.Source("config_file")},
		{Name: "artifacts_dir", Value: s.ArtifactsDir, Source: s.Source("artifacts_dir")},
		{Name: "data_key_file", Value: s.DataKeyFile, Source: s.Source("data_key_file")},
		{Name: "log_level", Value: s.LogLevel, Source: s.Source("log_level")},
		{Name: "site_url", Value: s.SiteURL, Source: s.Source("site_url")},
		{Name: "watch_config", Value: strconv.FormatBool(s.WatchConfig), Source: s.Source("watch_config")},
		{Name: "max_revisions", Value: strconv.Itoa(s.MaxRevisions), Source: s.Source("max_revisions")},
		{Name: "database_url", Value: databaseURL, Source: s.Source("database_url")},
	}
}

// FormatText returns a table of the settings
func (s *Settings) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Settings file: %s\n\n", s.settingsFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range s.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the settings
func (s *Settings) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"settings_file": s.settingsFilePath,
		"attributes":    s.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
