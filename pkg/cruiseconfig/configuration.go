package cruiseconfig

import (
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

// ConfigurationProperty is a key/value pair handed to a plugin.
type ConfigurationProperty struct {
	errorCollector `yaml:"-" json:"-"`
	Key            string `yaml:"key" json:"key" param:"skip"`
	Value          string `yaml:"value,omitempty" json:"value,omitempty"`
	EncryptedValue string `yaml:"encrypted_value,omitempty" json:"encrypted_value,omitempty" param:"skip"`
}

func NewConfigurationProperty(key, value string) *ConfigurationProperty {
	return &ConfigurationProperty{Key: key, Value: value}
}

func (p *ConfigurationProperty) Validate(_ *ValidationContext) {
	if strings.TrimSpace(p.Key) == "" {
		p.AddError("key", "Configuration key cannot be blank.")
	}
	if p.Value != "" && p.EncryptedValue != "" {
		p.AddError("value", "You may only specify `value` or `encrypted_value`, not both!")
		p.AddError("encrypted_value", "You may only specify `value` or `encrypted_value`, not both!")
	}
}

func (p *ConfigurationProperty) IsSecure() bool {
	return p.EncryptedValue != ""
}

// DisplayValue masks secure values.
func (p *ConfigurationProperty) DisplayValue() string {
	if p.IsSecure() {
		return "****"
	}
	return p.Value
}

// ResolvedValue returns the plain text value, decrypting when needed.
func (p *ConfigurationProperty) ResolvedValue(c encryption.Cipher) (string, error) {
	if !p.IsSecure() {
		return p.Value, nil
	}
	if c == nil {
		return "", encryption.ErrNoCipherDefined
	}
	return c.Decrypt(p.EncryptedValue)
}

func (p *ConfigurationProperty) encrypt(c encryption.Cipher) error {
	if p.Value == "" || p.EncryptedValue != "" {
		return nil
	}
	if c == nil {
		return encryption.ErrNoCipherDefined
	}
	encrypted, err := c.Encrypt(p.Value)
	if err != nil {
		return fmt.Errorf("failed to encrypt property %q: %w", p.Key, err)
	}
	p.EncryptedValue = encrypted
	p.Value = ""
	return nil
}

type Configuration []*ConfigurationProperty

func (c Configuration) Get(key string) *ConfigurationProperty {
	for _, p := range c {
		if p.Key == key {
			return p
		}
	}
	return nil
}

func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, p := range c {
		keys = append(keys, p.Key)
	}
	return keys
}

// validateUniqueKeys marks every property sharing a key with another one.
func (c Configuration) validateUniqueKeys(entity string) {
	seen := map[string]*ConfigurationProperty{}
	for _, p := range c {
		if other, ok := seen[p.Key]; ok {
			msg := fmt.Sprintf("Duplicate key '%s' found for %s", p.Key, entity)
			other.AddError("key", msg)
			p.AddError("key", msg)
			continue
		}
		seen[p.Key] = p
	}
}

// validateAgainst checks the properties against the settings a plugin
// declares. owner receives errors for missing required keys.
func (c Configuration) validateAgainst(owner Validatable, settings metadata.PluginSettings) {
	for _, key := range settings.RequiredKeys() {
		p := c.Get(key)
		if p == nil || (p.Value == "" && p.EncryptedValue == "") {
			owner.AddError("properties", fmt.Sprintf("%s must not be blank.", key))
		}
	}
}

// encryptSecure encrypts properties whose key the plugin marks secure.
func (c Configuration) encryptSecure(cipher encryption.Cipher, settings metadata.PluginSettings) error {
	for _, p := range c {
		if !settings.IsSecure(p.Key) {
			continue
		}
		if err := p.encrypt(cipher); err != nil {
			return err
		}
	}
	return nil
}

// ArtifactStore points external artifacts at a storage plugin.
type ArtifactStore struct {
	errorCollector `yaml:"-" json:"-"`
	ID             string        `yaml:"id" json:"id" param:"skip"`
	PluginID       string        `yaml:"plugin_id" json:"plugin_id" param:"skip"`
	Properties     Configuration `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func (s *ArtifactStore) Validate(_ *ValidationContext) {
	validatePluginProfile(s, "artifact store", s.ID, s.PluginID)
	s.Properties.validateUniqueKeys(fmt.Sprintf("Artifact store '%s'", s.ID))
	if info := metadata.Artifacts().PluginInfo(s.PluginID); info != nil {
		s.Properties.validateAgainst(s, info.StoreSettings)
	}
}

func (s *ArtifactStore) EncryptSecureProperties(c encryption.Cipher) error {
	if info := metadata.Artifacts().PluginInfo(s.PluginID); info != nil {
		return s.Properties.encryptSecure(c, info.StoreSettings)
	}
	return nil
}

type ArtifactStores []*ArtifactStore

func (s ArtifactStores) Find(id string) *ArtifactStore {
	for _, store := range s {
		if store.ID == id {
			return store
		}
	}
	return nil
}

// ElasticProfile describes the agents an elastic agent plugin should start.
type ElasticProfile struct {
	errorCollector `yaml:"-" json:"-"`
	ID             string        `yaml:"id" json:"id" param:"skip"`
	PluginID       string        `yaml:"plugin_id" json:"plugin_id" param:"skip"`
	Properties     Configuration `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func (p *ElasticProfile) Validate(_ *ValidationContext) {
	validatePluginProfile(p, "elastic agent profile", p.ID, p.PluginID)
	p.Properties.validateUniqueKeys(fmt.Sprintf("Elastic agent profile '%s'", p.ID))
}

type ElasticProfiles []*ElasticProfile

func (p ElasticProfiles) Find(id string) *ElasticProfile {
	for _, profile := range p {
		if profile.ID == id {
			return profile
		}
	}
	return nil
}

// SecurityAuthConfig configures an authorization plugin.
type SecurityAuthConfig struct {
	errorCollector `yaml:"-" json:"-"`
	ID             string        `yaml:"id" json:"id" param:"skip"`
	PluginID       string        `yaml:"plugin_id" json:"plugin_id" param:"skip"`
	Properties     Configuration `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func (a *SecurityAuthConfig) Validate(_ *ValidationContext) {
	validatePluginProfile(a, "security auth config", a.ID, a.PluginID)
	a.Properties.validateUniqueKeys(fmt.Sprintf("Security auth config '%s'", a.ID))
	if info := metadata.Authorizations().PluginInfo(a.PluginID); info != nil {
		a.Properties.validateAgainst(a, info.AuthConfigSettings)
	}
}

func (a *SecurityAuthConfig) EncryptSecureProperties(c encryption.Cipher) error {
	if info := metadata.Authorizations().PluginInfo(a.PluginID); info != nil {
		return a.Properties.encryptSecure(c, info.AuthConfigSettings)
	}
	return nil
}

type SecurityAuthConfigs []*SecurityAuthConfig

func (a SecurityAuthConfigs) Find(id string) *SecurityAuthConfig {
	for _, cfg := range a {
		if cfg.ID == id {
			return cfg
		}
	}
	return nil
}

func validatePluginProfile(v Validatable, kind, id, pluginID string) {
	if strings.TrimSpace(id) == "" {
		v.AddError("id", fmt.Sprintf("%s cannot have a blank id.", capitalize(kind)))
	} else if !IsNameValid(id) {
		v.AddError("id", fmt.Sprintf("Invalid id '%s'. This must be alphanumeric and can contain underscores, hyphens and periods (however, it cannot start with a period). The maximum allowed length is %d characters.", id, MaxNameLength))
	}
	if strings.TrimSpace(pluginID) == "" {
		v.AddError("plugin_id", fmt.Sprintf("%s cannot have a blank plugin id.", capitalize(kind)))
	}
}

// validateUniqueIDs reports every profile sharing an id with another one.
func validateUniqueIDs[T Validatable](items []T, id func(T) string, kind string) {
	seen := map[string]T{}
	for _, item := range items {
		key := strings.ToLower(id(item))
		if key == "" {
			continue
		}
		if other, ok := seen[key]; ok {
			msg := fmt.Sprintf("%s id '%s' is not unique", capitalize(kind), id(item))
			other.AddError("id", msg)
			item.AddError("id", msg)
			continue
		}
		seen[key] = item
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
