package cruiseconfig

import (
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

// ArtifactConfig is an output a job publishes.
type ArtifactConfig interface {
	Validatable
	ArtifactType() Kind
}

// BuiltinArtifactConfig publishes files to the server. Type is KindBuild or
// KindTest.
type BuiltinArtifactConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Type           Kind   `yaml:"-" json:"type"`
	Source         string `yaml:"source" json:"source"`
	Destination    string `yaml:"destination,omitempty" json:"destination,omitempty"`
}

func NewBuildArtifact(source, destination string) *BuiltinArtifactConfig {
	return &BuiltinArtifactConfig{Type: KindBuild, Source: source, Destination: destination}
}

func NewTestArtifact(source, destination string) *BuiltinArtifactConfig {
	return &BuiltinArtifactConfig{Type: KindTest, Source: source, Destination: destination}
}

func (a *BuiltinArtifactConfig) ArtifactType() Kind { return a.Type }

func (a *BuiltinArtifactConfig) Validate(ctx *ValidationContext) {
	if strings.TrimSpace(a.Source) == "" {
		a.AddError("source", fmt.Sprintf("Job '%s' has an artifact with an empty source", jobName(ctx)))
	}
	if a.Destination != "" && isOutsideWorkingDir(a.Destination) {
		a.AddError("destination", fmt.Sprintf("Invalid destination path '%s'. It must be relative to the artifacts directory of the job.", a.Destination))
	}
}

func (a *BuiltinArtifactConfig) sameAs(other *BuiltinArtifactConfig) bool {
	return a.Type == other.Type && a.Source == other.Source && a.Destination == other.Destination
}

// ExternalArtifactConfig publishes to an artifact store through a plugin.
type ExternalArtifactConfig struct {
	errorCollector `yaml:"-" json:"-"`
	ID             string        `yaml:"id" json:"id" param:"skip"`
	StoreID        string        `yaml:"store_id" json:"store_id"`
	Properties     Configuration `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func NewExternalArtifact(id, storeID string, properties ...*ConfigurationProperty) *ExternalArtifactConfig {
	return &ExternalArtifactConfig{ID: id, StoreID: storeID, Properties: properties}
}

func (a *ExternalArtifactConfig) ArtifactType() Kind { return KindExternal }

func (a *ExternalArtifactConfig) Validate(ctx *ValidationContext) {
	if strings.TrimSpace(a.ID) == "" {
		a.AddError("id", "\"Id\" is required for PluggableArtifact")
	} else if !IsNameValid(a.ID) {
		a.AddError("id", fmt.Sprintf("Invalid pluggable artifact id name '%s'. This must be alphanumeric and can contain underscores, hyphens and periods (however, it cannot start with a period). The maximum allowed length is %d characters.", a.ID, MaxNameLength))
	}
	a.Properties.validateUniqueKeys(fmt.Sprintf("Pluggable artifact '%s'", a.ID))

	if strings.TrimSpace(a.StoreID) == "" {
		a.AddError("store_id", "\"Store id\" is required for PluggableArtifact")
		return
	}
	if ctx.IsWithinTemplates() && ctx.Pipeline() == nil {
		return
	}
	store := ctx.ArtifactStores().Find(a.StoreID)
	if store == nil {
		kind, owner := ctx.ownerDescription()
		a.AddError("store_id", fmt.Sprintf("Artifact store with id `%s` does not exist. Please correct the `store_id` attribute on %s `%s`.", a.StoreID, kind, owner))
		return
	}
	if info := metadata.Artifacts().PluginInfo(store.PluginID); info != nil {
		a.Properties.validateAgainst(a, info.ArtifactSettings)
	}
}

// EncryptSecureProperties encrypts the properties the store plugin marks
// secure.
func (a *ExternalArtifactConfig) EncryptSecureProperties(c encryption.Cipher, stores ArtifactStores) error {
	store := stores.Find(a.StoreID)
	if store == nil {
		return nil
	}
	if info := metadata.Artifacts().PluginInfo(store.PluginID); info != nil {
		return a.Properties.encryptSecure(c, info.ArtifactSettings)
	}
	return nil
}

func artifactPluginFor(ctx *ValidationContext, storeID string) *metadata.ArtifactPluginInfo {
	store := ctx.ArtifactStores().Find(storeID)
	if store == nil {
		return nil
	}
	return metadata.Artifacts().PluginInfo(store.PluginID)
}

type ArtifactConfigs []ArtifactConfig

func (as ArtifactConfigs) External(id string) *ExternalArtifactConfig {
	for _, a := range as {
		if e, ok := a.(*ExternalArtifactConfig); ok && e.ID == id {
			return e
		}
	}
	return nil
}

func (as ArtifactConfigs) Externals() []*ExternalArtifactConfig {
	var out []*ExternalArtifactConfig
	for _, a := range as {
		if e, ok := a.(*ExternalArtifactConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (as ArtifactConfigs) Builtins() []*BuiltinArtifactConfig {
	var out []*BuiltinArtifactConfig
	for _, a := range as {
		if b, ok := a.(*BuiltinArtifactConfig); ok {
			out = append(out, b)
		}
	}
	return out
}

// validateUniqueness flags duplicated builtin artifacts on both entries.
func (as ArtifactConfigs) validateUniqueness() {
	builtins := as.Builtins()
	for i, a := range builtins {
		for _, b := range builtins[i+1:] {
			if a.sameAs(b) {
				a.AddError("source", "Duplicate artifacts defined.")
				b.AddError("source", "Duplicate artifacts defined.")
			}
		}
	}
}
