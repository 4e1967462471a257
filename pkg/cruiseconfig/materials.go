package cruiseconfig

import (
	"fmt"
	"strings"
)

// MaterialConfig is a source of changes that triggers a pipeline.
type MaterialConfig interface {
	Validatable
	MaterialName() CaseInsensitiveString
	Kind() Kind
}

// GitMaterialConfig polls a git repository.
type GitMaterialConfig struct {
	errorCollector `yaml:"-" json:"-"`
	URL            string                `yaml:"url" json:"url"`
	Branch         string                `yaml:"branch,omitempty" json:"branch,omitempty"`
	Name           CaseInsensitiveString `yaml:"name,omitempty" json:"name,omitempty" param:"skip"`
	Folder         string                `yaml:"folder,omitempty" json:"folder,omitempty"`
	AutoUpdate     bool                  `yaml:"auto_update" json:"auto_update"`
}

func NewGitMaterial(url string) *GitMaterialConfig {
	return &GitMaterialConfig{URL: url, Branch: "master", AutoUpdate: true}
}

func (m *GitMaterialConfig) Kind() Kind { return KindGit }

func (m *GitMaterialConfig) MaterialName() CaseInsensitiveString { return m.Name }

func (m *GitMaterialConfig) Validate(ctx *ValidationContext) {
	if strings.TrimSpace(m.URL) == "" {
		m.AddError("url", "URL cannot be blank")
	}
	if !m.Name.IsBlank() && !IsNameValid(m.Name.String()) {
		m.AddError("name", NameErrorMessage("material", m.Name.String()))
	}
	if m.Folder != "" && isOutsideWorkingDir(m.Folder) {
		m.AddError("folder", fmt.Sprintf("Dest folder '%s' is not valid. It must be a sub-directory of the working folder.", m.Folder))
	}
	m.validateSecretParams(ctx)
}

func (m *GitMaterialConfig) validateSecretParams(ctx *ValidationContext) {
	params := ParseSecretParams(m.URL)
	if !params.HasSecretParams() || ctx.IsWithinTemplates() {
		return
	}
	configs := ctx.SecretConfigs()
	var missing []string
	for _, id := range params.ConfigIDs() {
		if configs.Find(id) == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		m.AddError("url", fmt.Sprintf("Secret config with ids `%s` does not exist.", strings.Join(missing, ", ")))
		return
	}
	group := ctx.PipelineGroup()
	if group == nil {
		return
	}
	for _, id := range params.ConfigIDs() {
		if !configs.Find(id).CanRefer(RuleTypePipelineGroup, group.Name) {
			m.AddError("url", fmt.Sprintf("Secret config with ids `%s` is not allowed to use in pipeline group `%s`.", id, group.Name))
		}
	}
}

// DisplayURL masks secret references in the url.
func (m *GitMaterialConfig) DisplayURL() string {
	return MaskSecretParams(m.URL)
}

// DependencyMaterialConfig triggers a pipeline when an upstream stage passes.
type DependencyMaterialConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Pipeline       CaseInsensitiveString `yaml:"pipeline" json:"pipeline"`
	Stage          CaseInsensitiveString `yaml:"stage" json:"stage"`
	Name           CaseInsensitiveString `yaml:"name,omitempty" json:"name,omitempty" param:"skip"`
}

func NewDependencyMaterial(pipeline, stage string) *DependencyMaterialConfig {
	return &DependencyMaterialConfig{Pipeline: CaseInsensitiveString(pipeline), Stage: CaseInsensitiveString(stage)}
}

func (m *DependencyMaterialConfig) Kind() Kind { return KindDependency }

// MaterialName defaults to the upstream pipeline name.
func (m *DependencyMaterialConfig) MaterialName() CaseInsensitiveString {
	if m.Name.IsBlank() {
		return m.Pipeline
	}
	return m.Name
}

func (m *DependencyMaterialConfig) Validate(ctx *ValidationContext) {
	if m.Pipeline.IsBlank() {
		m.AddError("pipeline", "Pipeline name cannot be blank.")
	}
	if m.Stage.IsBlank() {
		m.AddError("stage", "Stage name cannot be blank.")
	}
	if !m.Name.IsBlank() && !IsNameValid(m.Name.String()) {
		m.AddError("name", NameErrorMessage("material", m.Name.String()))
	}
	if m.Pipeline.IsBlank() || m.Stage.IsBlank() {
		return
	}

	cfg := ctx.CruiseConfig()
	current := ctx.Pipeline()
	if cfg == nil || current == nil {
		return
	}
	upstream := cfg.PipelineByName(m.Pipeline)
	if upstream == nil {
		m.AddError("pipeline", fmt.Sprintf("Pipeline with name '%s' does not exist, it is defined as a dependency for pipeline '%s'", m.Pipeline, current.Name))
		return
	}
	if upstream.Stage(m.Stage) == nil {
		m.AddError("stage", fmt.Sprintf("Stage with name '%s' does not exist on pipeline '%s', it is being referred to from pipeline '%s'", m.Stage, m.Pipeline, current.Name))
	}
}

type MaterialConfigs []MaterialConfig

// Names returns every material name, including the defaulted ones.
func (ms MaterialConfigs) Names() []CaseInsensitiveString {
	var names []CaseInsensitiveString
	for _, m := range ms {
		if !m.MaterialName().IsBlank() {
			names = append(names, m.MaterialName())
		}
	}
	return names
}

func (ms MaterialConfigs) HasMaterialNamed(name CaseInsensitiveString) bool {
	for _, n := range ms.Names() {
		if n.Equal(name) {
			return true
		}
	}
	return false
}

func (ms MaterialConfigs) Dependencies() []*DependencyMaterialConfig {
	var out []*DependencyMaterialConfig
	for _, m := range ms {
		if d, ok := m.(*DependencyMaterialConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func (ms MaterialConfigs) Gits() []*GitMaterialConfig {
	var out []*GitMaterialConfig
	for _, m := range ms {
		if g, ok := m.(*GitMaterialConfig); ok {
			out = append(out, g)
		}
	}
	return out
}

func (ms MaterialConfigs) validate() {
	seen := map[string]MaterialConfig{}
	for _, m := range ms {
		name := m.MaterialName()
		if name.IsBlank() {
			continue
		}
		if other, ok := seen[name.Lower()]; ok {
			msg := fmt.Sprintf("You have defined multiple materials called '%s'. Material names are case-insensitive and must be unique. Note that for dependency materials the default materialName is the name of the upstream pipeline. You can override this by setting the materialName explicitly for the upstream pipeline.", name)
			other.AddError("name", msg)
			m.AddError("name", msg)
			continue
		}
		seen[name.Lower()] = m
	}

	gits := ms.Gits()
	if len(gits) > 1 {
		for _, g := range gits {
			if strings.TrimSpace(g.Folder) == "" {
				g.AddError("folder", "Destination directory is required when specifying multiple scm materials")
			}
		}
	}
}
