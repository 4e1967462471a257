package cruiseconfig

import (
	"fmt"

	"github.com/mohae/deepcopy"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

const CurrentSchemaVersion = 1

// CruiseConfig is the root of the configuration graph.
type CruiseConfig struct {
	errorCollector  `yaml:"-" json:"-"`
	SchemaVersion   int                `yaml:"schema_version" json:"schema_version"`
	Server          *ServerConfig      `yaml:"server" json:"server"`
	ArtifactStores  ArtifactStores     `yaml:"artifact_stores,omitempty" json:"artifact_stores,omitempty"`
	ElasticProfiles ElasticProfiles    `yaml:"elastic_profiles,omitempty" json:"elastic_profiles,omitempty"`
	SecretConfigs   SecretConfigs      `yaml:"secret_configs,omitempty" json:"secret_configs,omitempty"`
	Groups          PipelineGroups     `yaml:"pipeline_groups,omitempty" json:"pipeline_groups,omitempty"`
	Templates       TemplatesConfig    `yaml:"templates,omitempty" json:"templates,omitempty" param:"skip"`
	Environments    EnvironmentsConfig `yaml:"environments,omitempty" json:"environments,omitempty"`
}

func NewCruiseConfig(groups ...*PipelineConfigs) *CruiseConfig {
	return &CruiseConfig{
		SchemaVersion: CurrentSchemaVersion,
		Server:        NewServerConfig("artifacts"),
		Groups:        groups,
	}
}

// Clone returns a deep copy without errors.
func (c *CruiseConfig) Clone() *CruiseConfig {
	return deepcopy.Copy(c).(*CruiseConfig)
}

func (c *CruiseConfig) AllPipelines() []*PipelineConfig {
	var out []*PipelineConfig
	for _, g := range c.Groups {
		out = append(out, g.Pipelines...)
	}
	return out
}

func (c *CruiseConfig) PipelineNames() []CaseInsensitiveString {
	var names []CaseInsensitiveString
	for _, p := range c.AllPipelines() {
		names = append(names, p.Name)
	}
	return names
}

func (c *CruiseConfig) PipelineByName(name CaseInsensitiveString) *PipelineConfig {
	for _, g := range c.Groups {
		if p := g.Find(name); p != nil {
			return p
		}
	}
	return nil
}

func (c *CruiseConfig) HasPipelineNamed(name CaseInsensitiveString) bool {
	return c.PipelineByName(name) != nil
}

func (c *CruiseConfig) FindGroup(name string) *PipelineConfigs {
	return c.Groups.Find(name)
}

func (c *CruiseConfig) FindGroupOf(pipeline CaseInsensitiveString) *PipelineConfigs {
	return c.Groups.GroupOf(pipeline)
}

// AddPipeline adds p to the named group, creating the group when needed.
func (c *CruiseConfig) AddPipeline(group string, p *PipelineConfig) error {
	if c.HasPipelineNamed(p.Name) {
		return fmt.Errorf("You have defined multiple pipelines called '%s'. Pipeline names are case-insensitive and must be unique.", p.Name)
	}
	g := c.FindGroup(group)
	if g == nil {
		g = NewPipelineGroup(group)
		c.Groups = append(c.Groups, g)
	}
	return g.Add(p)
}

func (c *CruiseConfig) DeletePipeline(name CaseInsensitiveString) bool {
	for _, g := range c.Groups {
		if g.Remove(name) {
			return true
		}
	}
	return false
}

func (c *CruiseConfig) Template(name CaseInsensitiveString) *PipelineTemplateConfig {
	return c.Templates.Find(name)
}

func (c *CruiseConfig) AddTemplate(t *PipelineTemplateConfig) error {
	if c.Template(t.Name) != nil {
		return fmt.Errorf("Template name '%s' is not unique", t.Name)
	}
	c.Templates = append(c.Templates, t)
	return nil
}

func (c *CruiseConfig) PipelinesUsingTemplate(name CaseInsensitiveString) []*PipelineConfig {
	var out []*PipelineConfig
	for _, p := range c.AllPipelines() {
		if p.HasTemplate() && p.Template.Equal(name) {
			out = append(out, p)
		}
	}
	return out
}

func (c *CruiseConfig) Stage(pipeline, stage CaseInsensitiveString) *StageConfig {
	if p := c.PipelineByName(pipeline); p != nil {
		return p.Stage(stage)
	}
	return nil
}

// Job finds a job by its instance name, which may carry a run-on-all-agents
// or run-multiple-instance suffix.
func (c *CruiseConfig) Job(pipeline, stage CaseInsensitiveString, instance string, ignoreCase bool) (*JobConfig, error) {
	s := c.Stage(pipeline, stage)
	if s != nil {
		for _, j := range s.Jobs {
			if j.IsInstanceOf(instance, ignoreCase) {
				return j, nil
			}
		}
	}
	return nil, fmt.Errorf("Job [%s] is not found in pipeline [%s] stage [%s].", instance, pipeline, stage)
}

func (c *CruiseConfig) RequiresApproval(pipeline, stage CaseInsensitiveString) bool {
	if s := c.Stage(pipeline, stage); s != nil {
		return s.RequiresApproval()
	}
	return false
}

// DownstreamPipelines lists the pipelines with a dependency material on
// name.
func (c *CruiseConfig) DownstreamPipelines(name CaseInsensitiveString) []*PipelineConfig {
	var out []*PipelineConfig
	for _, p := range c.AllPipelines() {
		if p.DependsOn(name) {
			out = append(out, p)
		}
	}
	return out
}

// PipelinesForFetchArtifacts lists the pipelines jobs of name may fetch
// from: its direct upstreams and itself.
func (c *CruiseConfig) PipelinesForFetchArtifacts(name CaseInsensitiveString) []*PipelineConfig {
	p := c.PipelineByName(name)
	if p == nil {
		return nil
	}
	return append(p.FirstLevelUpstreams(c), p)
}

func (c *CruiseConfig) SecurityConfig() *SecurityConfig {
	if c.Server == nil {
		return nil
	}
	return c.Server.Security
}

func (c *CruiseConfig) IsSecurityEnabled() bool {
	return c.Server.IsSecurityEnabled()
}

func (c *CruiseConfig) IsAdministrator(user string) bool {
	return c.SecurityConfig().IsAdmin(user)
}

// IsGroupAdministrator reports whether user administers at least one group.
func (c *CruiseConfig) IsGroupAdministrator(user string) bool {
	security := c.SecurityConfig()
	for _, g := range c.Groups {
		if g.Authorization != nil && g.Authorization.Admins.Grants(user, security) {
			return true
		}
	}
	return false
}

func (c *CruiseConfig) GroupsVisibleTo(user string) []string {
	return c.Groups.VisibleTo(user, c.SecurityConfig())
}

// Validate runs the checks spanning the whole graph: name uniqueness of
// groups, pipelines, templates, environments and plugin profiles,
// environment membership and dependency cycles.
func (c *CruiseConfig) Validate(_ *ValidationContext) {
	groups := map[string]*PipelineConfigs{}
	pipelines := map[string]*PipelineConfig{}
	for _, g := range c.Groups {
		g.validateNameUniqueness(groups)
		for _, p := range g.Pipelines {
			p.validateNameUniqueness(pipelines)
		}
	}

	templates := map[string]*PipelineTemplateConfig{}
	for _, t := range c.Templates {
		t.validateNameUniqueness(templates)
	}
	c.Environments.validate()

	validateUniqueIDs(c.ArtifactStores, func(s *ArtifactStore) string { return s.ID }, "artifact store")
	validateUniqueIDs(c.ElasticProfiles, func(p *ElasticProfile) string { return p.ID }, "elastic profile")
	validateUniqueIDs(c.SecretConfigs, func(s *SecretConfig) string { return s.ID }, "secret config")

	c.validateDependencyCycles()
}

func (c *CruiseConfig) validateDependencyCycles() {
	graph := NewDependencyGraph(c)
	reported := map[string]bool{}
	for _, p := range c.AllPipelines() {
		msg := graph.cycleThrough(p)
		if msg == "" || reported[msg] {
			continue
		}
		reported[msg] = true
		p.AddError("materials", msg)
	}
}

// ValidateAfterPreprocess clears previous errors, validates every node and
// returns the error sets that are not empty.
func (c *CruiseConfig) ValidateAfterPreprocess() []*ConfigErrors {
	ClearErrors(c)
	return c.Check()
}

// Check validates every node and returns the error sets that are not empty.
// Errors recorded earlier, such as param failures, are kept.
func (c *CruiseConfig) Check() []*ConfigErrors {
	validateAll(c, NewValidationContext(c))
	return AllErrors(c)
}

// ValidationErr wraps the errors of ValidateAfterPreprocess, or returns nil.
func (c *CruiseConfig) ValidationErr() error {
	if errs := c.ValidateAfterPreprocess(); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// CopyErrorsTo copies the errors found on c onto the matching nodes of to.
func (c *CruiseConfig) CopyErrorsTo(to *CruiseConfig) {
	CopyErrors(c, to)
}

// EncryptSecureProperties encrypts every secure value in the graph: secure
// environment variables, the mail host password, and plugin properties the
// plugin metadata marks secure.
func (c *CruiseConfig) EncryptSecureProperties(cipher encryption.Cipher) error {
	var firstErr error
	fail := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	NewGraphWalker(DefaultConfigCache).Walk(c, NewValidationContext(c), func(node Validatable, ctx *ValidationContext) {
		switch n := node.(type) {
		case *CruiseConfig:
		case *ExternalArtifactConfig:
			fail(n.EncryptSecureProperties(cipher, c.ArtifactStores))
		case *FetchExternalTask:
			if info := n.artifactPlugin(ctx); info != nil {
				fail(n.Properties.encryptSecure(cipher, info.FetchArtifactSettings))
			}
		case *PluginRoleConfig:
			fail(n.encryptSecureProperties(cipher, c.SecurityConfig()))
		case interface {
			EncryptSecureProperties(encryption.Cipher) error
		}:
			fail(n.EncryptSecureProperties(cipher))
		}
	})
	return firstErr
}

func (r *PluginRoleConfig) encryptSecureProperties(cipher encryption.Cipher, security *SecurityConfig) error {
	if security == nil {
		return nil
	}
	authConfig := security.AuthConfigs.Find(r.AuthConfigID)
	if authConfig == nil {
		return nil
	}
	if info := metadata.Authorizations().PluginInfo(authConfig.PluginID); info != nil {
		return r.Properties.encryptSecure(cipher, info.RoleSettings)
	}
	return nil
}
