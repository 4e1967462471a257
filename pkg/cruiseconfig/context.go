package cruiseconfig

// ValidationContext threads the ancestors of the node being validated. A
// context is never mutated; WithParent returns a new frame.
type ValidationContext struct {
	parent *ValidationContext
	node   any
	config *CruiseConfig
}

func NewValidationContext(cfg *CruiseConfig) *ValidationContext {
	return &ValidationContext{node: cfg, config: cfg}
}

// ContextForChain builds a context rooted at cfg with nodes pushed in order.
func ContextForChain(cfg *CruiseConfig, nodes ...any) *ValidationContext {
	ctx := NewValidationContext(cfg)
	for _, n := range nodes {
		ctx = ctx.WithParent(n)
	}
	return ctx
}

func (c *ValidationContext) WithParent(node any) *ValidationContext {
	var cfg *CruiseConfig
	if c != nil {
		cfg = c.config
	}
	return &ValidationContext{parent: c, node: node, config: cfg}
}

// Parent is the innermost node of the chain.
func (c *ValidationContext) Parent() any {
	if c == nil {
		return nil
	}
	return c.node
}

func nearest[T any](c *ValidationContext) T {
	var zero T
	for f := c; f != nil; f = f.parent {
		if v, ok := f.node.(T); ok {
			return v
		}
	}
	return zero
}

func (c *ValidationContext) Pipeline() *PipelineConfig {
	return nearest[*PipelineConfig](c)
}

func (c *ValidationContext) Stage() *StageConfig {
	return nearest[*StageConfig](c)
}

func (c *ValidationContext) Job() *JobConfig {
	return nearest[*JobConfig](c)
}

func (c *ValidationContext) Template() *PipelineTemplateConfig {
	return nearest[*PipelineTemplateConfig](c)
}

func (c *ValidationContext) PipelineGroup() *PipelineConfigs {
	if g := nearest[*PipelineConfigs](c); g != nil {
		return g
	}
	if p := c.Pipeline(); p != nil && c.CruiseConfig() != nil {
		return c.CruiseConfig().FindGroupOf(p.Name)
	}
	return nil
}

func (c *ValidationContext) Environment() *EnvironmentConfig {
	return nearest[*EnvironmentConfig](c)
}

func (c *ValidationContext) IsWithinTemplates() bool {
	return c.Template() != nil
}

func (c *ValidationContext) IsWithinPipelines() bool {
	return c.Pipeline() != nil
}

func (c *ValidationContext) IsWithinEnvironment() bool {
	return c.Environment() != nil
}

func (c *ValidationContext) CruiseConfig() *CruiseConfig {
	if c == nil {
		return nil
	}
	return c.config
}

func (c *ValidationContext) IsValidProfileID(id string) bool {
	cfg := c.CruiseConfig()
	if cfg == nil {
		return false
	}
	return cfg.ElasticProfiles.Find(id) != nil
}

func (c *ValidationContext) ArtifactStores() ArtifactStores {
	if cfg := c.CruiseConfig(); cfg != nil {
		return cfg.ArtifactStores
	}
	return nil
}

func (c *ValidationContext) SecurityConfig() *SecurityConfig {
	if cfg := c.CruiseConfig(); cfg != nil && cfg.Server != nil {
		return cfg.Server.Security
	}
	return nil
}

func (c *ValidationContext) SecretConfigs() SecretConfigs {
	if cfg := c.CruiseConfig(); cfg != nil {
		return cfg.SecretConfigs
	}
	return nil
}

// PipelinesUsingTemplate lists the pipelines referencing the enclosing
// template.
func (c *ValidationContext) PipelinesUsingTemplate() []*PipelineConfig {
	t := c.Template()
	cfg := c.CruiseConfig()
	if t == nil || cfg == nil {
		return nil
	}
	return cfg.PipelinesUsingTemplate(t.Name)
}

// jobLabel renders "pipeline :: stage :: job" for messages.
func (c *ValidationContext) jobLabel() string {
	var p, s, j string
	if pc := c.Pipeline(); pc != nil {
		p = pc.Name.String()
	} else if tc := c.Template(); tc != nil {
		p = tc.Name.String()
	}
	if sc := c.Stage(); sc != nil {
		s = sc.Name.String()
	}
	if jc := c.Job(); jc != nil {
		j = jc.Name.String()
	}
	return p + " :: " + s + " :: " + j
}

// ownerDescription names the pipeline or template owning the current node.
func (c *ValidationContext) ownerDescription() (kind, name string) {
	if pc := c.Pipeline(); pc != nil {
		return "pipeline", pc.Name.String()
	}
	if tc := c.Template(); tc != nil {
		return "template", tc.Name.String()
	}
	return "pipeline", ""
}
