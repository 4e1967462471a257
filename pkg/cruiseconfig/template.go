package cruiseconfig

import (
	"fmt"
	"strings"
)

// PipelineTemplateConfig is a reusable list of stages. Pipelines that
// reference it get deep copies of its stages during preprocessing.
type PipelineTemplateConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Name           CaseInsensitiveString `yaml:"name" json:"name" param:"skip"`
	Authorization  *Authorization        `yaml:"authorization,omitempty" json:"authorization,omitempty"`
	Stages         []*StageConfig        `yaml:"stages" json:"stages"`
}

func NewTemplate(name string, stages ...*StageConfig) *PipelineTemplateConfig {
	return &PipelineTemplateConfig{Name: CaseInsensitiveString(name), Stages: stages}
}

func (t *PipelineTemplateConfig) Stage(name CaseInsensitiveString) *StageConfig {
	if i := stageIndex(t.Stages, name); i >= 0 {
		return t.Stages[i]
	}
	return nil
}

func (t *PipelineTemplateConfig) AddStage(stage *StageConfig) error {
	if t.Stage(stage.Name) != nil {
		return fmt.Errorf("You have defined multiple stages called '%s'. Stage names are case-insensitive and must be unique.", stage.Name)
	}
	t.Stages = append(t.Stages, stage)
	return nil
}

// ReferredParams lists the #{name} references in the template's stages.
func (t *PipelineTemplateConfig) ReferredParams() []string {
	return referredParams(t.Stages)
}

// CanEdit reports whether user may change the template: system admins and
// template admins.
func (t *PipelineTemplateConfig) CanEdit(user string, security *SecurityConfig) bool {
	if security.IsAdmin(user) {
		return true
	}
	return t.Authorization != nil && t.Authorization.Admins.Grants(user, security)
}

// CanView additionally admits the template's viewers.
func (t *PipelineTemplateConfig) CanView(user string, security *SecurityConfig) bool {
	if t.CanEdit(user, security) {
		return true
	}
	return t.Authorization != nil && t.Authorization.View.Grants(user, security)
}

func (t *PipelineTemplateConfig) Validate(_ *ValidationContext) {
	validateName(t, "name", "template", t.Name.String())
	if len(t.Stages) == 0 {
		t.AddError("stages", fmt.Sprintf("Template '%s' does not have any stages configured. A template must have at least one stage.", t.Name))
	}
	validateStages(t.Stages)
}

func (t *PipelineTemplateConfig) validateNameUniqueness(visited map[string]*PipelineTemplateConfig) {
	key := t.Name.Lower()
	if other, ok := visited[key]; ok {
		msg := fmt.Sprintf("Template name '%s' is not unique", t.Name)
		other.AddError("name", msg)
		t.AddError("name", msg)
		return
	}
	visited[key] = t
}

// ValidateTree validates the template, then every pipeline using it with
// the template's stages applied. Errors found on those stages are copied
// back onto the template.
func (t *PipelineTemplateConfig) ValidateTree(ctx *ValidationContext) bool {
	valid := validateTree(t, ctx)

	cfg := ctx.CruiseConfig()
	if cfg == nil {
		return valid
	}
	referred := t.ReferredParams()
	for _, p := range cfg.PipelinesUsingTemplate(t.Name) {
		var missing []string
		for _, name := range referred {
			if !p.Params.HasParam(name) {
				missing = append(missing, name)
			}
		}
		for _, name := range missing {
			t.AddError("params", fmt.Sprintf("The param '%s' is not defined in pipeline '%s'", name, p.Name))
			valid = false
		}
		if len(missing) > 0 {
			continue
		}

		expanded := p.CopyForEditing()
		expanded.UsingTemplate(t)
		pctx := ContextForChain(cfg, cfg.FindGroupOf(p.Name))
		ResolveParams(expanded.Stages, pctx.WithParent(expanded), func(*ValidationContext) ParamsConfig {
			return expanded.Params
		})
		if !validateAll(expanded, pctx) {
			CopyErrors(expanded.Stages, t.Stages)
			valid = len(AllErrors(t)) == 0 && valid
		}
	}
	return valid
}

type TemplatesConfig []*PipelineTemplateConfig

func (ts TemplatesConfig) Find(name CaseInsensitiveString) *PipelineTemplateConfig {
	for _, t := range ts {
		if t.Name.Equal(name) {
			return t
		}
	}
	return nil
}

// Names returns the template names in lower case.
func (ts TemplatesConfig) Names() []string {
	var names []string
	for _, t := range ts {
		names = append(names, strings.ToLower(t.Name.String()))
	}
	return names
}
