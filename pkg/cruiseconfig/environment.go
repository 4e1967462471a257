package cruiseconfig

import (
	"fmt"
	"strings"
)

// EnvironmentConfig groups pipelines and agents that share variables.
type EnvironmentConfig struct {
	errorCollector       `yaml:"-" json:"-"`
	Name                 CaseInsensitiveString      `yaml:"name" json:"name" param:"skip"`
	Pipelines            []CaseInsensitiveString    `yaml:"pipelines,omitempty,flow" json:"pipelines,omitempty" param:"skip"`
	Agents               []string                   `yaml:"agents,omitempty,flow" json:"agents,omitempty" param:"skip"`
	EnvironmentVariables EnvironmentVariablesConfig `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
}

func NewEnvironmentConfig(name string, pipelines ...string) *EnvironmentConfig {
	e := &EnvironmentConfig{Name: CaseInsensitiveString(name)}
	for _, p := range pipelines {
		e.Pipelines = append(e.Pipelines, CaseInsensitiveString(p))
	}
	return e
}

func (e *EnvironmentConfig) ContainsPipeline(name CaseInsensitiveString) bool {
	for _, p := range e.Pipelines {
		if p.Equal(name) {
			return true
		}
	}
	return false
}

func (e *EnvironmentConfig) HasAgent(uuid string) bool {
	for _, a := range e.Agents {
		if a == uuid {
			return true
		}
	}
	return false
}

func (e *EnvironmentConfig) Validate(ctx *ValidationContext) {
	validateName(e, "name", "environment", e.Name.String())
	e.EnvironmentVariables.validateScope("environment", e.Name.String())

	seen := map[string]bool{}
	for _, p := range e.Pipelines {
		if seen[p.Lower()] {
			e.AddError("pipelines", fmt.Sprintf("Environment pipeline '%s' is defined more than once.", p))
			continue
		}
		seen[p.Lower()] = true
		if cfg := ctx.CruiseConfig(); cfg != nil && cfg.PipelineByName(p) == nil {
			e.AddError("pipelines", fmt.Sprintf("Environment '%s' refers to an unknown pipeline '%s'.", e.Name, p))
		}
	}

	agents := map[string]bool{}
	for _, a := range e.Agents {
		if strings.TrimSpace(a) == "" {
			e.AddError("agents", "Environment agent uuid cannot be blank.")
			continue
		}
		if agents[a] {
			e.AddError("agents", fmt.Sprintf("Environment agent '%s' is defined more than once.", a))
			continue
		}
		agents[a] = true
	}
}

func (e *EnvironmentConfig) validateNameUniqueness(visited map[string]*EnvironmentConfig) {
	key := e.Name.Lower()
	if other, ok := visited[key]; ok {
		msg := fmt.Sprintf("Environment with name '%s' already exists.", e.Name)
		other.AddError("name", msg)
		e.AddError("name", msg)
		return
	}
	visited[key] = e
}

type EnvironmentsConfig []*EnvironmentConfig

func (es EnvironmentsConfig) Find(name CaseInsensitiveString) *EnvironmentConfig {
	for _, e := range es {
		if e.Name.Equal(name) {
			return e
		}
	}
	return nil
}

// EnvironmentFor returns the environment the named pipeline belongs to.
func (es EnvironmentsConfig) EnvironmentFor(pipeline CaseInsensitiveString) *EnvironmentConfig {
	for _, e := range es {
		if e.ContainsPipeline(pipeline) {
			return e
		}
	}
	return nil
}

// validateMembership reports pipelines that belong to more than one
// environment.
func (es EnvironmentsConfig) validateMembership() {
	owner := map[string]*EnvironmentConfig{}
	for _, e := range es {
		for _, p := range e.Pipelines {
			first, ok := owner[p.Lower()]
			if !ok {
				owner[p.Lower()] = e
				continue
			}
			if first != e {
				e.AddError("pipelines", fmt.Sprintf("Associating pipeline(s) which is already part of %s environment", first.Name))
			}
		}
	}
}

func (es EnvironmentsConfig) validate() {
	visited := map[string]*EnvironmentConfig{}
	for _, e := range es {
		e.validateNameUniqueness(visited)
	}
	es.validateMembership()
}
