// Package mother builds small, valid configurations for tests and fixtures.
package mother

import (
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
)

const DefaultGroup = "defaultGroup"

// Stage returns a stage whose jobs each run "make".
func Stage(name string, jobs ...string) *cruiseconfig.StageConfig {
	s := cruiseconfig.NewStageConfig(name)
	for _, j := range jobs {
		s.Jobs = append(s.Jobs, cruiseconfig.NewJobConfig(j, cruiseconfig.NewExecTask("make")))
	}
	return s
}

// GitMaterial points at https://example.com/<name>.git.
func GitMaterial(name string) *cruiseconfig.GitMaterialConfig {
	return cruiseconfig.NewGitMaterial("https://example.com/" + name + ".git")
}

// Pipeline returns a pipeline with one git material and a "build" job in
// every stage.
func Pipeline(name string, stages ...string) *cruiseconfig.PipelineConfig {
	p := cruiseconfig.NewPipelineConfig(name, cruiseconfig.MaterialConfigs{GitMaterial(name)})
	for _, s := range stages {
		p.Stages = append(p.Stages, Stage(s, "build"))
	}
	return p
}

// DependentPipeline is like Pipeline, but its only material is a dependency
// on upstream/stage.
func DependentPipeline(name, upstream, stage string, stages ...string) *cruiseconfig.PipelineConfig {
	p := Pipeline(name, stages...)
	p.Materials = cruiseconfig.MaterialConfigs{cruiseconfig.NewDependencyMaterial(upstream, stage)}
	return p
}

// TemplatedPipeline returns a pipeline without stages that uses template.
func TemplatedPipeline(name, template string, params ...*cruiseconfig.ParamConfig) *cruiseconfig.PipelineConfig {
	p := Pipeline(name)
	p.Template = cruiseconfig.CaseInsensitiveString(template)
	p.Params = params
	return p
}

func Template(name string, stages ...*cruiseconfig.StageConfig) *cruiseconfig.PipelineTemplateConfig {
	return cruiseconfig.NewTemplate(name, stages...)
}

// Config puts pipelines in DefaultGroup.
func Config(pipelines ...*cruiseconfig.PipelineConfig) *cruiseconfig.CruiseConfig {
	return cruiseconfig.NewCruiseConfig(cruiseconfig.NewPipelineGroup(DefaultGroup, pipelines...))
}

// ConfigWithTemplates is Config plus templates.
func ConfigWithTemplates(templates []*cruiseconfig.PipelineTemplateConfig, pipelines ...*cruiseconfig.PipelineConfig) *cruiseconfig.CruiseConfig {
	cfg := Config(pipelines...)
	cfg.Templates = templates
	return cfg
}

// Chain returns a config of pipelines p1..pn, each with a single stage
// "dist", where every pipeline after the first depends on the previous one.
func Chain(names ...string) *cruiseconfig.CruiseConfig {
	var pipelines []*cruiseconfig.PipelineConfig
	for i, name := range names {
		if i == 0 {
			pipelines = append(pipelines, Pipeline(name, "dist"))
			continue
		}
		pipelines = append(pipelines, DependentPipeline(name, names[i-1], "dist", "dist"))
	}
	return Config(pipelines...)
}

// Secure enables security on cfg with a password-file auth config and makes
// admins system administrators.
func Secure(cfg *cruiseconfig.CruiseConfig, admins ...string) *cruiseconfig.CruiseConfig {
	cfg.Server.Security = &cruiseconfig.SecurityConfig{
		AuthConfigs: cruiseconfig.SecurityAuthConfigs{{ID: "file", PluginID: "cd.go.authentication.passwordfile"}},
		Admins:      cruiseconfig.NewPermission(admins),
	}
	return cfg
}

// AddRole appends a config-defined role to cfg's security section.
func AddRole(cfg *cruiseconfig.CruiseConfig, name string, users ...string) *cruiseconfig.RoleConfig {
	role := cruiseconfig.NewRoleConfig(name, users...)
	cfg.Server.Security.Roles = append(cfg.Server.Security.Roles, role)
	return role
}
