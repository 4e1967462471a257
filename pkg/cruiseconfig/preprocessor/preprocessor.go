// Package preprocessor turns a parsed configuration into the form that is
// validated and served: template stages are expanded into the pipelines
// using them, then #{param} references are substituted.
package preprocessor

import (
	log "github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
)

// Preprocessor mutates a configuration in place.
type Preprocessor interface {
	Process(cfg *cruiseconfig.CruiseConfig)
}

// TemplateExpander copies template stages into the pipelines that use them.
type TemplateExpander struct{}

func (TemplateExpander) Process(cfg *cruiseconfig.CruiseConfig) {
	for _, p := range cfg.AllPipelines() {
		if !p.HasTemplate() || p.HasTemplateApplied() {
			continue
		}
		t := cfg.Template(p.Template)
		if t == nil {
			// Reported by pipeline validation.
			continue
		}
		p.UsingTemplate(t)
		log.WithFields(log.Fields{
			"pipeline": p.Name,
			"template": t.Name,
			"stages":   len(t.Stages),
		}).Debug("expanded template")
	}
}

// ParamResolver substitutes #{name} references in pipelines. A pipeline's
// params shadow Globals.
type ParamResolver struct {
	Globals cruiseconfig.ParamsConfig
}

func (r ParamResolver) Process(cfg *cruiseconfig.CruiseConfig) {
	scope := func(ctx *cruiseconfig.ValidationContext) cruiseconfig.ParamsConfig {
		if p := ctx.Pipeline(); p != nil {
			return p.Params.Merge(r.Globals)
		}
		return r.Globals
	}

	for _, g := range cfg.Groups {
		for _, p := range g.Pipelines {
			ctx := cruiseconfig.ContextForChain(cfg, g)
			if failures := cruiseconfig.ResolveParams(p, ctx, scope); failures > 0 {
				log.WithFields(log.Fields{
					"pipeline": p.Name,
					"failures": failures,
				}).Debug("unresolved params")
			}
		}
	}
}

// Chain runs each preprocessor in order.
type Chain []Preprocessor

func (c Chain) Process(cfg *cruiseconfig.CruiseConfig) {
	for _, p := range c {
		p.Process(cfg)
	}
}

// Default expands templates before resolving params so template stages see
// the params of the pipeline they were copied into.
func Default(globals cruiseconfig.ParamsConfig) Chain {
	return Chain{TemplateExpander{}, ParamResolver{Globals: globals}}
}

// Preprocess runs template expansion and param resolution on cfg.
func Preprocess(cfg *cruiseconfig.CruiseConfig, globals cruiseconfig.ParamsConfig) {
	Default(globals).Process(cfg)
}

// PreprocessAndValidate preprocesses cfg and validates the result. Param
// failures are reported together with validation errors.
func PreprocessAndValidate(cfg *cruiseconfig.CruiseConfig, globals cruiseconfig.ParamsConfig) error {
	cruiseconfig.ClearErrors(cfg)
	Preprocess(cfg, globals)
	if errs := cfg.Check(); len(errs) > 0 {
		return &cruiseconfig.ValidationError{Errors: errs}
	}
	return nil
}
