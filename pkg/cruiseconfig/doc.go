// Package cruiseconfig is the pipeline configuration model.
//
// A CruiseConfig holds pipeline groups, templates, environments, plugin
// profiles and server settings. Every node of the graph implements
// Validatable and collects its own errors keyed by field name:
//
//	cfg, err := cruiseconfig.ParseFile("cruise.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ValidationErr(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation
//
// Validation walks the graph with a GraphWalker. Each node receives a
// ValidationContext naming its ancestors, so a job can find its stage,
// pipeline, group and the root config. Checks spanning siblings, such as
// name uniqueness and dependency cycles, run on the parent.
//
// Configs are validated after preprocessing: templates expanded and
// #{param} references substituted (see the preprocessor subpackage).
//
// # YAML
//
// Polymorphic lists use tags:
//
//	tasks:
//	  - !exec
//	    command: make
//	  - !fetch
//	    stage: build
//	    job: compile
//	    source: bin/
//
// Tags are !exec, !fetch and !fetch_external for tasks, !build, !test and
// !external for artifacts, !git and !dependency for materials, and !role and
// !plugin_role for roles.
package cruiseconfig
