package cruiseconfig

// stageWithJobs builds a stage whose jobs each run "make".
func stageWithJobs(name string, jobs ...string) *StageConfig {
	s := NewStageConfig(name)
	for _, j := range jobs {
		s.Jobs = append(s.Jobs, NewJobConfig(j, NewExecTask("make")))
	}
	return s
}

// pipelineWithStages builds a pipeline with one git material and a "build"
// job in every stage.
func pipelineWithStages(name string, stages ...string) *PipelineConfig {
	p := NewPipelineConfig(name, MaterialConfigs{NewGitMaterial("https://example.com/" + name + ".git")})
	for _, s := range stages {
		p.Stages = append(p.Stages, stageWithJobs(s, "build"))
	}
	return p
}

// dependentPipeline builds a pipeline whose only material is a dependency
// on upstream/stage.
func dependentPipeline(name, upstream, stage string, stages ...string) *PipelineConfig {
	p := pipelineWithStages(name, stages...)
	p.Materials = MaterialConfigs{NewDependencyMaterial(upstream, stage)}
	return p
}

func configWithPipelines(pipelines ...*PipelineConfig) *CruiseConfig {
	return NewCruiseConfig(NewPipelineGroup("defaultGroup", pipelines...))
}

// contextFor returns the validation context of a job of p in cfg.
func contextFor(cfg *CruiseConfig, p *PipelineConfig, s *StageConfig, j *JobConfig) *ValidationContext {
	return ContextForChain(cfg, cfg.FindGroupOf(p.Name), p, s, j)
}
