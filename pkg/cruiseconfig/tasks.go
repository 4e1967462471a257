package cruiseconfig

import (
	"fmt"
	"path"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

// RunIf selects which job outcomes a task runs for.
type RunIf string

const (
	RunIfPassed RunIf = "passed"
	RunIfFailed RunIf = "failed"
	RunIfAny    RunIf = "any"
)

func (r RunIf) IsValid() bool {
	switch r {
	case "", RunIfPassed, RunIfFailed, RunIfAny:
		return true
	}
	return false
}

// Task is one step of a job.
type Task interface {
	Validatable
	TaskType() string
	Describe() string
}

// NullTask stands in for the tasks of a job that defines none.
type NullTask struct {
	errorCollector `yaml:"-" json:"-"`
}

func (t *NullTask) Validate(_ *ValidationContext) {}
func (t *NullTask) TaskType() string { return "null" }
func (t *NullTask) Describe() string { return "" }

// ExecTask runs a command on the agent.
type ExecTask struct {
	errorCollector `yaml:"-" json:"-"`
	Command        string   `yaml:"command" json:"command"`
	Arguments      []string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	WorkingDir     string   `yaml:"working_dir,omitempty" json:"working_dir,omitempty"`
	Timeout        string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RunIf          RunIf    `yaml:"run_if,omitempty" json:"run_if,omitempty" param:"skip"`
}

func NewExecTask(command string, args ...string) *ExecTask {
	return &ExecTask{Command: command, Arguments: args}
}

func (t *ExecTask) TaskType() string { return KindExec.String() }

func (t *ExecTask) Describe() string {
	return strings.TrimSpace(t.Command + " " + strings.Join(t.Arguments, " "))
}

func (t *ExecTask) Validate(ctx *ValidationContext) {
	if strings.TrimSpace(t.Command) == "" {
		t.AddError("command", "Command cannot be empty")
	}
	if t.WorkingDir != "" && isOutsideWorkingDir(t.WorkingDir) {
		kind, owner := ctx.ownerDescription()
		t.AddError("working_dir", fmt.Sprintf("The path of the working directory for the custom command in job '%s' in stage '%s' of %s '%s' is outside the agent sandbox. It must be relative to the directory where the agent checks out materials.", jobName(ctx), stageName(ctx), kind, owner))
	}
	validateRunIf(t, t.RunIf)
}

func validateRunIf(v Validatable, r RunIf) {
	if !r.IsValid() {
		v.AddError("run_if", fmt.Sprintf("Invalid run_if value '%s'. Valid values are: passed, failed, any.", r))
	}
}

func jobName(ctx *ValidationContext) string {
	if j := ctx.Job(); j != nil {
		return j.Name.String()
	}
	return ""
}

func stageName(ctx *ValidationContext) string {
	if s := ctx.Stage(); s != nil {
		return s.Name.String()
	}
	return ""
}

// isOutsideWorkingDir reports whether p escapes the agent sandbox.
func isOutsideWorkingDir(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	if path.IsAbs(p) || (len(p) > 1 && p[1] == ':') {
		return true
	}
	cleaned := path.Clean(p)
	return cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

// FetchTask downloads an artifact produced by an upstream or earlier job.
type FetchTask struct {
	errorCollector `yaml:"-" json:"-"`
	Pipeline       CaseInsensitiveString `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Stage          CaseInsensitiveString `yaml:"stage" json:"stage"`
	Job            CaseInsensitiveString `yaml:"job" json:"job"`
	Source         string                `yaml:"source" json:"source"`
	IsFile         bool                  `yaml:"is_file,omitempty" json:"is_file,omitempty"`
	Destination    string                `yaml:"destination,omitempty" json:"destination,omitempty"`
	RunIf          RunIf                 `yaml:"run_if,omitempty" json:"run_if,omitempty" param:"skip"`
}

func NewFetchTask(pipeline, stage, job, source, destination string) *FetchTask {
	return &FetchTask{
		Pipeline:    CaseInsensitiveString(pipeline),
		Stage:       CaseInsensitiveString(stage),
		Job:         CaseInsensitiveString(job),
		Source:      source,
		Destination: destination,
	}
}

func (t *FetchTask) TaskType() string { return KindFetch.String() }

func (t *FetchTask) Describe() string {
	return fmt.Sprintf("fetch artifact [%s] => [%s] from [%s/%s/%s]", t.Source, t.Destination, t.Pipeline, t.Stage, t.Job)
}

func (t *FetchTask) Validate(ctx *ValidationContext) {
	kind, owner := ctx.ownerDescription()
	if strings.TrimSpace(t.Source) == "" {
		t.AddError("source", "Source is a required field.")
	} else if isOutsideWorkingDir(t.Source) {
		t.AddError("source", fmt.Sprintf("Task of job '%s' in stage '%s' of %s '%s' has source path '%s' which is outside the working directory.", jobName(ctx), stageName(ctx), kind, owner, t.Source))
	}
	if t.Destination != "" && isOutsideWorkingDir(t.Destination) {
		t.AddError("destination", fmt.Sprintf("Task of job '%s' in stage '%s' of %s '%s' has destination path '%s' which is outside the working directory.", jobName(ctx), stageName(ctx), kind, owner, t.Destination))
	}
	validateRunIf(t, t.RunIf)
	validateFetchOrigin(t, ctx, t.Pipeline, t.Stage, t.Job)
}

// FetchExternalTask downloads an external artifact through its store plugin.
type FetchExternalTask struct {
	errorCollector `yaml:"-" json:"-"`
	Pipeline       CaseInsensitiveString `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Stage          CaseInsensitiveString `yaml:"stage" json:"stage"`
	Job            CaseInsensitiveString `yaml:"job" json:"job"`
	ArtifactID     string                `yaml:"artifact_id" json:"artifact_id" param:"skip"`
	Properties     Configuration         `yaml:"properties,omitempty" json:"properties,omitempty"`
	RunIf          RunIf                 `yaml:"run_if,omitempty" json:"run_if,omitempty" param:"skip"`
}

func NewFetchExternalTask(pipeline, stage, job, artifactID string, properties ...*ConfigurationProperty) *FetchExternalTask {
	return &FetchExternalTask{
		Pipeline:   CaseInsensitiveString(pipeline),
		Stage:      CaseInsensitiveString(stage),
		Job:        CaseInsensitiveString(job),
		ArtifactID: artifactID,
		Properties: properties,
	}
}

func (t *FetchExternalTask) TaskType() string { return KindFetchExternal.String() }

func (t *FetchExternalTask) Describe() string {
	return fmt.Sprintf("fetch external artifact [%s] from [%s/%s/%s]", t.ArtifactID, t.Pipeline, t.Stage, t.Job)
}

func (t *FetchExternalTask) Validate(ctx *ValidationContext) {
	if strings.TrimSpace(t.ArtifactID) == "" {
		t.AddError("artifact_id", "Artifact Id cannot be blank.")
	}
	t.Properties.validateUniqueKeys("Fetch pluggable artifact")
	validateRunIf(t, t.RunIf)

	job := validateFetchOrigin(t, ctx, t.Pipeline, t.Stage, t.Job)
	if job == nil || t.ArtifactID == "" {
		return
	}
	artifact := job.Artifacts.External(t.ArtifactID)
	if artifact == nil {
		t.AddError("artifact_id", fmt.Sprintf("Pluggable artifact with id `%s` does not exist in [%s/%s/%s].", t.ArtifactID, t.originPipeline(ctx), t.Stage, t.Job))
		return
	}
	if info := artifactPluginFor(ctx, artifact.StoreID); info != nil {
		t.Properties.validateAgainst(t, info.FetchArtifactSettings)
	}
}

// artifactPlugin resolves the store plugin of the fetched artifact without
// reporting errors.
func (t *FetchExternalTask) artifactPlugin(ctx *ValidationContext) *metadata.ArtifactPluginInfo {
	cfg := ctx.CruiseConfig()
	if cfg == nil {
		return nil
	}
	origin := ctx.Pipeline()
	if name := t.originPipeline(ctx); origin == nil || !origin.Name.Equal(name) {
		origin = cfg.PipelineByName(name)
	}
	if origin == nil {
		return nil
	}
	stage := origin.Stage(t.Stage)
	if stage == nil {
		return nil
	}
	job := stage.Job(t.Job)
	if job == nil {
		return nil
	}
	artifact := job.Artifacts.External(t.ArtifactID)
	if artifact == nil {
		return nil
	}
	return artifactPluginFor(ctx, artifact.StoreID)
}

func (t *FetchExternalTask) originPipeline(ctx *ValidationContext) CaseInsensitiveString {
	if t.Pipeline.IsBlank() {
		if p := ctx.Pipeline(); p != nil {
			return p.Name
		}
	}
	path := strings.Split(t.Pipeline.String(), "/")
	return CaseInsensitiveString(path[0])
}

// validateFetchOrigin checks pipeline, stage and job of a fetch and returns
// the job being fetched from when it exists.
func validateFetchOrigin(v Validatable, ctx *ValidationContext, pipeline, stage, job CaseInsensitiveString) *JobConfig {
	if stage.IsBlank() {
		v.AddError("stage", "Stage is a required field.")
	}
	if job.IsBlank() {
		v.AddError("job", "Job is a required field.")
	}
	if stage.IsBlank() || job.IsBlank() || ctx.IsWithinTemplates() {
		return nil
	}

	current := ctx.Pipeline()
	cfg := ctx.CruiseConfig()
	if current == nil || cfg == nil {
		return nil
	}
	label := ctx.jobLabel()

	origin := current
	dependencyStage := CaseInsensitiveString("")
	fetchingFromSelf := pipeline.IsBlank() || pipeline.Equal(current.Name)
	if !fetchingFromSelf {
		var ok bool
		origin, dependencyStage, ok = resolveFetchPath(v, cfg, current, pipeline, label)
		if !ok {
			return nil
		}
	}

	originStage := origin.Stage(stage)
	if originStage == nil {
		v.AddError("stage", fmt.Sprintf("\"%s\" tries to fetch artifact from stage \"%s :: %s\" which does not exist.", label, origin.Name, stage))
		return nil
	}

	if fetchingFromSelf {
		if currentStage := ctx.Stage(); currentStage != nil && !current.isStageBefore(originStage.Name, currentStage.Name) {
			v.AddError("stage", fmt.Sprintf("\"%s\" tries to fetch artifact from its stage \"%s\" which does not complete before the current stage \"%s\".", label, stage, currentStage.Name))
		}
	} else if !origin.isStageAtOrBefore(originStage.Name, dependencyStage) {
		v.AddError("stage", fmt.Sprintf("\"%s\" tries to fetch artifact from stage \"%s :: %s\" which does not complete before \"%s\" pipeline's dependencies.", label, origin.Name, stage, current.Name))
	}

	originJob := originStage.Job(job)
	if originJob == nil {
		v.AddError("job", fmt.Sprintf("\"%s\" tries to fetch artifact from job \"%s :: %s :: %s\" which does not exist.", label, origin.Name, stage, job))
		return nil
	}
	return originJob
}

// resolveFetchPath follows a pipeline path such as "grandparent/parent"
// back to the pipeline being fetched from. It returns that pipeline and the
// stage its direct downstream on the path depends on.
func resolveFetchPath(v Validatable, cfg *CruiseConfig, current *PipelineConfig, pipelinePath CaseInsensitiveString, label string) (*PipelineConfig, CaseInsensitiveString, bool) {
	names := strings.Split(pipelinePath.String(), "/")

	downstream := current
	var dependencyStage CaseInsensitiveString
	for i := len(names) - 1; i >= 0; i-- {
		name := CaseInsensitiveString(names[i])
		upstream := cfg.PipelineByName(name)
		if upstream == nil {
			v.AddError("pipeline", fmt.Sprintf("\"%s\" tries to fetch artifact from pipeline \"%s\" which does not exist.", label, name))
			return nil, "", false
		}
		dep := downstream.DependencyOn(name)
		if dep == nil {
			if len(names) == 1 {
				v.AddError("pipeline", fmt.Sprintf("Pipeline \"%s\" tries to fetch artifact from pipeline \"%s\" which is not an upstream pipeline", current.Name, name))
			} else {
				v.AddError("pipeline", fmt.Sprintf("Pipeline named '%s' exists, but is not an ancestor of '%s' as declared in '%s'.", name, current.Name, pipelinePath))
			}
			return nil, "", false
		}
		dependencyStage = dep.Stage
		downstream = upstream
	}
	return downstream, dependencyStage, true
}

type Tasks []Task

// Fetches returns the fetch tasks.
func (ts Tasks) Fetches() []*FetchTask {
	var out []*FetchTask
	for _, t := range ts {
		if f, ok := t.(*FetchTask); ok {
			out = append(out, f)
		}
	}
	return out
}

func (ts Tasks) FetchExternals() []*FetchExternalTask {
	var out []*FetchExternalTask
	for _, t := range ts {
		if f, ok := t.(*FetchExternalTask); ok {
			out = append(out, f)
		}
	}
	return out
}
