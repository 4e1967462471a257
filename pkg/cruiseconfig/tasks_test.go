package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

// fetchConfig builds grand -> up -> down, with other unrelated to the chain.
func fetchConfig() *CruiseConfig {
	return configWithPipelines(
		pipelineWithStages("grand", "dist"),
		dependentPipeline("up", "grand", "dist", "build", "dist", "publish"),
		dependentPipeline("down", "up", "dist", "test", "deploy"),
		pipelineWithStages("other", "dist"),
	)
}

func validateFetch(cfg *CruiseConfig, task Task, stage int) *ConfigErrors {
	down := cfg.PipelineByName("down")
	down.Stages[stage].Jobs[0].TaskList = Tasks{task}
	cfg.ValidateAfterPreprocess()
	return task.Errors()
}

func TestFetchTaskValidate(t *testing.T) {
	tests := []struct {
		name     string
		task     *FetchTask
		stage    int
		field    string
		expected string
	}{
		{
			name: "upstream stage",
			task: NewFetchTask("up", "dist", "build", "bin", ""),
		},
		{
			name: "ancestor path",
			task: NewFetchTask("grand/up", "dist", "build", "bin", ""),
		},
		{
			name:  "earlier stage of same pipeline",
			task:  NewFetchTask("", "test", "build", "bin", ""),
			stage: 1,
		},
		{
			name:     "stage after dependency",
			task:     NewFetchTask("up", "publish", "build", "bin", ""),
			field:    "stage",
			expected: "\"down :: test :: build\" tries to fetch artifact from stage \"up :: publish\" which does not complete before \"down\" pipeline's dependencies.",
		},
		{
			name:     "unknown stage",
			task:     NewFetchTask("up", "nope", "build", "bin", ""),
			field:    "stage",
			expected: "\"down :: test :: build\" tries to fetch artifact from stage \"up :: nope\" which does not exist.",
		},
		{
			name:     "unknown job",
			task:     NewFetchTask("up", "dist", "nope", "bin", ""),
			field:    "job",
			expected: "\"down :: test :: build\" tries to fetch artifact from job \"up :: dist :: nope\" which does not exist.",
		},
		{
			name:     "not upstream",
			task:     NewFetchTask("other", "dist", "build", "bin", ""),
			field:    "pipeline",
			expected: "Pipeline \"down\" tries to fetch artifact from pipeline \"other\" which is not an upstream pipeline",
		},
		{
			name:     "unknown pipeline",
			task:     NewFetchTask("ghost", "dist", "build", "bin", ""),
			field:    "pipeline",
			expected: "\"down :: test :: build\" tries to fetch artifact from pipeline \"ghost\" which does not exist.",
		},
		{
			name:     "not an ancestor",
			task:     NewFetchTask("other/up", "dist", "build", "bin", ""),
			field:    "pipeline",
			expected: "Pipeline named 'other' exists, but is not an ancestor of 'down' as declared in 'other/up'.",
		},
		{
			name:     "later stage of same pipeline",
			task:     NewFetchTask("down", "deploy", "build", "bin", ""),
			field:    "stage",
			expected: "\"down :: test :: build\" tries to fetch artifact from its stage \"deploy\" which does not complete before the current stage \"test\".",
		},
		{
			name:     "source outside working directory",
			task:     NewFetchTask("up", "dist", "build", "../bin", ""),
			field:    "source",
			expected: "Task of job 'build' in stage 'test' of pipeline 'down' has source path '../bin' which is outside the working directory.",
		},
		{
			name:     "blank source",
			task:     NewFetchTask("up", "dist", "build", "", ""),
			field:    "source",
			expected: "Source is a required field.",
		},
		{
			name:     "destination outside working directory",
			task:     NewFetchTask("up", "dist", "build", "bin", "/tmp"),
			field:    "destination",
			expected: "Task of job 'build' in stage 'test' of pipeline 'down' has destination path '/tmp' which is outside the working directory.",
		},
		{
			name:     "blank stage",
			task:     NewFetchTask("up", "", "build", "bin", ""),
			field:    "stage",
			expected: "Stage is a required field.",
		},
		{
			name:     "blank job",
			task:     NewFetchTask("up", "dist", " ", "bin", ""),
			field:    "job",
			expected: "Job is a required field.",
		},
		{
			name:     "invalid run_if",
			task:     &FetchTask{Pipeline: "up", Stage: "dist", Job: "build", Source: "bin", RunIf: "sometimes"},
			field:    "run_if",
			expected: "Invalid run_if value 'sometimes'. Valid values are: passed, failed, any.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateFetch(fetchConfig(), tt.task, tt.stage)
			if tt.field == "" {
				assert.True(t, errs.IsEmpty(), errs.AsMap())
				return
			}
			assert.Equal(t, tt.expected, errs.On(tt.field))
		})
	}
}

func TestFetchTaskDescribe(t *testing.T) {
	task := NewFetchTask("up", "dist", "build", "bin", "lib")
	assert.Equal(t, "fetch artifact [bin] => [lib] from [up/dist/build]", task.Describe())
	assert.Equal(t, "fetch", task.TaskType())
}

func TestExecTaskValidate(t *testing.T) {
	task := &ExecTask{Command: "make", WorkingDir: "../outside"}
	validateFetch(fetchConfig(), task, 0)
	assert.Equal(t, "The path of the working directory for the custom command in job 'build' in stage 'test' of pipeline 'down' is outside the agent sandbox. It must be relative to the directory where the agent checks out materials.", task.Errors().On("working_dir"))

	task = &ExecTask{Command: "make", WorkingDir: "src/../build"}
	assert.True(t, validateFetch(fetchConfig(), task, 0).IsEmpty())
	assert.Equal(t, "make", task.Describe())
}

func TestIsOutsideWorkingDir(t *testing.T) {
	tests := []struct {
		path    string
		outside bool
	}{
		{path: "bin", outside: false},
		{path: "a/../b", outside: false},
		{path: "..", outside: true},
		{path: "../bin", outside: true},
		{path: "a/../../bin", outside: true},
		{path: "/etc", outside: true},
		{path: "C:\\work", outside: true},
		{path: "..\\bin", outside: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.outside, isOutsideWorkingDir(tt.path))
		})
	}
}

func externalFetchConfig() *CruiseConfig {
	cfg := fetchConfig()
	cfg.ArtifactStores = ArtifactStores{{ID: "registry", PluginID: "cd.go.registry"}}
	up := cfg.PipelineByName("up")
	up.Stage("dist").Jobs[0].Artifacts = ArtifactConfigs{NewExternalArtifact("image", "registry")}
	return cfg
}

func TestFetchExternalTaskValidate(t *testing.T) {
	metadata.Artifacts().SetPluginInfo(&metadata.ArtifactPluginInfo{
		PluginID: "cd.go.registry",
		FetchArtifactSettings: metadata.PluginSettings{
			{Key: "EnvironmentVariablePrefix", Required: true},
			{Key: "Token", Secure: true},
		},
	})
	defer metadata.Artifacts().Remove("cd.go.registry")

	t.Run("valid", func(t *testing.T) {
		task := NewFetchExternalTask("up", "dist", "build", "image", NewConfigurationProperty("EnvironmentVariablePrefix", "IMG"))
		assert.True(t, validateFetch(externalFetchConfig(), task, 0).IsEmpty())
	})

	t.Run("missing required property", func(t *testing.T) {
		task := NewFetchExternalTask("up", "dist", "build", "image")
		errs := validateFetch(externalFetchConfig(), task, 0)
		assert.Equal(t, "EnvironmentVariablePrefix must not be blank.", errs.On("properties"))
	})

	t.Run("unknown artifact", func(t *testing.T) {
		task := NewFetchExternalTask("up", "dist", "build", "nope")
		errs := validateFetch(externalFetchConfig(), task, 0)
		assert.Equal(t, "Pluggable artifact with id `nope` does not exist in [up/dist/build].", errs.On("artifact_id"))
	})

	t.Run("blank artifact id", func(t *testing.T) {
		task := NewFetchExternalTask("up", "dist", "build", " ")
		errs := validateFetch(externalFetchConfig(), task, 0)
		assert.Equal(t, "Artifact Id cannot be blank.", errs.On("artifact_id"))
	})

	t.Run("duplicate properties", func(t *testing.T) {
		task := NewFetchExternalTask("up", "dist", "build", "image",
			NewConfigurationProperty("EnvironmentVariablePrefix", "A"),
			NewConfigurationProperty("EnvironmentVariablePrefix", "B"))
		validateFetch(externalFetchConfig(), task, 0)
		assert.Equal(t, "Duplicate key 'EnvironmentVariablePrefix' found for Fetch pluggable artifact", task.Properties[1].Errors().On("key"))
	})
}

func TestTasksFilters(t *testing.T) {
	fetch := NewFetchTask("up", "dist", "build", "bin", "")
	external := NewFetchExternalTask("up", "dist", "build", "image")
	tasks := Tasks{NewExecTask("make"), fetch, external}

	assert.Equal(t, []*FetchTask{fetch}, tasks.Fetches())
	assert.Equal(t, []*FetchExternalTask{external}, tasks.FetchExternals())
}
