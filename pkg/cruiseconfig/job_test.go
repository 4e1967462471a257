package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validateJob(j *JobConfig, cfg *CruiseConfig) {
	p := pipelineWithStages("up")
	p.Stages = []*StageConfig{NewStageConfig("dist", j)}
	if cfg == nil {
		cfg = NewCruiseConfig()
	}
	_ = cfg.AddPipeline("defaultGroup", p)
	j.Validate(contextFor(cfg, p, p.Stages[0], j))
}

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(j *JobConfig)
		field    string
		expected string
	}{
		{
			name:     "blank name",
			setup:    func(j *JobConfig) { j.Name = "" },
			field:    "name",
			expected: "Name is a required field",
		},
		{
			name:     "invalid name",
			setup:    func(j *JobConfig) { j.Name = "compile code" },
			field:    "name",
			expected: "Invalid job name 'compile code'. This must be alphanumeric and may contain underscores and periods. The maximum allowed length is 255 characters.",
		},
		{
			name:     "reserved run on all marker",
			setup:    func(j *JobConfig) { j.Name = "compile-runOnAll-1" },
			field:    "name",
			expected: "A job cannot have '-runOnAll-' in it's name: compile-runOnAll-1 because it is a reserved keyword",
		},
		{
			name:     "reserved instance marker",
			setup:    func(j *JobConfig) { j.Name = "compile-runinstance-1" },
			field:    "name",
			expected: "A job cannot have '-runInstance-' in it's name: compile-runinstance-1 because it is a reserved keyword",
		},
		{
			name:     "instance count not a number",
			setup:    func(j *JobConfig) { j.RunInstanceCount = "two" },
			field:    "run_type",
			expected: "'Run Instance Count' should be a valid positive integer as it represents number of instances Go needs to spawn during runtime.",
		},
		{
			name:     "negative instance count",
			setup:    func(j *JobConfig) { j.RunInstanceCount = "-1" },
			field:    "run_type",
			expected: "'Run Instance Count' cannot be a negative number as it represents number of instances Go needs to spawn during runtime.",
		},
		{
			name: "run on all and multiple instances",
			setup: func(j *JobConfig) {
				j.RunOnAllAgents = true
				j.RunInstanceCount = "2"
			},
			field:    "run_type",
			expected: "Job cannot be 'run on all agents' type and 'run multiple instance' type together.",
		},
		{
			name:     "timeout not a number",
			setup:    func(j *JobConfig) { j.Timeout = "soon" },
			field:    "timeout",
			expected: "Timeout should be a valid number as it represents number of minutes",
		},
		{
			name:     "negative timeout",
			setup:    func(j *JobConfig) { j.Timeout = "-5" },
			field:    "timeout",
			expected: "Timeout cannot be a negative number as it represents number of minutes",
		},
		{
			name:     "blank resource",
			setup:    func(j *JobConfig) { j.Resources = []string{" "} },
			field:    "resources",
			expected: "Empty resource name in job \"compile\" of stage \"dist\" of pipeline \"up\". If a template is used, please ensure that the resource parameters are defined for this pipeline.",
		},
		{
			name:     "invalid resource",
			setup:    func(j *JobConfig) { j.Resources = []string{"linux*"} },
			field:    "resources",
			expected: "Resource name 'linux*' is not valid. Valid names much match '^[-\\w\\s|.]*$'",
		},
		{
			name:     "unknown elastic profile",
			setup:    func(j *JobConfig) { j.SetElasticProfile("docker") },
			field:    "elastic_profile_id",
			expected: "No profile defined corresponding to profile_id 'docker'",
		},
		{
			name:     "blank elastic profile",
			setup:    func(j *JobConfig) { j.SetElasticProfile(" ") },
			field:    "elastic_profile_id",
			expected: "Must not be a blank string",
		},
		{
			name: "resources and elastic profile",
			setup: func(j *JobConfig) {
				j.Resources = []string{"linux"}
				j.SetElasticProfile("docker")
			},
			field:    "resources",
			expected: "Job cannot have both `resource` and `elastic_profile_id`",
		},
		{
			name: "duplicate variables",
			setup: func(j *JobConfig) {
				j.EnvironmentVariables = EnvironmentVariablesConfig{NewEnvironmentVariable("A", "1"), NewEnvironmentVariable("a", "2")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJobConfig("compile", NewExecTask("make"))
			tt.setup(j)
			validateJob(j, nil)
			if tt.field == "" {
				return
			}
			assert.Equal(t, tt.expected, j.Errors().On(tt.field))
		})
	}
}

func TestJobVariableScope(t *testing.T) {
	j := NewJobConfig("compile", NewExecTask("make"))
	j.EnvironmentVariables = EnvironmentVariablesConfig{NewEnvironmentVariable("A", "1"), NewEnvironmentVariable("a", "2"), NewEnvironmentVariable("", "3")}
	validateJob(j, nil)

	assert.Equal(t, "Environment Variable name 'a' is not unique for job 'compile' in stage 'dist' of pipeline 'up'.", j.EnvironmentVariables[1].Errors().On("name"))
	assert.Equal(t, "Environment Variable name 'a' is not unique for job 'compile' in stage 'dist' of pipeline 'up'.", j.EnvironmentVariables[0].Errors().On("name"))
	assert.Equal(t, "Environment Variable cannot have an empty name for job 'compile' in stage 'dist' of pipeline 'up'.", j.EnvironmentVariables[2].Errors().On("name"))
}

func TestJobElasticProfile(t *testing.T) {
	cfg := NewCruiseConfig()
	cfg.ElasticProfiles = ElasticProfiles{{ID: "docker", PluginID: "cd.go.docker"}}

	j := NewJobConfig("compile", NewExecTask("make"))
	j.SetElasticProfile("docker")
	validateJob(j, cfg)
	assert.True(t, j.Errors().IsEmpty())
	assert.True(t, j.UsesElasticAgent())

	j = NewJobConfig("compile", NewExecTask("make"))
	j.SetElasticProfile("docker")
	j.RunOnAllAgents = true
	validateJob(j, cfg)
	assert.Equal(t, "Job cannot be set to 'run on all agents' when assigned to an elastic agent", j.Errors().On("run_type"))
}

func TestJobUniqueness(t *testing.T) {
	s := stageWithJobs("dist", "compile", "COMPILE")
	p := pipelineWithStages("up")
	p.Stages = []*StageConfig{s}
	configWithPipelines(p).ValidateAfterPreprocess()

	assert.Equal(t, "You have defined multiple jobs called 'compile'. Job names are case-insensitive and must be unique.", s.Jobs[0].Errors().On("name"))
	assert.Equal(t, "You have defined multiple jobs called 'COMPILE'. Job names are case-insensitive and must be unique.", s.Jobs[1].Errors().On("name"))
}

func TestJobTabs(t *testing.T) {
	j := NewJobConfig("compile", NewExecTask("make"))
	j.Tabs = []*Tab{
		NewTab("coverage", "reports/coverage.html"),
		NewTab("Coverage", "reports/other.html"),
		NewTab("a-very-long-tab-name", "x"),
		NewTab("", ""),
	}
	p := pipelineWithStages("up")
	p.Stages = []*StageConfig{NewStageConfig("dist", j)}
	configWithPipelines(p).ValidateAfterPreprocess()

	assert.Equal(t, "Tab name 'Coverage' is not unique.", j.Tabs[1].Errors().On("name"))
	assert.Equal(t, "Tab name 'Coverage' is not unique.", j.Tabs[0].Errors().On("name"))
	assert.Equal(t, "Tab name 'a-very-long-tab-name' is invalid. This must be alphanumeric and can contain underscores and periods. The maximum allowed length is 15 characters.", j.Tabs[2].Errors().On("name"))
	assert.Equal(t, "Tab name is a required field.", j.Tabs[3].Errors().On("name"))
	assert.Equal(t, "Tab path is a required field.", j.Tabs[3].Errors().On("path"))
}

func TestJobInstances(t *testing.T) {
	all := &JobConfig{Name: "Compile", RunOnAllAgents: true}
	assert.True(t, all.IsInstanceOf("Compile", false))
	assert.True(t, all.IsInstanceOf("compile-runOnAll-1", true))
	assert.False(t, all.IsInstanceOf("compile-runOnAll-1", false))
	assert.True(t, all.IsInstanceOf("Compile-runOnAll-1", false))
	assert.Equal(t, "Compile-runOnAll-2", all.TranslatedName(2))
	assert.Equal(t, RunTypeOnAllAgents, all.RunType())

	multi := &JobConfig{Name: "test", RunInstanceCount: "3"}
	assert.True(t, multi.IsInstanceOf("test-runInstance-3", false))
	assert.False(t, multi.IsInstanceOf("test-runOnAll-3", false))
	assert.Equal(t, "test-runInstance-1", multi.TranslatedName(1))
	assert.Equal(t, RunTypeMultipleInstance, multi.RunType())

	single := &JobConfig{Name: "lint"}
	assert.False(t, single.IsInstanceOf("lint-runInstance-1", false))
	assert.Equal(t, "lint", single.TranslatedName(1))
	assert.Equal(t, RunTypeSingleInstance, single.RunType())
}

func TestJobTimeoutType(t *testing.T) {
	assert.Equal(t, TimeoutTypeDefault, (&JobConfig{}).TimeoutType())
	assert.Equal(t, TimeoutTypeNever, (&JobConfig{Timeout: "0"}).TimeoutType())
	assert.Equal(t, TimeoutTypeOverride, (&JobConfig{Timeout: "10"}).TimeoutType())
}

func TestJobTasksDefaultsToNullTask(t *testing.T) {
	j := NewJobConfig("compile")
	tasks := j.Tasks()
	assert.Len(t, tasks, 1)
	assert.IsType(t, &NullTask{}, tasks[0])
	assert.Empty(t, j.TaskList)
}

func TestJobSetConfigAttributes(t *testing.T) {
	j := NewJobConfig("old")
	j.SetConfigAttributes(map[string]any{
		"name":             "compile",
		"elasticProfileId": "docker",
		"resources":        "linux, java ,, ",
		"timeoutType":      TimeoutTypeOverride,
		"timeout":          " 15 ",
		"runType":          RunTypeMultipleInstance,
		"runInstanceCount": "4",
		"tabs": []map[string]any{
			{"name": "coverage", "path": "reports/index.html"},
			{"name": "", "path": ""},
		},
		"variables": []map[string]any{
			{"name": "JAVA_HOME", "value": "/opt/java"},
			{"name": "TOKEN", "value": "x", "secure": "true"},
			{"name": " "},
		},
	})

	assert.Equal(t, CaseInsensitiveString("compile"), j.Name)
	assert.Equal(t, "docker", j.ElasticProfile())
	assert.Equal(t, []string{"linux", "java"}, j.Resources)
	assert.Equal(t, "15", j.Timeout)
	assert.Equal(t, "4", j.RunInstanceCount)
	assert.False(t, j.RunOnAllAgents)
	assert.Len(t, j.Tabs, 1)
	assert.Len(t, j.EnvironmentVariables, 2)
	assert.True(t, j.EnvironmentVariables[1].Secure)

	j.SetConfigAttributes(map[string]any{"elasticProfileId": "", "timeoutType": TimeoutTypeNever, "runType": RunTypeOnAllAgents})
	assert.Nil(t, j.ElasticProfileID)
	assert.Equal(t, "0", j.Timeout)
	assert.True(t, j.RunOnAllAgents)
	assert.Equal(t, "", j.RunInstanceCount)
}
