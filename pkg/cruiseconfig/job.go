package cruiseconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	RunOnAllAgentsMarker = "-runOnAll-"
	RunInstanceMarker    = "-runInstance-"
	DefaultJobName       = "defaultJob"
	maxTabNameLength     = 15

	TimeoutTypeDefault  = "defaultTimeout"
	TimeoutTypeNever    = "neverTimeout"
	TimeoutTypeOverride = "overrideTimeout"

	RunTypeSingleInstance   = "runSingleInstance"
	RunTypeOnAllAgents      = "runOnAllAgents"
	RunTypeMultipleInstance = "runMultipleInstance"
)

var (
	jobNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	resourcePattern = regexp.MustCompile(`^[-\w\s|.]*$`)
)

// JobConfig is a unit of work scheduled on one agent, or several when it
// runs on all agents or as multiple instances.
type JobConfig struct {
	errorCollector       `yaml:"-" json:"-"`
	Name                 CaseInsensitiveString      `yaml:"name" json:"name" param:"skip"`
	Timeout              string                     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RunOnAllAgents       bool                       `yaml:"run_on_all_agents,omitempty" json:"run_on_all_agents,omitempty"`
	RunInstanceCount     string                     `yaml:"run_instance_count,omitempty" json:"run_instance_count,omitempty"`
	ElasticProfileID     *string                    `yaml:"elastic_profile_id,omitempty" json:"elastic_profile_id,omitempty"`
	Resources            []string                   `yaml:"resources,omitempty,flow" json:"resources,omitempty"`
	EnvironmentVariables EnvironmentVariablesConfig `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
	Tabs                 []*Tab                     `yaml:"tabs,omitempty" json:"tabs,omitempty"`
	Artifacts            ArtifactConfigs            `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	TaskList             Tasks                      `yaml:"tasks,omitempty" json:"tasks,omitempty"`
}

func NewJobConfig(name string, tasks ...Task) *JobConfig {
	return &JobConfig{Name: CaseInsensitiveString(name), TaskList: tasks}
}

// Tasks returns the job's tasks, or a single no-op task when none are set.
func (j *JobConfig) Tasks() Tasks {
	if len(j.TaskList) == 0 {
		return Tasks{&NullTask{}}
	}
	return j.TaskList
}

func (j *JobConfig) AddTask(t Task) {
	j.TaskList = append(j.TaskList, t)
}

func (j *JobConfig) ElasticProfile() string {
	if j.ElasticProfileID == nil {
		return ""
	}
	return *j.ElasticProfileID
}

func (j *JobConfig) SetElasticProfile(id string) {
	j.ElasticProfileID = &id
}

func (j *JobConfig) UsesElasticAgent() bool {
	return strings.TrimSpace(j.ElasticProfile()) != ""
}

func (j *JobConfig) IsRunMultipleInstance() bool {
	return j.RunInstanceCount != ""
}

func (j *JobConfig) TimeoutType() string {
	switch j.Timeout {
	case "":
		return TimeoutTypeDefault
	case "0":
		return TimeoutTypeNever
	}
	return TimeoutTypeOverride
}

func (j *JobConfig) RunType() string {
	switch {
	case j.RunOnAllAgents:
		return RunTypeOnAllAgents
	case j.IsRunMultipleInstance():
		return RunTypeMultipleInstance
	}
	return RunTypeSingleInstance
}

// IsInstanceOf reports whether instanceName is this job or one of its
// run-on-all-agents or run-multiple-instance copies.
func (j *JobConfig) IsInstanceOf(instanceName string, ignoreCase bool) bool {
	name := j.Name.String()
	if ignoreCase {
		instanceName = strings.ToLower(instanceName)
		name = strings.ToLower(name)
	}
	if instanceName == name {
		return true
	}
	if j.RunOnAllAgents {
		return strings.HasPrefix(instanceName, name+strings.ToLower(RunOnAllAgentsMarker)) ||
			strings.HasPrefix(instanceName, name+RunOnAllAgentsMarker)
	}
	if j.IsRunMultipleInstance() {
		return strings.HasPrefix(instanceName, name+strings.ToLower(RunInstanceMarker)) ||
			strings.HasPrefix(instanceName, name+RunInstanceMarker)
	}
	return false
}

// TranslatedName is the instance name used for run-on-all-agents and
// run-multiple-instance copies.
func (j *JobConfig) TranslatedName(counter int) string {
	switch {
	case j.RunOnAllAgents:
		return fmt.Sprintf("%s%s%d", j.Name, RunOnAllAgentsMarker, counter)
	case j.IsRunMultipleInstance():
		return fmt.Sprintf("%s%s%d", j.Name, RunInstanceMarker, counter)
	}
	return j.Name.String()
}

func (j *JobConfig) Validate(ctx *ValidationContext) {
	name := j.Name.String()
	if strings.TrimSpace(name) == "" {
		j.AddError("name", "Name is a required field")
	} else {
		if len(name) > MaxNameLength || !jobNamePattern.MatchString(name) {
			j.AddError("name", fmt.Sprintf("Invalid job name '%s'. This must be alphanumeric and may contain underscores and periods. The maximum allowed length is %d characters.", name, MaxNameLength))
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(RunOnAllAgentsMarker)) {
			j.AddError("name", fmt.Sprintf("A job cannot have '%s' in it's name: %s because it is a reserved keyword", RunOnAllAgentsMarker, name))
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(RunInstanceMarker)) {
			j.AddError("name", fmt.Sprintf("A job cannot have '%s' in it's name: %s because it is a reserved keyword", RunInstanceMarker, name))
		}
	}

	if j.RunInstanceCount != "" {
		count, err := strconv.Atoi(j.RunInstanceCount)
		if err != nil {
			j.AddError("run_type", "'Run Instance Count' should be a valid positive integer as it represents number of instances Go needs to spawn during runtime.")
		} else if count < 0 {
			j.AddError("run_type", "'Run Instance Count' cannot be a negative number as it represents number of instances Go needs to spawn during runtime.")
		}
	}
	if j.RunOnAllAgents && j.IsRunMultipleInstance() {
		j.AddError("run_type", "Job cannot be 'run on all agents' type and 'run multiple instance' type together.")
	}

	if j.Timeout != "" {
		timeout, err := strconv.ParseFloat(j.Timeout, 64)
		if err != nil {
			j.AddError("timeout", "Timeout should be a valid number as it represents number of minutes")
		} else if timeout < 0 {
			j.AddError("timeout", "Timeout cannot be a negative number as it represents number of minutes")
		}
	}

	if len(j.Resources) > 0 && j.UsesElasticAgent() {
		j.AddError("resources", "Job cannot have both `resource` and `elastic_profile_id`")
		j.AddError("elastic_profile_id", "Job cannot have both `resource` and `elastic_profile_id`")
	}
	if j.UsesElasticAgent() && !ctx.IsWithinTemplates() && !ctx.IsValidProfileID(j.ElasticProfile()) {
		j.AddError("elastic_profile_id", fmt.Sprintf("No profile defined corresponding to profile_id '%s'", j.ElasticProfile()))
	}
	if j.ElasticProfileID != nil && !j.UsesElasticAgent() {
		j.AddError("elastic_profile_id", "Must not be a blank string")
	}

	for _, r := range j.Resources {
		if strings.TrimSpace(r) == "" {
			j.AddError("resources", fmt.Sprintf("Empty resource name in job \"%s\" of stage \"%s\" of pipeline \"%s\". If a template is used, please ensure that the resource parameters are defined for this pipeline.", name, stageName(ctx), pipelineName(ctx)))
			continue
		}
		if !resourcePattern.MatchString(r) {
			j.AddError("resources", fmt.Sprintf("Resource name '%s' is not valid. Valid names much match '^[-\\w\\s|.]*$'", r))
		}
	}

	if j.RunOnAllAgents && j.UsesElasticAgent() {
		j.AddError("run_type", "Job cannot be set to 'run on all agents' when assigned to an elastic agent")
	}

	kind, owner := ctx.ownerDescription()
	scope := fmt.Sprintf("job '%s' in stage '%s' of %s", name, stageName(ctx), kind)
	j.EnvironmentVariables.validateScope(scope, owner)
	j.validateTabs()
	j.Artifacts.validateUniqueness()
}

func pipelineName(ctx *ValidationContext) string {
	if p := ctx.Pipeline(); p != nil {
		return p.Name.String()
	}
	return ""
}

func (j *JobConfig) validateTabs() {
	seen := map[string]*Tab{}
	for _, t := range j.Tabs {
		key := strings.ToLower(t.Name)
		if other, ok := seen[key]; ok {
			msg := fmt.Sprintf("Tab name '%s' is not unique.", t.Name)
			other.AddError("name", msg)
			t.AddError("name", msg)
			continue
		}
		seen[key] = t
	}
}

func (j *JobConfig) validateNameUniqueness(visited map[string]*JobConfig) {
	if j.Name.IsBlank() {
		return
	}
	key := j.Name.Lower()
	if other, ok := visited[key]; ok {
		other.addUniquenessViolation()
		j.addUniquenessViolation()
		return
	}
	visited[key] = j
}

func (j *JobConfig) addUniquenessViolation() {
	j.AddError("name", fmt.Sprintf("You have defined multiple jobs called '%s'. Job names are case-insensitive and must be unique.", j.Name))
}

// SetConfigAttributes binds form attributes onto the job.
func (j *JobConfig) SetConfigAttributes(attributes map[string]any) {
	if v, ok := attributes["name"]; ok {
		name, _ := v.(string)
		j.Name = CaseInsensitiveString(name)
	}
	if v, ok := attributes["elasticProfileId"]; ok {
		id, _ := v.(string)
		if strings.TrimSpace(id) == "" {
			j.ElasticProfileID = nil
		} else {
			j.SetElasticProfile(id)
		}
	}
	if v, ok := attributes["variables"]; ok {
		j.EnvironmentVariables.SetConfigAttributes(v)
	}
	if v, ok := attributes["tabs"]; ok {
		j.setTabAttributes(v)
	}
	if v, ok := attributes["resources"]; ok {
		csv, _ := v.(string)
		j.Resources = nil
		for _, r := range strings.Split(csv, ",") {
			if r = strings.TrimSpace(r); r != "" {
				j.Resources = append(j.Resources, r)
			}
		}
	}
	j.setTimeoutAttribute(attributes)
	j.setRunTypeAttribute(attributes)
}

func (j *JobConfig) setTimeoutAttribute(attributes map[string]any) {
	timeoutType, ok := attributes["timeoutType"].(string)
	if !ok {
		return
	}
	switch timeoutType {
	case TimeoutTypeDefault:
		j.Timeout = ""
	case TimeoutTypeNever:
		j.Timeout = "0"
	case TimeoutTypeOverride:
		timeout, _ := attributes["timeout"].(string)
		j.Timeout = strings.TrimSpace(timeout)
	}
}

func (j *JobConfig) setRunTypeAttribute(attributes map[string]any) {
	runType, ok := attributes["runType"].(string)
	if !ok {
		return
	}
	j.RunOnAllAgents = false
	j.RunInstanceCount = ""
	switch runType {
	case RunTypeOnAllAgents:
		j.RunOnAllAgents = true
	case RunTypeMultipleInstance:
		count, _ := attributes["runInstanceCount"].(string)
		j.RunInstanceCount = strings.TrimSpace(count)
	}
}

func (j *JobConfig) setTabAttributes(v any) {
	items, ok := v.([]map[string]any)
	if !ok {
		return
	}
	j.Tabs = nil
	for _, item := range items {
		name, _ := item["name"].(string)
		path, _ := item["path"].(string)
		if strings.TrimSpace(name) == "" && strings.TrimSpace(path) == "" {
			continue
		}
		j.Tabs = append(j.Tabs, NewTab(name, path))
	}
}

// Tab shows an artifact file as a tab on the job details page.
type Tab struct {
	errorCollector `yaml:"-" json:"-"`
	Name           string `yaml:"name" json:"name"`
	Path           string `yaml:"path" json:"path"`
}

func NewTab(name, path string) *Tab {
	return &Tab{Name: name, Path: path}
}

func (t *Tab) Validate(_ *ValidationContext) {
	if strings.TrimSpace(t.Name) == "" {
		t.AddError("name", "Tab name is a required field.")
	} else if len(t.Name) > maxTabNameLength || !jobNamePattern.MatchString(t.Name) {
		t.AddError("name", fmt.Sprintf("Tab name '%s' is invalid. This must be alphanumeric and can contain underscores and periods. The maximum allowed length is %d characters.", t.Name, maxTabNameLength))
	}
	if strings.TrimSpace(t.Path) == "" {
		t.AddError("path", "Tab path is a required field.")
	}
}
