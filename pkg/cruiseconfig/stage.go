package cruiseconfig

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

type ApprovalType string

const (
	ApprovalSuccess ApprovalType = "success"
	ApprovalManual  ApprovalType = "manual"
)

// Approval gates a stage: success runs it automatically after the previous
// stage passes, manual waits for an authorized user.
type Approval struct {
	errorCollector     `yaml:"-" json:"-"`
	Type               ApprovalType      `yaml:"type" json:"type" param:"skip"`
	AllowOnlyOnSuccess bool              `yaml:"allow_only_on_success,omitempty" json:"allow_only_on_success,omitempty"`
	Authorization      *PermissionConfig `yaml:"authorization,omitempty" json:"authorization,omitempty"`
}

func ManualApproval(users []string, roles ...string) *Approval {
	return &Approval{Type: ApprovalManual, Authorization: NewPermission(users, roles...)}
}

func SuccessApproval() *Approval {
	return &Approval{Type: ApprovalSuccess}
}

func (a *Approval) Validate(ctx *ValidationContext) {
	if a.Type != ApprovalSuccess && a.Type != ApprovalManual {
		a.AddError("type", fmt.Sprintf("You have defined approval type as '%s'. Approval can only be of the type '%s' or '%s'.", a.Type, ApprovalManual, ApprovalSuccess))
	}
	if a.Authorization.IsEmpty() || ctx.IsWithinTemplates() {
		return
	}
	group := ctx.PipelineGroup()
	if group == nil {
		return
	}
	security := ctx.SecurityConfig()
	if !security.IsSecurityEnabled() {
		return
	}
	for _, user := range a.Authorization.Users {
		if !group.HasOperatePermission(user, security) {
			a.AddError("authorization", fmt.Sprintf("User \"%s\" who is not authorized to operate pipeline group `%s` can not be authorized to approve stage", user, group.Name))
		}
	}
	for _, role := range a.Authorization.Roles {
		if !group.HasOperatePermissionForRole(role) {
			a.AddError("authorization", fmt.Sprintf("Role \"%s\" who is not authorized to operate pipeline group `%s` can not be authorized to approve stage", role, group.Name))
		}
	}
}

func (a *Approval) IsManual() bool {
	return a != nil && a.Type == ApprovalManual
}

// StageConfig is a group of jobs that run in parallel.
type StageConfig struct {
	errorCollector        `yaml:"-" json:"-"`
	Name                  CaseInsensitiveString      `yaml:"name" json:"name" param:"skip"`
	FetchMaterials        bool                       `yaml:"fetch_materials" json:"fetch_materials"`
	CleanWorkingDir       bool                       `yaml:"clean_working_dir,omitempty" json:"clean_working_dir,omitempty"`
	NeverCleanupArtifacts bool                       `yaml:"never_cleanup_artifacts,omitempty" json:"never_cleanup_artifacts,omitempty"`
	Approval              *Approval                  `yaml:"approval,omitempty" json:"approval,omitempty"`
	EnvironmentVariables  EnvironmentVariablesConfig `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
	Jobs                  []*JobConfig               `yaml:"jobs" json:"jobs"`
}

func NewStageConfig(name string, jobs ...*JobConfig) *StageConfig {
	return &StageConfig{Name: CaseInsensitiveString(name), FetchMaterials: true, Jobs: jobs}
}

func (s *StageConfig) UnmarshalYAML(value *yaml.Node) error {
	type stageAlias StageConfig
	if err := checkKnownFields(value, reflect.TypeOf(s)); err != nil {
		return err
	}
	alias := stageAlias{FetchMaterials: true}
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*s = StageConfig(alias)
	return nil
}

func (s *StageConfig) Job(name CaseInsensitiveString) *JobConfig {
	for _, j := range s.Jobs {
		if j.Name.Equal(name) {
			return j
		}
	}
	return nil
}

func (s *StageConfig) RequiresApproval() bool {
	return s.Approval.IsManual()
}

func (s *StageConfig) Validate(ctx *ValidationContext) {
	validateName(s, "name", "stage", s.Name.String())
	if len(s.Jobs) == 0 {
		s.AddError("jobs", fmt.Sprintf("Stage '%s' does not have any jobs configured. A stage must have at least one job.", s.Name))
	}

	visited := map[string]*JobConfig{}
	for _, j := range s.Jobs {
		j.validateNameUniqueness(visited)
	}

	kind, owner := ctx.ownerDescription()
	s.EnvironmentVariables.validateScope(fmt.Sprintf("stage '%s' in %s", s.Name, kind), owner)
}

func (s *StageConfig) validateNameUniqueness(visited map[string]*StageConfig) {
	if s.Name.IsBlank() {
		return
	}
	key := s.Name.Lower()
	if other, ok := visited[key]; ok {
		other.addUniquenessViolation()
		s.addUniquenessViolation()
		return
	}
	visited[key] = s
}

func (s *StageConfig) addUniquenessViolation() {
	s.AddError("name", fmt.Sprintf("You have defined multiple stages called '%s'. Stage names are case-insensitive and must be unique.", s.Name))
}

// ValidateTree validates the stage and everything below it.
func (s *StageConfig) ValidateTree(ctx *ValidationContext) bool {
	return validateTree(s, ctx)
}

func validateStages(stages []*StageConfig) {
	visited := map[string]*StageConfig{}
	for _, s := range stages {
		s.validateNameUniqueness(visited)
	}
}

func stageIndex(stages []*StageConfig, name CaseInsensitiveString) int {
	for i, s := range stages {
		if s.Name.Equal(name) {
			return i
		}
	}
	return -1
}
