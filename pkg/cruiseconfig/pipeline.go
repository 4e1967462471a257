package cruiseconfig

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"
)

const (
	LockOnFailure      = "lockOnFailure"
	UnlockWhenFinished = "unlockWhenFinished"
	LockNone           = "none"

	DefaultLabelTemplate = "${COUNT}"

	labelTemplateFormat = "Label should be composed of alphanumeric text, it can contain the build number as ${COUNT}, can contain a material revision as ${<material-name>} of ${<material-name>[:<number>]}, or use params as #{<param-name>}."
)

var (
	validLockValues   = []string{LockOnFailure, UnlockWhenFinished, LockNone}
	labelTokenPattern = regexp.MustCompile(`^([^\[]*)(\[:(\d+)\])?$`)
)

// PipelineConfig is an ordered list of stages triggered by its materials.
// Stages come either from the pipeline itself or from a template.
type PipelineConfig struct {
	errorCollector       `yaml:"-" json:"-"`
	Name                 CaseInsensitiveString      `yaml:"name" json:"name" param:"skip"`
	LabelTemplate        string                     `yaml:"label_template,omitempty" json:"label_template,omitempty"`
	LockBehavior         string                     `yaml:"lock_behavior,omitempty" json:"lock_behavior,omitempty"`
	Template             CaseInsensitiveString      `yaml:"template,omitempty" json:"template,omitempty" param:"skip"`
	Timer                *TimerConfig               `yaml:"timer,omitempty" json:"timer,omitempty"`
	Params               ParamsConfig               `yaml:"params,omitempty" json:"params,omitempty" param:"skip"`
	EnvironmentVariables EnvironmentVariablesConfig `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
	Materials            MaterialConfigs            `yaml:"materials" json:"materials"`
	Stages               []*StageConfig             `yaml:"stages,omitempty" json:"stages,omitempty"`

	templateApplied bool
}

func NewPipelineConfig(name string, materials MaterialConfigs, stages ...*StageConfig) *PipelineConfig {
	return &PipelineConfig{
		Name:          CaseInsensitiveString(name),
		LabelTemplate: DefaultLabelTemplate,
		Materials:     materials,
		Stages:        stages,
	}
}

func (p *PipelineConfig) UnmarshalYAML(value *yaml.Node) error {
	type pipelineAlias PipelineConfig
	if err := checkKnownFields(value, reflect.TypeOf(p)); err != nil {
		return err
	}
	alias := pipelineAlias{LabelTemplate: DefaultLabelTemplate}
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*p = PipelineConfig(alias)
	return nil
}

func (p *PipelineConfig) Stage(name CaseInsensitiveString) *StageConfig {
	if i := stageIndex(p.Stages, name); i >= 0 {
		return p.Stages[i]
	}
	return nil
}

func (p *PipelineConfig) FirstStage() *StageConfig {
	if len(p.Stages) == 0 {
		return nil
	}
	return p.Stages[0]
}

// NextStage returns the stage after name, or nil when name is last or
// missing.
func (p *PipelineConfig) NextStage(name CaseInsensitiveString) *StageConfig {
	i := stageIndex(p.Stages, name)
	if i < 0 || i+1 >= len(p.Stages) {
		return nil
	}
	return p.Stages[i+1]
}

func (p *PipelineConfig) HasNextStage(name CaseInsensitiveString) bool {
	return p.NextStage(name) != nil
}

func (p *PipelineConfig) PreviousStage(name CaseInsensitiveString) *StageConfig {
	i := stageIndex(p.Stages, name)
	if i <= 0 {
		return nil
	}
	return p.Stages[i-1]
}

// AllStagesBefore returns the stages preceding name. A missing name yields
// every stage.
func (p *PipelineConfig) AllStagesBefore(name CaseInsensitiveString) []*StageConfig {
	var out []*StageConfig
	for _, s := range p.Stages {
		if s.Name.Equal(name) {
			break
		}
		out = append(out, s)
	}
	return out
}

// ValidStagesForFetch lists the stages of p that downstream may fetch from
// while running currentStage.
func (p *PipelineConfig) ValidStagesForFetch(downstream *PipelineConfig, currentStage CaseInsensitiveString) []*StageConfig {
	if dep := downstream.DependencyOn(p.Name); dep != nil {
		stages := p.AllStagesBefore(dep.Stage)
		if s := p.Stage(dep.Stage); s != nil {
			stages = append(stages, s)
		}
		return stages
	}
	if p == downstream {
		return p.AllStagesBefore(currentStage)
	}
	return nil
}

func (p *PipelineConfig) isStageBefore(stage, before CaseInsensitiveString) bool {
	i, j := stageIndex(p.Stages, stage), stageIndex(p.Stages, before)
	return i >= 0 && j >= 0 && i < j
}

// isStageAtOrBefore is lenient when the dependency stage is missing; the
// dependency material reports that.
func (p *PipelineConfig) isStageAtOrBefore(stage, dependencyStage CaseInsensitiveString) bool {
	j := stageIndex(p.Stages, dependencyStage)
	if j < 0 {
		return true
	}
	i := stageIndex(p.Stages, stage)
	return i >= 0 && i <= j
}

func (p *PipelineConfig) RequiresApproval() bool {
	if first := p.FirstStage(); first != nil {
		return first.RequiresApproval()
	}
	return false
}

// IncrementIndex moves stage one position later.
func (p *PipelineConfig) IncrementIndex(stage *StageConfig) error {
	return p.moveStage(stage, 1)
}

// DecrementIndex moves stage one position earlier.
func (p *PipelineConfig) DecrementIndex(stage *StageConfig) error {
	return p.moveStage(stage, -1)
}

func (p *PipelineConfig) moveStage(stage *StageConfig, by int) error {
	current := -1
	for i, s := range p.Stages {
		if s == stage {
			current = i
			break
		}
	}
	target := current + by
	if current < 0 || target < 0 || target >= len(p.Stages) {
		return fmt.Errorf("Cannot find the stage '%s' in pipeline '%s'", stage.Name, p.Name)
	}
	p.Stages[current], p.Stages[target] = p.Stages[target], p.Stages[current]
	return nil
}

// AddStage appends a stage. Pipelines referencing a template and duplicate
// stage names are rejected.
func (p *PipelineConfig) AddStage(stage *StageConfig) error {
	if p.HasTemplate() {
		return fmt.Errorf("Cannot add stage '%s' to pipeline '%s', which already references template '%s'.", stage.Name, p.Name, p.Template)
	}
	if p.Stage(stage.Name) != nil {
		return fmt.Errorf("You have defined multiple stages called '%s'. Stage names are case-insensitive and must be unique.", stage.Name)
	}
	p.Stages = append(p.Stages, stage)
	return nil
}

func (p *PipelineConfig) HasTemplate() bool {
	return !p.Template.IsBlank()
}

func (p *PipelineConfig) HasTemplateApplied() bool {
	return p.templateApplied
}

// SetTemplate makes p use the named template. It fails when p has stages.
func (p *PipelineConfig) SetTemplate(name CaseInsensitiveString) error {
	if len(p.Stages) > 0 {
		return fmt.Errorf("Cannot set template '%s' on pipeline '%s' because it already has stages defined", name, p.Name)
	}
	p.Template = name
	return nil
}

// UsingTemplate appends deep copies of the template's stages.
func (p *PipelineConfig) UsingTemplate(t *PipelineTemplateConfig) {
	for _, s := range t.Stages {
		p.Stages = append(p.Stages, deepcopy.Copy(s).(*StageConfig))
	}
	p.templateApplied = true
}

// CopyForEditing clones p, dropping template stages so the template
// reference is all that is edited.
func (p *PipelineConfig) CopyForEditing() *PipelineConfig {
	c := deepcopy.Copy(p).(*PipelineConfig)
	if c.HasTemplate() {
		c.Stages = nil
	}
	return c
}

func (p *PipelineConfig) DependencyMaterials() []*DependencyMaterialConfig {
	return p.Materials.Dependencies()
}

// DependencyOn returns the dependency material on the named upstream.
func (p *PipelineConfig) DependencyOn(upstream CaseInsensitiveString) *DependencyMaterialConfig {
	for _, d := range p.Materials.Dependencies() {
		if d.Pipeline.Equal(upstream) {
			return d
		}
	}
	return nil
}

func (p *PipelineConfig) DependsOn(upstream CaseInsensitiveString) bool {
	return p.DependencyOn(upstream) != nil
}

// UpstreamPipelines names the pipelines p directly depends on.
func (p *PipelineConfig) UpstreamPipelines() []CaseInsensitiveString {
	var names []CaseInsensitiveString
	for _, d := range p.Materials.Dependencies() {
		names = append(names, d.Pipeline)
	}
	return names
}

// FirstLevelUpstreams resolves UpstreamPipelines against cfg, skipping
// unknown names.
func (p *PipelineConfig) FirstLevelUpstreams(cfg *CruiseConfig) []*PipelineConfig {
	var out []*PipelineConfig
	for _, name := range p.UpstreamPipelines() {
		if up := cfg.PipelineByName(name); up != nil {
			out = append(out, up)
		}
	}
	return out
}

// VariableInScope reports whether name is defined on p or any of its stages
// or jobs.
func (p *PipelineConfig) VariableInScope(name string) bool {
	if p.EnvironmentVariables.HasVariable(name) {
		return true
	}
	for _, s := range p.Stages {
		if s.EnvironmentVariables.HasVariable(name) {
			return true
		}
		for _, j := range s.Jobs {
			if j.EnvironmentVariables.HasVariable(name) {
				return true
			}
		}
	}
	return false
}

// ReferredParams lists the #{name} references in p's resolvable fields,
// in first-seen order.
func (p *PipelineConfig) ReferredParams() []string {
	return referredParams(p)
}

func (p *PipelineConfig) IsLockable() bool {
	return p.LockBehavior == LockOnFailure || p.LockBehavior == UnlockWhenFinished
}

func (p *PipelineConfig) IsLockableOnFailure() bool {
	return p.LockBehavior == LockOnFailure
}

func (p *PipelineConfig) IsUnlockableWhenFinished() bool {
	return p.LockBehavior == UnlockWhenFinished
}

func (p *PipelineConfig) ExternalArtifacts() []*ExternalArtifactConfig {
	var out []*ExternalArtifactConfig
	for _, s := range p.Stages {
		for _, j := range s.Jobs {
			out = append(out, j.Artifacts.Externals()...)
		}
	}
	return out
}

func (p *PipelineConfig) FetchTasks() []*FetchTask {
	var out []*FetchTask
	for _, s := range p.Stages {
		for _, j := range s.Jobs {
			out = append(out, j.TaskList.Fetches()...)
		}
	}
	return out
}

func (p *PipelineConfig) FetchExternalTasks() []*FetchExternalTask {
	var out []*FetchExternalTask
	for _, s := range p.Stages {
		for _, j := range s.Jobs {
			out = append(out, j.TaskList.FetchExternals()...)
		}
	}
	return out
}

func (p *PipelineConfig) Validate(ctx *ValidationContext) {
	p.validateLabelTemplate()
	validateName(p, "name", "pipeline", p.Name.String())
	validateStages(p.Stages)
	p.validateLockBehavior()
	if !p.HasTemplate() && len(p.Stages) == 0 {
		p.AddError("pipeline", fmt.Sprintf("Pipeline '%s' does not have any stages configured. A pipeline must have at least one stage.", p.Name))
	}
	if cfg := ctx.CruiseConfig(); cfg != nil && p.HasTemplate() {
		p.validateTemplate(cfg.Template(p.Template))
	}

	p.Materials.validate()
	p.Params.validateUnique(p.Name.String())
	p.EnvironmentVariables.validateScope("pipeline", p.Name.String())
	p.validateExternalArtifactIDs()
}

func (p *PipelineConfig) validateTemplate(template *PipelineTemplateConfig) {
	if !IsNameValid(p.Template.String()) {
		p.AddError("template", NameErrorMessage("template", p.Template.String()))
	}
	if len(p.Stages) > 0 && !p.templateApplied {
		p.AddError("stages", fmt.Sprintf("Cannot add stages to pipeline '%s' which already references template '%s'", p.Name, p.Template))
		p.AddError("template", fmt.Sprintf("Cannot set template '%s' on pipeline '%s' because it already has stages defined", p.Template, p.Name))
	}
	if template == nil {
		p.AddError("pipeline", fmt.Sprintf("Pipeline '%s' refers to non-existent template '%s'.", p.Name, p.Template))
		return
	}
	if p.templateApplied {
		return
	}
	for _, name := range template.ReferredParams() {
		if !p.Params.HasParam(name) {
			p.AddError("params", fmt.Sprintf("The param '%s' is not defined in pipeline '%s'", name, p.Name))
		}
	}
}

func (p *PipelineConfig) validateLabelTemplate() {
	if strings.TrimSpace(p.LabelTemplate) == "" {
		p.AddError("label_template", "Label cannot be blank. "+labelTemplateFormat)
		return
	}

	tokens := substringsBetween(p.LabelTemplate, "${", "}")
	if tokens == nil {
		p.AddError("label_template", p.invalidLabelMessage())
		return
	}
	for _, token := range tokens {
		if !p.validateLabelToken(token) {
			return
		}
	}
}

func (p *PipelineConfig) validateLabelToken(token string) bool {
	lower := strings.ToLower(token)
	switch {
	case strings.TrimSpace(token) == "":
		p.AddError("label_template", "Label template variable cannot be blank.")
		return false
	case lower == "count":
		return true
	case lower == "env:":
		p.AddError("label_template", "Missing environment variable name.")
		return false
	case strings.HasPrefix(lower, "env:"):
		return true
	}

	m := labelTokenPattern.FindStringSubmatch(token)
	if m == nil {
		p.AddError("label_template", p.invalidLabelMessage())
		return false
	}
	material, length := m[1], m[3]
	if strings.HasPrefix(length, "0") {
		p.AddError("label_template", fmt.Sprintf("Length of zero not allowed on label %s defined on pipeline %s.", p.LabelTemplate, p.Name))
		return false
	}
	if !p.Materials.HasMaterialNamed(CaseInsensitiveString(material)) {
		p.AddError("label_template", fmt.Sprintf("You have defined a label template in pipeline '%s' that refers to a material called '%s', but no material with this name is defined.", p.Name, material))
		return false
	}
	return true
}

func (p *PipelineConfig) invalidLabelMessage() string {
	return fmt.Sprintf("Invalid label '%s'. %s", p.LabelTemplate, labelTemplateFormat)
}

// substringsBetween returns every substring enclosed by open and close, or
// nil when there is none.
func substringsBetween(s, open, close string) []string {
	var out []string
	for {
		start := strings.Index(s, open)
		if start < 0 {
			break
		}
		s = s[start+len(open):]
		end := strings.Index(s, close)
		if end < 0 {
			break
		}
		out = append(out, s[:end])
		s = s[end+len(close):]
	}
	return out
}

func (p *PipelineConfig) validateLockBehavior() {
	if p.LockBehavior == "" {
		return
	}
	for _, v := range validLockValues {
		if p.LockBehavior == v {
			return
		}
	}
	p.AddError("lock_behavior", fmt.Sprintf("Lock behavior has an invalid value (%s). Valid values are: [%s]", p.LockBehavior, strings.Join(validLockValues, ", ")))
}

func (p *PipelineConfig) validateExternalArtifactIDs() {
	seen := map[string]*ExternalArtifactConfig{}
	for _, a := range p.ExternalArtifacts() {
		if a.ID == "" {
			continue
		}
		if other, ok := seen[a.ID]; ok {
			msg := fmt.Sprintf("Duplicate pluggable artifacts  with id `%s` defined.", a.ID)
			other.AddError("id", msg)
			a.AddError("id", msg)
			continue
		}
		seen[a.ID] = a
	}
}

func (p *PipelineConfig) validateNameUniqueness(visited map[string]*PipelineConfig) {
	key := p.Name.Lower()
	if other, ok := visited[key]; ok {
		other.addNameConflict()
		p.addNameConflict()
		return
	}
	visited[key] = p
}

func (p *PipelineConfig) addNameConflict() {
	p.AddError("name", fmt.Sprintf("You have defined multiple pipelines called '%s'. Pipeline names are case-insensitive and must be unique.", p.Name))
}

// ValidateTree validates p and everything below it, including its
// dependency cycles.
func (p *PipelineConfig) ValidateTree(ctx *ValidationContext) bool {
	valid := validateTree(p, ctx)
	if cfg := ctx.CruiseConfig(); cfg != nil {
		if msg := NewDependencyGraph(cfg).cycleThrough(p); msg != "" {
			p.AddError("materials", msg)
			valid = false
		}
	}
	return valid
}
