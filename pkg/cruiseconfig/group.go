package cruiseconfig

import (
	"fmt"
)

// PipelineConfigs is a named group of pipelines sharing an authorization.
type PipelineConfigs struct {
	errorCollector `yaml:"-" json:"-"`
	Name           string            `yaml:"group" json:"group" param:"skip"`
	Authorization  *Authorization    `yaml:"authorization,omitempty" json:"authorization,omitempty"`
	Pipelines      []*PipelineConfig `yaml:"pipelines,omitempty" json:"pipelines,omitempty"`
}

func NewPipelineGroup(name string, pipelines ...*PipelineConfig) *PipelineConfigs {
	return &PipelineConfigs{Name: name, Pipelines: pipelines}
}

func (g *PipelineConfigs) Find(name CaseInsensitiveString) *PipelineConfig {
	for _, p := range g.Pipelines {
		if p.Name.Equal(name) {
			return p
		}
	}
	return nil
}

func (g *PipelineConfigs) HasPipeline(name CaseInsensitiveString) bool {
	return g.Find(name) != nil
}

// Add appends p unless a pipeline with the same name is already in the
// group.
func (g *PipelineConfigs) Add(p *PipelineConfig) error {
	if g.HasPipeline(p.Name) {
		return fmt.Errorf("You have defined multiple pipelines called '%s'. Pipeline names are case-insensitive and must be unique.", p.Name)
	}
	g.Pipelines = append(g.Pipelines, p)
	return nil
}

func (g *PipelineConfigs) Remove(name CaseInsensitiveString) bool {
	for i, p := range g.Pipelines {
		if p.Name.Equal(name) {
			g.Pipelines = append(g.Pipelines[:i], g.Pipelines[i+1:]...)
			return true
		}
	}
	return false
}

func (g *PipelineConfigs) HasAuthorizationDefined() bool {
	return !g.Authorization.IsEmpty()
}

// IsAdmin reports whether user administers the group. System admins
// administer every group.
func (g *PipelineConfigs) IsAdmin(user string, security *SecurityConfig) bool {
	if !security.IsSecurityEnabled() || security.IsAdmin(user) {
		return true
	}
	return g.Authorization != nil && g.Authorization.Admins.Grants(user, security)
}

// HasViewPermission reports whether user can see the group's pipelines.
// A group without authorization is visible to everyone.
func (g *PipelineConfigs) HasViewPermission(user string, security *SecurityConfig) bool {
	if !g.HasAuthorizationDefined() || g.IsAdmin(user, security) {
		return true
	}
	return g.Authorization.View.Grants(user, security)
}

// HasOperatePermission reports whether user can trigger the group's
// pipelines. A group without authorization can be operated by everyone.
func (g *PipelineConfigs) HasOperatePermission(user string, security *SecurityConfig) bool {
	if !g.HasAuthorizationDefined() || g.IsAdmin(user, security) {
		return true
	}
	return g.Authorization.Operate.Grants(user, security)
}

// HasOperatePermissionForRole reports whether members of role can operate
// the group through its operate or admin permissions.
func (g *PipelineConfigs) HasOperatePermissionForRole(role CaseInsensitiveString) bool {
	if !g.HasAuthorizationDefined() {
		return true
	}
	for _, perm := range []*PermissionConfig{g.Authorization.Operate, g.Authorization.Admins} {
		if perm == nil {
			continue
		}
		for _, r := range perm.Roles {
			if r.Equal(role) {
				return true
			}
		}
	}
	return false
}

func (g *PipelineConfigs) Validate(_ *ValidationContext) {
	validateName(g, "group", "group", g.Name)
}

func (g *PipelineConfigs) validateNameUniqueness(visited map[string]*PipelineConfigs) {
	key := CaseInsensitiveString(g.Name).Lower()
	if other, ok := visited[key]; ok {
		msg := fmt.Sprintf("Group with name '%s' already exists", g.Name)
		other.AddError("group", msg)
		g.AddError("group", msg)
		return
	}
	visited[key] = g
}

type PipelineGroups []*PipelineConfigs

func (gs PipelineGroups) Find(name string) *PipelineConfigs {
	for _, g := range gs {
		if CaseInsensitiveString(g.Name).Equal(CaseInsensitiveString(name)) {
			return g
		}
	}
	return nil
}

// GroupOf returns the group containing the named pipeline.
func (gs PipelineGroups) GroupOf(pipeline CaseInsensitiveString) *PipelineConfigs {
	for _, g := range gs {
		if g.HasPipeline(pipeline) {
			return g
		}
	}
	return nil
}

// VisibleTo lists the names of the groups user can view.
func (gs PipelineGroups) VisibleTo(user string, security *SecurityConfig) []string {
	var names []string
	for _, g := range gs {
		if g.HasViewPermission(user, security) {
			names = append(names, g.Name)
		}
	}
	return names
}
