package cruiseconfig

import (
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

// Role groups users for authorization.
type Role interface {
	Validatable
	RoleName() CaseInsensitiveString
	Kind() Kind
}

// RoleConfig is a role whose members are listed in the config.
type RoleConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Name           CaseInsensitiveString `yaml:"name" json:"name"`
	Users          []string              `yaml:"users,omitempty,flow" json:"users,omitempty"`
}

func NewRoleConfig(name string, users ...string) *RoleConfig {
	return &RoleConfig{Name: CaseInsensitiveString(name), Users: users}
}

func (r *RoleConfig) RoleName() CaseInsensitiveString { return r.Name }

func (r *RoleConfig) Kind() Kind { return KindRole }

func (r *RoleConfig) Validate(_ *ValidationContext) {
	validateName(r, "name", "role", r.Name.String())
	for _, u := range r.Users {
		if strings.TrimSpace(u) == "" {
			r.AddError("users", fmt.Sprintf("User name cannot be blank in role '%s'.", r.Name))
			break
		}
	}
}

func (r *RoleConfig) HasMember(user string) bool {
	for _, u := range r.Users {
		if strings.EqualFold(u, user) {
			return true
		}
	}
	return false
}

// PluginRoleConfig is a role whose members an authorization plugin decides.
type PluginRoleConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Name           CaseInsensitiveString `yaml:"name" json:"name" param:"skip"`
	AuthConfigID   string                `yaml:"auth_config_id" json:"auth_config_id" param:"skip"`
	Properties     Configuration         `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func NewPluginRoleConfig(name, authConfigID string, properties ...*ConfigurationProperty) *PluginRoleConfig {
	return &PluginRoleConfig{Name: CaseInsensitiveString(name), AuthConfigID: authConfigID, Properties: properties}
}

func (r *PluginRoleConfig) RoleName() CaseInsensitiveString { return r.Name }

func (r *PluginRoleConfig) Kind() Kind { return KindPluginRole }

func (r *PluginRoleConfig) Validate(ctx *ValidationContext) {
	validateName(r, "name", "role", r.Name.String())
	r.Properties.validateUniqueKeys(fmt.Sprintf("Role '%s'", r.Name))

	security := ctx.SecurityConfig()
	if security == nil {
		return
	}
	authConfig := security.AuthConfigs.Find(r.AuthConfigID)
	if authConfig == nil {
		r.AddError("auth_config_id", fmt.Sprintf("No such security auth configuration present for id: `%s`", r.AuthConfigID))
		return
	}
	if info := metadata.Authorizations().PluginInfo(authConfig.PluginID); info != nil {
		r.Properties.validateAgainst(r, info.RoleSettings)
	}
}

// HasMember consults the plugin role assignments.
func (r *PluginRoleConfig) HasMember(user string) bool {
	return metadata.PluginRoleUsers().IsMember(user, r.Name.String())
}

type RolesConfig []Role

func (rs RolesConfig) Find(name CaseInsensitiveString) Role {
	for _, r := range rs {
		if r.RoleName().Equal(name) {
			return r
		}
	}
	return nil
}

func (rs RolesConfig) IsUniqueRoleName(name CaseInsensitiveString) bool {
	count := 0
	for _, r := range rs {
		if r.RoleName().Equal(name) {
			count++
		}
	}
	return count <= 1
}

// PluginRoles returns the roles backed by authConfigID.
func (rs RolesConfig) PluginRoles(authConfigID string) []*PluginRoleConfig {
	var roles []*PluginRoleConfig
	for _, r := range rs {
		if pr, ok := r.(*PluginRoleConfig); ok && pr.AuthConfigID == authConfigID {
			roles = append(roles, pr)
		}
	}
	return roles
}

// MemberOf returns the roles user belongs to.
func (rs RolesConfig) MemberOf(user string) []Role {
	var roles []Role
	for _, r := range rs {
		if isMember(r, user) {
			roles = append(roles, r)
		}
	}
	return roles
}

func isMember(r Role, user string) bool {
	switch role := r.(type) {
	case *RoleConfig:
		return role.HasMember(user)
	case *PluginRoleConfig:
		return role.HasMember(user)
	}
	return false
}

// PermissionConfig lists users and roles granted a permission.
type PermissionConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Users          []string                `yaml:"users,omitempty,flow" json:"users,omitempty"`
	Roles          []CaseInsensitiveString `yaml:"roles,omitempty,flow" json:"roles,omitempty"`
}

func NewPermission(users []string, roles ...string) *PermissionConfig {
	p := &PermissionConfig{Users: users}
	for _, r := range roles {
		p.Roles = append(p.Roles, CaseInsensitiveString(r))
	}
	return p
}

func (p *PermissionConfig) Validate(ctx *ValidationContext) {
	validateRolesExist(p, "roles", p.Roles, ctx.SecurityConfig())
}

func validateRolesExist(v Validatable, field string, roles []CaseInsensitiveString, security *SecurityConfig) {
	for _, role := range roles {
		if security == nil || security.Roles.Find(role) == nil {
			v.AddError(field, fmt.Sprintf("Role \"%s\" does not exist.", role))
		}
	}
}

func (p *PermissionConfig) IsEmpty() bool {
	return p == nil || (len(p.Users) == 0 && len(p.Roles) == 0)
}

// Grants reports whether user is listed directly or via one of the roles.
func (p *PermissionConfig) Grants(user string, security *SecurityConfig) bool {
	if p == nil {
		return false
	}
	for _, u := range p.Users {
		if strings.EqualFold(u, user) {
			return true
		}
	}
	if security == nil {
		return false
	}
	for _, role := range p.Roles {
		if security.IsUserMemberOfRole(user, role) {
			return true
		}
	}
	return false
}

// Authorization restricts access to a pipeline group or template.
type Authorization struct {
	errorCollector `yaml:"-" json:"-"`
	View           *PermissionConfig `yaml:"view,omitempty" json:"view,omitempty"`
	Operate        *PermissionConfig `yaml:"operate,omitempty" json:"operate,omitempty"`
	Admins         *PermissionConfig `yaml:"admins,omitempty" json:"admins,omitempty"`
}

func (a *Authorization) Validate(ctx *ValidationContext) {
	if ctx.IsWithinTemplates() && !a.Operate.IsEmpty() {
		a.AddError("operate", "Templates only support view and admins permissions.")
	}
}

func (a *Authorization) IsEmpty() bool {
	return a == nil || (a.View.IsEmpty() && a.Operate.IsEmpty() && a.Admins.IsEmpty())
}

// SecurityConfig holds authentication plugins, roles and system admins.
type SecurityConfig struct {
	errorCollector `yaml:"-" json:"-"`
	AuthConfigs    SecurityAuthConfigs `yaml:"auth_configs,omitempty" json:"auth_configs,omitempty"`
	Roles          RolesConfig         `yaml:"roles,omitempty" json:"roles,omitempty"`
	Admins         *PermissionConfig   `yaml:"admins,omitempty" json:"admins,omitempty"`
}

func (s *SecurityConfig) Validate(_ *ValidationContext) {
	validateUniqueIDs(s.AuthConfigs, func(a *SecurityAuthConfig) string { return a.ID }, "security auth config")
	for _, r := range s.Roles {
		if !s.Roles.IsUniqueRoleName(r.RoleName()) {
			r.AddError("name", "Role names should be unique. Duplicate names found.")
		}
	}
}

// IsSecurityEnabled reports whether any authorization plugin is configured.
func (s *SecurityConfig) IsSecurityEnabled() bool {
	return s != nil && len(s.AuthConfigs) > 0
}

// IsAdmin reports whether user is a system admin. Without security every
// user is an admin.
func (s *SecurityConfig) IsAdmin(user string) bool {
	if !s.IsSecurityEnabled() {
		return true
	}
	if s.Admins.IsEmpty() {
		return true
	}
	return s.Admins.Grants(user, s)
}

// IsUserMemberOfRole resolves static role members and plugin role
// assignments.
func (s *SecurityConfig) IsUserMemberOfRole(user string, role CaseInsensitiveString) bool {
	if s == nil {
		return false
	}
	r := s.Roles.Find(role)
	if r == nil {
		return false
	}
	return isMember(r, user)
}

// UsersInRole lists the members of role.
func (s *SecurityConfig) UsersInRole(role CaseInsensitiveString) []string {
	if s == nil {
		return nil
	}
	switch r := s.Roles.Find(role).(type) {
	case *RoleConfig:
		return append([]string(nil), r.Users...)
	case *PluginRoleConfig:
		return metadata.PluginRoleUsers().UsersInRole(r.Name.String())
	}
	return nil
}
