package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/plugin/metadata"
)

func enabledSecurity(roles ...Role) *SecurityConfig {
	return &SecurityConfig{
		AuthConfigs: SecurityAuthConfigs{{ID: "ldap", PluginID: "cd.go.ldap"}},
		Roles:       roles,
	}
}

func TestSecurityIsAdmin(t *testing.T) {
	var disabled *SecurityConfig
	assert.True(t, disabled.IsAdmin("anyone"))

	noAdmins := enabledSecurity()
	assert.True(t, noAdmins.IsAdmin("anyone"))

	security := enabledSecurity(NewRoleConfig("ops", "Carol"))
	security.Admins = NewPermission([]string{"root"}, "ops")

	assert.True(t, security.IsAdmin("ROOT"))
	assert.True(t, security.IsAdmin("carol"))
	assert.False(t, security.IsAdmin("dave"))
}

func TestPluginRoleMembership(t *testing.T) {
	roles := metadata.PluginRoleUsers()
	roles.AssignRole("erin", "deployers")
	defer roles.Remove("deployers")

	security := enabledSecurity(NewRoleConfig("ops", "carol"), NewPluginRoleConfig("deployers", "ldap"))

	assert.True(t, security.IsUserMemberOfRole("Erin", "deployers"))
	assert.False(t, security.IsUserMemberOfRole("carol", "deployers"))
	assert.True(t, security.IsUserMemberOfRole("carol", "OPS"))
	assert.False(t, security.IsUserMemberOfRole("carol", "missing"))
	assert.Equal(t, []string{"erin"}, security.UsersInRole("deployers"))
	assert.Equal(t, []string{"carol"}, security.UsersInRole("ops"))
	assert.Len(t, security.Roles.MemberOf("erin"), 1)
	assert.Len(t, security.Roles.PluginRoles("ldap"), 1)
}

func TestSecurityValidate(t *testing.T) {
	security := enabledSecurity(
		NewRoleConfig("ops", "carol", " "),
		NewRoleConfig("OPS"),
		NewPluginRoleConfig("deployers", "saml"),
		NewRoleConfig(".hidden"),
	)
	security.AuthConfigs = append(security.AuthConfigs, &SecurityAuthConfig{ID: "ldap", PluginID: "cd.go.ldap"})
	cfg := NewCruiseConfig()
	cfg.Server.Security = security

	cfg.ValidateAfterPreprocess()

	ops := security.Roles[0].(*RoleConfig)
	assert.Equal(t, "Role names should be unique. Duplicate names found.", ops.Errors().On("name"))
	assert.Equal(t, "User name cannot be blank in role 'ops'.", ops.Errors().On("users"))
	assert.Equal(t, "No such security auth configuration present for id: `saml`", security.Roles[2].Errors().On("auth_config_id"))
	assert.Equal(t, NameErrorMessage("role", ".hidden"), security.Roles[3].Errors().On("name"))
	assert.NotEmpty(t, security.AuthConfigs[0].Errors().On("id"))
}

func TestPluginRoleRequiredProperties(t *testing.T) {
	metadata.Authorizations().SetPluginInfo(&metadata.AuthorizationPluginInfo{
		PluginID:     "cd.go.ldap",
		RoleSettings: metadata.PluginSettings{{Key: "GroupFilter", Required: true}},
	})
	defer metadata.Authorizations().Remove("cd.go.ldap")

	role := NewPluginRoleConfig("deployers", "ldap")
	cfg := NewCruiseConfig()
	cfg.Server.Security = enabledSecurity(role)

	cfg.ValidateAfterPreprocess()
	assert.Equal(t, "GroupFilter must not be blank.", role.Errors().On("properties"))
}

func TestGroupPermissions(t *testing.T) {
	security := enabledSecurity(NewRoleConfig("viewers", "vic"), NewRoleConfig("ops", "olga"))
	security.Admins = NewPermission([]string{"root"})

	open := NewPipelineGroup("open")
	locked := NewPipelineGroup("locked")
	locked.Authorization = &Authorization{
		View:    NewPermission(nil, "viewers"),
		Operate: NewPermission([]string{"otto"}, "ops"),
		Admins:  NewPermission([]string{"grace"}),
	}

	tests := []struct {
		user    string
		view    bool
		operate bool
		admin   bool
	}{
		{user: "root", view: true, operate: true, admin: true},
		{user: "grace", view: true, operate: true, admin: true},
		{user: "vic", view: true, operate: false, admin: false},
		{user: "olga", view: false, operate: true, admin: false},
		{user: "otto", view: false, operate: true, admin: false},
		{user: "mallory", view: false, operate: false, admin: false},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			assert.Equal(t, tt.view, locked.HasViewPermission(tt.user, security))
			assert.Equal(t, tt.operate, locked.HasOperatePermission(tt.user, security))
			assert.Equal(t, tt.admin, locked.IsAdmin(tt.user, security))
			assert.True(t, open.HasViewPermission(tt.user, security))
			assert.True(t, open.HasOperatePermission(tt.user, security))
		})
	}

	assert.True(t, locked.HasOperatePermissionForRole("OPS"))
	assert.False(t, locked.HasOperatePermissionForRole("viewers"))
	assert.True(t, open.HasOperatePermissionForRole("viewers"))

	cfg := NewCruiseConfig(open, locked)
	cfg.Server.Security = security
	assert.Equal(t, []string{"open"}, cfg.GroupsVisibleTo("mallory"))
	assert.Equal(t, []string{"open", "locked"}, cfg.GroupsVisibleTo("vic"))
	assert.True(t, cfg.IsGroupAdministrator("grace"))
	assert.False(t, cfg.IsGroupAdministrator("root"))
	assert.True(t, cfg.IsAdministrator("root"))
	assert.False(t, cfg.IsAdministrator("grace"))
}

func TestTemplateAuthorizationRejectsOperate(t *testing.T) {
	tmpl := NewTemplate("base", stageWithJobs("dist", "build"))
	tmpl.Authorization = &Authorization{Operate: NewPermission([]string{"otto"})}
	cfg := NewCruiseConfig()
	cfg.Templates = TemplatesConfig{tmpl}

	cfg.ValidateAfterPreprocess()
	assert.Equal(t, "Templates only support view and admins permissions.", tmpl.Authorization.Errors().On("operate"))
}
