package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageValidate(t *testing.T) {
	t.Run("no jobs", func(t *testing.T) {
		p := pipelineWithStages("up")
		p.Stages = []*StageConfig{NewStageConfig("dist")}
		configWithPipelines(p).ValidateAfterPreprocess()
		assert.Equal(t, "Stage 'dist' does not have any jobs configured. A stage must have at least one job.", p.Stages[0].Errors().On("jobs"))
	})

	t.Run("invalid name", func(t *testing.T) {
		p := pipelineWithStages("up", ".dist")
		configWithPipelines(p).ValidateAfterPreprocess()
		assert.Equal(t, NameErrorMessage("stage", ".dist"), p.Stages[0].Errors().On("name"))
	})

	t.Run("invalid approval type", func(t *testing.T) {
		p := pipelineWithStages("up", "dist")
		p.Stages[0].Approval = &Approval{Type: "later"}
		configWithPipelines(p).ValidateAfterPreprocess()
		assert.Equal(t, "You have defined approval type as 'later'. Approval can only be of the type 'manual' or 'success'.", p.Stages[0].Approval.Errors().On("type"))
	})

	t.Run("duplicate variables", func(t *testing.T) {
		p := pipelineWithStages("up", "dist")
		p.Stages[0].EnvironmentVariables = EnvironmentVariablesConfig{NewEnvironmentVariable("PATH", "/bin"), NewEnvironmentVariable("path", "/usr/bin")}
		configWithPipelines(p).ValidateAfterPreprocess()
		assert.Equal(t, "Environment Variable name 'path' is not unique for stage 'dist' in pipeline 'up'.", p.Stages[0].EnvironmentVariables[0].Errors().On("name"))
	})
}

func TestStageValidateTree(t *testing.T) {
	p := pipelineWithStages("up", "dist")
	cfg := configWithPipelines(p)
	s := p.Stages[0]
	ctx := ContextForChain(cfg, cfg.FindGroupOf("up"), p)

	assert.True(t, s.ValidateTree(ctx))

	s.Jobs[0].TaskList = Tasks{NewExecTask("")}
	assert.False(t, s.ValidateTree(ctx))
	assert.Equal(t, "Command cannot be empty", s.Jobs[0].TaskList[0].Errors().On("command"))

	s.Jobs[0].TaskList = Tasks{NewExecTask("make")}
	assert.True(t, s.ValidateTree(ctx))
}

func securedConfig(p *PipelineConfig) *CruiseConfig {
	group := NewPipelineGroup("prod", p)
	group.Authorization = &Authorization{
		Operate: NewPermission([]string{"alice"}, "ops"),
	}
	cfg := NewCruiseConfig(group)
	cfg.Server.Security = &SecurityConfig{
		AuthConfigs: SecurityAuthConfigs{{ID: "ldap", PluginID: "cd.go.ldap"}},
		Roles:       RolesConfig{NewRoleConfig("ops", "carol"), NewRoleConfig("qa", "dave")},
		Admins:      NewPermission([]string{"root"}),
	}
	return cfg
}

func TestApprovalAuthorization(t *testing.T) {
	p := pipelineWithStages("up", "dist")
	approval := ManualApproval([]string{"alice", "bob"}, "ops", "qa")
	p.Stages[0].Approval = approval
	cfg := securedConfig(p)

	cfg.ValidateAfterPreprocess()

	assert.Equal(t, []string{
		"User \"bob\" who is not authorized to operate pipeline group `prod` can not be authorized to approve stage",
		"Role \"qa\" who is not authorized to operate pipeline group `prod` can not be authorized to approve stage",
	}, approval.Errors().GetAllOn("authorization"))
}

func TestApprovalAuthorizationWithoutSecurity(t *testing.T) {
	p := pipelineWithStages("up", "dist")
	approval := ManualApproval([]string{"bob"})
	p.Stages[0].Approval = approval
	cfg := configWithPipelines(p)

	cfg.ValidateAfterPreprocess()
	assert.True(t, approval.Errors().IsEmpty())
}

func TestApprovalUnknownRole(t *testing.T) {
	p := pipelineWithStages("up", "dist")
	approval := ManualApproval(nil, "ghosts")
	p.Stages[0].Approval = approval
	cfg := securedConfig(p)

	cfg.ValidateAfterPreprocess()
	assert.Equal(t, "Role \"ghosts\" does not exist.", approval.Authorization.Errors().On("roles"))
}
