package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironmentValidate(t *testing.T) {
	cfg := configWithPipelines(pipelineWithStages("up", "dist"), pipelineWithStages("down", "test"))
	prod := NewEnvironmentConfig("prod", "up", "UP", "ghost")
	prod.Agents = []string{"agent-1", "agent-1", " "}
	prod.EnvironmentVariables = EnvironmentVariablesConfig{NewEnvironmentVariable("A", "1"), NewEnvironmentVariable("a", "2")}
	staging := NewEnvironmentConfig("staging", "down", "up")
	dup := NewEnvironmentConfig("Prod")
	bad := NewEnvironmentConfig(".hidden")
	cfg.Environments = EnvironmentsConfig{prod, staging, dup, bad}

	cfg.ValidateAfterPreprocess()

	assert.Equal(t, []string{
		"Environment pipeline 'UP' is defined more than once.",
		"Environment 'prod' refers to an unknown pipeline 'ghost'.",
	}, prod.Errors().GetAllOn("pipelines"))
	assert.Equal(t, []string{
		"Environment agent 'agent-1' is defined more than once.",
		"Environment agent uuid cannot be blank.",
	}, prod.Errors().GetAllOn("agents"))
	assert.Equal(t, "Environment Variable name 'a' is not unique for environment 'prod'.", prod.EnvironmentVariables[0].Errors().On("name"))
	assert.Equal(t, "Associating pipeline(s) which is already part of prod environment", staging.Errors().On("pipelines"))
	assert.Equal(t, "Environment with name 'Prod' already exists.", prod.Errors().On("name"))
	assert.Equal(t, "Environment with name 'Prod' already exists.", dup.Errors().On("name"))
	assert.Equal(t, NameErrorMessage("environment", ".hidden"), bad.Errors().On("name"))
}

func TestEnvironmentQueries(t *testing.T) {
	prod := NewEnvironmentConfig("prod", "up")
	prod.Agents = []string{"agent-1"}
	envs := EnvironmentsConfig{prod, NewEnvironmentConfig("staging", "down")}

	assert.Same(t, prod, envs.Find("PROD"))
	assert.Nil(t, envs.Find("qa"))
	assert.Same(t, prod, envs.EnvironmentFor("Up"))
	assert.Nil(t, envs.EnvironmentFor("side"))
	assert.True(t, prod.ContainsPipeline("UP"))
	assert.True(t, prod.HasAgent("agent-1"))
	assert.False(t, prod.HasAgent("agent-2"))
}

func TestGroupValidate(t *testing.T) {
	group := NewPipelineGroup("my group", pipelineWithStages("up", "dist"))
	cfg := NewCruiseConfig(group)

	cfg.ValidateAfterPreprocess()
	assert.Equal(t, NameErrorMessage("group", "my group"), group.Errors().On("group"))

	assert.EqualError(t, group.Add(pipelineWithStages("UP", "dist")), "You have defined multiple pipelines called 'UP'. Pipeline names are case-insensitive and must be unique.")
	assert.True(t, group.Remove("up"))
	assert.False(t, group.HasPipeline("up"))
}
