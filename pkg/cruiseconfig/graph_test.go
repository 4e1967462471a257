package cruiseconfig

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraphQueries(t *testing.T) {
	cfg := configWithPipelines(
		pipelineWithStages("Build", "dist"),
		dependentPipeline("test", "build", "dist", "unit"),
		dependentPipeline("lint", "build", "dist", "check"),
		dependentPipeline("deploy", "test", "unit", "release"),
	)
	graph := NewDependencyGraph(cfg)

	downstream, err := graph.Downstream("build")
	require.NoError(t, err)
	assert.Equal(t, []string{"lint", "test"}, downstream)

	upstream, err := graph.Upstream("deploy")
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, upstream)

	all, err := graph.AllUpstream("deploy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Build", "test"}, all)

	order, err := graph.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"Build", "lint", "test", "deploy"}, order)

	var dot bytes.Buffer
	require.NoError(t, graph.WriteDOT(&dot))
	assert.Contains(t, dot.String(), "digraph")
	assert.Contains(t, dot.String(), "rankdir")
}

func TestDependencyGraphIgnoresUnknownUpstreams(t *testing.T) {
	cfg := configWithPipelines(dependentPipeline("down", "missing", "dist", "test"))
	graph := NewDependencyGraph(cfg)

	upstream, err := graph.Upstream("down")
	require.NoError(t, err)
	assert.Empty(t, upstream)
}

func TestCircularDependencies(t *testing.T) {
	t.Run("three pipelines", func(t *testing.T) {
		a := dependentPipeline("a", "c", "dist", "dist")
		b := dependentPipeline("b", "a", "dist", "dist")
		c := dependentPipeline("c", "b", "dist", "dist")
		cfg := configWithPipelines(a, b, c)

		cfg.ValidateAfterPreprocess()
		assert.Equal(t, "Circular dependency: a <- b <- c <- a", a.Errors().On("materials"))
		assert.Equal(t, "Circular dependency: b <- c <- a <- b", b.Errors().On("materials"))
		assert.Equal(t, "Circular dependency: c <- a <- b <- c", c.Errors().On("materials"))

		_, err := NewDependencyGraph(cfg).TopologicalOrder()
		assert.Error(t, err)
	})

	t.Run("self dependency", func(t *testing.T) {
		a := dependentPipeline("a", "a", "dist", "dist")
		cfg := configWithPipelines(a)

		cfg.ValidateAfterPreprocess()
		assert.Equal(t, "Circular dependency: a <- a", a.Errors().On("materials"))
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		cfg := configWithPipelines(
			pipelineWithStages("root", "dist"),
			dependentPipeline("left", "root", "dist", "dist"),
			dependentPipeline("right", "root", "dist", "dist"),
		)
		bottom := pipelineWithStages("bottom", "dist")
		bottom.Materials = MaterialConfigs{NewDependencyMaterial("left", "dist"), NewDependencyMaterial("right", "dist")}
		require.NoError(t, cfg.AddPipeline("defaultGroup", bottom))

		assert.Empty(t, cfg.ValidateAfterPreprocess())
	})

	t.Run("edited pipeline", func(t *testing.T) {
		a := pipelineWithStages("a", "dist")
		b := dependentPipeline("b", "a", "dist", "dist")
		cfg := configWithPipelines(a, b)

		edited := a.CopyForEditing()
		edited.Materials = MaterialConfigs{NewDependencyMaterial("b", "dist")}
		assert.False(t, edited.ValidateTree(ContextForChain(cfg, cfg.FindGroupOf("a"))))
		assert.Equal(t, "Circular dependency: a <- b <- a", edited.Errors().On("materials"))
	})
}
