package cruiseconfig

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// DependencyGraph links every pipeline to its downstream pipelines. Vertices
// are keyed by lower case pipeline name.
type DependencyGraph struct {
	cfg   *CruiseConfig
	names map[string]CaseInsensitiveString
	graph graph.Graph[string, *PipelineConfig]
}

func pipelineHash(p *PipelineConfig) string {
	return p.Name.Lower()
}

// NewDependencyGraph builds the graph of cfg. Dependencies on unknown
// pipelines are left out.
func NewDependencyGraph(cfg *CruiseConfig) *DependencyGraph {
	d := &DependencyGraph{
		cfg:   cfg,
		names: map[string]CaseInsensitiveString{},
		graph: graph.New(pipelineHash, graph.Directed()),
	}
	pipelines := cfg.AllPipelines()
	for _, p := range pipelines {
		d.names[p.Name.Lower()] = p.Name
		_ = d.graph.AddVertex(p, graph.VertexAttribute("label", p.Name.String()))
	}
	for _, p := range pipelines {
		for _, dep := range p.DependencyMaterials() {
			_ = d.graph.AddEdge(dep.Pipeline.Lower(), p.Name.Lower(), graph.EdgeAttribute("label", dep.Stage.String()))
		}
	}
	return d
}

func (d *DependencyGraph) displayName(hash string) string {
	if n, ok := d.names[hash]; ok {
		return n.String()
	}
	return hash
}

// Downstream lists the pipelines that directly depend on name, sorted.
func (d *DependencyGraph) Downstream(name CaseInsensitiveString) ([]string, error) {
	adjacency, err := d.graph.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return d.sortedNames(adjacency[name.Lower()]), nil
}

// Upstream lists the pipelines name directly depends on, sorted.
func (d *DependencyGraph) Upstream(name CaseInsensitiveString) ([]string, error) {
	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return d.sortedNames(predecessors[name.Lower()]), nil
}

// AllUpstream lists every pipeline name transitively depends on, sorted.
func (d *DependencyGraph) AllUpstream(name CaseInsensitiveString) ([]string, error) {
	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return nil, err
	}
	start := name.Lower()
	seen := map[string]graph.Edge[string]{}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for up, edge := range predecessors[current] {
			if _, ok := seen[up]; ok || up == start {
				continue
			}
			seen[up] = edge
			queue = append(queue, up)
		}
	}
	return d.sortedNames(seen), nil
}

func (d *DependencyGraph) sortedNames(edges map[string]graph.Edge[string]) []string {
	names := make([]string, 0, len(edges))
	for hash := range edges {
		names = append(names, d.displayName(hash))
	}
	sort.Strings(names)
	return names
}

// TopologicalOrder returns pipeline names with every upstream before its
// downstreams. It fails when the graph has a cycle.
func (d *DependencyGraph) TopologicalOrder() ([]string, error) {
	order, err := graph.StableTopologicalSort(d.graph, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to sort pipelines: %w", err)
	}
	names := make([]string, 0, len(order))
	for _, hash := range order {
		names = append(names, d.displayName(hash))
	}
	return names, nil
}

// WriteDOT renders the graph in graphviz format.
func (d *DependencyGraph) WriteDOT(w io.Writer) error {
	return draw.DOT(d.graph, w, draw.GraphAttribute("rankdir", "LR"))
}

// cycleThrough returns the circular dependency message for p, or "" when
// p's dependencies do not close a cycle. p may be an edited copy of a
// pipeline in the config.
func (d *DependencyGraph) cycleThrough(p *PipelineConfig) string {
	guarded := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	self := p.Name.Lower()

	_ = guarded.AddVertex(self)
	for hash := range d.names {
		_ = guarded.AddVertex(hash)
	}
	for _, other := range d.cfg.AllPipelines() {
		if other.Name.Lower() == self {
			continue
		}
		for _, dep := range other.DependencyMaterials() {
			_ = guarded.AddEdge(dep.Pipeline.Lower(), other.Name.Lower())
		}
	}

	for _, dep := range p.DependencyMaterials() {
		upstream := dep.Pipeline.Lower()
		if upstream == self {
			return circularDependencyMessage([]string{p.Name.String()}, p.Name.String())
		}
		err := guarded.AddEdge(upstream, self)
		if !errors.Is(err, graph.ErrEdgeCreatesCycle) {
			continue
		}
		path, err := graph.ShortestPath(guarded, self, upstream)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(path))
		for i, hash := range path {
			if i == 0 {
				names = append(names, p.Name.String())
				continue
			}
			names = append(names, d.displayName(hash))
		}
		return circularDependencyMessage(names, p.Name.String())
	}
	return ""
}

func circularDependencyMessage(path []string, closing string) string {
	return "Circular dependency: " + strings.Join(path, " <- ") + " <- " + closing
}
