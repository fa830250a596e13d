package nxplugin

import (
	"fmt"
)

// Builder edits a copy of a project graph. The graph it was created from is never modified.
type Builder struct {
	graph ProjectGraph
}

func NewBuilder(g ProjectGraph) *Builder {
	return &Builder{graph: g.Clone()}
}

// AddImplicitDependency adds an implicit edge from source to target. Both must be nodes of the graph. Adding an
// implicit edge that already exists is a no-op.
func (b *Builder) AddImplicitDependency(source, target string) error {
	if _, ok := b.graph.Nodes[source]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnknownNode, source)
	}
	if _, ok := b.graph.Nodes[target]; !ok {
		return fmt.Errorf("%w: target %q", ErrUnknownNode, target)
	}
	if source == target {
		return fmt.Errorf("%w: %s", ErrSelfEdge, source)
	}
	for _, d := range b.graph.Dependencies[source] {
		if d.Target == target && d.Type == Implicit {
			return nil
		}
	}
	b.graph.Dependencies[source] = append(b.graph.Dependencies[source], Dependency{
		Source: source,
		Target: target,
		Type:   Implicit,
	})
	return nil
}

// RemoveNode removes the node name and every dependency into or out of it.
func (b *Builder) RemoveNode(name string) {
	delete(b.graph.Nodes, name)
	delete(b.graph.Dependencies, name)
	for source, deps := range b.graph.Dependencies {
		kept := deps[:0]
		for _, d := range deps {
			if d.Target != name {
				kept = append(kept, d)
			}
		}
		b.graph.Dependencies[source] = kept
	}
}

// Graph returns the edited graph.
func (b *Builder) Graph() ProjectGraph {
	return b.graph.Clone()
}
