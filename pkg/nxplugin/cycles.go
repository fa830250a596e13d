package nxplugin

import (
	"errors"
	"sort"

	"github.com/dominikbraun/graph"
)

// Cycles returns the groups of nodes that depend on each other, through any dependency type. Each group is sorted
// and the groups are sorted by their first node.
func Cycles(g ProjectGraph) ([][]string, error) {
	dg := graph.New(graph.StringHash, graph.Directed())
	for _, name := range g.NodeNames() {
		if err := dg.AddVertex(name); err != nil {
			return nil, err
		}
	}
	for _, deps := range g.Dependencies {
		for _, d := range deps {
			if d.Source == d.Target {
				continue
			}
			err := dg.AddEdge(d.Source, d.Target)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				// dependencies on external nodes (npm packages) are not part of any cycle
			default:
				return nil, err
			}
		}
	}

	sccs, err := graph.StronglyConnectedComponents(dg)
	if err != nil {
		return nil, err
	}
	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		sort.Strings(scc)
		cycles = append(cycles, scc)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}
