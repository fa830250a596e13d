package graph_addons

import "github.com/dominikbraun/graph"

// ReverseGraph returns a directed copy of g with every edge flipped. Edge properties are kept. g may be a wrapper
// such as [LoggingGraph], so the copy is built from hash instead of g's own implementation.
func ReverseGraph[K comparable, T any](g graph.Graph[K, T], hash graph.Hash[K, T]) (graph.Graph[K, T], error) {
	reverse := graph.New(hash, graph.Directed())
	if err := reverse.AddVerticesFrom(g); err != nil {
		return nil, err
	}
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		err = reverse.AddEdge(e.Target, e.Source, func(ep *graph.EdgeProperties) {
			*ep = e.Properties
		})
		if err != nil {
			return nil, err
		}
	}
	return reverse, nil
}

// ReverseTopologicalSort orders vertices so that every edge target comes before its source. Ties are broken by
// less, making the result stable across runs.
func ReverseTopologicalSort[K comparable, T any](g graph.Graph[K, T], hash graph.Hash[K, T], less func(K, K) bool) ([]K, error) {
	reverse, err := ReverseGraph(g, hash)
	if err != nil {
		return nil, err
	}
	return graph.StableTopologicalSort(reverse, less)
}
