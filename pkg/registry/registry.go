// Package registry records the dependencies between the projects of one monorepo that the task runner cannot infer
// on its own.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/pdk/pkg/graph_addons"
	"go.uber.org/zap"
)

var (
	ErrUnknownProject   = errors.New("unknown project")
	ErrDuplicateProject = errors.New("duplicate project")
	ErrSelfDependency   = errors.New("project cannot depend on itself")
	ErrCycle            = errors.New("dependency cycle")
)

type (
	// Registry holds the member projects of a monorepo (by name) and the dependency edges between them. Edges point
	// from the dependent to the dependee. It is append-only: members and edges are never removed.
	Registry struct {
		log *zap.Logger
		g   graph.Graph[string, string]

		// implicit keeps the implicit edges per dependent in the order they were first declared.
		implicit map[string][]string
	}

	EdgeKind string
)

const (
	// Implicit edges are declared explicitly and serialized into the root configuration.
	Implicit EdgeKind = "implicit"
	// Native edges come from a project's own package manager dependencies. They take part in cycle detection but
	// the task runner discovers them itself.
	Native EdgeKind = "native"
)

func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.L()
	}
	log = log.Named("registry")
	return &Registry{
		log: log,
		g: graph_addons.LoggingGraph[string, string]{
			Graph: graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
			Log:   log.Named("graph"),
			Hash:  func(s string) string { return s },
		},
		implicit: make(map[string][]string),
	}
}

// Register adds name as a member.
func (r *Registry) Register(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownProject)
	}
	err := r.g.AddVertex(name)
	if errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrDuplicateProject, name)
	}
	return err
}

func (r *Registry) Has(name string) bool {
	_, err := r.g.Vertex(name)
	return err == nil
}

// Members returns the registered names, sorted.
func (r *Registry) Members() []string {
	adj, err := r.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(adj))
	for name := range adj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddImplicitDependency records that dependent depends on dependee. Both must already be members. Adding an edge
// that is already present is a no-op, and an edge that would close a cycle is rejected.
func (r *Registry) AddImplicitDependency(dependent, dependee string) error {
	if err := r.addEdge(dependent, dependee, Implicit); err != nil {
		return err
	}
	for _, d := range r.implicit[dependent] {
		if d == dependee {
			return nil
		}
	}
	r.implicit[dependent] = append(r.implicit[dependent], dependee)
	return nil
}

// AddNativeDependency records a dependency that the project's package manager already declares.
func (r *Registry) AddNativeDependency(dependent, dependee string) error {
	return r.addEdge(dependent, dependee, Native)
}

func (r *Registry) addEdge(dependent, dependee string, kind EdgeKind) error {
	var errs error
	for _, name := range []string{dependent, dependee} {
		if !r.Has(name) {
			errs = errors.Join(errs, fmt.Errorf("%w: %q", ErrUnknownProject, name))
		}
	}
	if errs != nil {
		return fmt.Errorf("cannot add %s dependency %s -> %s: %w", kind, dependent, dependee, errs)
	}
	if dependent == dependee {
		return fmt.Errorf("%w: %s", ErrSelfDependency, dependent)
	}

	err := r.g.AddEdge(dependent, dependee, graph.EdgeData(kind))
	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		path, _ := graph.ShortestPath(r.g, dependee, dependent)
		return fmt.Errorf("%w: %s -> %s closes %v", ErrCycle, dependent, dependee, append(path, dependee))
	default:
		return err
	}
}

// ImplicitDependencies returns a copy of the implicit edges keyed by dependent. Dependees are in declaration order.
func (r *Registry) ImplicitDependencies() map[string][]string {
	deps := make(map[string][]string, len(r.implicit))
	for k, v := range r.implicit {
		deps[k] = append([]string(nil), v...)
	}
	return deps
}

// Dependees returns the direct dependees of name, implicit and native, sorted.
func (r *Registry) Dependees(name string) []string {
	adj, err := r.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var deps []string
	for target := range adj[name] {
		deps = append(deps, target)
	}
	sort.Strings(deps)
	return deps
}

// Edges returns every edge with its kind, sorted by dependent then dependee. When an edge was declared both
// implicitly and natively, the first declaration wins.
func (r *Registry) Edges() ([]Edge, error) {
	edges, err := r.g.Edges()
	if err != nil {
		return nil, err
	}
	result := make([]Edge, len(edges))
	for i, e := range edges {
		kind, _ := e.Properties.Data.(EdgeKind)
		result[i] = Edge{Dependent: e.Source, Dependee: e.Target, Kind: kind}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Dependent != result[j].Dependent {
			return result[i].Dependent < result[j].Dependent
		}
		return result[i].Dependee < result[j].Dependee
	})
	return result, nil
}

type Edge struct {
	Dependent string
	Dependee  string
	Kind      EdgeKind
}

// TopologicalOrder lists members so that every dependee comes before its dependents. Independent members are
// ordered by name.
func (r *Registry) TopologicalOrder() ([]string, error) {
	return graph_addons.ReverseTopologicalSort[string, string](r.g, graph.StringHash, func(a, b string) bool { return a < b })
}
