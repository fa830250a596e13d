// Package nxplugin rebuilds the task runner's project graph: it adds the implicit dependencies recorded in nx.json
// and drops the synthetic node of the workspace root.
package nxplugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type (
	ProjectGraph struct {
		Nodes        map[string]ProjectGraphNode
		Dependencies map[string][]Dependency

		// extra holds top level fields this package does not interpret, so they survive a round trip.
		extra map[string]json.RawMessage
	}

	ProjectGraphNode struct {
		Name string         `json:"name"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}

	Dependency struct {
		Source string         `json:"source"`
		Target string         `json:"target"`
		Type   DependencyType `json:"type"`
	}

	DependencyType string
)

const (
	Static   DependencyType = "static"
	Dynamic  DependencyType = "dynamic"
	Implicit DependencyType = "implicit"
)

var (
	ErrUnknownNode = errors.New("unknown project graph node")
	ErrSelfEdge    = errors.New("project graph node cannot depend on itself")
)

// Root is the node's project root relative to the workspace. The workspace root's own node has an empty root.
func (n ProjectGraphNode) Root() string {
	root, _ := n.Data["root"].(string)
	return root
}

func (g *ProjectGraph) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*g = ProjectGraph{}
	if raw, ok := fields["nodes"]; ok {
		if err := json.Unmarshal(raw, &g.Nodes); err != nil {
			return fmt.Errorf("could not parse nodes: %w", err)
		}
		delete(fields, "nodes")
	}
	if raw, ok := fields["dependencies"]; ok {
		if err := json.Unmarshal(raw, &g.Dependencies); err != nil {
			return fmt.Errorf("could not parse dependencies: %w", err)
		}
		delete(fields, "dependencies")
	}
	if len(fields) > 0 {
		g.extra = fields
	}
	return nil
}

func (g ProjectGraph) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(g.extra)+2)
	for k, v := range g.extra {
		fields[k] = v
	}
	nodes := g.Nodes
	if nodes == nil {
		nodes = map[string]ProjectGraphNode{}
	}
	deps := g.Dependencies
	if deps == nil {
		deps = map[string][]Dependency{}
	}
	fields["nodes"] = nodes
	fields["dependencies"] = deps
	return json.Marshal(fields)
}

// Clone copies the graph structure. Node data maps are shared since nothing here modifies them.
func (g ProjectGraph) Clone() ProjectGraph {
	c := ProjectGraph{
		Nodes:        make(map[string]ProjectGraphNode, len(g.Nodes)),
		Dependencies: make(map[string][]Dependency, len(g.Dependencies)),
	}
	for k, v := range g.Nodes {
		c.Nodes[k] = v
	}
	for k, v := range g.Dependencies {
		c.Dependencies[k] = append(make([]Dependency, 0, len(v)), v...)
	}
	if g.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(g.extra))
		for k, v := range g.extra {
			c.extra[k] = v
		}
	}
	return c
}

// NodeNames returns the names of all nodes, sorted.
func (g ProjectGraph) NodeNames() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
