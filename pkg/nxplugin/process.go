package nxplugin

import (
	"context"

	"github.com/klothoplatform/pdk/pkg/collectionutil"
	"github.com/klothoplatform/pdk/pkg/logging"
	"github.com/klothoplatform/pdk/pkg/nx"
	"go.uber.org/zap"
)

// Process adds every implicit dependency of cfg to graph and removes the workspace root's node (the one whose root
// is empty). Nodes with a non-empty root are never removed. The input graph is left unchanged.
func Process(ctx context.Context, graph ProjectGraph, cfg nx.WorkspaceConfig) (ProjectGraph, error) {
	log := logging.GetLogger(ctx).Named("nxplugin")
	b := NewBuilder(graph)

	for _, dependent := range collectionutil.SortedKeys(cfg.ImplicitDependencies) {
		for _, dependee := range cfg.ImplicitDependencies[dependent] {
			if err := b.AddImplicitDependency(dependent, dependee); err != nil {
				return ProjectGraph{}, err
			}
			log.Debug("Added implicit dependency", zap.String("dependent", dependent), zap.String("dependee", dependee))
		}
	}

	for _, name := range graph.NodeNames() {
		if graph.Nodes[name].Root() == "" {
			b.RemoveNode(name)
			log.Debug("Removed workspace root node", zap.String("name", name))
		}
	}
	out := b.Graph()
	cycles, err := Cycles(out)
	if err != nil {
		return ProjectGraph{}, err
	}
	for _, c := range cycles {
		log.Warn("Projects depend on each other, tasks must run with --nx-ignore-cycles", zap.Strings("projects", c))
	}
	return out, nil
}

// ProcessFromWorkspace reads nx.json from workspaceRoot and calls [Process].
func ProcessFromWorkspace(ctx context.Context, graph ProjectGraph, workspaceRoot string) (ProjectGraph, error) {
	cfg, err := nx.ReadWorkspaceConfig(workspaceRoot)
	if err != nil {
		return ProjectGraph{}, err
	}
	return Process(ctx, graph, cfg)
}
