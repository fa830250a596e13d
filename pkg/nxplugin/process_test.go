package nxplugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGraph = `{
  "version": "5.0",
  "nodes": {
    "monorepo": {"name": "monorepo", "type": "lib", "data": {"root": ""}},
    "ts-subproject": {"name": "ts-subproject", "type": "lib", "data": {"root": "packages/ts-subproject", "tags": []}},
    "py-subproject": {"name": "py-subproject", "type": "lib", "data": {"root": "packages/py-subproject"}}
  },
  "dependencies": {
    "monorepo": [],
    "ts-subproject": [{"source": "ts-subproject", "target": "monorepo", "type": "static"}],
    "py-subproject": []
  }
}`

func parseGraph(t *testing.T, s string) ProjectGraph {
	var g ProjectGraph
	require.NoError(t, json.Unmarshal([]byte(s), &g))
	return g
}

func TestProcess(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	in := parseGraph(t, testGraph)

	out, err := Process(context.Background(), in, nx.WorkspaceConfig{
		ImplicitDependencies: map[string][]string{"ts-subproject": {"py-subproject"}},
	})
	require.NoError(err)

	assert.Equal([]string{"py-subproject", "ts-subproject"}, out.NodeNames())
	assert.Equal([]Dependency{{Source: "ts-subproject", Target: "py-subproject", Type: Implicit}}, out.Dependencies["ts-subproject"])
	assert.NotContains(out.Dependencies, "monorepo")

	// input untouched
	assert.Len(in.Nodes, 3)
	assert.Len(in.Dependencies["ts-subproject"], 1)

	b, err := json.Marshal(out)
	require.NoError(err)
	assert.JSONEq(`{
	  "version": "5.0",
	  "nodes": {
	    "ts-subproject": {"name": "ts-subproject", "type": "lib", "data": {"root": "packages/ts-subproject", "tags": []}},
	    "py-subproject": {"name": "py-subproject", "type": "lib", "data": {"root": "packages/py-subproject"}}
	  },
	  "dependencies": {
	    "ts-subproject": [{"source": "ts-subproject", "target": "py-subproject", "type": "implicit"}],
	    "py-subproject": []
	  }
	}`, string(b))
}

func TestProcess_NeverRemovesChildren(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	in := parseGraph(t, `{
	  "nodes": {
	    "a": {"name": "a", "type": "lib", "data": {"root": "a"}},
	    "b": {"name": "b", "type": "app", "data": {"root": "packages/b"}}
	  },
	  "dependencies": {}
	}`)

	out, err := Process(context.Background(), in, nx.WorkspaceConfig{})
	require.NoError(err)
	assert.Equal([]string{"a", "b"}, out.NodeNames())
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name    string
		deps    map[string][]string
		wantErr error
	}{
		{name: "unknown dependee", deps: map[string][]string{"ts-subproject": {"missing"}}, wantErr: ErrUnknownNode},
		{name: "unknown dependent", deps: map[string][]string{"missing": {"py-subproject"}}, wantErr: ErrUnknownNode},
		{name: "self", deps: map[string][]string{"py-subproject": {"py-subproject"}}, wantErr: ErrSelfEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(context.Background(), parseGraph(t, testGraph), nx.WorkspaceConfig{ImplicitDependencies: tt.deps})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuilder_Idempotent(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	b := NewBuilder(parseGraph(t, testGraph))
	require.NoError(b.AddImplicitDependency("ts-subproject", "py-subproject"))
	require.NoError(b.AddImplicitDependency("ts-subproject", "py-subproject"))

	assert.Len(b.Graph().Dependencies["ts-subproject"], 2, "static edge to the root plus one implicit edge")

	b.RemoveNode("py-subproject")
	assert.Equal([]Dependency{{Source: "ts-subproject", Target: "monorepo", Type: Static}}, b.Graph().Dependencies["ts-subproject"])
}

func TestProcessFromWorkspace(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	dir := t.TempDir()

	_, err := ProcessFromWorkspace(context.Background(), parseGraph(t, testGraph), dir)
	assert.Error(err, "nx.json is required")

	require.NoError(os.WriteFile(filepath.Join(dir, nx.WorkspaceConfigFile),
		[]byte(`{"implicitDependencies": {"ts-subproject": ["py-subproject"]}}`), 0644))
	out, err := ProcessFromWorkspace(context.Background(), parseGraph(t, testGraph), dir)
	require.NoError(err)
	assert.Len(out.Dependencies["ts-subproject"], 1)
}

func TestCycles(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	g := parseGraph(t, `{
	  "nodes": {
	    "a": {"name": "a", "type": "lib", "data": {"root": "a"}},
	    "b": {"name": "b", "type": "lib", "data": {"root": "b"}},
	    "c": {"name": "c", "type": "lib", "data": {"root": "c"}}
	  },
	  "dependencies": {
	    "a": [{"source": "a", "target": "b", "type": "static"}, {"source": "a", "target": "npm:left-pad", "type": "static"}],
	    "b": [{"source": "b", "target": "c", "type": "static"}],
	    "c": []
	  }
	}`)
	cycles, err := Cycles(g)
	require.NoError(err)
	assert.Empty(cycles)

	out, err := Process(context.Background(), g, nx.WorkspaceConfig{
		ImplicitDependencies: map[string][]string{"c": {"a"}},
	})
	require.NoError(err)
	cycles, err = Cycles(out)
	require.NoError(err)
	assert.Equal([][]string{{"a", "b", "c"}}, cycles)
}
