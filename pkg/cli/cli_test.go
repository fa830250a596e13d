package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klothoplatform/pdk/pkg/monorepo"
	"github.com/klothoplatform/pdk/pkg/nxplugin"
	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testWorkspace = `
	name: my-monorepo
	projects:
	  - name: ts-subproject
	    outdir: packages/ts-subproject
	    kind: node
	    language: typescript
	    tasks:
	      build: tsc --build
	  - name: py-subproject
	    outdir: packages/py-subproject
	    language: python
	    tasks:
	      install: poetry install
	implicit_dependencies:
	  ts-subproject: [py-subproject]
	`

func writeWorkspace(t *testing.T, content string) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	file = filepath.Join(dir, ".pdkrc.yaml")
	require.NoError(t, os.WriteFile(file, []byte(dedent.Dedent(content)), 0644))
	return dir, file
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	root, _ := PdkMain{Version: "test"}.NewRootCmd(strings.NewReader(stdin), stdout, new(bytes.Buffer))
	root.SetArgs(append(args, "--color=never"))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSynth(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	dir, file := writeWorkspace(t, testWorkspace)

	out, err := execute(t, "", "synth", "--dry-run", "-c", file)
	require.NoError(err)
	assert.Contains(out, "nx.json\n")
	assert.Contains(out, "packages/py-subproject/package.json\n")
	assert.NoFileExists(filepath.Join(dir, "nx.json"))

	out, err = execute(t, "", "-c", file)
	require.NoError(err)
	assert.Contains(out, "wrote   nx.json")
	assert.FileExists(filepath.Join(dir, "nx.json"))
	assert.FileExists(filepath.Join(dir, "packages/py-subproject/project.json"))

	out, err = execute(t, "", "synth", "--check", "-c", file)
	require.NoError(err)
	assert.Empty(out)

	require.NoError(os.WriteFile(filepath.Join(dir, "nx.json"), []byte(`{"npmScope": "other"}`+"\n"), 0644))
	out, err = execute(t, "", "synth", "--check", "-c", file)
	assert.ErrorIs(err, ErrDrift)
	assert.Contains(out, "nx.json (update)")
	assert.Contains(out, "npmScope: other -> monorepo")
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	_, file := writeWorkspace(t, testWorkspace)
	out, err := execute(t, "", "validate", "-c", file)
	assert.NoError(err)
	assert.Equal("2 projects are valid\n", out)

	_, file = writeWorkspace(t, `
		projects:
		  - name: a
		    outdir: packages/same
		  - name: b
		    outdir: packages/same
		`)
	_, err = execute(t, "", "validate", "-c", file)
	assert.ErrorIs(err, monorepo.ErrOutDirCollision)
}

func TestGraph(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	_, file := writeWorkspace(t, testWorkspace)

	out, err := execute(t, "", "graph", "-c", file)
	require.NoError(err)
	assert.Contains(out, "ts-subproject  node     typescript  packages/ts-subproject")
	assert.Contains(out, "py-subproject  generic  python      packages/py-subproject")
	assert.Contains(out, "ts-subproject -> py-subproject (implicit)")
	assert.Contains(out, "Build order: py-subproject, ts-subproject")
}

func TestNxPlugin(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	dir, file := writeWorkspace(t, testWorkspace)

	_, err := execute(t, "", "-c", file)
	require.NoError(err)

	in := `{
	  "nodes": {
	    "my-monorepo": {"name": "my-monorepo", "type": "lib", "data": {"root": ""}},
	    "ts-subproject": {"name": "ts-subproject", "type": "lib", "data": {"root": "packages/ts-subproject"}},
	    "py-subproject": {"name": "py-subproject", "type": "lib", "data": {"root": "packages/py-subproject"}}
	  },
	  "dependencies": {"my-monorepo": [], "ts-subproject": [], "py-subproject": []}
	}`
	out, err := execute(t, in, "nx-plugin", "--workspace", dir)
	require.NoError(err)

	var graph nxplugin.ProjectGraph
	require.NoError(json.Unmarshal([]byte(out), &graph))
	assert.Equal([]string{"py-subproject", "ts-subproject"}, graph.NodeNames())
	assert.Equal(
		[]nxplugin.Dependency{{Source: "ts-subproject", Target: "py-subproject", Type: nxplugin.Implicit}},
		graph.Dependencies["ts-subproject"],
	)

	_, err = execute(t, "not json", "nx-plugin", "--workspace", dir)
	assert.Error(err)
}

func TestErrorHandler(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zap.ErrorLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	ErrorHandler{}.PrintErr(errors.Join(errors.New("first"), errors.New("second")))
	messages := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
	}
	assert.Equal([]string{"2 errors:", "[err 1] first", "[err 2] second"}, messages)
}
