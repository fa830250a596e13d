package monorepo

import (
	"embed"
	"path"
	"strings"

	kio "github.com/klothoplatform/pdk/pkg/io"
	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
	"github.com/klothoplatform/pdk/pkg/templateutils"
)

//go:embed templates/*.tmpl
var templates embed.FS

var pluginTemplate = templateutils.MustTemplate(templates, "templates/nx-monorepo-plugin.js.tmpl")

const (
	nxIgnoreFile    = ".nxignore"
	syncpackFile    = ".syncpackrc.json"
	pnpmWorkspace   = "pnpm-workspace.yaml"
	pluginMaxBuffer = 64 * 1024 * 1024
)

// PluginCommand is the command the graph plugin shim runs to rebuild the project graph.
var PluginCommand = []string{"pdk", "nx-plugin"}

var defaultNxIgnore = []string{"test-reports", "target", ".env", ".pytest_cache"}

// nxIgnore lists the paths nx does not scan for projects.
func (r *Root) nxIgnore() *kio.IgnoreFile {
	f := kio.NewIgnoreFile(nxIgnoreFile, defaultNxIgnore...)
	f.Exclude(r.opts.NxIgnore...)
	return f
}

func (r *Root) rootFiles() ([]kio.File, error) {
	plugin, err := renderPlugin()
	if err != nil {
		return nil, err
	}
	files := []kio.File{
		&kio.JSONFile{FPath: nx.WorkspaceConfigFile, Obj: r.WorkspaceConfig(), Marker: true},
		r.nxIgnore(),
		plugin,
		&kio.JSONFile{FPath: manifestFile, Obj: r.rootManifest(), Marker: true},
		tasksFile(".", r.Tasks),
	}
	if !r.opts.UpgradeDeps.Disabled {
		files = append(files, &kio.JSONFile{FPath: syncpackFile, Obj: r.opts.UpgradeDeps.SyncpackConfig, Marker: true})
	}
	if r.opts.PackageManager == project.PNPM {
		files = append(files, &kio.YAMLFile{FPath: pnpmWorkspace, Obj: map[string]any{"packages": r.workspacePackages}})
	}
	return files, nil
}

// WorkspaceConfig builds nx.json from the options and the registered implicit dependencies.
func (r *Root) WorkspaceConfig() nx.WorkspaceConfig {
	runner := nx.DefaultRunner
	if r.opts.NxCloudReadOnlyAccessToken != "" {
		runner = nx.CloudRunner
	}

	namedInputs := map[string][]string{
		"default": {"{projectRoot}/**/*"},
	}
	for k, v := range r.opts.NamedInputs {
		namedInputs[k] = v
	}

	targetDependencies := map[string][]nx.TargetDependency{
		"build": {{Target: "build", Projects: nx.ScopeDependencies}},
	}
	for k, v := range r.opts.TargetDependencies {
		targetDependencies[k] = v
	}
	for k, v := range r.targetDependencies {
		targetDependencies[k] = v
	}

	implicit := r.Registry.ImplicitDependencies()
	if len(implicit) == 0 {
		implicit = nil
	}

	return nx.WorkspaceConfig{
		Extends:  nx.DefaultPreset,
		Plugins:  []string{"./" + nx.PluginPath},
		NpmScope: r.opts.NpmScope,
		TasksRunnerOptions: map[string]nx.TasksRunner{
			"default": {
				Runner: runner,
				Options: nx.TasksRunnerOptions{
					UseDaemonProcess:    false,
					CacheableOperations: r.opts.CacheableOperations,
					AccessToken:         r.opts.NxCloudReadOnlyAccessToken,
				},
			},
		},
		NamedInputs:          namedInputs,
		TargetDefaults:       r.opts.TargetDefaults,
		ImplicitDependencies: implicit,
		TargetDependencies:   targetDependencies,
		Affected:             &nx.Affected{DefaultBase: r.opts.AffectedBranch},
	}
}

func (r *Root) rootManifest() packageManifest {
	pm := r.opts.PackageManager
	m := packageManifest{
		Name:    r.opts.Name,
		Private: true,
		Scripts: make(map[string]string, r.Tasks.Len()),
		DevDependencies: map[string]string{
			"nx":              "*",
			"@nrwl/cli":       "*",
			"@nrwl/workspace": "*",
			"projen":          "*",
		},
		Engines: map[string]string{"node": ">=16"},
		Workspaces: &workspaces{
			Packages: append([]string{}, r.workspacePackages...),
			NoHoist:  r.noHoist(),
		},
	}
	for _, t := range r.Tasks.All() {
		m.Scripts[t.Name] = pm.ExecCommand("projen", t.Name)
	}
	if !r.opts.UpgradeDeps.Disabled {
		m.DevDependencies["npm-check-updates"] = "*"
		m.DevDependencies["syncpack"] = "*"
	}
	if r.opts.NxCloudReadOnlyAccessToken != "" {
		m.DevDependencies["@nrwl/nx-cloud"] = "*"
	}
	switch pm {
	case project.PNPM:
		m.Engines["pnpm"] = ">=8"
		m.PackageManager = "pnpm@8"
	case project.Yarn:
		m.Engines["yarn"] = ">=1 <2"
		m.PackageManager = "yarn@1"
	case project.Yarn2:
		m.Engines["yarn"] = ">=2 <3"
		m.PackageManager = "yarn@2"
	}
	return m
}

func renderPlugin() (kio.File, error) {
	depth := strings.Repeat("../", strings.Count(path.Dir(nx.PluginPath), "/")+1)
	content, err := pluginTemplate.Render(struct {
		Marker    string
		Depth     string
		Command   string
		Args      []string
		MaxBuffer int
	}{
		Marker:    kio.GeneratedMarker,
		Depth:     strings.TrimSuffix(depth, "/"),
		Command:   PluginCommand[0],
		Args:      PluginCommand[1:],
		MaxBuffer: pluginMaxBuffer,
	})
	if err != nil {
		return nil, err
	}
	return &kio.RawFile{FPath: nx.PluginPath, Content: content}, nil
}
