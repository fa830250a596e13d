package nx

import (
	"strings"

	"github.com/klothoplatform/pdk/pkg/collectionutil"
	"github.com/klothoplatform/pdk/pkg/project"
)

const RunCommandsExecutor = "nx:run-commands"

// nodeLifecycleTasks are run by the package manager itself for package managed projects, so they are never
// exposed as targets.
var nodeLifecycleTasks = map[string]struct{}{
	"preinstall":     {},
	"install":        {},
	"postinstall":    {},
	"preinstall:ci":  {},
	"install:ci":     {},
	"postinstall:ci": {},
}

// IsNodeLifecycleTask reports whether the package manager runs the task name on its own during install.
func IsNodeLifecycleTask(name string) bool {
	_, ok := nodeLifecycleTasks[name]
	return ok
}

type (
	// ProjectConfig is a project's project.json.
	ProjectConfig struct {
		Name                 string                   `json:"name"`
		Root                 string                   `json:"root"`
		NamedInputs          map[string][]string      `json:"namedInputs,omitempty"`
		Targets              map[string]ProjectTarget `json:"targets,omitempty"`
		Tags                 []string                 `json:"tags,omitempty"`
		ImplicitDependencies []string                 `json:"implicitDependencies,omitempty"`
		IncludedScripts      []string                 `json:"includedScripts,omitempty"`
	}

	ProjectTarget struct {
		Inputs    []string       `json:"inputs,omitempty"`
		Outputs   []string       `json:"outputs,omitempty"`
		DependsOn []string       `json:"dependsOn,omitempty"`
		Executor  string         `json:"executor,omitempty"`
		Options   map[string]any `json:"options,omitempty"`
	}

	ProjectConfigOptions struct {
		// Root is the project directory relative to the workspace root.
		Root string
		// PackageManager of the workspace. Package managed projects use their own.
		PackageManager       project.PackageManager
		ImplicitDependencies []string
		// IncludedScripts limits which tasks become targets. Empty means all.
		IncludedScripts []string
		NamedInputs     map[string][]string
		// Targets are explicitly configured targets, merged with the generated run-commands options.
		Targets map[string]ProjectTarget
		// InferTargets adds an inferred build target based on the project's language.
		InferTargets bool
	}
)

// NewProjectConfig derives the project.json of p. Every task of p becomes a run-commands target that invokes the
// task through the project's task runner.
func NewProjectConfig(p *project.Project, opts ProjectConfigOptions) ProjectConfig {
	cfg := ProjectConfig{
		Name:                 p.Name,
		Root:                 opts.Root,
		NamedInputs:          opts.NamedInputs,
		Targets:              make(map[string]ProjectTarget),
		Tags:                 p.Tags,
		ImplicitDependencies: opts.ImplicitDependencies,
		IncludedScripts:      opts.IncludedScripts,
	}
	for name, t := range opts.Targets {
		cfg.Targets[name] = t.clone()
	}
	if opts.InferTargets {
		if build := InferBuildTarget(p); build != nil {
			cfg.Targets["build"] = *build
		}
	}

	pm, packageManaged := p.IsPackageManaged()
	if !packageManaged {
		pm = opts.PackageManager
	}
	included := make(map[string]struct{}, len(opts.IncludedScripts))
	for _, s := range opts.IncludedScripts {
		included[s] = struct{}{}
	}

	for _, task := range p.Tasks.All() {
		if len(included) > 0 {
			if _, ok := included[task.Name]; !ok {
				continue
			}
		}
		target, explicit := cfg.Targets[task.Name]
		if _, lifecycle := nodeLifecycleTasks[task.Name]; lifecycle && packageManaged && !explicit {
			continue
		}

		var command string
		if packageManaged {
			command = pm.ExecCommand("projen", task.Name)
		} else {
			// no manifest dependencies of its own, so the runner has to be fetched
			command = pm.DownloadExecCommand("projen", task.Name)
		}
		if target.Executor == "" {
			target.Executor = RunCommandsExecutor
		}
		options := map[string]any{
			"command": command,
			"cwd":     opts.Root,
		}
		for k, v := range target.Options {
			options[k] = v
		}
		target.Options = options
		cfg.Targets[task.Name] = target
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = nil
	}
	return cfg
}

func (t ProjectTarget) clone() ProjectTarget {
	c := ProjectTarget{
		Inputs:    append([]string(nil), t.Inputs...),
		Outputs:   append([]string(nil), t.Outputs...),
		DependsOn: append([]string(nil), t.DependsOn...),
		Executor:  t.Executor,
	}
	if t.Options != nil {
		c.Options = make(map[string]any, len(t.Options))
		for k, v := range t.Options {
			c.Options[k] = v
		}
	}
	return c
}

// fileset is a project (or workspace) relative glob used for target inputs and outputs.
type fileset struct {
	pattern       string
	dir           bool
	exclude       bool
	workspaceRoot bool
}

func fileOf(pattern string) fileset {
	return newFileset(pattern, false)
}

func dirOf(pattern string) fileset {
	return newFileset(pattern, true)
}

func newFileset(pattern string, dir bool) fileset {
	exclude := strings.HasPrefix(pattern, "!")
	return fileset{
		pattern: strings.TrimPrefix(strings.TrimPrefix(pattern, "!"), "/"),
		dir:     dir,
		exclude: exclude,
	}
}

func (f fileset) String() string {
	root := "{projectRoot}"
	if f.workspaceRoot {
		root = "{workspaceRoot}"
	}
	s := root + "/" + f.pattern
	if f.exclude {
		s = "!" + s
	}
	return s
}

// input is the fileset as a target input: directories match everything below them.
func (f fileset) input() string {
	s := f.String()
	if !f.dir {
		return s
	}
	switch {
	case strings.HasSuffix(s, "*"):
		return s
	case strings.HasSuffix(s, "/"):
		return s + "**/*"
	default:
		return s + "/**/*"
	}
}

func (f fileset) inverse() fileset {
	f.exclude = !f.exclude
	return f
}

// InferBuildTarget derives the build target's inputs and outputs from the project's language. Outputs are excluded
// from the inputs, and the target depends on the build of the project's dependencies. Nil is returned when nothing
// is known about the outputs.
func InferBuildTarget(p *project.Project) *ProjectTarget {
	var inputs, outputs []fileset

	switch p.Language {
	case project.TypeScript:
		outputs = append(outputs, dirOf("lib"), dirOf("dist"))
		outputs = append(outputs, dirOf("coverage"), dirOf("test-reports"))
	case project.JavaScript:
		outputs = append(outputs, dirOf("coverage"), dirOf("test-reports"))
	case project.Python:
		inputs = append(inputs, dirOf("!.env"), dirOf("!.pytest_cache"))
	case project.Java:
		inputs = append(inputs, fileOf("!.classpath"), fileOf("!.project"), fileOf("!.settings"))
		outputs = append(outputs, dirOf("target"), dirOf("dist/java"))
	}
	if len(outputs) == 0 {
		return nil
	}

	target := &ProjectTarget{
		Inputs:    []string{"default", "^default"},
		DependsOn: []string{"^build"},
	}
	for _, in := range inputs {
		target.Inputs = append(target.Inputs, in.input())
	}
	for _, out := range outputs {
		target.Inputs = append(target.Inputs, out.inverse().input())
		target.Outputs = append(target.Outputs, out.String())
	}
	return target
}

// TargetNames returns the names of cfg's targets, sorted.
func (cfg ProjectConfig) TargetNames() []string {
	return collectionutil.SortedKeys(cfg.Targets)
}
