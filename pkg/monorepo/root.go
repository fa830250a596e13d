// Package monorepo synthesizes the workspace files of a polyglot monorepo whose tasks are orchestrated by nx.
package monorepo

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
	"github.com/klothoplatform/pdk/pkg/registry"
	"go.uber.org/zap"
)

const (
	// OwnershipKey marks manifests generated by pdk. Manifests without it are never overwritten.
	OwnershipKey = "__pdk__"

	nonNativeHasherEnv = "NX_NON_NATIVE_HASHER"
	binLinkTaskName    = "workspace:bin:link"
	installPyTaskName  = "install-py"
)

var ErrAlreadySynthesized = errors.New("workspace already synthesized")

// Root is the workspace root project. It owns the child projects, the registry of dependencies between them and
// the root level tasks.
type Root struct {
	opts  Options
	log   *zap.Logger
	state State

	// prepareErr is the outcome of the one PreSynthesizing run, returned again by every later Prepare.
	prepareErr error

	Tasks    *project.TaskSet
	Registry *registry.Registry

	// children in the order they were added
	children          []*project.Project
	workspacePackages []string
	// targetDependencies are added to nx.json on top of the defaults and the configured ones.
	targetDependencies map[string][]nx.TargetDependency
}

func New(opts Options) (*Root, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	r := &Root{
		opts:               opts,
		log:                zap.L().Named("monorepo"),
		Tasks:              project.NewTaskSet(),
		Registry:           registry.New(zap.L()),
		targetDependencies: make(map[string][]nx.TargetDependency),
	}
	r.workspacePackages = append(r.workspacePackages, opts.Workspace.AdditionalPackages...)
	r.addRootTasks()
	return r, nil
}

func (r *Root) Options() Options {
	return r.opts
}

func (r *Root) State() State {
	return r.state
}

func (r *Root) PackageManager() project.PackageManager {
	return r.opts.PackageManager
}

func (r *Root) addRootTasks() {
	pm := r.opts.PackageManager

	r.Tasks.Add("synth-workspace", project.TaskOptions{
		Description: "Synthesize workspace",
		Exec:        "pdk synth",
	})
	r.Tasks.Add("run-many", project.TaskOptions{
		Description: "Run task against multiple workspace projects",
		Exec:        pm.ExecCommand("nx", "run-many"),
		Env:         map[string]string{nonNativeHasherEnv: "true"},
		ReceiveArgs: true,
	})

	lifecycle := []struct {
		name        string
		description string
		opts        nx.RunManyOptions
	}{
		{name: "build", description: "Full release build", opts: nx.RunManyOptions{Target: "build"}},
		{name: "pre-compile", description: "Prepare the project for compilation", opts: nx.RunManyOptions{Target: "pre-compile"}},
		{name: "compile", description: "Only compile", opts: nx.RunManyOptions{Target: "compile"}},
		{name: "post-compile", description: "Runs after successful compilation", opts: nx.RunManyOptions{Target: "post-compile"}},
		{name: "test", description: "Run tests", opts: nx.RunManyOptions{Target: "test"}},
		{name: "eslint", description: "Runs eslint against the codebase", opts: nx.RunManyOptions{Target: "eslint"}},
		{name: "package", description: "Creates the distribution package", opts: nx.RunManyOptions{Target: "package"}},
		{name: "prepare", description: "Prepare the workspace", opts: nx.RunManyOptions{Target: "prepare"}},
		{name: "watch", description: "Watch & compile in the background", opts: nx.RunManyOptions{
			Target:       "watch",
			NoBail:       false,
			IgnoreCycles: true,
			SkipCache:    true,
			OutputStyle:  "stream",
		}},
	}
	for _, l := range lifecycle {
		t := r.Tasks.Add(l.name, project.TaskOptions{Description: l.description, Locked: l.name == "build"})
		r.overrideRunManyTask(t, l.opts, l.name == "build")
	}

	if !r.opts.UpgradeDeps.Disabled {
		t := r.Tasks.Add(r.opts.UpgradeDeps.TaskName, project.TaskOptions{Description: "Upgrade dependencies in all workspace projects"})
		t.Exec(pm.ExecCommand("npm-check-updates", "--deep", "--rejectVersion", "0.0.0", "-u"))
		t.Exec(pm.ExecCommand("syncpack", "fix-mismatches"))
		t.Exec(pm.Binary() + " install")
		t.Exec("pdk synth")
	}
}

// overrideRunManyTask replaces the steps of t with an `nx run-many` over all affected projects. Locked tasks are
// only replaced with force.
func (r *Root) overrideRunManyTask(t *project.Task, opts nx.RunManyOptions, force bool) {
	command := nx.FormatRunManyCommand(r.opts.PackageManager, opts)
	if force {
		t.ForceReset(command)
	} else if err := t.Reset(command); err != nil {
		r.log.Sugar().Debugf("Not overriding task %s: %v", t.Name, err)
		return
	}
	t.ReceiveArgs = true
	t.Description += " for all affected projects"
	t.SetEnv(nonNativeHasherEnv, "true")
}

// AddNxRunManyTask adds a root task that runs `nx run-many` with opts.
func (r *Root) AddNxRunManyTask(name string, opts nx.RunManyOptions) *project.Task {
	return r.Tasks.Add(name, project.TaskOptions{
		Exec:        nx.FormatRunManyCommand(r.opts.PackageManager, opts),
		Env:         map[string]string{nonNativeHasherEnv: "true"},
		ReceiveArgs: true,
	})
}

// AddProject creates a child project of the root and registers it.
func (r *Root) AddProject(opts project.Options) (*project.Project, error) {
	if r.state != Configuring {
		return nil, fmt.Errorf("cannot add project %s in state %s", opts.Name, r.state)
	}
	p, err := project.New(opts)
	if err != nil {
		return nil, err
	}
	if err := r.Registry.Register(p.Name); err != nil {
		return nil, err
	}
	p.Parent = &project.Project{Name: r.opts.Name, OutDir: "."}
	r.children = append(r.children, p)
	r.log.Debug("Added project", zap.String("name", p.Name), zap.String("outdir", p.OutDir))
	return p, nil
}

// AddImplicitDependency records that dependent must be built after dependee even though no package manager
// dependency says so.
func (r *Root) AddImplicitDependency(dependent, dependee *project.Project) error {
	return r.Registry.AddImplicitDependency(dependent.Name, dependee.Name)
}

// AddWorkspacePackages adds package globs to the workspace. Projects added since the last call are added first, in
// the order they were added.
func (r *Root) AddWorkspacePackages(globs ...string) {
	existing := make(map[string]struct{}, len(r.workspacePackages))
	for _, p := range r.workspacePackages {
		existing[p] = struct{}{}
	}
	for _, child := range r.children {
		if _, ok := existing[child.OutDir]; ok {
			continue
		}
		existing[child.OutDir] = struct{}{}
		r.workspacePackages = append(r.workspacePackages, child.OutDir)
	}
	r.workspacePackages = append(r.workspacePackages, globs...)
}

// Projects returns the children sorted by name.
func (r *Root) Projects() []*project.Project {
	sorted := append([]*project.Project(nil), r.children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func (r *Root) TryFindProject(name string) *project.Project {
	for _, c := range r.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// projectDir is the absolute directory of p.
func (r *Root) projectDir(p *project.Project) string {
	return filepath.Join(r.opts.OutDir, filepath.FromSlash(p.OutDir))
}
