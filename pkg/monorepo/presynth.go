package monorepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klothoplatform/pdk/pkg/collectionutil"
	"github.com/klothoplatform/pdk/pkg/logging"
	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
	"go.uber.org/zap"
)

// preSynthesize validates the configuration and finalizes tasks and workspace membership. Nothing is written.
func (r *Root) preSynthesize(ctx context.Context) error {
	log := logging.GetLogger(ctx).Named("monorepo")
	r.state = PreSynthesizing

	if err := r.Validate(); err != nil {
		return err
	}
	if err := r.registerSiblingDependencies(log); err != nil {
		return err
	}

	for _, child := range r.Projects() {
		// the root orchestrates all tasks, so running everything in one project is not supported
		child.ResetDefaultTask()
	}
	if r.opts.Workspace.LinkLocalWorkspaceBins {
		r.linkLocalWorkspaceBins()
	}
	if r.opts.PackageManager == project.PNPM {
		r.linkBundledTransitiveDeps()
	}
	r.AddWorkspacePackages()
	r.wirePythonDependencies()
	return r.checkWorkspacePackages(log)
}

// registerSiblingDependencies records dependencies between projects in the registry. Projects without a package
// manager cannot declare them natively, so theirs become implicit dependencies.
func (r *Root) registerSiblingDependencies(log *zap.Logger) error {
	var errs error
	for _, child := range r.Projects() {
		_, packageManaged := child.IsPackageManaged()
		for _, dep := range child.Dependencies {
			name, _ := splitDependency(dep)
			if !r.Registry.Has(name) {
				if !packageManaged {
					log.Sugar().Warnf("Project %s has no package manager, ignoring dependency %s", child.Name, dep)
				}
				continue
			}
			var err error
			if packageManaged {
				err = r.Registry.AddNativeDependency(child.Name, name)
			} else {
				err = r.Registry.AddImplicitDependency(child.Name, name)
			}
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (r *Root) linkLocalWorkspaceBins() {
	pm := r.opts.PackageManager
	var steps []project.Step
	for _, child := range r.Projects() {
		if _, ok := child.IsPackageManaged(); !ok {
			continue
		}
		for _, cmd := range collectionutil.SortedKeys(child.Bins) {
			bin := path.Join("$PWD", child.OutDir, child.Bins[cmd])
			steps = append(steps, project.Step{
				Exec: fmt.Sprintf("ln -s %s %s &>/dev/null; exit 0;", bin, pm.BinPath(cmd)),
			})
		}
	}
	link := r.Tasks.Add(binLinkTaskName, project.TaskOptions{
		Description: "Link the bins of all workspace packages",
		Steps:       steps,
	})

	prepare := r.Tasks.TryFind("prepare")
	if prepare == nil {
		prepare = r.Tasks.Add("prepare", project.TaskOptions{})
	}
	prepare.Spawn(link)
}

// linkBundledTransitiveDeps makes pnpm expose the transitive dependencies of bundled dependencies, which its
// hoisting otherwise hides from packaging.
func (r *Root) linkBundledTransitiveDeps() {
	for _, child := range r.Projects() {
		if _, ok := child.IsPackageManaged(); !ok || !child.HasBundledDependencies() {
			continue
		}
		pkg := child.TryFindTask("package")
		if pkg == nil {
			pkg = child.AddTask("package", project.TaskOptions{Description: "Creates the distribution package"})
		}
		pkg.PrependExec("pdk@pnpm-link-bundled-transitive-deps " + child.OutDir)
	}
}

// noHoist returns the configured no-hoist globs plus, unless disabled, every bundled dependency of package managed
// projects.
func (r *Root) noHoist() []string {
	if r.opts.Workspace.DisableNoHoistBundled {
		return collectionutil.FlattenUnique(r.opts.Workspace.NoHoist)
	}
	var bundled []string
	for _, child := range r.Projects() {
		if _, ok := child.IsPackageManaged(); !ok {
			continue
		}
		for _, dep := range bundledDependencyNames(child) {
			bundled = append(bundled, child.Name+"/"+dep, child.Name+"/"+dep+"/*")
		}
	}
	return collectionutil.FlattenUnique(r.opts.Workspace.NoHoist, bundled)
}

// wirePythonDependencies moves the install steps of python projects into install-py, which the root install runs
// one project at a time in dependency order. Python projects share a virtual env, so parallel installs conflict.
func (r *Root) wirePythonDependencies() {
	var names []string
	for _, child := range r.Projects() {
		if child.Language != project.Python {
			continue
		}
		names = append(names, child.Name)

		installPy := child.TryFindTask(installPyTaskName)
		if installPy == nil {
			installPy = child.AddTask(installPyTaskName, project.TaskOptions{})
		}
		if install := child.TryFindTask("install"); install != nil {
			installPy.Steps = append(installPy.Steps, install.Steps...)
			install.ForceReset()
		}
	}
	if len(names) == 0 {
		return
	}

	install := r.Tasks.TryFind("install")
	if install == nil {
		install = r.Tasks.Add("install", project.TaskOptions{Description: "Install dependencies of all python projects"})
	}
	install.Exec(r.opts.PackageManager.ExecCommand(
		"nx", "run-many", "--target", installPyTaskName, "--projects", strings.Join(names, ","), "--parallel=1",
	))
	r.targetDependencies[installPyTaskName] = []nx.TargetDependency{
		{Target: installPyTaskName, Projects: nx.ScopeDependencies},
	}
}

// checkWorkspacePackages warns about directories matched by additional workspace globs that the package manager will
// not pick up because they have no manifest. Directories excluded by .nxignore are not checked.
func (r *Root) checkWorkspacePackages(log *zap.Logger) error {
	ignore := r.nxIgnore()
	managed := make(map[string]struct{}, len(r.children))
	for _, child := range r.children {
		managed[child.OutDir] = struct{}{}
	}
	fsys := os.DirFS(r.opts.OutDir)
	for _, glob := range r.workspacePackages {
		if _, ok := managed[glob]; ok {
			continue
		}
		matches, err := doublestar.Glob(fsys, glob)
		if err != nil {
			return fmt.Errorf("could not expand workspace package glob %q: %w", glob, err)
		}
		for _, m := range matches {
			if _, ok := managed[m]; ok {
				continue
			}
			if ignore.Ignores(m) {
				log.Sugar().Debugf("Skipping workspace package %s, it is excluded by %s", m, nxIgnoreFile)
				continue
			}
			info, err := fs.Stat(fsys, m)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(r.opts.OutDir, m, "package.json")); err != nil {
				log.Sugar().Warnf("Workspace package %s (from %q) has no package.json and will not be part of the workspace", m, glob)
			}
		}
	}
	return nil
}
