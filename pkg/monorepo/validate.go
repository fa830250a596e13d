package monorepo

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/klothoplatform/pdk/pkg/project"
)

var (
	ErrOutDirEscapes          = errors.New("project directory is outside the workspace")
	ErrOutDirCollision        = errors.New("project directories overlap")
	ErrPackageManagerMismatch = errors.New("package manager does not match the workspace")
)

// Validate checks the configuration of the root and all projects. Every problem found is returned, joined.
func (r *Root) Validate() error {
	var errs error
	errs = errors.Join(errs, r.validateOutDirs())

	for _, child := range r.Projects() {
		if pm, ok := child.IsPackageManaged(); ok && pm != r.opts.PackageManager {
			errs = errors.Join(errs, fmt.Errorf("%w: %s uses %s, the workspace uses %s",
				ErrPackageManagerMismatch, child.Name, pm, r.opts.PackageManager))
		}
		for _, t := range child.Tasks.All() {
			if err := t.Validate(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("project %s: %w", child.Name, err))
			}
		}
	}
	for _, t := range r.Tasks.All() {
		if err := t.Validate(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("workspace: %w", err))
		}
	}
	return errs
}

func (r *Root) validateOutDirs() error {
	var errs error
	type dir struct {
		name string
		path string
	}
	var dirs []dir
	for _, child := range r.children {
		p := path.Clean(child.OutDir)
		switch {
		case path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../"):
			errs = errors.Join(errs, fmt.Errorf("%w: %s (%s)", ErrOutDirEscapes, child.Name, child.OutDir))
			continue
		case p == ".":
			errs = errors.Join(errs, fmt.Errorf("%w: %s uses the workspace root", ErrOutDirCollision, child.Name))
			continue
		}
		dirs = append(dirs, dir{name: child.Name, path: p})
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].path != dirs[j].path {
			return dirs[i].path < dirs[j].path
		}
		return dirs[i].name < dirs[j].name
	})
	for i := range dirs {
		for j := i + 1; j < len(dirs); j++ {
			a, b := dirs[i], dirs[j]
			switch {
			case a.path == b.path:
				errs = errors.Join(errs, fmt.Errorf("%w: %s and %s both use %s", ErrOutDirCollision, a.name, b.name, a.path))
			case strings.HasPrefix(b.path, a.path+"/"):
				errs = errors.Join(errs, fmt.Errorf("%w: %s (%s) is inside %s (%s)", ErrOutDirCollision, b.name, b.path, a.name, a.path))
			}
		}
	}
	return errs
}

// bundledDependencyNames strips versions from p's bundled dependencies.
func bundledDependencyNames(p *project.Project) []string {
	names := make([]string, 0, len(p.BundledDependencies))
	for _, d := range p.BundledDependencies {
		name, _ := splitDependency(d)
		names = append(names, name)
	}
	return names
}

// splitDependency splits "name@version" into its name and version. Scoped names keep their leading "@".
func splitDependency(dep string) (name, version string) {
	if i := strings.LastIndex(dep, "@"); i > 0 {
		return dep[:i], dep[i+1:]
	}
	return dep, ""
}
