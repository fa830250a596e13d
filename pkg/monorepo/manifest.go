package monorepo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	kio "github.com/klothoplatform/pdk/pkg/io"
	"github.com/klothoplatform/pdk/pkg/logging"
	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
	"go.uber.org/zap"
)

const (
	manifestFile  = "package.json"
	tasksFilePath = ".projen/tasks.json"
)

type (
	packageManifest struct {
		Name                string            `json:"name"`
		Version             string            `json:"version,omitempty"`
		Private             bool              `json:"private,omitempty"`
		Owned               bool              `json:"__pdk__,omitempty"`
		Bin                 map[string]string `json:"bin,omitempty"`
		Scripts             map[string]string `json:"scripts,omitempty"`
		Dependencies        map[string]string `json:"dependencies,omitempty"`
		DevDependencies     map[string]string `json:"devDependencies,omitempty"`
		BundledDependencies []string          `json:"bundledDependencies,omitempty"`
		Engines             map[string]string `json:"engines,omitempty"`
		PackageManager      string            `json:"packageManager,omitempty"`
		Workspaces          *workspaces       `json:"workspaces,omitempty"`
	}

	workspaces struct {
		Packages []string `json:"packages"`
		NoHoist  []string `json:"nohoist,omitempty"`
	}

	tasksManifest struct {
		Tasks map[string]taskSpec `json:"tasks"`
	}

	taskSpec struct {
		Name        string            `json:"name"`
		Description string            `json:"description,omitempty"`
		Env         map[string]string `json:"env,omitempty"`
		Steps       []stepSpec        `json:"steps,omitempty"`
	}

	stepSpec struct {
		Name        string `json:"name,omitempty"`
		Exec        string `json:"exec,omitempty"`
		Say         string `json:"say,omitempty"`
		Spawn       string `json:"spawn,omitempty"`
		Cwd         string `json:"cwd,omitempty"`
		ReceiveArgs bool   `json:"receiveArgs,omitempty"`
	}

	// manifestStatus records what manifest generation decided for one project.
	manifestStatus struct {
		project *project.Project
		file    kio.File
		// handAuthored manifests exist on disk without the ownership marker.
		handAuthored bool
		// childOwned manifests are part of the project's own files.
		childOwned bool
	}
)

// generateManifests decides the manifest of every project, in name order. Projects whose manifest is one of their
// own files keep it. Manifests on disk that pdk did not generate are left alone.
func (r *Root) generateManifests(ctx context.Context) ([]manifestStatus, error) {
	log := logging.GetLogger(ctx).Named("monorepo")

	var statuses []manifestStatus
	for _, child := range r.Projects() {
		status := manifestStatus{project: child}
		if child.TryFindFile(manifestFile) != nil {
			status.childOwned = true
			statuses = append(statuses, status)
			continue
		}

		existing, err := os.ReadFile(filepath.Join(r.projectDir(child), manifestFile))
		switch {
		case err == nil:
			if !kio.IsOwned(existing, OwnershipKey) {
				log.Warn("Skipping hand-authored manifest",
					zap.String("project", child.Name),
					zap.String("path", path.Join(child.OutDir, manifestFile)))
				status.handAuthored = true
				statuses = append(statuses, status)
				continue
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}

		status.file = &kio.JSONFile{
			FPath:        path.Join(child.OutDir, manifestFile),
			Obj:          r.childManifest(child),
			Marker:       true,
			OwnershipKey: OwnershipKey,
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (r *Root) childManifest(child *project.Project) packageManifest {
	m := packageManifest{
		Name:    child.Name,
		Version: r.opts.ManifestVersion,
		Owned:   true,
		Scripts: make(map[string]string),
	}

	pm, packageManaged := child.IsPackageManaged()
	if !packageManaged {
		m.Private = true
		m.DevDependencies = map[string]string{"projen": "*"}
		for _, t := range child.Tasks.All() {
			m.Scripts[t.Name] = r.opts.PackageManager.DownloadExecCommand("projen", t.Name)
		}
		return m
	}

	for _, t := range child.Tasks.All() {
		if nx.IsNodeLifecycleTask(t.Name) {
			continue
		}
		m.Scripts[t.Name] = pm.ExecCommand("projen", t.Name)
	}
	m.DevDependencies = map[string]string{"projen": "*"}
	if len(child.Dependencies) > 0 {
		m.Dependencies = make(map[string]string, len(child.Dependencies))
		for _, dep := range child.Dependencies {
			name, version := splitDependency(dep)
			switch {
			case r.Registry.Has(name):
				version = r.siblingVersion()
			case version == "":
				version = "*"
			}
			m.Dependencies[name] = version
		}
	}
	if len(child.BundledDependencies) > 0 {
		m.BundledDependencies = bundledDependencyNames(child)
		if m.Dependencies == nil {
			m.Dependencies = make(map[string]string)
		}
		for _, dep := range child.BundledDependencies {
			name, version := splitDependency(dep)
			if _, ok := m.Dependencies[name]; ok {
				continue
			}
			if version == "" {
				version = "*"
			}
			m.Dependencies[name] = version
		}
	}
	if len(child.Bins) > 0 {
		m.Bin = child.Bins
	}
	return m
}

func (r *Root) siblingVersion() string {
	if r.opts.PackageManager == project.PNPM {
		return "workspace:*"
	}
	return "*"
}

// projectConfigFile generates the project.json of child, unless the project provides its own.
func (r *Root) projectConfigFile(child *project.Project) kio.File {
	if child.TryFindFile(nx.ProjectConfigFile) != nil {
		return nil
	}
	cfg := nx.NewProjectConfig(child, nx.ProjectConfigOptions{
		Root:                 child.OutDir,
		PackageManager:       r.opts.PackageManager,
		ImplicitDependencies: r.Registry.ImplicitDependencies()[child.Name],
		InferTargets:         r.opts.InferTargets,
	})
	return &kio.JSONFile{
		FPath:  path.Join(child.OutDir, nx.ProjectConfigFile),
		Obj:    cfg,
		Marker: true,
	}
}

// tasksFile renders tasks in the format read by the projen task runner.
func tasksFile(dir string, tasks *project.TaskSet) kio.File {
	m := tasksManifest{Tasks: make(map[string]taskSpec, tasks.Len())}
	for _, t := range tasks.All() {
		spec := taskSpec{
			Name:        t.Name,
			Description: t.Description,
			Env:         t.Env,
		}
		for _, s := range t.Steps {
			spec.Steps = append(spec.Steps, stepSpec{
				Name:        s.Name,
				Exec:        s.Exec,
				Say:         s.Say,
				Spawn:       s.Spawn,
				Cwd:         s.Cwd,
				ReceiveArgs: t.ReceiveArgs && s.Exec != "",
			})
		}
		m.Tasks[t.Name] = spec
	}
	return &kio.JSONFile{
		FPath:  path.Join(dir, tasksFilePath),
		Obj:    m,
		Marker: true,
	}
}
