package config

import (
	"fmt"

	"github.com/klothoplatform/pdk/pkg/collectionutil"
	"github.com/klothoplatform/pdk/pkg/monorepo"
	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
	"github.com/klothoplatform/pdk/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// KindSpec is the table form of a project's kind.
type KindSpec struct {
	Type string `mapstructure:"type"`
	// PackageManager of a node project. Defaults to the workspace's.
	PackageManager string `mapstructure:"package_manager"`
}

// ParseKind decodes a project kind, given either as a kind name or as a [KindSpec] table.
func ParseKind(raw any, workspacePM project.PackageManager) (project.Kind, error) {
	var spec KindSpec
	switch v := raw.(type) {
	case nil:
		return project.Generic{}, nil
	case string:
		spec.Type = v
	default:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &spec,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, errors.Wrap(err, "invalid kind")
		}
	}

	switch spec.Type {
	case project.KindGeneric, "":
		if spec.PackageManager != "" {
			return nil, fmt.Errorf("kind %s does not take a package manager", project.KindGeneric)
		}
		return project.Generic{}, nil
	case project.KindPackageManaged:
		pm := workspacePM
		if spec.PackageManager != "" {
			var err error
			if pm, err = project.ParsePackageManager(spec.PackageManager); err != nil {
				return nil, err
			}
		}
		return project.PackageManaged{PackageManager: pm}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q, must be %q or %q", spec.Type, project.KindPackageManaged, project.KindGeneric)
	}
}

// RootOptions converts the workspace settings into the options of a root at dir.
func (ws Workspace) RootOptions(dir string) (monorepo.Options, error) {
	pm, err := project.ParsePackageManager(ws.PackageManager)
	if err != nil {
		return monorepo.Options{}, err
	}
	targetDeps, err := ws.targetDependencies()
	if err != nil {
		return monorepo.Options{}, err
	}
	opts := monorepo.Options{
		Name:                       ws.Name,
		OutDir:                     dir,
		PackageManager:             pm,
		NpmScope:                   ws.NpmScope,
		AffectedBranch:             ws.AffectedBranch,
		CacheableOperations:        ws.CacheableOperations,
		NxIgnore:                   ws.NxIgnore,
		NamedInputs:                ws.NamedInputs,
		TargetDependencies:         targetDeps,
		NxCloudReadOnlyAccessToken: ws.NxCloudReadOnlyAccessToken,
		InferTargets:               ws.InferTargets,
		Workspace: monorepo.WorkspaceOptions{
			NoHoist:                ws.Workspace.NoHoist,
			DisableNoHoistBundled:  ws.Workspace.DisableNoHoistBundled,
			LinkLocalWorkspaceBins: ws.Workspace.LinkLocalWorkspaceBins,
			AdditionalPackages:     ws.Workspace.AdditionalPackages,
		},
		ManifestVersion: ws.ManifestVersion,
	}
	if ws.UpgradeDeps != nil {
		opts.UpgradeDeps = &monorepo.UpgradeDepsOptions{
			Disabled:       ws.UpgradeDeps.Disabled,
			TaskName:       ws.UpgradeDeps.TaskName,
			SyncpackConfig: ws.UpgradeDeps.SyncpackConfig,
		}
	}
	return opts, nil
}

func (ws Workspace) targetDependencies() (map[string][]nx.TargetDependency, error) {
	if len(ws.TargetDependencies) == 0 {
		return nil, nil
	}
	deps := make(map[string][]nx.TargetDependency, len(ws.TargetDependencies))
	for target, list := range ws.TargetDependencies {
		for _, d := range list {
			scope := nx.TargetScope(d.Projects)
			if scope != nx.ScopeSelf && scope != nx.ScopeDependencies {
				return nil, fmt.Errorf("target dependency %s -> %s: projects must be %q or %q, got %q",
					target, d.Target, nx.ScopeSelf, nx.ScopeDependencies, d.Projects)
			}
			deps[target] = append(deps[target], nx.TargetDependency{Target: d.Target, Projects: scope})
		}
	}
	return deps, nil
}

// AddProjects adds every project of ws to r, then its implicit dependencies.
func (ws Workspace) AddProjects(r *monorepo.Root) error {
	for i, p := range ws.Projects {
		if err := addProject(r, p); err != nil {
			name := p.Name
			if name == "" {
				name = fmt.Sprintf("#%d (%s)", i, p.OutDir)
			}
			return errors.Wrapf(err, "project %s", name)
		}
	}

	for _, name := range collectionutil.SortedKeys(ws.ImplicitDependencies) {
		dependent := r.TryFindProject(name)
		if dependent == nil {
			return fmt.Errorf("implicit dependencies of %s: %w", name, registry.ErrUnknownProject)
		}
		for _, depName := range ws.ImplicitDependencies[name] {
			dependee := r.TryFindProject(depName)
			if dependee == nil {
				return fmt.Errorf("implicit dependency %s -> %s: %w", name, depName, registry.ErrUnknownProject)
			}
			if err := r.AddImplicitDependency(dependent, dependee); err != nil {
				return err
			}
		}
	}
	return nil
}

func addProject(r *monorepo.Root, cfg Project) error {
	kind, err := ParseKind(cfg.Kind, r.PackageManager())
	if err != nil {
		return err
	}
	lang, err := project.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}
	p, err := r.AddProject(project.Options{
		Name:                cfg.Name,
		OutDir:              cfg.OutDir,
		Kind:                kind,
		Language:            lang,
		Dependencies:        cfg.Dependencies,
		BundledDependencies: cfg.BundledDependencies,
		Bins:                cfg.Bins,
		Tags:                cfg.Tags,
	})
	if err != nil {
		return err
	}

	for _, name := range collectionutil.SortedKeys(cfg.Tasks) {
		if _, err := p.RegisterTask(name, cfg.Tasks[name]); err != nil {
			return err
		}
	}
	return nil
}

// Build constructs the root at dir with every project and dependency of ws.
func Build(ws Workspace, dir string) (*monorepo.Root, error) {
	opts, err := ws.RootOptions(dir)
	if err != nil {
		return nil, errors.Wrap(err, "invalid workspace")
	}
	return BuildWithOptions(ws, opts)
}

// BuildWithOptions is [Build] with root options already derived (and possibly amended) from ws.
func BuildWithOptions(ws Workspace, opts monorepo.Options) (*monorepo.Root, error) {
	r, err := monorepo.New(opts)
	if err != nil {
		return nil, errors.Wrap(err, "invalid workspace")
	}
	if err := ws.AddProjects(r); err != nil {
		return nil, err
	}
	return r, nil
}
