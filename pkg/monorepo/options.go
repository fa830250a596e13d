package monorepo

import (
	"fmt"
	"path/filepath"

	"github.com/coreos/go-semver/semver"
	"github.com/klothoplatform/pdk/pkg/nx"
	"github.com/klothoplatform/pdk/pkg/project"
)

type (
	Options struct {
		// Name of the root package. Defaults to "monorepo".
		Name string
		// OutDir is the workspace root directory. It must exist when synthesizing.
		OutDir         string
		PackageManager project.PackageManager

		NpmScope string
		// AffectedBranch is the base branch used to compute affected projects. Defaults to "mainline".
		AffectedBranch string
		// CacheableOperations default to build and test.
		CacheableOperations []string
		// NxIgnore patterns are added to the default .nxignore entries.
		NxIgnore           []string
		NamedInputs        map[string][]string
		TargetDefaults     map[string]nx.ProjectTarget
		TargetDependencies map[string][]nx.TargetDependency
		// NxCloudReadOnlyAccessToken switches the task runner to nx cloud.
		NxCloudReadOnlyAccessToken string
		// InferTargets adds language specific build targets to every project.json.
		InferTargets bool

		Workspace WorkspaceOptions

		// UpgradeDeps configures the upgrade-deps task. Nil uses the defaults; set Disabled to omit the task.
		UpgradeDeps *UpgradeDepsOptions

		// ManifestVersion is the version of generated manifests. Defaults to "0.0.0".
		ManifestVersion string

		// Installer installs workspace dependencies after synthesis when manifests changed. Nil skips the install.
		Installer Installer
	}

	WorkspaceOptions struct {
		// NoHoist lists package globs excluded from hoisting.
		NoHoist []string
		// DisableNoHoistBundled stops adding every project's bundled dependencies to NoHoist.
		DisableNoHoistBundled bool
		// LinkLocalWorkspaceBins links the bins of workspace packages into the workspace bin directory on prepare.
		LinkLocalWorkspaceBins bool
		// AdditionalPackages are package globs added to the workspace after the managed projects.
		AdditionalPackages []string
	}

	UpgradeDepsOptions struct {
		Disabled bool
		// TaskName defaults to "upgrade-deps".
		TaskName string
		// SyncpackConfig replaces the default syncpack configuration entirely.
		SyncpackConfig map[string]any
	}
)

const (
	DefaultName            = "monorepo"
	DefaultNpmScope        = "monorepo"
	DefaultAffectedBranch  = "mainline"
	DefaultManifestVersion = "0.0.0"
	DefaultUpgradeDepsTask = "upgrade-deps"
)

// DefaultSyncpackConfig is written to .syncpackrc.json unless replaced.
func DefaultSyncpackConfig() map[string]any {
	return map[string]any{
		"filter": ".",
		"indent": "  ",
		"semverGroups": []any{
			map[string]any{
				"dependencies":    []string{"**"},
				"dependencyTypes": []string{"**"},
				"packages":        []string{"**"},
				"range":           "",
			},
		},
		"sortAz": []string{
			"contributors",
			"dependencies",
			"devDependencies",
			"keywords",
			"peerDependencies",
			"resolutions",
			"scripts",
		},
		"sortFirst":     []string{"name", "description", "version", "author"},
		"source":        []string{},
		"versionGroups": []any{},
	}
}

func (opts *Options) applyDefaults() error {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.OutDir == "" {
		return fmt.Errorf("workspace root directory is required")
	}
	outDir, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return err
	}
	opts.OutDir = outDir
	if opts.PackageManager == "" {
		opts.PackageManager = project.NPM
	}
	if _, err := project.ParsePackageManager(string(opts.PackageManager)); err != nil {
		return err
	}
	if opts.NpmScope == "" {
		opts.NpmScope = DefaultNpmScope
	}
	if opts.AffectedBranch == "" {
		opts.AffectedBranch = DefaultAffectedBranch
	}
	if len(opts.CacheableOperations) == 0 {
		opts.CacheableOperations = []string{"build", "test"}
	}
	if opts.UpgradeDeps == nil {
		opts.UpgradeDeps = &UpgradeDepsOptions{}
	}
	if opts.UpgradeDeps.TaskName == "" {
		opts.UpgradeDeps.TaskName = DefaultUpgradeDepsTask
	}
	if opts.UpgradeDeps.SyncpackConfig == nil {
		opts.UpgradeDeps.SyncpackConfig = DefaultSyncpackConfig()
	}
	if opts.ManifestVersion == "" {
		opts.ManifestVersion = DefaultManifestVersion
	}
	if _, err := semver.NewVersion(opts.ManifestVersion); err != nil {
		return fmt.Errorf("invalid manifest version: %w", err)
	}
	return nil
}
