// Package config reads the workspace definition file and builds the monorepo it describes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	Workspace struct {
		Name           string `json:"name" yaml:"name" toml:"name"`
		PackageManager string `json:"package_manager,omitempty" yaml:"package_manager,omitempty" toml:"package_manager,omitempty"`

		NpmScope            string              `json:"npm_scope,omitempty" yaml:"npm_scope,omitempty" toml:"npm_scope,omitempty"`
		AffectedBranch      string              `json:"affected_branch,omitempty" yaml:"affected_branch,omitempty" toml:"affected_branch,omitempty"`
		CacheableOperations []string            `json:"cacheable_operations,omitempty" yaml:"cacheable_operations,omitempty" toml:"cacheable_operations,omitempty"`
		NxIgnore            []string            `json:"nx_ignore,omitempty" yaml:"nx_ignore,omitempty" toml:"nx_ignore,omitempty"`
		NamedInputs         map[string][]string `json:"named_inputs,omitempty" yaml:"named_inputs,omitempty" toml:"named_inputs,omitempty"`
		// TargetDependencies are keyed by target name.
		TargetDependencies         map[string][]TargetDependency `json:"target_dependencies,omitempty" yaml:"target_dependencies,omitempty" toml:"target_dependencies,omitempty"`
		NxCloudReadOnlyAccessToken string                        `json:"nx_cloud_read_only_access_token,omitempty" yaml:"nx_cloud_read_only_access_token,omitempty" toml:"nx_cloud_read_only_access_token,omitempty"`
		InferTargets               bool                          `json:"infer_targets,omitempty" yaml:"infer_targets,omitempty" toml:"infer_targets,omitempty"`

		Workspace       WorkspacePackages `json:"workspace,omitempty" yaml:"workspace,omitempty" toml:"workspace,omitempty"`
		UpgradeDeps     *UpgradeDeps      `json:"upgrade_deps,omitempty" yaml:"upgrade_deps,omitempty" toml:"upgrade_deps,omitempty"`
		ManifestVersion string            `json:"manifest_version,omitempty" yaml:"manifest_version,omitempty" toml:"manifest_version,omitempty"`

		Projects []Project `json:"projects,omitempty" yaml:"projects,omitempty" toml:"projects,omitempty"`
		// ImplicitDependencies maps a dependent project to the projects it must be built after.
		ImplicitDependencies map[string][]string `json:"implicit_dependencies,omitempty" yaml:"implicit_dependencies,omitempty" toml:"implicit_dependencies,omitempty"`

		// Format is the format the file was read from.
		Format string `json:"-" yaml:"-" toml:"-"`
		// Path of the file the workspace was read from.
		Path string `json:"-" yaml:"-" toml:"-"`
	}

	Project struct {
		Name   string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
		OutDir string `json:"outdir" yaml:"outdir" toml:"outdir"`
		// Kind is either a kind name ("node" or "generic") or a table with a "type" key. See [KindSpec].
		Kind     any    `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
		Language string `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
		// Tasks maps task names to the command they run.
		Tasks               map[string]string `json:"tasks,omitempty" yaml:"tasks,omitempty" toml:"tasks,omitempty"`
		Dependencies        []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
		BundledDependencies []string          `json:"bundled_dependencies,omitempty" yaml:"bundled_dependencies,omitempty" toml:"bundled_dependencies,omitempty"`
		Bins                map[string]string `json:"bins,omitempty" yaml:"bins,omitempty" toml:"bins,omitempty"`
		Tags                []string          `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	}

	TargetDependency struct {
		Target string `json:"target" yaml:"target" toml:"target"`
		// Projects is "self" or "dependencies".
		Projects string `json:"projects" yaml:"projects" toml:"projects"`
	}

	WorkspacePackages struct {
		NoHoist                []string `json:"no_hoist,omitempty" yaml:"no_hoist,omitempty" toml:"no_hoist,omitempty"`
		DisableNoHoistBundled  bool     `json:"disable_no_hoist_bundled,omitempty" yaml:"disable_no_hoist_bundled,omitempty" toml:"disable_no_hoist_bundled,omitempty"`
		LinkLocalWorkspaceBins bool     `json:"link_local_workspace_bins,omitempty" yaml:"link_local_workspace_bins,omitempty" toml:"link_local_workspace_bins,omitempty"`
		AdditionalPackages     []string `json:"additional_packages,omitempty" yaml:"additional_packages,omitempty" toml:"additional_packages,omitempty"`
	}

	UpgradeDeps struct {
		Disabled       bool           `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
		TaskName       string         `json:"task_name,omitempty" yaml:"task_name,omitempty" toml:"task_name,omitempty"`
		SyncpackConfig map[string]any `json:"syncpack_config,omitempty" yaml:"syncpack_config,omitempty" toml:"syncpack_config,omitempty"`
	}
)

// DefaultFileNames are looked up, in order, when no file is given.
var DefaultFileNames = []string{".pdkrc.yaml", ".pdkrc.yml", ".pdkrc.json", ".pdkrc.toml"}

func ReadConfig(fpath string) (Workspace, error) {
	var ws Workspace

	f, err := os.Open(fpath)
	if err != nil {
		return ws, err
	}
	defer f.Close() // nolint:errcheck

	switch filepath.Ext(fpath) {
	case ".json":
		err = json.NewDecoder(f).Decode(&ws)
		ws.Format = "json"

	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&ws)
		ws.Format = "yaml"

	case ".toml":
		err = toml.NewDecoder(f).Decode(&ws)
		ws.Format = "toml"

	default:
		return ws, fmt.Errorf("unsupported workspace file %s: must be .json, .yaml, .yml or .toml", fpath)
	}
	if err != nil {
		return ws, errors.Wrapf(err, "could not parse %s", fpath)
	}
	ws.Path = fpath
	return ws, nil
}

// FindConfig returns the first of [DefaultFileNames] present in dir.
func FindConfig(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no workspace file in %s (looked for %v)", dir, DefaultFileNames)
}

// Dir is the directory of the file the workspace was read from, which is the default workspace root.
func (ws Workspace) Dir() string {
	if ws.Path == "" {
		return "."
	}
	return filepath.Dir(ws.Path)
}
