// Package nx defines the configuration files read by the task runner: the workspace-wide nx.json and the
// per-project project.json.
package nx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	WorkspaceConfigFile = "nx.json"
	ProjectConfigFile   = "project.json"

	DefaultRunner = "@nrwl/workspace/tasks-runners/default"
	CloudRunner   = "@nrwl/nx-cloud"
	DefaultPreset = "@nrwl/workspace/presets/npm.json"

	// PluginPath is the workspace-relative path of the graph plugin shim.
	PluginPath = ".nx/plugins/nx-monorepo-plugin.js"
)

type (
	// WorkspaceConfig is the root nx.json.
	WorkspaceConfig struct {
		Extends              string                        `json:"extends,omitempty"`
		Plugins              []string                      `json:"plugins,omitempty"`
		NpmScope             string                        `json:"npmScope,omitempty"`
		TasksRunnerOptions   map[string]TasksRunner        `json:"tasksRunnerOptions,omitempty"`
		NamedInputs          map[string][]string           `json:"namedInputs,omitempty"`
		TargetDefaults       map[string]ProjectTarget      `json:"targetDefaults,omitempty"`
		ImplicitDependencies map[string][]string           `json:"implicitDependencies,omitempty"`
		TargetDependencies   map[string][]TargetDependency `json:"targetDependencies,omitempty"`
		Affected             *Affected                     `json:"affected,omitempty"`
	}

	TasksRunner struct {
		Runner  string             `json:"runner"`
		Options TasksRunnerOptions `json:"options"`
	}

	TasksRunnerOptions struct {
		UseDaemonProcess    bool     `json:"useDaemonProcess"`
		CacheableOperations []string `json:"cacheableOperations,omitempty"`
		AccessToken         string   `json:"accessToken,omitempty"`
	}

	Affected struct {
		DefaultBase string `json:"defaultBase,omitempty"`
	}

	// TargetDependency declares that running Target on a project first runs it on Projects.
	TargetDependency struct {
		Target   string      `json:"target"`
		Projects TargetScope `json:"projects"`
	}

	TargetScope string
)

const (
	ScopeSelf         TargetScope = "self"
	ScopeDependencies TargetScope = "dependencies"
)

func (s *TargetScope) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch v := TargetScope(str); v {
	case ScopeSelf, ScopeDependencies:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid target dependency projects %q, must be %q or %q", str, ScopeSelf, ScopeDependencies)
	}
}

// ReadWorkspaceConfig reads nx.json from the workspace root dir.
func ReadWorkspaceConfig(dir string) (WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	path := filepath.Join(dir, WorkspaceConfigFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return cfg, nil
}
