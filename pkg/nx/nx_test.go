package nx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klothoplatform/pdk/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRunManyCommand(t *testing.T) {
	tests := []struct {
		name string
		pm   project.PackageManager
		opts RunManyOptions
		want string
	}{
		{
			name: "defaults",
			pm:   project.NPM,
			opts: RunManyOptions{Target: "build"},
			want: "npx nx run-many --target=build --output-style=stream --nx-bail",
		},
		{
			name: "watch",
			pm:   project.PNPM,
			opts: RunManyOptions{Target: "watch", NoBail: true, IgnoreCycles: true, SkipCache: true, OutputStyle: "stream"},
			want: "pnpm exec nx run-many --target=watch --output-style=stream --skip-nx-cache --nx-ignore-cycles",
		},
		{
			name: "everything",
			pm:   project.Yarn,
			opts: RunManyOptions{
				Target:        "install-py",
				Configuration: "prod",
				OutputStyle:   "static",
				Runner:        "custom",
				Parallel:      1,
				Projects:      []string{"a", "b"},
				Exclude:       "c",
				Verbose:       true,
			},
			want: "yarn nx run-many --target=install-py --output-style=static --configuration=prod --runner=custom" +
				" --parallel=1 --nx-bail --projects=a,b --exclude=c --verbose",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRunManyCommand(tt.pm, tt.opts))
		})
	}
}

func TestInferBuildTarget(t *testing.T) {
	tests := []struct {
		name     string
		language project.Language
		want     *ProjectTarget
	}{
		{
			name:     "java",
			language: project.Java,
			want: &ProjectTarget{
				Inputs: []string{
					"default",
					"^default",
					"!{projectRoot}/.classpath",
					"!{projectRoot}/.project",
					"!{projectRoot}/.settings",
					"!{projectRoot}/target/**/*",
					"!{projectRoot}/dist/java/**/*",
				},
				Outputs:   []string{"{projectRoot}/target", "{projectRoot}/dist/java"},
				DependsOn: []string{"^build"},
			},
		},
		{
			name:     "typescript",
			language: project.TypeScript,
			want: &ProjectTarget{
				Inputs: []string{
					"default",
					"^default",
					"!{projectRoot}/lib/**/*",
					"!{projectRoot}/dist/**/*",
					"!{projectRoot}/coverage/**/*",
					"!{projectRoot}/test-reports/**/*",
				},
				Outputs: []string{
					"{projectRoot}/lib",
					"{projectRoot}/dist",
					"{projectRoot}/coverage",
					"{projectRoot}/test-reports",
				},
				DependsOn: []string{"^build"},
			},
		},
		{
			name:     "python has no known outputs",
			language: project.Python,
		},
		{
			name:     "other",
			language: project.Other,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := project.New(project.Options{OutDir: "packages/x", Language: tt.language})
			require.NoError(t, err)
			assert.Equal(t, tt.want, InferBuildTarget(p))
		})
	}
}

func TestNewProjectConfig(t *testing.T) {
	t.Run("generic project", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		p, err := project.New(project.Options{Name: "py-subproject", OutDir: "packages/py", Language: project.Python, Tags: []string{"python"}})
		require.NoError(err)
		_, err = p.RegisterTask("install", "poetry install")
		require.NoError(err)
		_, err = p.RegisterTask("build", "poetry build")
		require.NoError(err)

		cfg := NewProjectConfig(p, ProjectConfigOptions{
			Root:                 "packages/py",
			PackageManager:       project.PNPM,
			ImplicitDependencies: []string{"other"},
			Targets: map[string]ProjectTarget{
				"build": {Outputs: []string{"{projectRoot}/dist"}, Options: map[string]any{"cwd": "override"}},
			},
		})

		assert.Equal("py-subproject", cfg.Name)
		assert.Equal("packages/py", cfg.Root)
		assert.Equal([]string{"python"}, cfg.Tags)
		assert.Equal([]string{"other"}, cfg.ImplicitDependencies)
		assert.Equal([]string{"build", "default", "install"}, cfg.TargetNames())

		install := cfg.Targets["install"]
		assert.Equal(RunCommandsExecutor, install.Executor)
		assert.Equal(map[string]any{"command": "pnpm dlx projen install", "cwd": "packages/py"}, install.Options)

		build := cfg.Targets["build"]
		assert.Equal([]string{"{projectRoot}/dist"}, build.Outputs)
		assert.Equal(map[string]any{"command": "pnpm dlx projen build", "cwd": "override"}, build.Options)
	})

	t.Run("package managed project", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		p, err := project.New(project.Options{
			Name:     "ts-subproject",
			OutDir:   "packages/ts",
			Kind:     project.PackageManaged{PackageManager: project.Yarn},
			Language: project.TypeScript,
		})
		require.NoError(err)
		_, err = p.RegisterTask("install", "yarn install")
		require.NoError(err)
		_, err = p.RegisterTask("postinstall", "echo done")
		require.NoError(err)
		_, err = p.RegisterTask("compile", "tsc")
		require.NoError(err)

		cfg := NewProjectConfig(p, ProjectConfigOptions{Root: "packages/ts", PackageManager: project.NPM, InferTargets: true})

		assert.Equal([]string{"build", "compile", "default"}, cfg.TargetNames())
		assert.Equal("yarn projen compile", cfg.Targets["compile"].Options["command"])
		assert.Equal([]string{"^build"}, cfg.Targets["build"].DependsOn)
		assert.Empty(cfg.Targets["build"].Executor, "inferred build has no task to run")
	})

	t.Run("included scripts", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		p, err := project.New(project.Options{OutDir: "packages/a"})
		require.NoError(err)
		_, err = p.RegisterTask("build", "make")
		require.NoError(err)
		_, err = p.RegisterTask("test", "make test")
		require.NoError(err)

		cfg := NewProjectConfig(p, ProjectConfigOptions{Root: "packages/a", IncludedScripts: []string{"test"}})
		assert.Equal([]string{"test"}, cfg.TargetNames())
	})
}

func TestReadWorkspaceConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		dir := t.TempDir()

		require.NoError(os.WriteFile(filepath.Join(dir, WorkspaceConfigFile), []byte(`{
			"extends": "@nrwl/workspace/presets/npm.json",
			"npmScope": "monorepo",
			"implicitDependencies": {"ts-subproject": ["py-subproject"]},
			"targetDependencies": {"build": [{"target": "build", "projects": "dependencies"}]},
			"affected": {"defaultBase": "mainline"}
		}`), 0644))

		cfg, err := ReadWorkspaceConfig(dir)
		require.NoError(err)
		assert.Equal(map[string][]string{"ts-subproject": {"py-subproject"}}, cfg.ImplicitDependencies)
		assert.Equal([]TargetDependency{{Target: "build", Projects: ScopeDependencies}}, cfg.TargetDependencies["build"])
		assert.Equal("mainline", cfg.Affected.DefaultBase)
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, WorkspaceConfigFile), []byte(`{"implicitDependencies": [`), 0644))
		_, err := ReadWorkspaceConfig(dir)
		assert.Error(t, err)
	})

	t.Run("invalid target scope", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, WorkspaceConfigFile),
			[]byte(`{"targetDependencies": {"build": [{"target": "build", "projects": "everything"}]}}`), 0644))
		_, err := ReadWorkspaceConfig(dir)
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadWorkspaceConfig(t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWorkspaceConfig_JSON(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	b, err := json.Marshal(WorkspaceConfig{NpmScope: "monorepo"})
	require.NoError(err)
	assert.JSONEq(`{"npmScope": "monorepo"}`, string(b))
}
