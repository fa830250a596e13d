package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	kio "github.com/klothoplatform/pdk/pkg/io"
)

// DefaultTaskName is the per-project "run everything" task that a monorepo disables.
const DefaultTaskName = "default"

type (
	// Project is one buildable unit of a monorepo. Name and OutDir are fixed once created; tasks and files may be
	// changed until the workspace is synthesized.
	Project struct {
		Name string
		// OutDir is relative to the workspace root, using forward slashes.
		OutDir string
		Parent *Project

		Kind     Kind
		Language Language

		// Dependencies are native package manager dependencies on sibling projects, by name.
		Dependencies        []string
		BundledDependencies []string
		// Bins maps command names to paths relative to OutDir.
		Bins map[string]string
		Tags []string

		Tasks *TaskSet
		files []kio.File
	}

	Options struct {
		Name                string
		OutDir              string
		Kind                Kind
		Language            Language
		Dependencies        []string
		BundledDependencies []string
		Bins                map[string]string
		Tags                []string
	}
)

var ErrInvalidProject = errors.New("invalid project")

// New creates a project. When no name is given it defaults to the kebab-cased base name of the output directory.
func New(opts Options) (*Project, error) {
	outDir := strings.TrimSpace(opts.OutDir)
	if outDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", ErrInvalidProject)
	}
	outDir = filepath.ToSlash(filepath.Clean(outDir))

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = strcase.ToKebab(filepath.Base(outDir))
	}
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: cannot derive a name from output directory %q", ErrInvalidProject, opts.OutDir)
	}

	kind := opts.Kind
	if kind == nil {
		kind = Generic{}
	}
	lang := opts.Language
	if lang == "" {
		lang = Other
	}

	p := &Project{
		Name:                name,
		OutDir:              outDir,
		Kind:                kind,
		Language:            lang,
		Dependencies:        append([]string(nil), opts.Dependencies...),
		BundledDependencies: append([]string(nil), opts.BundledDependencies...),
		Bins:                copyEnv(opts.Bins),
		Tags:                append([]string(nil), opts.Tags...),
		Tasks:               NewTaskSet(),
	}
	p.Tasks.Add(DefaultTaskName, TaskOptions{
		Description: "Synthesize project files",
		Exec:        "pdk synth",
	})
	return p, nil
}

func (p *Project) String() string {
	return p.Name
}

// RegisterTask defines the task name as running command. Registering an existing name replaces it.
func (p *Project) RegisterTask(name, command string) (*Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project %s: task name is required", ErrInvalidProject, p.Name)
	}
	if err := ValidateCommand(command); err != nil {
		return nil, fmt.Errorf("%w: project %s: task %s: %v", ErrInvalidProject, p.Name, name, err)
	}
	return p.Tasks.Add(name, TaskOptions{Exec: command}), nil
}

func (p *Project) AddTask(name string, opts TaskOptions) *Task {
	return p.Tasks.Add(name, opts)
}

func (p *Project) TryFindTask(name string) *Task {
	return p.Tasks.TryFind(name)
}

// ResetDefaultTask clears the default task. A monorepo orchestrates tasks centrally so the per-project entry point
// must not run anything.
func (p *Project) ResetDefaultTask() {
	if t := p.Tasks.TryFind(DefaultTaskName); t != nil {
		t.ForceReset()
	}
}

// AddFile adds a file owned by this project. Its path is relative to the project's OutDir.
func (p *Project) AddFile(f kio.File) {
	p.files = append(p.files, f)
}

// TryFindFile returns the project file at path (relative to OutDir), or nil.
func (p *Project) TryFindFile(path string) kio.File {
	path = filepath.Clean(path)
	for _, f := range p.files {
		if filepath.Clean(f.Path()) == path {
			return f
		}
	}
	return nil
}

// Files returns the project's own files sorted by path.
func (p *Project) Files() []kio.File {
	files := append([]kio.File(nil), p.files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path() < files[j].Path() })
	return files
}

// IsPackageManaged reports whether the project is [PackageManaged], returning its package manager.
func (p *Project) IsPackageManaged() (PackageManager, bool) {
	if pm, ok := p.Kind.(PackageManaged); ok {
		if pm.PackageManager == "" {
			return NPM, true
		}
		return pm.PackageManager, true
	}
	return "", false
}

func (p *Project) HasBundledDependencies() bool {
	return len(p.BundledDependencies) > 0
}
