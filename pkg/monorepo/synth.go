package monorepo

import (
	"context"
	"fmt"
	"os"
	"path"

	kio "github.com/klothoplatform/pdk/pkg/io"
	"github.com/klothoplatform/pdk/pkg/logging"
	"go.uber.org/zap"
)

// Result lists the workspace relative paths by what synthesis did with them.
type Result struct {
	kio.OutputResult
	// HandAuthored are projects whose manifest exists but was not generated by pdk.
	HandAuthored []string
	// Fingerprint identifies the complete generated output. It is the same for every run with the same inputs.
	Fingerprint string
	Installed   bool
}

// Plan runs synthesis up to the final write and returns every file that would be written, without writing anything.
func (r *Root) Plan(ctx context.Context) ([]kio.File, error) {
	if err := r.Prepare(ctx); err != nil {
		return nil, err
	}
	statuses, err := r.generateManifests(ctx)
	if err != nil {
		return nil, err
	}
	return r.collectFiles(statuses)
}

// Synthesize writes the workspace. Configuration errors are reported before anything is written.
func (r *Root) Synthesize(ctx context.Context) (*Result, error) {
	log := logging.GetLogger(ctx).Named("monorepo")

	if err := r.Prepare(ctx); err != nil {
		return nil, err
	}

	missing := r.missingProjectDirs()
	if len(missing) > 0 {
		r.state = FirstPassSynth
		log.Debug("Creating project directories", zap.Strings("projects", missing))
		if err := r.firstPass(ctx); err != nil {
			return nil, err
		}
	}

	r.state = ManifestGeneration
	statuses, err := r.generateManifests(ctx)
	if err != nil {
		return nil, err
	}

	r.state = FinalSynth
	files, err := r.collectFiles(statuses)
	if err != nil {
		return nil, err
	}
	fingerprint, err := kio.Fingerprint(files)
	if err != nil {
		return nil, err
	}
	out, err := kio.OutputTo(ctx, files, r.opts.OutDir)
	if err != nil {
		return nil, err
	}
	result := &Result{OutputResult: out, Fingerprint: fingerprint}
	for _, s := range statuses {
		if s.handAuthored {
			result.HandAuthored = append(result.HandAuthored, s.project.Name)
		}
	}

	if r.opts.Installer != nil && r.manifestsChanged(out) {
		log.Info("Installing workspace dependencies", zap.String("package_manager", string(r.opts.PackageManager)))
		if err := r.opts.Installer.Install(ctx, r.opts.OutDir, r.opts.PackageManager); err != nil {
			return result, err
		}
		result.Installed = true
	}

	r.state = Done
	log.Sugar().Infof("Synthesized %d projects (%d files written, %d unchanged)",
		len(r.children), len(out.Written), len(out.Unchanged))
	return result, nil
}

// Prepare checks that synthesis can start and runs validation and PreSynthesizing once. Nothing is written.
func (r *Root) Prepare(ctx context.Context) error {
	if r.state == Done {
		return ErrAlreadySynthesized
	}
	info, err := os.Stat(r.opts.OutDir)
	if err != nil {
		return fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", r.opts.OutDir)
	}
	if r.state != Configuring {
		return r.prepareErr
	}
	r.prepareErr = r.preSynthesize(ctx)
	return r.prepareErr
}

func (r *Root) missingProjectDirs() []string {
	var missing []string
	for _, child := range r.Projects() {
		if _, err := os.Stat(r.projectDir(child)); os.IsNotExist(err) {
			missing = append(missing, child.Name)
		}
	}
	return missing
}

// firstPass creates every project directory and writes the projects' own files, so that manifest generation sees
// the projects as they will be on disk.
func (r *Root) firstPass(ctx context.Context) error {
	var files []kio.File
	for _, child := range r.Projects() {
		if err := os.MkdirAll(r.projectDir(child), 0755); err != nil {
			return err
		}
		for _, f := range child.Files() {
			files = append(files, kio.Prefixed(child.OutDir, f))
		}
	}
	_, err := kio.OutputTo(ctx, files, r.opts.OutDir)
	return err
}

// collectFiles gathers everything the final pass writes: every project's own files, manifests, project and task
// configuration, then the root files.
func (r *Root) collectFiles(statuses []manifestStatus) ([]kio.File, error) {
	var files []kio.File
	for _, s := range statuses {
		child := s.project
		for _, f := range child.Files() {
			files = append(files, kio.Prefixed(child.OutDir, f))
		}
		if s.file != nil {
			files = append(files, s.file)
		}
		if f := r.projectConfigFile(child); f != nil {
			files = append(files, f)
		}
		if child.TryFindFile(tasksFilePath) == nil {
			files = append(files, tasksFile(child.OutDir, child.Tasks))
		}
	}
	root, err := r.rootFiles()
	if err != nil {
		return nil, err
	}
	return append(files, root...), nil
}

// manifestsChanged reports whether the root manifest or the manifest of any package managed project was written.
func (r *Root) manifestsChanged(out kio.OutputResult) bool {
	manifests := map[string]struct{}{manifestFile: {}}
	for _, child := range r.children {
		if _, ok := child.IsPackageManaged(); ok {
			manifests[path.Join(child.OutDir, manifestFile)] = struct{}{}
		}
	}
	for _, w := range out.Written {
		if _, ok := manifests[w]; ok {
			return true
		}
	}
	return false
}
