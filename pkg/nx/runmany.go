package nx

import (
	"fmt"
	"strings"

	"github.com/klothoplatform/pdk/pkg/project"
)

type (
	RunManyOptions struct {
		Target string
		// Configuration passed to the target.
		Configuration string
		// OutputStyle defaults to "stream".
		OutputStyle string
		Runner      string
		// Parallel is the maximum number of concurrent processes. Zero leaves the runner's default.
		Parallel     int
		SkipCache    bool
		IgnoreCycles bool
		// NoBail keeps running after the first failure.
		NoBail   bool
		Projects []string
		Exclude  string
		Verbose  bool
	}
)

// RunManyArgs returns the argv of an `nx run-many` invocation, without the package manager prefix.
func RunManyArgs(opts RunManyOptions) []string {
	style := opts.OutputStyle
	if style == "" {
		style = "stream"
	}
	args := []string{
		"nx",
		"run-many",
		"--target=" + opts.Target,
		"--output-style=" + style,
	}
	if opts.Configuration != "" {
		args = append(args, "--configuration="+opts.Configuration)
	}
	if opts.Runner != "" {
		args = append(args, "--runner="+opts.Runner)
	}
	if opts.Parallel > 0 {
		args = append(args, fmt.Sprintf("--parallel=%d", opts.Parallel))
	}
	if opts.SkipCache {
		args = append(args, "--skip-nx-cache")
	}
	if opts.IgnoreCycles {
		args = append(args, "--nx-ignore-cycles")
	}
	if !opts.NoBail {
		args = append(args, "--nx-bail")
	}
	if len(opts.Projects) > 0 {
		args = append(args, "--projects="+strings.Join(opts.Projects, ","))
	}
	if opts.Exclude != "" {
		args = append(args, "--exclude="+opts.Exclude)
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// FormatRunManyCommand formats the run-many command executed through pm.
func FormatRunManyCommand(pm project.PackageManager, opts RunManyOptions) string {
	return pm.ExecCommand(RunManyArgs(opts)...)
}
