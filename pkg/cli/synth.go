package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	kio "github.com/klothoplatform/pdk/pkg/io"
	"github.com/klothoplatform/pdk/pkg/monorepo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrDrift is returned by `synth --check` when the workspace on disk is not what synthesis would produce.
var ErrDrift = errors.New("workspace is out of date, run pdk synth")

func (c *commands) runSynth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	r, err := c.loadRoot(c.synth.install && !c.synth.dryRun && !c.synth.check)
	if err != nil {
		return err
	}

	switch {
	case c.synth.check:
		files, err := r.Plan(ctx)
		if err != nil {
			return err
		}
		drifts, err := kio.Diff(files, r.Options().OutDir)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			fmt.Fprintln(c.stdout, d.String())
		}
		if len(drifts) > 0 {
			return fmt.Errorf("%w: %d files differ", ErrDrift, len(drifts))
		}
		zap.S().Info("Workspace is up to date")
		return nil

	case c.synth.dryRun:
		files, err := r.Plan(ctx)
		if err != nil {
			return err
		}
		for _, name := range kio.FileNames(files) {
			fmt.Fprintln(c.stdout, name)
		}
		return nil
	}

	result, err := r.Synthesize(ctx)
	if result != nil {
		printSummary(c.stdout, result)
	}
	return err
}

func printSummary(w io.Writer, result *monorepo.Result) {
	written := color.New(color.FgGreen)
	skipped := color.New(color.FgYellow)
	for _, p := range result.Written {
		written.Fprintf(w, "  wrote   %s\n", p)
	}
	for _, p := range result.Skipped {
		skipped.Fprintf(w, "  skipped %s (not generated by pdk)\n", p)
	}
	for _, name := range result.HandAuthored {
		skipped.Fprintf(w, "  kept    hand-authored manifest of %s\n", name)
	}
	summary := fmt.Sprintf("%d written, %d unchanged", len(result.Written), len(result.Unchanged))
	if result.Installed {
		summary += ", dependencies installed"
	}
	color.New(color.Bold).Fprintln(w, summary)
}

func (c *commands) runValidate(cmd *cobra.Command, args []string) error {
	r, err := c.loadRoot(false)
	if err != nil {
		return err
	}
	if err := r.Prepare(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%d projects are valid\n", len(r.Projects()))
	return nil
}
