// Package cli implements the pdk command line.
package cli

import (
	"context"
	"io"
	"os"

	clicommon "github.com/klothoplatform/pdk/pkg/cli_common"
	"github.com/klothoplatform/pdk/pkg/config"
	"github.com/klothoplatform/pdk/pkg/monorepo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type PdkMain struct {
	Version string
}

type synthConfig struct {
	config  string
	dryRun  bool
	check   bool
	install bool
	strict  bool
}

type commands struct {
	common    clicommon.CommonConfig
	synth     synthConfig
	workspace string

	stdin  io.Reader
	stdout io.Writer
}

func (pm PdkMain) Main() {
	root, cmds := pm.NewRootCmd(os.Stdin, os.Stdout, os.Stderr)

	err := root.ExecuteContext(context.Background())
	if err != nil {
		ErrorHandler{Verbose: cmds.common.Verbose > 0}.PrintErr(err)
		zap.L().Sync() //nolint:errcheck
		os.Exit(1)
	}
	if cmds.synth.strict && cmds.common.HadWarnings.Load() {
		zap.S().Error("Warnings were logged and --strict is set")
		os.Exit(1)
	}
}

// NewRootCmd builds the pdk command tree. Running it without a subcommand synthesizes.
func (pm PdkMain) NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) (*cobra.Command, *commands) {
	cmds := &commands{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "pdk",
		Short:         "Synthesize an nx orchestrated polyglot monorepo",
		Version:       pm.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          cmds.runSynth,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	clicommon.SetupRoot(root, &cmds.common)
	addSynthFlags(root, &cmds.synth)

	synth := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the workspace files",
		Args:  cobra.NoArgs,
		RunE:  cmds.runSynth,
	}
	addSynthFlags(synth, &cmds.synth)

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the workspace definition without writing anything",
		Args:  cobra.NoArgs,
		RunE:  cmds.runValidate,
	}
	validate.Flags().StringVarP(&cmds.synth.config, "config", "c", "", "Workspace file (default: .pdkrc.{yaml,yml,json,toml} in the current directory)")

	graph := &cobra.Command{
		Use:   "graph",
		Short: "Print the projects, their dependencies and the build order",
		Args:  cobra.NoArgs,
		RunE:  cmds.runGraph,
	}
	graph.Flags().StringVarP(&cmds.synth.config, "config", "c", "", "Workspace file (default: .pdkrc.{yaml,yml,json,toml} in the current directory)")

	nxPlugin := &cobra.Command{
		Use:   "nx-plugin",
		Short: "Rebuild the nx project graph read from stdin (called by the generated nx plugin)",
		Args:  cobra.NoArgs,
		RunE:  cmds.runNxPlugin,
	}
	nxPlugin.Flags().StringVar(&cmds.workspace, "workspace", ".", "Workspace root containing nx.json")

	root.AddCommand(synth, validate, graph, nxPlugin)
	return root, cmds
}

func addSynthFlags(cmd *cobra.Command, cfg *synthConfig) {
	flags := cmd.Flags()
	flags.StringVarP(&cfg.config, "config", "c", "", "Workspace file (default: .pdkrc.{yaml,yml,json,toml} in the current directory)")
	flags.BoolVarP(&cfg.dryRun, "dry-run", "n", false, "List the files that would be written without writing them")
	flags.BoolVar(&cfg.check, "check", false, "Fail if synthesizing would change any file")
	flags.BoolVar(&cfg.install, "install", false, "Install workspace dependencies when manifests change")
	flags.BoolVar(&cfg.strict, "strict", false, "Fail on warnings")
}

// readWorkspace reads the workspace file given with -c, or the default one in the current directory.
func (c *commands) readWorkspace() (config.Workspace, error) {
	path := c.synth.config
	if path == "" {
		var err error
		if path, err = config.FindConfig("."); err != nil {
			return config.Workspace{}, err
		}
	}
	ws, err := config.ReadConfig(path)
	if err != nil {
		return ws, errors.Wrap(err, "could not read workspace")
	}
	return ws, nil
}

func (c *commands) loadRoot(install bool) (*monorepo.Root, error) {
	ws, err := c.readWorkspace()
	if err != nil {
		return nil, err
	}
	opts, err := ws.RootOptions(ws.Dir())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid workspace %s", ws.Path)
	}
	if install {
		opts.Installer = monorepo.CommandInstaller{}
	}
	return config.BuildWithOptions(ws, opts)
}
