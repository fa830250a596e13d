package clicommon

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/klothoplatform/pdk/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type CommonConfig struct {
	Verbose   LevelledFlag
	jsonLog   bool
	logsDir   string
	color     string
	profileTo string

	// HadWarnings is set once anything at warn level or above has been logged.
	HadWarnings *atomic.Bool
}

func setupProfiling(commonCfg *CommonConfig) func() {
	if commonCfg.profileTo != "" {
		err := os.MkdirAll(filepath.Dir(commonCfg.profileTo), 0755)
		if err != nil {
			panic(fmt.Errorf("failed to create profile directory: %w", err))
		}
		profileF, err := os.OpenFile(commonCfg.profileTo, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open profile file: %w", err))
		}
		err = pprof.StartCPUProfile(profileF)
		if err != nil {
			panic(fmt.Errorf("failed to start profile: %w", err))
		}
		return func() {
			pprof.StopCPUProfile()
			profileF.Close()
		}
	}
	return func() {}
}

// LogOpts returns the logging options selected by the flags.
func (commonCfg *CommonConfig) LogOpts() logging.LogOpts {
	logOpts := logging.LogOpts{
		Verbose:         commonCfg.Verbose > 0,
		Color:           commonCfg.color,
		CategoryLogsDir: commonCfg.logsDir,
		DefaultLevels: map[string]zapcore.Level{
			"registry.graph": zap.WarnLevel,
			"io":             zap.InfoLevel,
		},
		HadWarnings: commonCfg.HadWarnings,
	}
	if commonCfg.Verbose > 1 {
		// -vv also shows every graph and file operation
		logOpts.DefaultLevels = nil
	}
	if commonCfg.jsonLog {
		logOpts.Encoding = "json"
	}
	return logOpts
}

func SetupRoot(root *cobra.Command, commonCfg *CommonConfig) {
	if commonCfg.HadWarnings == nil {
		commonCfg.HadWarnings = atomic.NewBool(false)
	}

	flags := root.PersistentFlags()
	flags.VarP(&commonCfg.Verbose, "verbose", "v", "Enable verbose logging (repeat for more)")
	flags.Lookup("verbose").NoOptDefVal = "true"
	flags.BoolVar(&commonCfg.jsonLog, "json-log", false, "Enable JSON logging")
	flags.StringVar(&commonCfg.logsDir, "logs-dir", "", "Directory to write logs to")
	flags.StringVar(&commonCfg.color, "color", "auto", "Colorize output: auto, always or never")
	flags.StringVar(&commonCfg.profileTo, "profiling", "", "Profile to file")
	_ = flags.MarkHidden("profiling")

	profileClose := func() {}

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		switch commonCfg.color {
		case "always", "on":
			color.NoColor = false
		case "never", "off":
			color.NoColor = true
		}
		zap.ReplaceGlobals(commonCfg.LogOpts().NewLogger())

		profileClose = setupProfiling(commonCfg)
	}

	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		zap.L().Sync() //nolint:errcheck

		profileClose()
	}
}
