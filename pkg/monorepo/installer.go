package monorepo

//go:generate mockgen -source=./installer.go --destination=./installer_mock_test.go --package=monorepo

import (
	"context"
	"fmt"

	"github.com/klothoplatform/pdk/pkg/logging"
	"github.com/klothoplatform/pdk/pkg/project"
	"go.uber.org/zap/zapcore"
)

// Installer installs the dependencies of the workspace at dir.
type Installer interface {
	Install(ctx context.Context, dir string, pm project.PackageManager) error
}

// CommandInstaller runs the package manager's install command, logging its output.
type CommandInstaller struct{}

func (CommandInstaller) Install(ctx context.Context, dir string, pm project.PackageManager) error {
	argv := pm.InstallCommand()
	cmd := logging.Command(ctx, logging.CommandLogger{
		RootLogger:  logging.GetLogger(ctx).Named(pm.Binary()),
		StdoutLevel: zapcore.DebugLevel,
		StderrLevel: zapcore.InfoLevel,
	}, argv[0], argv[1:]...)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", cmd.String(), err)
	}
	return nil
}
