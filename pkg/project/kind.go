package project

import (
	"fmt"
	"strings"
)

type (
	// Kind decides how the monorepo root treats a child's manifest. It is either [PackageManaged] or [Generic] and is
	// fixed when the project is created.
	Kind interface {
		kind() string
	}

	// PackageManaged projects are managed by a Node package manager and own their manifest dependencies.
	PackageManaged struct {
		PackageManager PackageManager
	}

	// Generic projects have no package manager of their own. The root synthesizes a manifest for them so the task
	// runner can discover them.
	Generic struct{}

	PackageManager string

	Language string
)

const (
	KindPackageManaged = "node"
	KindGeneric        = "generic"
)

const (
	NPM   PackageManager = "npm"
	Yarn  PackageManager = "yarn"
	Yarn2 PackageManager = "yarn2"
	PNPM  PackageManager = "pnpm"
)

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	Go         Language = "go"
	Other      Language = "other"
)

func (PackageManaged) kind() string { return KindPackageManaged }
func (Generic) kind() string        { return KindGeneric }

// KindName returns the name used for k in configuration files.
func KindName(k Kind) string {
	if k == nil {
		return KindGeneric
	}
	return k.kind()
}

func ParsePackageManager(s string) (PackageManager, error) {
	switch pm := PackageManager(strings.ToLower(s)); pm {
	case NPM, Yarn, Yarn2, PNPM:
		return pm, nil
	case "":
		return NPM, nil
	default:
		return "", fmt.Errorf("unknown package manager %q", s)
	}
}

func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(s)); l {
	case TypeScript, JavaScript, Python, Java, Go, Other:
		return l, nil
	case "":
		return Other, nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// ExecCommand formats a command that runs a binary installed in the workspace.
func (pm PackageManager) ExecCommand(args ...string) string {
	switch pm {
	case Yarn:
		// "yarn exec" does not pass trailing arguments through
		return withArgs("yarn", args)
	case Yarn2:
		return withArgs("yarn exec", args)
	case PNPM:
		return withArgs("pnpm exec", args)
	default:
		return withArgs("npx", args)
	}
}

// DownloadExecCommand formats a command that runs a package binary in a temporary environment, for projects that
// have no dependencies installed of their own.
func (pm PackageManager) DownloadExecCommand(args ...string) string {
	switch pm {
	case Yarn2:
		return withArgs("yarn dlx", args)
	case PNPM:
		return withArgs("pnpm dlx", args)
	default:
		return withArgs("npx", args)
	}
}

// BinPath formats a shell expression for cmd inside the package manager's bin directory.
func (pm PackageManager) BinPath(cmd string) string {
	return fmt.Sprintf("$(%s)/%s", pm.BinCommand(), cmd)
}

func withArgs(prefix string, args []string) string {
	if len(args) == 0 {
		return prefix
	}
	return prefix + " " + strings.Join(args, " ")
}

// BinCommand prints the directory holding the workspace's linked binaries.
func (pm PackageManager) BinCommand() string {
	switch pm {
	case Yarn, Yarn2:
		return "yarn bin"
	case PNPM:
		return "pnpm bin"
	default:
		return "npm bin"
	}
}

// InstallCommand returns the argv for installing the workspace dependencies.
func (pm PackageManager) InstallCommand() []string {
	switch pm {
	case Yarn, Yarn2:
		return []string{"yarn", "install"}
	case PNPM:
		return []string{"pnpm", "install"}
	default:
		return []string{"npm", "install"}
	}
}

// Binary is the executable name of the package manager.
func (pm PackageManager) Binary() string {
	if pm == Yarn2 {
		return "yarn"
	}
	if pm == "" {
		return string(NPM)
	}
	return string(pm)
}
