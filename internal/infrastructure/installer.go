package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// InstallCommand is one way of installing the tool with a package manager
type InstallCommand struct {
	Manager string
	Args    []string
	GOOS    []string // empty means any
}

// DefaultInstallCommands lists package managers in the order they are tried
func DefaultInstallCommands() []InstallCommand {
	return []InstallCommand{
		{Manager: "brew", Args: []string{"install", "yt-dlp"}, GOOS: []string{"darwin", "linux"}},
		{Manager: "pipx", Args: []string{"install", "yt-dlp"}},
		{Manager: "pip3", Args: []string{"install", "--user", "--upgrade", "yt-dlp"}},
		{Manager: "apt-get", Args: []string{"install", "-y", "yt-dlp"}, GOOS: []string{"linux"}},
		{Manager: "dnf", Args: []string{"install", "-y", "yt-dlp"}, GOOS: []string{"linux"}},
		{Manager: "pacman", Args: []string{"-S", "--noconfirm", "yt-dlp"}, GOOS: []string{"linux"}},
		{Manager: "winget", Args: []string{"install", "-e", "--id", "yt-dlp.yt-dlp"}, GOOS: []string{"windows"}},
		{Manager: "scoop", Args: []string{"install", "yt-dlp"}, GOOS: []string{"windows"}},
	}
}

// Installer installs the tool through whatever package manager is present.
// Best effort: a successful package manager run is only trusted once the
// tool answers its version probe.
type Installer struct {
	commands []InstallCommand
	logger   *zap.Logger

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewInstaller creates an installer using the default package manager list
func NewInstaller(logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		commands: DefaultInstallCommands(),
		logger:   logger,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Install tries each available package manager until probe reports the tool usable
func (i *Installer) Install(ctx context.Context, probe func(context.Context) bool) error {
	tried := 0
	for _, c := range i.commands {
		if !c.supports(runtime.GOOS) {
			continue
		}
		path, err := i.lookPath(c.Manager)
		if err != nil {
			continue
		}
		tried++

		i.logger.Info("Installing yt-dlp",
			zap.String("manager", c.Manager),
			zap.String("command", CommandLine(path, c.Args...)))

		if err := i.run(ctx, path, c.Args...); err != nil {
			i.logger.Warn("Package manager failed",
				zap.String("manager", c.Manager),
				zap.Error(err))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if probe(ctx) {
			i.logger.Info("yt-dlp installed", zap.String("manager", c.Manager))
			return nil
		}
	}

	if tried == 0 {
		return fmt.Errorf("%w: no supported package manager found", domain.ErrToolUnavailable)
	}
	return fmt.Errorf("%w: installation via %d package manager(s) failed", domain.ErrToolUnavailable, tried)
}

func (c InstallCommand) supports(goos string) bool {
	if len(c.GOOS) == 0 {
		return true
	}
	for _, g := range c.GOOS {
		if g == goos {
			return true
		}
	}
	return false
}

// ManualInstallHint is shown when automatic installation fails
const ManualInstallHint = "install yt-dlp manually (https://github.com/yt-dlp/yt-dlp#installation) and make sure it is on PATH"
