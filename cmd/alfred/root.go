// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"alfred-cli/internal/config"
	"alfred-cli/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	globalFlags struct {
		debug      bool
		check      bool
		list       bool
		configPath string
	}

	// invocation is the state of one run of the root command.
	invocation struct {
		app    *App
		flags  globalFlags
		cfg    *config.Config
		logger *slog.Logger
		theme  theme
	}
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

func newRootCommand(app *App) (*cobra.Command, *invocation) {
	inv := &invocation{app: app, cfg: config.DefaultConfig(), theme: newTheme(false)}

	root := &cobra.Command{
		Use:   "alfred [flags] <command> [args...]",
		Short: "Project-local command runner",
		Long: `alfred runs the commands declared by the modules of the current project.

Without a command it lists every command of the project and its subprojects.
A command that belongs to a project with its own virtualenv is re-run
inside that virtualenv.`,
		Version:       getVersionString(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return inv.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return inv.dispatch(cmd.Context(), args)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(app.stdin)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&inv.flags.debug, "debug", "d", false, "enable debug logging")
	root.PersistentFlags().StringVar(&inv.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/alfred/config.toml)")
	root.Flags().BoolVar(&inv.flags.check, "check", false, "check every command module of the project tree")
	root.Flags().BoolVarP(&inv.flags.list, "list", "l", false, "list the commands of the project or of a subproject")
	// Everything after the command name belongs to the command.
	root.Flags().SetInterspersed(false)

	root.AddCommand(newInitCommand(inv))
	return root, inv
}

// Execute runs alfred with the process arguments and exits with its exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := NewApp(Dependencies{}).Run(ctx, os.Args[1:])
	stop()
	os.Exit(int(code))
}

// Run executes the root command with args and returns the process exit code.
// Errors are rendered to the app's stderr.
func (a *App) Run(ctx context.Context, args []string) types.ExitCode {
	root, inv := newRootCommand(a)
	root.SetArgs(args)
	return inv.exitCode(root.ExecuteContext(ctx))
}

func (inv *invocation) exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			inv.renderError(exitErr.Err)
		}
		return exitErr.Code
	}
	inv.renderError(err)
	return types.ExitFailure
}

// setup loads the user configuration and prepares logging and styles.
func (inv *invocation) setup(ctx context.Context) error {
	cfg, err := inv.app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: inv.flags.configPath})
	if err != nil && inv.flags.configPath != "" {
		return err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	inv.cfg = cfg
	inv.logger = newLogger(inv.app.stderr, inv.flags.debug || cfg.Debug)
	inv.theme = newTheme(cfg.UI.Color && isTerminal(inv.app.stdout))

	if err != nil {
		inv.logger.Warn("using default configuration", "error", err)
	}
	return nil
}

func (inv *invocation) log() *slog.Logger {
	if inv.logger != nil {
		return inv.logger
	}
	return slog.Default()
}
