// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alfred-cli/internal/command"
	"alfred-cli/internal/delegate"
	"alfred-cli/internal/execute"
	"alfred-cli/internal/issue"
	"alfred-cli/internal/manifest"
	"alfred-cli/internal/project"
	"alfred-cli/internal/session"
	"alfred-cli/internal/venv"
	"alfred-cli/pkg/types"
)

// ErrNotASubproject is returned by --list for a path naming a command.
var ErrNotASubproject = errors.New("not a subproject")

// dispatch resolves args against the project tree of the working directory and lists
// or runs what they name.
func (inv *invocation) dispatch(ctx context.Context, args []string) error {
	wd, err := inv.app.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	rootDir, err := manifest.LookupProjectDir(wd, true)
	if err != nil {
		return &ExitError{Code: types.ExitNotInitialized, Err: manifestError(err, wd)}
	}

	registry := command.NewRegistry(manifest.NewStore(manifest.WithLogger(inv.log())))
	sess := session.New(
		session.WithDir(wd),
		session.WithEnv(inv.app.env()),
		session.WithArgs(args),
	)
	sess.SetFlag("--debug", inv.flags.debug)
	if inv.flags.configPath != "" {
		sess.SetFlag("--config="+inv.flags.configPath, true)
	}

	if inv.flags.check {
		return inv.check(ctx, registry, rootDir)
	}
	if len(args) == 0 {
		sess.SetMode(session.ModeListCommands)
		return inv.list(ctx, registry, rootDir, nil)
	}

	cmd, rest, err := registry.Lookup(ctx, args, rootDir)
	if err != nil {
		return manifestError(err, rootDir)
	}
	if cmd == nil {
		inv.warnProject(ctx, registry, rootDir)
		return commandNotFound(args)
	}
	if cmd.Group {
		sess.SetMode(session.ModeListCommands)
		return inv.list(ctx, registry, cmd.ProjectDir, args)
	}
	if inv.flags.list {
		return fmt.Errorf("%w: %s is a command", ErrNotASubproject, strings.Join(args, " "))
	}

	inv.warnProject(ctx, registry, cmd.ProjectDir)
	sess.SetMode(session.ModeRunCommand)
	sess.PushRoot(cmd)

	code, err := inv.run(ctx, sess, registry, rootDir, cmd, rest)
	if err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}

// run executes the root command of sess, delegating to the project's runtime
// environment when it is not the active one.
func (inv *invocation) run(ctx context.Context, sess *session.Session, registry *command.Registry, rootDir string, cmd *command.Command, args []string) (types.ExitCode, error) {
	delegator := &delegate.Delegator{
		Session:    sess,
		Finder:     venv.NewFinder(registry.Store(), inv.log()),
		Policy:     delegate.HostPolicy{Mode: inv.cfg.Delegation.Output, IsTerminal: inv.app.IsTerminal},
		Spawner:    inv.app.Spawner,
		Executable: inv.app.Executable,
		Stderr:     inv.app.stderr,
		Logger:     inv.log(),
	}
	if target, ok := delegator.ShouldDelegate(ctx); ok {
		code, err := delegator.Delegate(ctx, target, sess.Args())
		if err != nil {
			return code, issue.NewErrorContext().
				WithOperation("run " + cmd.FullName).
				WithResource(target).
				WithIssue(issue.DelegationFailedId).
				Wrap(err).
				BuildError()
		}
		return code, nil
	}

	executor := &execute.Executor{
		Session:  sess,
		Registry: registry,
		RootDir:  rootDir,
		Stdin:    inv.app.stdin,
		Stdout:   inv.app.stdout,
		Stderr:   inv.app.stderr,
		Logger:   inv.log(),
	}
	return executor.Run(ctx, cmd, args)
}

// list prints the commands of the project in dir. path is the command path that
// selected it, empty for the root project.
func (inv *invocation) list(ctx context.Context, registry *command.Registry, dir string, path []string) error {
	listing, err := registry.List(ctx, dir)
	if err != nil {
		return manifestError(err, dir)
	}
	inv.warn(listing.Diagnostics)

	description, err := manifest.Get(registry.Store(), manifest.Description, dir)
	if err != nil {
		return manifestError(err, dir)
	}
	renderListing(inv.app.stdout, inv.theme, listing, description, path)
	return nil
}

// warnProject logs the diagnostics of the project in dir.
func (inv *invocation) warnProject(ctx context.Context, registry *command.Registry, dir string) {
	if listing, err := registry.List(ctx, dir); err == nil {
		inv.warn(listing.Diagnostics)
	}
}

func (inv *invocation) warn(diags []project.Diagnostic) {
	for _, d := range diags {
		args := []any{"path", d.Path, "code", d.Code}
		if d.Cause != nil {
			args = append(args, "error", d.Cause)
		}
		inv.log().Warn(d.Message, args...)
	}
}

// manifestError tags manifest lookup and parse failures with their catalog entry.
func manifestError(err error, dir string) error {
	ec := issue.NewErrorContext().WithResource(dir).Wrap(err)
	switch {
	case errors.Is(err, manifest.ErrNotInitialized):
		ec.WithOperation("find project").
			WithIssue(issue.NotInitializedId).
			WithSuggestion("Run 'alfred init' to create a project here")
	case errors.Is(err, manifest.ErrInvalidManifest):
		ec.WithOperation("read manifest").
			WithIssue(issue.ManifestParseErrorId)
	default:
		ec.WithOperation("load project")
	}
	return ec.BuildError()
}

func commandNotFound(args []string) error {
	name := strings.Join(args, " ")
	return issue.NewErrorContext().
		WithOperation("find command").
		WithResource(name).
		WithSuggestion("Run 'alfred' to list the available commands").
		WithIssue(issue.CommandNotFoundId).
		Wrap(fmt.Errorf("unknown command %q", name)).
		BuildError()
}
