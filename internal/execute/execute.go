// SPDX-License-Identifier: MPL-2.0

// Package execute runs a resolved command inside the current process.
//
// The project environment (path extensions, manifest environment entries and the
// command's own env) is applied as a session overlay for the duration of the
// command, then the steps run in order. The first failing step ends the command.
package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"alfred-cli/internal/command"
	"alfred-cli/internal/environ"
	"alfred-cli/internal/issue"
	"alfred-cli/internal/manifest"
	"alfred-cli/internal/process"
	"alfred-cli/internal/session"
	"alfred-cli/pkg/types"
)

var (
	// ErrGroupNotRunnable is returned when a subproject group is run as a command.
	ErrGroupNotRunnable = errors.New("a subproject is not a command")
	// ErrUnknownTarget is returned when an invoke step names no known command.
	ErrUnknownTarget = errors.New("invoked command not found")
	// ErrInvokeCycle is returned when an invoke step targets a command already running.
	ErrInvokeCycle = errors.New("invoke cycle")
)

// Executor runs commands in-process. It never delegates: a nested command runs under
// whatever runtime environment the top-level dispatch settled on.
type Executor struct {
	Session  *session.Session
	Registry *command.Registry
	// RootDir is the project invoke targets are resolved from when they are not
	// declared in the invoking module.
	RootDir string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

// Run executes cmd with args, which must already be on the session stack. It returns
// the exit code of the first failing step, or success.
func (e *Executor) Run(ctx context.Context, cmd *command.Command, args []string) (types.ExitCode, error) {
	if err := e.Session.AssertRunning("run " + cmd.Name); err != nil {
		return types.ExitFailure, err
	}
	if cmd.Group {
		return types.ExitFailure, fmt.Errorf("%w: %s", ErrGroupNotRunnable, cmd.Name)
	}

	restore, err := e.applyMiddleware(cmd)
	if err != nil {
		return types.ExitFailure, err
	}
	defer restore()

	dir := e.workDir(cmd)
	for i, step := range cmd.Definition.Steps {
		e.log().Debug("running step", "command", cmd.FullName, "step", i+1, "kind", step.Kind(), "dir", dir)

		var code types.ExitCode
		switch step.Kind() {
		case "run":
			code, err = e.runProgram(ctx, cmd, step.Run, args, dir)
		case "script":
			code, err = e.runScript(ctx, cmd, step.Script, args, dir)
		case "invoke":
			code, err = e.invoke(ctx, cmd, step)
		default:
			err = fmt.Errorf("%w: empty step %d in %s", command.ErrInvalidDeclaration, i+1, cmd.FullName)
		}
		if err != nil {
			return types.ExitFailure, err
		}
		if !code.IsSuccess() {
			return code, nil
		}
	}
	return types.ExitSuccess, nil
}

// applyMiddleware overlays the environment of cmd's project on the session.
func (e *Executor) applyMiddleware(cmd *command.Command) (func(), error) {
	store := e.Registry.Store()
	dir := cmd.ProjectDir

	pythonPath, err := manifest.Get(store, manifest.PythonPathExtends, dir)
	if err != nil {
		return nil, err
	}
	projectRoot, err := manifest.Get(store, manifest.PythonPathProjectRoot, dir)
	if err != nil {
		return nil, err
	}
	if projectRoot {
		pythonPath = append(pythonPath, dir)
	}
	path, err := manifest.Get(store, manifest.PathExtends, dir)
	if err != nil {
		return nil, err
	}
	entries, err := manifest.Get(store, manifest.Environment, dir)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(entries)+len(cmd.Definition.Env))
	for _, entry := range entries {
		key, value, _ := strings.Cut(entry, "=")
		vars[strings.TrimSpace(key)] = value
	}
	for key, value := range cmd.Definition.Env {
		vars[key] = value
	}

	return e.Session.Apply(func(env environ.Env) environ.Env {
		return env.
			Prepend(environ.VarPythonPath, pythonPath...).
			Prepend(environ.VarPath, path...).
			With(vars)
	}), nil
}

func (e *Executor) workDir(cmd *command.Command) string {
	if wd := cmd.Definition.Workdir; wd != "" {
		if filepath.IsAbs(wd) {
			return wd
		}
		return filepath.Join(cmd.ProjectDir, filepath.FromSlash(wd))
	}
	return e.Session.Dir()
}

// runProgram runs a single program, the command-line arguments appended to its own.
func (e *Executor) runProgram(ctx context.Context, cmd *command.Command, text string, args []string, dir string) (types.ExitCode, error) {
	argv, err := process.Parse(text)
	if err != nil {
		return types.ExitFailure, stepError(cmd, text, err)
	}

	result, err := process.Run(ctx, argv[0], append(argv[1:], args...),
		process.Dir(dir),
		process.Env(e.Session.Env().List()),
		process.Stdin(e.stdin()),
		process.Stdout(e.stdout()),
		process.Stderr(e.stderr()),
	)
	if err != nil {
		return types.ExitFailure, stepError(cmd, text, err)
	}
	return result.ExitCode, nil
}

// runScript runs a shell script with the embedded interpreter. The command-line
// arguments are its positional parameters.
func (e *Executor) runScript(ctx context.Context, cmd *command.Command, script string, args []string, dir string) (types.ExitCode, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), cmd.Module)
	if err != nil {
		return types.ExitFailure, fmt.Errorf("failed to parse script of %s: %w", cmd.FullName, err)
	}

	opts := []interp.RunnerOption{
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(e.Session.Env().List()...)),
		interp.StdIO(e.stdin(), e.stdout(), e.stderr()),
	}
	// "--" keeps arguments such as "-v" from being read as shell options.
	opts = append(opts, interp.Params(append([]string{"--"}, args...)...))

	runner, err := interp.New(opts...)
	if err != nil {
		return types.ExitFailure, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return types.ExitCode(exitStatus), nil
		}
		return types.ExitFailure, fmt.Errorf("script of %s failed: %w", cmd.FullName, err)
	}
	return types.ExitSuccess, nil
}

// invoke runs the command named by step as a nested command.
func (e *Executor) invoke(ctx context.Context, from *command.Command, step command.Step) (types.ExitCode, error) {
	target, err := step.InvokeTarget()
	if err != nil {
		return types.ExitFailure, stepError(from, step.Invoke, err)
	}

	cmd, rest, err := e.Registry.Resolve(ctx, from, target, e.RootDir)
	if err != nil {
		return types.ExitFailure, err
	}
	if cmd == nil {
		return types.ExitFailure, issue.NewErrorContext().
			WithOperation("invoke command").
			WithResource(step.Invoke).
			WithSuggestion("Run 'alfred --check' to find invoke steps with unknown targets").
			WithIssue(issue.CommandNotFoundId).
			Wrap(fmt.Errorf("%w: %s (from %s)", ErrUnknownTarget, strings.Join(target, " "), from.FullName)).
			BuildError()
	}

	if e.Session.Contains(cmd) {
		return types.ExitFailure, issue.NewErrorContext().
			WithOperation("invoke command").
			WithResource(step.Invoke).
			WithSuggestion("Run 'alfred --check' to list every invoke cycle").
			Wrap(fmt.Errorf("%w: %s invokes %s, which is already running", ErrInvokeCycle, from.FullName, cmd.FullName)).
			BuildError()
	}

	var code types.ExitCode
	err = e.Session.Nested(cmd, func() error {
		var runErr error
		code, runErr = e.Run(ctx, cmd, rest)
		return runErr
	})
	return code, err
}

// stepError tags process errors with the matching catalog entry.
func stepError(cmd *command.Command, text string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("run " + cmd.FullName).
		WithResource(text).
		Wrap(err)
	switch {
	case errors.Is(err, process.ErrShellOperation):
		ec.WithIssue(issue.ShellOperationId).
			WithSuggestion("Use a script step for pipes, redirections and command lists")
	case errors.Is(err, process.ErrUnknownCommand):
		ec.WithIssue(issue.ProgramNotFoundId)
	case errors.Is(err, os.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId)
	}
	return ec.BuildError()
}

func (e *Executor) stdin() io.Reader {
	if e.Stdin != nil {
		return e.Stdin
	}
	return os.Stdin
}

func (e *Executor) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Executor) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Executor) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
