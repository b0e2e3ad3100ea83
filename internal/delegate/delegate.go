// SPDX-License-Identifier: MPL-2.0

// Package delegate re-runs alfred inside the runtime environment a command's project
// requires.
//
// Delegation happens at most once per top-level dispatch. The child sees
// VIRTUAL_ENV set to the target environment, so when it resolves the same command
// it finds the marker already equal to the target and runs in-process.
package delegate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"alfred-cli/internal/environ"
	"alfred-cli/internal/session"
	"alfred-cli/internal/venv"
	"alfred-cli/pkg/platform"
	"alfred-cli/pkg/types"
)

// ProgramName is the base name of the alfred executable looked up in a runtime's
// binaries directory.
const ProgramName = "alfred"

// ErrDelegation is the sentinel wrapped by DelegationError.
var ErrDelegation = errors.New("delegation failed")

type (
	// RuntimeFinder locates the runtime environment of a project directory.
	// *venv.Finder implements it.
	RuntimeFinder interface {
		Find(ctx context.Context, projectDir string) string
	}

	// Delegator decides whether a command runs here or in a child process, and runs
	// the child.
	Delegator struct {
		Session *session.Session
		Finder  RuntimeFinder
		Policy  StreamPolicy
		Spawner Spawner
		// Executable returns the path of the running binary. Defaults to os.Executable.
		Executable func() (string, error)
		// Stderr receives the child's captured stderr. Defaults to os.Stderr.
		Stderr io.Writer
		Logger *slog.Logger
	}

	// DelegationError reports a child that could not be started.
	DelegationError struct {
		Venv    string
		Program string
		Err     error
	}
)

func (e *DelegationError) Error() string {
	return fmt.Sprintf("cannot run %s in %s: %v", e.Program, e.Venv, e.Err)
}

func (e *DelegationError) Unwrap() []error { return []error{ErrDelegation, e.Err} }

// ShouldDelegate returns the runtime environment the current command requires and
// whether it differs from the active one. It never delegates outside a command, and
// only a dispatch in session.ModeRunCommand can delegate at all.
func (d *Delegator) ShouldDelegate(ctx context.Context) (string, bool) {
	if mode := d.Session.Mode(); mode != session.ModeRunCommand {
		d.log().Debug("delegation skipped", "mode", mode)
		return "", false
	}
	cmd := d.Session.Current()
	if cmd == nil {
		return "", false
	}

	target := d.Finder.Find(ctx, cmd.ProjectDir)
	if target == "" {
		return "", false
	}

	active := venv.Active(d.Session.Env())
	if venv.Same(target, active) {
		d.log().Debug("runtime environment already active", "venv", target)
		return target, false
	}
	return target, true
}

// Delegate runs alfred with args inside target and returns the child's exit code.
// The session's forwarded flags are placed before args.
func (d *Delegator) Delegate(ctx context.Context, target string, args []string) (types.ExitCode, error) {
	req, err := d.request(target, args)
	if err != nil {
		return types.ExitFailure, &DelegationError{Venv: target, Program: ProgramName, Err: err}
	}

	d.log().Debug("delegating", "venv", target, "program", req.Program, "args", req.Args, "stream", req.Stream)

	result, err := d.Spawner.Spawn(ctx, req)
	if err != nil {
		return types.ExitFailure, &DelegationError{Venv: target, Program: req.Program, Err: err}
	}

	if !req.Stream && result.Stderr != "" {
		_, _ = io.WriteString(d.stderr(), result.Stderr)
	}
	if !result.Success() {
		d.log().Debug("delegated command failed", "venv", target, "exit_code", int(result.ExitCode))
	}
	return result.ExitCode, nil
}

// request builds the child invocation for target.
func (d *Delegator) request(target string, args []string) (Request, error) {
	bin := platform.BinDir(target)

	program, err := d.program(bin)
	if err != nil {
		return Request{}, err
	}

	env := d.Session.Env().
		With(map[string]string{environ.VarVirtualEnv: target}).
		Prepend(environ.VarPath, bin).
		Prepend(environ.VarPythonPath, bin)

	return Request{
		Program: program,
		Args:    append(d.Session.Flags(), args...),
		Env:     env.List(),
		Dir:     d.Session.Dir(),
		Stream:  d.policy().Stream(),
	}, nil
}

// program prefers the alfred installed in the runtime and falls back to the
// running binary.
func (d *Delegator) program(bin string) (string, error) {
	installed := filepath.Join(bin, platform.ExecutableName(ProgramName))
	if info, err := os.Stat(installed); err == nil && !info.IsDir() {
		return installed, nil
	}

	executable := d.Executable
	if executable == nil {
		executable = os.Executable
	}
	self, err := executable()
	if err != nil {
		return "", fmt.Errorf("locate running executable: %w", err)
	}
	return self, nil
}

func (d *Delegator) policy() StreamPolicy {
	if d.Policy != nil {
		return d.Policy
	}
	return HostPolicy{}
}

func (d *Delegator) stderr() io.Writer {
	if d.Stderr != nil {
		return d.Stderr
	}
	return os.Stderr
}

func (d *Delegator) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
