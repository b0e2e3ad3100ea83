// SPDX-License-Identifier: MPL-2.0

// Package session holds the state of one top-level dispatch: the stack of running
// commands, the invocation directory and arguments, the global flags to forward on
// delegation, and the environment snapshot handed to child processes.
//
// A Session replaces process-wide globals. Environment overlays are applied to the
// session snapshot only; the environment of the host process is never modified.
package session

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"alfred-cli/internal/command"
	"alfred-cli/internal/environ"
)

const (
	// ModeUnknown is the mode before the front end decided what to do.
	ModeUnknown Mode = "unknown"
	// ModeListCommands is set while commands are listed.
	ModeListCommands Mode = "list_commands"
	// ModeRunCommand is set once a command has been resolved for execution.
	ModeRunCommand Mode = "run_command"
)

// ErrNotInCommand is returned by operations that need a running command.
var ErrNotInCommand = errors.New("not running inside a command")

type (
	// Mode is what the current dispatch is doing.
	Mode string

	// NotInCommandError names the operation attempted outside a command.
	NotInCommandError struct {
		Op string
	}

	// Session is the execution context of one dispatch.
	Session struct {
		mu    sync.Mutex
		stack []*command.Command
		dir   string
		args  []string
		flags []string
		mode  Mode
		env   environ.Env
		// envSet distinguishes an explicitly empty environment from no environment.
		envSet bool
	}

	// Option configures a Session.
	Option func(*Session)
)

// Error implements the error interface.
func (e *NotInCommandError) Error() string {
	return fmt.Sprintf("%s must be called from a running command", e.Op)
}

// Unwrap returns ErrNotInCommand so callers can use errors.Is for programmatic detection.
func (e *NotInCommandError) Unwrap() error { return ErrNotInCommand }

// WithDir sets the invocation directory. It defaults to the working directory.
func WithDir(dir string) Option {
	return func(s *Session) { s.dir = dir }
}

// WithEnv sets the base environment snapshot. It defaults to the host environment.
func WithEnv(env environ.Env) Option {
	return func(s *Session) {
		s.env = env
		s.envSet = true
	}
}

// WithArgs records the command-line arguments of the invocation.
func WithArgs(args []string) Option {
	return func(s *Session) { s.args = slices.Clone(args) }
}

// New returns a fresh session with an empty command stack.
func New(opts ...Option) *Session {
	s := &Session{mode: ModeUnknown}
	for _, opt := range opts {
		opt(s)
	}
	if s.dir == "" {
		if wd, err := os.Getwd(); err == nil {
			s.dir = wd
		}
	}
	if !s.envSet {
		s.env = environ.FromOS()
	}
	return s
}

// Current returns the innermost running command, or nil outside a command.
func (s *Session) Current() *command.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Root returns the command the dispatch started with, or nil outside a command.
func (s *Session) Root() *command.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[0]
}

// Depth returns the number of running commands.
func (s *Session) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

// Contains reports whether cmd is on the stack.
func (s *Session) Contains(cmd *command.Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.stack, cmd)
}

// Running reports whether a command is running.
func (s *Session) Running() bool { return s.Depth() > 0 }

// PushRoot replaces the stack with cmd. It is called once per dispatch.
func (s *Session) PushRoot(cmd *command.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = []*command.Command{cmd}
}

// PushNested pushes cmd and returns the function that pops it. Calling the release
// function more than once has no further effect, and releasing an outer command
// also drops whatever is still stacked above it.
func (s *Session) PushNested(cmd *command.Command) (release func()) {
	s.mu.Lock()
	depth := len(s.stack)
	s.stack = append(s.stack, cmd)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if len(s.stack) > depth {
				clear(s.stack[depth:])
				s.stack = s.stack[:depth]
			}
		})
	}
}

// Nested runs fn with cmd pushed on the stack. The stack is restored on every exit
// path of fn, panics included.
func (s *Session) Nested(cmd *command.Command, fn func() error) error {
	release := s.PushNested(cmd)
	defer release()
	return fn()
}

// AssertRunning returns a *NotInCommandError when no command is running.
func (s *Session) AssertRunning(op string) error {
	if !s.Running() {
		return &NotInCommandError{Op: op}
	}
	return nil
}

// Dir returns the directory alfred was invoked from.
func (s *Session) Dir() string { return s.dir }

// Args returns the command-line arguments of the invocation.
func (s *Session) Args() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.args)
}

// SetArgs records the command-line arguments of the invocation.
func (s *Session) SetArgs(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = slices.Clone(args)
}

// SetFlag records a global flag to forward when delegating. Disabling a flag that
// was never enabled is a no-op, as is enabling it twice.
func (s *Session) SetFlag(flag string, enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.flags, flag)
	switch {
	case enable && idx == -1:
		s.flags = append(s.flags, flag)
	case !enable && idx != -1:
		s.flags = slices.Delete(s.flags, idx, idx+1)
	}
}

// Flags returns the global flags to forward, in the order they were enabled.
func (s *Session) Flags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.flags)
}

// Mode returns what the dispatch is doing.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode records what the dispatch is doing.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Env returns the current environment snapshot.
func (s *Session) Env() environ.Env {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// Overlay sets vars on the environment snapshot until restore is called.
func (s *Session) Overlay(vars map[string]string) (restore func()) {
	return s.Apply(func(env environ.Env) environ.Env { return env.With(vars) })
}

// Apply replaces the environment snapshot with fn's result until restore is called.
// Restoring brings back the snapshot seen by Apply, discarding later overlays that
// were not restored themselves.
func (s *Session) Apply(fn func(environ.Env) environ.Env) (restore func()) {
	s.mu.Lock()
	previous := s.env
	s.env = fn(previous)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.env = previous
		})
	}
}
