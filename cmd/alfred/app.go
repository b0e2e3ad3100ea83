// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"alfred-cli/internal/config"
	"alfred-cli/internal/delegate"
	"alfred-cli/internal/environ"
	"alfred-cli/internal/process"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root of
	// the CLI layer: every run of the root command reads its inputs through it.
	App struct {
		Config     config.Provider
		Spawner    delegate.Spawner
		Getwd      func() (string, error)
		Executable func() (string, error)
		// IsTerminal reports whether the host is attached to a terminal. It decides
		// whether a delegated child streams in auto output mode.
		IsTerminal func() bool
		Environ    []string
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Spawner    delegate.Spawner
		Getwd      func() (string, error)
		Executable func() (string, error)
		IsTerminal func() bool
		// Environ is the base environment of the session. Nil means os.Environ().
		Environ []string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		Spawner:    deps.Spawner,
		Getwd:      deps.Getwd,
		Executable: deps.Executable,
		IsTerminal: deps.IsTerminal,
		Environ:    deps.Environ,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.Getwd == nil {
		app.Getwd = os.Getwd
	}
	if app.Executable == nil {
		app.Executable = selfExecutable
	}
	if app.Environ == nil {
		app.Environ = os.Environ()
	}
	if app.Spawner == nil {
		app.Spawner = &delegate.ProcessSpawner{Stdin: app.stdin, Stdout: app.stdout, Stderr: app.stderr}
	}
	return app
}

func (a *App) env() environ.Env {
	return environ.FromList(a.Environ)
}

// selfExecutable returns the binary the user started. It prefers argv[0] over
// os.Executable so that a link named alfred re-runs through the link.
func selfExecutable() (string, error) {
	name := os.Args[0]
	switch {
	case name == "":
	case strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/'):
		if abs, err := filepath.Abs(name); err == nil {
			return abs, nil
		}
	default:
		if path, err := process.Lookup([]string{name}); err == nil {
			return path, nil
		}
	}
	return os.Executable()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
