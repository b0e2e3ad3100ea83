// SPDX-License-Identifier: MPL-2.0

// Package venv locates the isolated runtime environment a project requires.
//
// A Finder asks its strategies in order and keeps the first valid environment.
// An environment is valid when its host binaries directory (bin, or Scripts on
// Windows) exists. Finding nothing is not an error: the command then runs under
// whatever environment is active.
package venv

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"alfred-cli/internal/environ"
	"alfred-cli/internal/manifest"
	"alfred-cli/pkg/platform"
)

type (
	// Strategy proposes the environment of a project. It returns "" when it does not
	// apply, and an error only for conditions worth reporting to the user.
	Strategy interface {
		Name() string
		Find(ctx context.Context, projectDir string) (string, error)
	}

	// Finder runs strategies in order.
	Finder struct {
		Strategies []Strategy
		Logger     *slog.Logger
	}
)

// NewFinder returns the default chain: the manifest declaration, then the poetry
// managed environment, then the .venv directory of the project.
func NewFinder(store *manifest.Store, logger *slog.Logger) *Finder {
	return &Finder{
		Strategies: []Strategy{
			&ManifestStrategy{Store: store},
			&PoetryStrategy{Store: store, Logger: logger},
			&DotVenvStrategy{Store: store},
		},
		Logger: logger,
	}
}

// Find returns the environment of the project in projectDir, or "" when no strategy
// finds a valid one. Strategy errors are logged as warnings and the next strategy runs.
func (f *Finder) Find(ctx context.Context, projectDir string) string {
	for _, s := range f.Strategies {
		venv, err := s.Find(ctx, projectDir)
		if err != nil {
			f.log().Warn(err.Error(), "strategy", s.Name(), "project", projectDir)
			continue
		}
		if venv != "" {
			f.log().Debug("runtime environment found", "strategy", s.Name(), "venv", venv)
			return venv
		}
	}
	return ""
}

func (f *Finder) log() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Valid reports whether venv holds the host binaries directory.
func Valid(venv string) bool {
	info, err := os.Stat(platform.BinDir(venv))
	return err == nil && info.IsDir()
}

// Active returns the environment marked active in env, or "".
func Active(env environ.Env) string {
	return env.Get(environ.VarVirtualEnv)
}

// Same reports whether a and b designate the same environment directory.
func Same(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return canonical(a) == canonical(b)
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}
