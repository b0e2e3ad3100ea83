// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"alfred-cli/internal/manifest"
	"alfred-cli/internal/process"
)

// DotVenvDir is the conventional environment directory inside a project.
const DotVenvDir = ".venv"

// PyProjectFile marks a project that poetry may manage.
const PyProjectFile = "pyproject.toml"

// ErrInvalidVenv is returned when a located environment lacks its binaries directory.
var ErrInvalidVenv = errors.New("runtime environment is not valid")

type (
	// InvalidVenvError names the environment that failed validation.
	InvalidVenvError struct {
		Path   string
		Source string
	}

	// ManifestStrategy reads the environment declared in the project manifest.
	ManifestStrategy struct {
		Store *manifest.Store
	}

	// RunFunc starts a program and waits for it, as process.Run does.
	RunFunc func(ctx context.Context, program string, args []string, opts ...process.Option) (*process.Result, error)

	// PoetryStrategy asks poetry for the environment it manages for the project.
	PoetryStrategy struct {
		Store *manifest.Store
		// Run defaults to process.Run.
		Run    RunFunc
		Logger *slog.Logger
	}

	// DotVenvStrategy uses the .venv directory of the project.
	DotVenvStrategy struct {
		Store *manifest.Store
	}
)

// Error implements the error interface.
func (e *InvalidVenvError) Error() string {
	return fmt.Sprintf("%s: %s %s, install or reinstall it", ErrInvalidVenv, e.Source, e.Path)
}

// Unwrap returns ErrInvalidVenv so callers can use errors.Is for programmatic detection.
func (e *InvalidVenvError) Unwrap() error { return ErrInvalidVenv }

// Name implements Strategy.
func (s *ManifestStrategy) Name() string { return "manifest" }

// Find implements Strategy.
func (s *ManifestStrategy) Find(_ context.Context, projectDir string) (string, error) {
	venv, err := manifest.Get(s.Store, manifest.Venv, projectDir)
	if err != nil || venv == "" {
		return "", err
	}
	if !Valid(venv) {
		return "", &InvalidVenvError{Path: venv, Source: "environment declared in " + manifest.FileName}
	}
	return venv, nil
}

func (s *PoetryStrategy) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Name implements Strategy.
func (s *PoetryStrategy) Name() string { return "poetry" }

// Find implements Strategy. It is skipped when disabled in the manifest, when the
// project has no pyproject.toml, when poetry is not installed or when poetry does not
// know the project.
func (s *PoetryStrategy) Find(ctx context.Context, projectDir string) (string, error) {
	ignore, err := manifest.Get(s.Store, manifest.VenvPoetryIgnore, projectDir)
	if err != nil || ignore {
		return "", err
	}
	if _, statErr := os.Stat(filepath.Join(projectDir, PyProjectFile)); statErr != nil {
		return "", nil
	}

	run := s.Run
	if run == nil {
		run = process.Run
	}
	result, err := run(ctx, "poetry", []string{"env", "info", "--path"}, process.Dir(projectDir), process.Quiet())
	if err != nil {
		if errors.Is(err, process.ErrUnknownCommand) {
			s.log().Debug("poetry is not installed", "project", projectDir)
			return "", nil
		}
		return "", fmt.Errorf("failed to query poetry: %w", err)
	}
	if !result.Success() {
		s.log().Debug("poetry does not manage this project", "project", projectDir, "stderr", result.Stderr)
		return "", nil
	}

	venv := strings.TrimSpace(result.Stdout)
	if venv == "" {
		return "", nil
	}
	if !Valid(venv) {
		return "", &InvalidVenvError{Path: venv, Source: "poetry environment"}
	}
	return venv, nil
}

// Name implements Strategy.
func (s *DotVenvStrategy) Name() string { return "dotvenv" }

// Find implements Strategy.
func (s *DotVenvStrategy) Find(_ context.Context, projectDir string) (string, error) {
	ignore, err := manifest.Get(s.Store, manifest.VenvDotVenvIgnore, projectDir)
	if err != nil || ignore {
		return "", err
	}

	venv := filepath.Join(projectDir, DotVenvDir)
	if info, statErr := os.Stat(venv); statErr != nil || !info.IsDir() {
		return "", nil
	}
	if !Valid(venv) {
		return "", &InvalidVenvError{Path: venv, Source: "environment"}
	}
	return venv, nil
}
