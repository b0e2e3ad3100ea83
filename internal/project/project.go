// SPDX-License-Identifier: MPL-2.0

// Package project expands a manifest's subproject globs into the tree of projects
// reachable from a root project.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	"alfred-cli/internal/manifest"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeInvalidName marks a subproject skipped because of its name.
	CodeInvalidName = "subproject_invalid_name"
	// CodeInvalidGlob marks a subproject pattern that could not be expanded.
	CodeInvalidGlob = "subproject_invalid_glob"
	// CodeUnreadableManifest marks a subproject whose manifest could not be read.
	CodeUnreadableManifest = "subproject_manifest_unreadable"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal problem found while discovering projects or commands.
	// Diagnostics are returned to callers, which decide how to render them.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier.
		Code    string
		Message string
		// Path is the file or directory the diagnostic is about.
		Path  string
		Cause error
	}

	// Project is a directory governed by a manifest.
	Project struct {
		Name string
		Dir  string
	}
)

// String renders d on a single line.
func (d Diagnostic) String() string {
	s := string(d.Severity) + ": " + d.Message
	if d.Path != "" {
		s += " (" + d.Path + ")"
	}
	if d.Cause != nil {
		s += ": " + d.Cause.Error()
	}
	return s
}

// Load wraps dir as a Project, reading its name from the manifest.
func Load(store *manifest.Store, dir string) (Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Project{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	name, err := manifest.Get(store, manifest.Name, dir)
	if err != nil {
		return Project{}, err
	}
	return Project{Name: name, Dir: dir}, nil
}

// ValidName reports whether name can be used as a segment of a qualified command name.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsFunc(name, unicode.IsSpace)
}

// Subprojects returns the direct subprojects of the project in dir, sorted by directory.
// Only matching directories that hold a manifest are kept.
func Subprojects(store *manifest.Store, dir string) ([]Project, []Diagnostic, error) {
	patterns, err := manifest.Get(store, manifest.Subprojects, dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		dirs  []string
		diags []Diagnostic
	)
	for _, pattern := range patterns {
		matches, globErr := globDirs(dir, pattern)
		if globErr != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeInvalidGlob,
				Message:  fmt.Sprintf("invalid subproject pattern %q", pattern),
				Path:     manifest.Path(dir),
				Cause:    globErr,
			})
			continue
		}
		for _, match := range matches {
			if filepath.Clean(match) == filepath.Clean(dir) || !manifest.Exists(match) {
				continue
			}
			if !slices.Contains(dirs, match) {
				dirs = append(dirs, match)
			}
		}
	}
	slices.Sort(dirs)

	projects := make([]Project, 0, len(dirs))
	for _, sub := range dirs {
		p, loadErr := Load(store, sub)
		if loadErr != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     CodeUnreadableManifest,
				Message:  "subproject skipped, its manifest cannot be read",
				Path:     manifest.Path(sub),
				Cause:    loadErr,
			})
			continue
		}
		if !ValidName(p.Name) {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     CodeInvalidName,
				Message:  fmt.Sprintf("subproject %q skipped, names cannot contain whitespace", p.Name),
				Path:     sub,
			})
			continue
		}
		projects = append(projects, p)
	}
	return projects, diags, nil
}

// List returns the project in rootDir followed by every project reachable through
// subproject globs, breadth first. Each directory appears once even when several
// patterns or parents match it.
func List(store *manifest.Store, rootDir string) ([]Project, []Diagnostic, error) {
	root, err := Load(store, rootDir)
	if err != nil {
		return nil, nil, err
	}

	all := []Project{root}
	seen := map[string]struct{}{root.Dir: {}}
	var diags []Diagnostic

	frontier := []Project{root}
	for len(frontier) > 0 {
		var next []Project
		for _, p := range frontier {
			subs, subDiags, subErr := Subprojects(store, p.Dir)
			diags = append(diags, subDiags...)
			if subErr != nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Code:     CodeUnreadableManifest,
					Message:  "subprojects skipped, the manifest cannot be read",
					Path:     manifest.Path(p.Dir),
					Cause:    subErr,
				})
				continue
			}
			for _, sub := range subs {
				if _, ok := seen[sub.Dir]; ok {
					continue
				}
				seen[sub.Dir] = struct{}{}
				next = append(next, sub)
			}
		}
		all = append(all, next...)
		frontier = next
	}
	return all, diags, nil
}

// Glob expands pattern relative to dir and returns sorted absolute matches.
// Patterns follow doublestar syntax, so "**" crosses directory levels.
// Absolute patterns are expanded as is.
func Glob(dir, pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		return matches, nil
	}

	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	rel, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, err
	}
	matches := make([]string, 0, len(rel))
	for _, r := range rel {
		matches = append(matches, filepath.Join(dir, filepath.FromSlash(r)))
	}
	slices.Sort(matches)
	return matches, nil
}

func globDirs(dir, pattern string) ([]string, error) {
	matches, err := Glob(dir, pattern)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(matches, func(m string) bool {
		info, statErr := os.Stat(m)
		return statErr != nil || !info.IsDir()
	}), nil
}
