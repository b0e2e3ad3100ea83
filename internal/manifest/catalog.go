// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// ProjectSection is the sub-table holding per-project execution settings.
const ProjectSection = "project"

// DefaultCommandGlob is where command modules are looked up when a manifest does not say.
const DefaultCommandGlob = "alfred/*"

// Manifest settings.
var (
	Name = Parameter[string]{
		Name:        "name",
		DefaultFunc: filepath.Base,
	}
	Description = Parameter[string]{
		Name: "description",
	}
	Prefix = Parameter[string]{
		Name:  "prefix",
		Check: checkPrefix,
	}
	Subprojects = Parameter[[]string]{
		Name:    "subprojects",
		Default: []string{},
	}
	Environment = Parameter[[]string]{
		Name:    "environment",
		Default: []string{},
		Check:   checkEnvironment,
	}
	Command = Parameter[[]string]{
		Name:    "command",
		Section: ProjectSection,
		Default: []string{DefaultCommandGlob},
		Aliases: []string{"command"},
	}
	PythonPathExtends = Parameter[[]string]{
		Name:    "pythonpath_extends",
		Section: ProjectSection,
		Default: []string{},
		Format:  formatPathList,
	}
	PythonPathProjectRoot = Parameter[bool]{
		Name:    "pythonpath_project_root",
		Section: ProjectSection,
		Default: true,
	}
	PathExtends = Parameter[[]string]{
		Name:    "path_extends",
		Section: ProjectSection,
		Default: []string{},
		Format:  formatPathList,
	}
	Venv = Parameter[string]{
		Name:    "venv",
		Section: ProjectSection,
		Aliases: []string{"venv"},
		Format:  formatPath,
	}
	VenvDotVenvIgnore = Parameter[bool]{
		Name:    "venv_dotvenv_ignore",
		Section: ProjectSection,
	}
	VenvPoetryIgnore = Parameter[bool]{
		Name:    "venv_poetry_ignore",
		Section: ProjectSection,
	}
)

func checkPrefix(prefix string) []string {
	if strings.ContainsFunc(prefix, unicode.IsSpace) {
		return []string{fmt.Sprintf("prefix %q must not contain whitespace", prefix)}
	}
	return nil
}

func checkEnvironment(entries []string) []string {
	var problems []string
	for _, entry := range entries {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			problems = append(problems, fmt.Sprintf("environment entry %q must have the form KEY=VALUE", entry))
		}
	}
	return problems
}

// formatPath makes a declared path absolute against the project directory.
// An empty value stays empty.
func formatPath(projectDir, path string) string {
	if path == "" {
		return ""
	}
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, path)
	}
	return filepath.Clean(path)
}

// formatPathList splits entries that pack several paths with a list separator and
// makes each path absolute against the project directory.
func formatPathList(projectDir string, paths []string) []string {
	result := make([]string, 0, len(paths))
	for _, entry := range paths {
		for _, path := range filepath.SplitList(entry) {
			if path == "" {
				continue
			}
			result = append(result, formatPath(projectDir, path))
		}
	}
	return result
}
