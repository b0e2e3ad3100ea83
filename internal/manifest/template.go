// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrAlreadyInitialized is returned by Create when the directory already holds a manifest.
var ErrAlreadyInitialized = errors.New("alfred project already initialized")

type (
	// Document is the serialized form of a freshly created manifest.
	Document struct {
		Alfred Settings `toml:"alfred"`
	}

	// Settings are the top-level settings of the alfred namespace.
	Settings struct {
		Name        string          `toml:"name,omitempty"`
		Description string          `toml:"description,omitempty"`
		Prefix      string          `toml:"prefix,omitempty"`
		Subprojects []string        `toml:"subprojects,omitempty"`
		Project     ProjectSettings `toml:"project"`
	}

	// ProjectSettings are the settings of the project sub-table.
	ProjectSettings struct {
		Command []string `toml:"command"`
		Venv    string   `toml:"venv,omitempty"`
	}
)

// NewDocument returns the manifest written for a new project.
func NewDocument() Document {
	return Document{
		Alfred: Settings{
			Project: ProjectSettings{Command: []string{DefaultCommandGlob}},
		},
	}
}

// Create writes doc as the manifest of dir. It never overwrites an existing manifest.
func Create(dir string, doc Document) (string, error) {
	data, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := Path(dir)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyInitialized, path)
		}
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
