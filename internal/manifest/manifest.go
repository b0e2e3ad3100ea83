// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FileName is the manifest file that marks a project directory.
	FileName = ".alfred.toml"
	// ObsoleteFileName is the manifest format of older releases. It is no longer read.
	ObsoleteFileName = ".alfred.yml"
	// Namespace is the table holding every alfred setting inside the manifest.
	Namespace = "alfred"
)

// ErrNotInitialized is returned when no manifest can be found for a directory.
var ErrNotInitialized = errors.New("alfred project not initialized")

// ErrInvalidManifest is returned when a manifest exists but cannot be parsed.
var ErrInvalidManifest = errors.New("invalid manifest")

// NotInitializedError carries the directory the manifest search started from.
type NotInitializedError struct {
	Start string
}

// Error implements the error interface.
func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("%s: no %s found in %s or any parent directory", ErrNotInitialized, FileName, e.Start)
}

// Unwrap returns ErrNotInitialized so callers can use errors.Is for programmatic detection.
func (e *NotInitializedError) Unwrap() error { return ErrNotInitialized }

// Path returns the manifest path of a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, FileName)
}

// Exists reports whether dir directly contains a manifest file.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// LookupProjectDir returns the nearest directory, starting at start and walking up
// its ancestors, that contains a manifest. With search disabled only start is checked.
// The returned directory is absolute and clean.
func LookupProjectDir(start string, search bool) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if !search || parent == dir {
			return "", &NotInitializedError{Start: start}
		}
		dir = parent
	}
}
