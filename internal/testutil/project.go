// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// ManifestFileName mirrors the manifest file name without importing the manifest package,
// which itself is tested with these helpers.
const ManifestFileName = ".alfred.toml"

// WriteManifest writes the manifest of the project in dir. body is placed verbatim,
// so it must contain the [alfred] table itself.
func WriteManifest(t testing.TB, dir, body string) {
	t.Helper()
	MustWriteFile(t, filepath.Join(dir, ManifestFileName), body)
}

// WriteModule writes a command module at rel, relative to the project in dir, and
// returns its absolute path.
func WriteModule(t testing.TB, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	MustWriteFile(t, path, content)
	return path
}

// MakeVenv creates an empty runtime environment at rel inside dir: a directory holding
// the host binaries sub-directory. It returns the absolute environment path.
func MakeVenv(t testing.TB, dir, rel string) string {
	t.Helper()
	venv := filepath.Join(dir, filepath.FromSlash(rel))
	bin := "bin"
	if runtime.GOOS == "windows" {
		bin = "Scripts"
	}
	MustMkdirAll(t, filepath.Join(venv, bin), 0o755)
	return venv
}
