// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetHomeDir sets the appropriate HOME environment variable based on platform
// and returns a cleanup function to restore the original value.
//
// Platform handling:
//   - Windows: Sets USERPROFILE
//   - Linux/macOS: Sets HOME
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		return MustSetenv(t, "USERPROFILE", dir)
	default:
		return MustSetenv(t, "HOME", dir)
	}
}

// SetConfigHome points the user configuration base directory at dir and returns the
// directory alfred reads its configuration from. The cleanup is registered on t.
//
// Platform handling:
//   - Windows: APPDATA
//   - macOS: HOME (config lives under Library/Application Support)
//   - Linux/others: XDG_CONFIG_HOME
func SetConfigHome(t testing.TB, dir string) string {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Cleanup(MustSetenv(t, "APPDATA", dir))
		return filepath.Join(dir, "alfred")
	case "darwin":
		t.Cleanup(SetHomeDir(t, dir))
		return filepath.Join(dir, "Library", "Application Support", "alfred")
	default:
		t.Cleanup(MustSetenv(t, "XDG_CONFIG_HOME", dir))
		return filepath.Join(dir, "alfred")
	}
}
