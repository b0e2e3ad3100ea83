// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"runtime"
)

const (
	posixBinDir   = "bin"
	windowsBinDir = "Scripts"
)

// BinDir returns the binaries directory of a runtime environment rooted at venv.
// Windows environments keep their executables under Scripts, every other host uses bin.
func BinDir(venv string) string {
	return binDirFor(runtime.GOOS, venv)
}

func binDirFor(goos, venv string) string {
	if goos == Windows {
		return filepath.Join(venv, windowsBinDir)
	}
	return filepath.Join(venv, posixBinDir)
}

// ExecutableSuffixes returns the file suffixes tried, in order, when resolving a
// program name on the host. The first entry is always the bare name.
func ExecutableSuffixes() []string {
	return executableSuffixesFor(runtime.GOOS)
}

func executableSuffixesFor(goos string) []string {
	if goos == Windows {
		return []string{"", ".exe"}
	}
	return []string{""}
}

// ExecutableName appends the host executable extension to name when the host needs one.
func ExecutableName(name string) string {
	if IsWindows() {
		return name + ".exe"
	}
	return name
}
