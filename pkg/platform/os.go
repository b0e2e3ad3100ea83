// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// ListSeparator is the separator of PATH-like environment variables on the host.
const ListSeparator = string(os.PathListSeparator)

// IsWindows reports whether the host is running Windows.
func IsWindows() bool {
	return runtime.GOOS == Windows
}
