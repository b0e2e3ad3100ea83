// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It centralizes the host-specific layout of runtime environments (the
// binaries directory of a virtual environment, executable suffixes) and the
// OS list separator used by PATH-like variables.
package platform
