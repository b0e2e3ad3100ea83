// SPDX-License-Identifier: MPL-2.0

// Package config handles user-level configuration of the alfred CLI using Viper.
//
// Configuration is loaded from ~/.config/alfred/config.toml (or XDG equivalent on Linux,
// ~/Library/Application Support/alfred/config.toml on macOS, %APPDATA%\alfred\config.toml
// on Windows). Every key can be overridden from the environment with the ALFRED_ prefix,
// dots replaced by underscores. A missing file yields DefaultConfig.
package config
