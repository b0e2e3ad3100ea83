// SPDX-License-Identifier: MPL-2.0

// Package command loads command modules and serves the command registry of a project.
//
// A command module is a file matched by the project's command globs. Its extension
// selects a Loader (.toml, .yaml/.yml, .cue); files with other extensions are ignored.
// Every module is loaded on its own into a fresh Registrar: a module that fails to
// parse or panics while loading is reported as an InvalidModuleError diagnostic and
// registers nothing, while the remaining modules load normally.
//
// File organization:
//   - command.go: Command, Definition, Step and the Registrar collector
//   - loader.go: Loader interface, the per-module error boundary and the shared module schema
//   - loader_toml.go, loader_yaml.go, loader_cue.go: format-specific loaders
//   - registry.go: Registry (List, Lookup, Resolve, Check, Reset)
package command
