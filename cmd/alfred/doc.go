// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the alfred command-line front end.
//
// The root command resolves its positional arguments against the command registry of
// the current project tree: with no arguments it lists the commands, otherwise it runs
// the named command, in-process or delegated to the project's virtualenv.
package cmd
