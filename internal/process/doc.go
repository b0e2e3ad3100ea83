// SPDX-License-Identifier: MPL-2.0

// Package process spawns child programs without ever going through a user shell.
//
// A text command is tokenized with mvdan.cc/sh/v3/syntax, which keeps quoted
// spans as single arguments; anything beyond one simple command (pipes, lists,
// redirections, background jobs) is rejected with ErrShellOperation before any
// child is started. Both output streams of a child are drained concurrently for
// its whole lifetime, captured into the Result and optionally echoed live.
package process
