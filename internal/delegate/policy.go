// SPDX-License-Identifier: MPL-2.0

package delegate

import (
	"os"

	"golang.org/x/term"

	"alfred-cli/internal/config"
)

type (
	// StreamPolicy decides whether a delegated child streams or is captured.
	StreamPolicy interface {
		Stream() bool
	}

	// HostPolicy applies the configured output mode. In auto mode the child streams
	// when standard input is a terminal.
	HostPolicy struct {
		Mode config.OutputMode
		// IsTerminal reports whether stdin is a terminal. Defaults to x/term.
		IsTerminal func() bool
	}

	// Fixed always answers the same.
	Fixed bool
)

// Stream implements StreamPolicy.
func (p HostPolicy) Stream() bool {
	switch p.Mode {
	case config.OutputStream:
		return true
	case config.OutputCapture:
		return false
	default:
		if p.IsTerminal != nil {
			return p.IsTerminal()
		}
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
}

// Stream implements StreamPolicy.
func (f Fixed) Stream() bool { return bool(f) }
