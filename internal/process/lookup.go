// SPDX-License-Identifier: MPL-2.0

package process

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"alfred-cli/pkg/platform"
)

// ErrUnknownCommand is returned when none of the candidate program names can be found.
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError lists the candidate names that were tried.
type UnknownCommandError struct {
	Names []string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownCommand, strings.Join(e.Names, ", "))
}

// Unwrap returns ErrUnknownCommand so callers can use errors.Is for programmatic detection.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// Lookup resolves the first of names found on the PATH of the configured environment.
// Every name is tried with each host executable suffix before moving to the next name.
// Names holding a path separator are resolved against the configured directory.
func Lookup(names []string, opts ...Option) (string, error) {
	o := newOptions(opts)
	env := expand.ListEnviron(o.environ()...)
	dir := o.workDir()

	for _, name := range names {
		if name == "" {
			continue
		}
		for _, suffix := range platform.ExecutableSuffixes() {
			path, err := interp.LookPathDir(dir, env, name+suffix)
			if err != nil {
				continue
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			return path, nil
		}
	}
	return "", &UnknownCommandError{Names: names}
}
