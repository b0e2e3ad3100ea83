// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// Error is a CUE failure in one file. It keeps the original CUE error so that
// positions can still be recovered after formatting.
type Error struct {
	FilePath string
	Message  string
	cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.FilePath + ": " + e.Message
}

// Unwrap returns the underlying CUE error.
func (e *Error) Unwrap() error { return e.cause }

// FormatError formats a CUE error with JSON path prefixes, for example
// "cmd.cue: commands[0].name: incomplete value string".
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			msg = pathStr + ": " + msg
		}
		lines = append(lines, msg)
	}

	msg := lines[0]
	if len(lines) > 1 {
		msg = "validation failed:\n  " + strings.Join(lines, "\n  ")
	}
	return &Error{FilePath: filePath, Message: msg, cause: err}
}

// ErrorLine returns the source line of the first positioned CUE error wrapped in err,
// or 0 when none carries a position.
func ErrorLine(err error) int {
	var cueErr cueerrors.Error
	if !errors.As(err, &cueErr) {
		return 0
	}
	for _, e := range cueerrors.Errors(cueErr) {
		if pos := e.Position(); pos.IsValid() {
			return pos.Line()
		}
		for _, pos := range e.InputPositions() {
			if pos.IsValid() {
				return pos.Line()
			}
		}
	}
	return 0
}

// formatPath converts a CUE error path such as ["commands", "0", "name"] to
// "commands[0].name".
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		isIndex := part != "" && strings.Trim(part, "0123456789") == ""
		switch {
		case isIndex && i > 0:
			result.WriteString("[" + part + "]")
		case i > 0:
			result.WriteString("." + part)
		default:
			result.WriteString(part)
		}
	}
	return result.String()
}

// CheckFileSize returns an error when data is larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
