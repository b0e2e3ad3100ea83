// SPDX-License-Identifier: MPL-2.0

package process

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrShellOperation is returned when a text command uses shell control operators.
	ErrShellOperation = errors.New("shell operations are not supported")
	// ErrEmptyCommand is returned when a text command holds no program name.
	ErrEmptyCommand = errors.New("empty command")
)

// shellOperators are the tokens that only make sense to a shell.
var shellOperators = []string{"&", "|", "&&", "||", ">", ">>", "<", "<<"}

// ShellOperationError reports the offending text of a rejected command.
type ShellOperationError struct {
	Text string
}

// Error implements the error interface.
func (e *ShellOperationError) Error() string {
	return fmt.Sprintf("%s: %q", ErrShellOperation, e.Text)
}

// Unwrap returns ErrShellOperation so callers can use errors.Is for programmatic detection.
func (e *ShellOperationError) Unwrap() error { return ErrShellOperation }

// Parse splits text into a program name and its arguments.
// Single- and double-quoted spans stay intact and lose their quotes.
// Text that a shell would treat as more than one simple command fails with ErrShellOperation,
// and so does any argument equal to a shell operator once its quotes are removed.
func Parse(text string) ([]string, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(text), "")
	if err != nil {
		if containsOperatorField(text) {
			return nil, &ShellOperationError{Text: text}
		}
		return nil, fmt.Errorf("invalid command %q: %w", text, err)
	}

	switch len(file.Stmts) {
	case 0:
		return nil, ErrEmptyCommand
	case 1:
	default:
		return nil, &ShellOperationError{Text: text}
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 || stmt.Semicolon.IsValid() {
		return nil, &ShellOperationError{Text: text}
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return nil, &ShellOperationError{Text: text}
	}
	if len(call.Args) == 0 {
		return nil, ErrEmptyCommand
	}

	argv := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		arg := wordText(word)
		if slices.Contains(shellOperators, arg) {
			return nil, &ShellOperationError{Text: text}
		}
		argv = append(argv, arg)
	}
	return argv, nil
}

func containsOperatorField(text string) bool {
	for _, field := range strings.Fields(text) {
		if slices.Contains(shellOperators, field) {
			return true
		}
	}
	return false
}

// wordText renders a word the way it would reach the program, minus any expansion:
// parameter and command substitutions are passed through literally.
func wordText(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(p.Value, false))
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(unescape(lit.Value, true))
					continue
				}
				sb.WriteString(printNode(inner))
			}
		default:
			sb.WriteString(printNode(part))
		}
	}
	return sb.String()
}

// unescape drops backslashes the way a POSIX shell does. Inside double quotes only
// the characters that are special there can be escaped.
func unescape(value string, quoted bool) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i+1 == len(value) {
			sb.WriteByte(c)
			continue
		}
		next := value[i+1]
		if quoted && !strings.ContainsRune("\"\\$`", rune(next)) {
			sb.WriteByte(c)
			continue
		}
		if next == '\n' {
			i++
			continue
		}
		sb.WriteByte(next)
		i++
	}
	return sb.String()
}

func printNode(node syntax.Node) string {
	var sb strings.Builder
	if err := syntax.NewPrinter().Print(&sb, node); err != nil {
		return ""
	}
	return sb.String()
}
