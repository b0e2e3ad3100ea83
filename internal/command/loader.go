// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCommandModule is the sentinel error wrapped by InvalidModuleError.
var ErrInvalidCommandModule = errors.New("invalid command module")

type (
	// Loader reads one module format and registers its commands.
	Loader interface {
		Load(data []byte, path string, reg *Registrar) error
	}

	// LoaderFunc adapts a function to the Loader interface.
	LoaderFunc func(data []byte, path string, reg *Registrar) error

	// InvalidModuleError describes a module that could not be loaded.
	InvalidModuleError struct {
		Path string
		// Line is the 1-based line of the failure, 0 when unknown.
		Line int
		// Text is the content of Line.
		Text string
		Err  error
	}

	// lineError attaches a source line to a loader error.
	lineError struct {
		line int
		err  error
	}

	moduleSpec struct {
		Commands []commandSpec `toml:"commands" yaml:"commands" json:"commands"`
	}

	commandSpec struct {
		Name        string            `toml:"name" yaml:"name" json:"name"`
		Description string            `toml:"description" yaml:"description" json:"description,omitempty"`
		Run         []string          `toml:"run" yaml:"run" json:"run,omitempty"`
		Steps       []stepSpec        `toml:"steps" yaml:"steps" json:"steps,omitempty"`
		Env         map[string]string `toml:"env" yaml:"env" json:"env,omitempty"`
		Workdir     string            `toml:"workdir" yaml:"workdir" json:"workdir,omitempty"`
	}

	stepSpec struct {
		Run    string `toml:"run" yaml:"run" json:"run,omitempty"`
		Script string `toml:"script" yaml:"script" json:"script,omitempty"`
		Invoke string `toml:"invoke" yaml:"invoke" json:"invoke,omitempty"`
	}
)

// Load calls f.
func (f LoaderFunc) Load(data []byte, path string, reg *Registrar) error { return f(data, path, reg) }

// Error implements the error interface.
func (e *InvalidModuleError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc += ":" + strconv.Itoa(e.Line)
	}
	msg := fmt.Sprintf("%s %s: %v", ErrInvalidCommandModule, loc, e.Err)
	if e.Text != "" {
		msg += "\n    " + e.Text
	}
	return msg
}

// Unwrap exposes both ErrInvalidCommandModule and the underlying failure.
func (e *InvalidModuleError) Unwrap() []error { return []error{ErrInvalidCommandModule, e.Err} }

func (e *lineError) Error() string { return e.err.Error() }

func (e *lineError) Unwrap() error { return e.err }

func withLine(line int, err error) error {
	if err == nil || line <= 0 {
		return err
	}
	return &lineError{line: line, err: err}
}

// DefaultLoaders returns the loaders for every supported module extension.
func DefaultLoaders() map[string]Loader {
	toml := LoaderFunc(loadTOML)
	yaml := LoaderFunc(loadYAML)
	return map[string]Loader{
		".toml": toml,
		".yaml": yaml,
		".yml":  yaml,
		".cue":  LoaderFunc(loadCUE),
	}
}

// loadModule runs loader on the module at path inside an error boundary: errors and
// panics become an *InvalidModuleError and no declaration escapes a failed load.
func loadModule(path string, loader Loader) (decls []Declaration, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidModuleError{Path: path, Err: err}
	}

	reg := NewRegistrar(path)
	defer func() {
		if r := recover(); r != nil {
			decls = nil
			err = &InvalidModuleError{Path: path, Err: fmt.Errorf("panic while loading: %v", r)}
		}
	}()

	if loadErr := loader.Load(data, path, reg); loadErr != nil {
		line := lineOf(loadErr)
		return nil, &InvalidModuleError{
			Path: path,
			Line: line,
			Text: sourceLine(data, line),
			Err:  loadErr,
		}
	}
	return reg.Declarations(), nil
}

func lineOf(err error) int {
	var le *lineError
	if errors.As(err, &le) {
		return le.line
	}
	return 0
}

func sourceLine(data []byte, line int) string {
	if line <= 0 {
		return ""
	}
	lines := bytes.Split(data, []byte("\n"))
	if line > len(lines) {
		return ""
	}
	return strings.TrimSpace(string(lines[line-1]))
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// lineFromText extracts the first "line N" mention of an error message.
func lineFromText(msg string) int {
	m := yamlLinePattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// register converts a decoded module into declarations.
func register(reg *Registrar, spec moduleSpec) error {
	for _, c := range spec.Commands {
		if len(c.Run) > 0 && len(c.Steps) > 0 {
			return fmt.Errorf("%w: command %q sets both run and steps", ErrInvalidDeclaration, c.Name)
		}

		def := Definition{Env: c.Env, Workdir: filepath.FromSlash(c.Workdir)}
		for _, text := range c.Run {
			def.Steps = append(def.Steps, Step{Run: text})
		}
		for _, s := range c.Steps {
			def.Steps = append(def.Steps, Step(s))
		}

		if err := reg.Register(Declaration{Name: c.Name, Description: c.Description, Definition: def}); err != nil {
			return err
		}
	}
	return nil
}
