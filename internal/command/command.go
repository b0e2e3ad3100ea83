// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"fmt"

	"alfred-cli/internal/process"
	"alfred-cli/internal/project"
)

// ErrInvalidDeclaration is returned by Registrar.Register for a malformed command.
var ErrInvalidDeclaration = errors.New("invalid command declaration")

type (
	// Step is one unit of work of a command. Exactly one field is set.
	Step struct {
		// Run is a single program invocation, tokenized without a shell.
		Run string
		// Script is a POSIX shell script run by the embedded interpreter.
		Script string
		// Invoke names another command, optionally followed by its arguments.
		Invoke string
	}

	// Definition is what a command runs.
	Definition struct {
		Steps []Step
		// Env is applied on top of the project environment while the command runs.
		Env map[string]string
		// Workdir, relative to the owning project, replaces the invocation directory.
		Workdir string
	}

	// Command is a named invokable owned by exactly one project.
	Command struct {
		// Name is the display name, with the project prefix applied.
		Name string
		// DeclaredName is the name as written in the module.
		DeclaredName string
		// FullName is the project-qualified name, "<project> <name>".
		FullName    string
		Project     string
		ProjectDir  string
		Module      string
		Description string
		Definition  Definition
		// Group marks the pseudo-command standing for a subproject.
		Group bool
	}

	// Declaration is what a module registers.
	Declaration struct {
		Name        string
		Description string
		Definition  Definition
	}

	// Registrar collects the declarations of one module.
	Registrar struct {
		module string
		decls  []Declaration
	}
)

// Kind returns the name of the field set on s, or "" when none is.
func (s Step) Kind() string {
	switch {
	case s.Run != "":
		return "run"
	case s.Script != "":
		return "script"
	case s.Invoke != "":
		return "invoke"
	default:
		return ""
	}
}

func (s Step) fieldsSet() int {
	n := 0
	for _, v := range []string{s.Run, s.Script, s.Invoke} {
		if v != "" {
			n++
		}
	}
	return n
}

// InvokeTarget splits an invoke step into the target command path and its arguments.
func (s Step) InvokeTarget() ([]string, error) {
	return process.Parse(s.Invoke)
}

// NewRegistrar returns an empty collector for the module at path.
func NewRegistrar(module string) *Registrar {
	return &Registrar{module: module}
}

// Module returns the path of the module being loaded.
func (r *Registrar) Module() string { return r.module }

// Declarations returns what was registered so far, in order.
func (r *Registrar) Declarations() []Declaration { return r.decls }

// Register validates d and records it.
func (r *Registrar) Register(d Declaration) error {
	if !project.ValidName(d.Name) {
		return fmt.Errorf("%w: name %q must be non-empty and contain no whitespace", ErrInvalidDeclaration, d.Name)
	}
	if len(d.Definition.Steps) == 0 {
		return fmt.Errorf("%w: command %q has nothing to run", ErrInvalidDeclaration, d.Name)
	}
	for i, step := range d.Definition.Steps {
		if step.fieldsSet() != 1 {
			return fmt.Errorf("%w: step %d of command %q must set exactly one of run, script or invoke",
				ErrInvalidDeclaration, i+1, d.Name)
		}
	}
	r.decls = append(r.decls, d)
	return nil
}
