// SPDX-License-Identifier: MPL-2.0

// Package environ models process environments as immutable-by-convention
// snapshots so that overlays applied for one command never leak into the
// host process or into sibling commands.
package environ

import (
	"maps"
	"os"
	"slices"
	"strings"

	"alfred-cli/pkg/platform"
)

const (
	// VarPath is the executable search path variable.
	VarPath = "PATH"
	// VarPythonPath is the import search path variable of the managed runtimes.
	VarPythonPath = "PYTHONPATH"
	// VarVirtualEnv carries the path of the active runtime environment.
	VarVirtualEnv = "VIRTUAL_ENV"
)

// Env is a snapshot of environment variables.
// Methods that change the snapshot return a copy; the receiver is never modified.
type Env struct {
	vars map[string]string
}

// FromOS captures the current process environment.
func FromOS() Env {
	return FromList(os.Environ())
}

// FromList builds an Env from KEY=VALUE entries. Later entries override earlier ones.
func FromList(entries []string) Env {
	vars := make(map[string]string, len(entries))
	for _, entry := range entries {
		idx := findEnvSeparator(entry)
		if idx == -1 {
			continue
		}
		vars[entry[:idx]] = entry[idx+1:]
	}
	return Env{vars: vars}
}

// findEnvSeparator returns the index of the '=' separating a name from its value.
// Windows carries per-drive variables such as "=C:=C:\\", so a leading '=' is part of the name.
func findEnvSeparator(entry string) int {
	if entry == "" {
		return -1
	}
	idx := strings.IndexByte(entry[1:], '=')
	if idx == -1 {
		return -1
	}
	return idx + 1
}

// Get returns the value of key, or "" when unset.
func (e Env) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// Lookup returns the value of key and whether it is set.
// Names are matched case-insensitively on Windows.
func (e Env) Lookup(key string) (string, bool) {
	if v, ok := e.vars[key]; ok {
		return v, true
	}
	if platform.IsWindows() {
		for k, v := range e.vars {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
	}
	return "", false
}

// With returns a copy of e with every entry of overrides applied.
func (e Env) With(overrides map[string]string) Env {
	vars := make(map[string]string, len(e.vars)+len(overrides))
	maps.Copy(vars, e.vars)
	for k, v := range overrides {
		vars[e.canonicalKey(k)] = v
	}
	return Env{vars: vars}
}

// Prepend returns a copy of e where entries are placed, in order, in front of the
// current value of the list variable key, joined with the host list separator.
func (e Env) Prepend(key string, entries ...string) Env {
	if len(entries) == 0 {
		return e
	}
	return e.With(map[string]string{key: PrependList(e.Get(key), entries...)})
}

// List returns the snapshot as sorted KEY=VALUE entries, suitable for exec.Cmd.Env.
func (e Env) List() []string {
	result := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// Len returns the number of variables in the snapshot.
func (e Env) Len() int {
	return len(e.vars)
}

func (e Env) canonicalKey(key string) string {
	if !platform.IsWindows() {
		return key
	}
	for k := range e.vars {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

// PrependList places entries in front of the list value initial using the host separator.
// Empty entries are dropped; an empty initial value does not leave a trailing separator.
func PrependList(initial string, entries ...string) string {
	parts := make([]string, 0, len(entries)+1)
	for _, entry := range entries {
		if entry != "" {
			parts = append(parts, entry)
		}
	}
	if initial != "" {
		parts = append(parts, initial)
	}
	return strings.Join(parts, platform.ListSeparator)
}

// SplitList splits a PATH-like value with the host separator, dropping empty entries.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, platform.ListSeparator)
	return slices.DeleteFunc(parts, func(p string) bool { return p == "" })
}
