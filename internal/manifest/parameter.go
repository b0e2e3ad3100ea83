// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// Parameter describes one typed manifest setting.
type Parameter[T any] struct {
	// Name is the key inside Section.
	Name string
	// Section is the sub-table of the alfred namespace, empty for top-level keys.
	Section string
	// Default is used when neither the key nor an alias is set, or the value is rejected.
	Default T
	// DefaultFunc computes the default from the project directory. It overrides Default.
	DefaultFunc func(projectDir string) T
	// Aliases are deprecated keys, relative to the alfred namespace, tried in order.
	Aliases []string
	// Check returns one message per problem found in a declared value.
	Check func(v T) []string
	// Format normalizes the resolved value, typically making paths absolute.
	Format func(projectDir string, v T) T
}

// Key returns the canonical dotted key of p relative to the alfred namespace.
func (p Parameter[T]) Key() string {
	if p.Section == "" {
		return p.Name
	}
	return p.Section + "." + p.Name
}

func (p Parameter[T]) defaultValue(projectDir string) T {
	if p.DefaultFunc != nil {
		return p.DefaultFunc(projectDir)
	}
	if s, ok := any(p.Default).([]string); ok {
		return any(slices.Clone(s)).(T)
	}
	return p.Default
}

// Get resolves p for the project in projectDir.
// The only errors are a missing, unreadable or unparseable manifest.
func Get[T any](store *Store, p Parameter[T], projectDir string) (T, error) {
	v, dir, err := store.load(projectDir)
	if err != nil {
		var zero T
		return zero, err
	}

	value := p.defaultValue(dir)
	raw, key, found := lookupRaw(v, p)
	if found {
		if key != p.Key() {
			store.warnOnce(dir, p.Key()+"/alias",
				fmt.Sprintf("manifest key %q is deprecated, use %q", key, p.Key()),
				"parameter", p.Key())
		}
		value = resolveDeclared(store, dir, p, key, raw, value)
	}

	if p.Format != nil {
		value = p.Format(dir, value)
	}
	return value, nil
}

type settingsReader interface {
	IsSet(key string) bool
	Get(key string) any
}

func lookupRaw[T any](v settingsReader, p Parameter[T]) (any, string, bool) {
	keys := append([]string{p.Key()}, p.Aliases...)
	for _, key := range keys {
		full := Namespace + "." + key
		if v.IsSet(full) {
			return v.Get(full), key, true
		}
	}
	return nil, "", false
}

func resolveDeclared[T any](store *Store, dir string, p Parameter[T], key string, raw any, fallback T) T {
	value, err := coerce[T](raw)
	if err != nil {
		store.warnOnce(dir, p.Key()+"/type",
			fmt.Sprintf("manifest key %q has an invalid value, using the default", key),
			"parameter", p.Key(), "error", err)
		return fallback
	}

	if p.Check == nil {
		return value
	}
	if problems := p.Check(value); len(problems) > 0 {
		store.warnOnce(dir, p.Key()+"/check",
			fmt.Sprintf("manifest key %q is invalid, using the default", key),
			"parameter", p.Key(), "problems", strings.Join(problems, "; "))
		return fallback
	}
	return value
}

// coerce converts a decoded manifest value to T. Lists accept a single scalar as a
// one-element list.
func coerce[T any](raw any) (T, error) {
	var zero T
	var (
		out any
		err error
	)

	switch any(zero).(type) {
	case string:
		switch raw.(type) {
		case string, int, int64, float64:
			out, err = cast.ToStringE(raw)
		default:
			err = fmt.Errorf("expected a string, got %T", raw)
		}
	case bool:
		out, err = cast.ToBoolE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case []string:
		switch r := raw.(type) {
		case string:
			out = []string{r}
		case []any, []string:
			out, err = cast.ToStringSliceE(r)
		default:
			err = fmt.Errorf("expected a list of strings, got %T", raw)
		}
	default:
		typed, ok := raw.(T)
		if !ok {
			return zero, fmt.Errorf("expected %T, got %T", zero, raw)
		}
		return typed, nil
	}

	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
