// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"alfred-cli/internal/dag"
	"alfred-cli/internal/manifest"
	"alfred-cli/internal/project"
)

// Diagnostic codes emitted by the registry.
const (
	CodeInvalidModule   = "command_module_invalid"
	CodeInvalidGlob     = "command_glob_invalid"
	CodeDuplicate       = "command_duplicate"
	CodeShadowedByGroup = "command_shadowed_by_group"
	CodeUnknownInvoke   = "command_invoke_unknown"
	CodeInvokeCycle     = "command_invoke_cycle"
)

type (
	// Listing is the registry content of one project.
	Listing struct {
		Project project.Project
		// Commands holds the project's own commands followed by its group commands,
		// each part sorted by name.
		Commands    []*Command
		Diagnostics []project.Diagnostic
	}

	// Registry loads and memoizes the commands of every project it is asked about.
	Registry struct {
		store   *manifest.Store
		loaders map[string]Loader

		mu       sync.Mutex
		listings map[string]*Listing
	}

	// RegistryOption configures a Registry.
	RegistryOption func(*Registry)
)

// WithLoader registers loader for files ending in ext, replacing any previous one.
func WithLoader(ext string, loader Loader) RegistryOption {
	return func(r *Registry) { r.loaders[ext] = loader }
}

// NewRegistry creates a registry reading manifests through store.
func NewRegistry(store *manifest.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    store,
		loaders:  DefaultLoaders(),
		listings: make(map[string]*Listing),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the manifest store the registry reads from.
func (r *Registry) Store() *manifest.Store { return r.store }

// Reset forgets every memoized listing and the manifests behind them.
func (r *Registry) Reset() {
	r.mu.Lock()
	clear(r.listings)
	r.mu.Unlock()
	r.store.Reset()
}

// Own returns the project's own commands, without groups.
func (l *Listing) Own() []*Command {
	return slices.DeleteFunc(slices.Clone(l.Commands), func(c *Command) bool { return c.Group })
}

// Groups returns the group commands standing for subprojects.
func (l *Listing) Groups() []*Command {
	return slices.DeleteFunc(slices.Clone(l.Commands), func(c *Command) bool { return !c.Group })
}

// List returns the commands of the project in projectDir.
// Module failures are reported as diagnostics; the error is only set when the
// project's own manifest cannot be read.
func (r *Registry) List(ctx context.Context, projectDir string) (*Listing, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", projectDir, err)
	}

	r.mu.Lock()
	cached, ok := r.listings[dir]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	listing, err := r.load(ctx, dir)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.listings[dir] = listing
	r.mu.Unlock()
	return listing, nil
}

func (r *Registry) load(ctx context.Context, dir string) (*Listing, error) {
	proj, err := project.Load(r.store, dir)
	if err != nil {
		return nil, err
	}
	prefix, err := manifest.Get(r.store, manifest.Prefix, dir)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Project: proj}

	modules, diags, err := r.modules(dir)
	if err != nil {
		return nil, err
	}
	listing.Diagnostics = append(listing.Diagnostics, diags...)

	var own []*Command
	seen := make(map[string]string)
	for _, module := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		decls, loadErr := loadModule(module, r.loaders[filepath.Ext(module)])
		if loadErr != nil {
			listing.Diagnostics = append(listing.Diagnostics, project.Diagnostic{
				Severity: project.SeverityError,
				Code:     CodeInvalidModule,
				Message:  "command module skipped",
				Path:     module,
				Cause:    loadErr,
			})
			continue
		}

		for _, d := range decls {
			name := prefix + d.Name
			if first, dup := seen[name]; dup {
				listing.Diagnostics = append(listing.Diagnostics, project.Diagnostic{
					Severity: project.SeverityWarning,
					Code:     CodeDuplicate,
					Message:  fmt.Sprintf("command %q is already declared in %s, this declaration is ignored", name, first),
					Path:     module,
				})
				continue
			}
			seen[name] = module
			own = append(own, &Command{
				Name:         name,
				DeclaredName: d.Name,
				FullName:     proj.Name + " " + name,
				Project:      proj.Name,
				ProjectDir:   dir,
				Module:       module,
				Description:  d.Description,
				Definition:   d.Definition,
			})
		}
	}

	groups, subDiags, err := r.groups(proj)
	if err != nil {
		return nil, err
	}
	listing.Diagnostics = append(listing.Diagnostics, subDiags...)

	for _, g := range groups {
		if module, clash := seen[g.Name]; clash {
			listing.Diagnostics = append(listing.Diagnostics, project.Diagnostic{
				Severity: project.SeverityWarning,
				Code:     CodeShadowedByGroup,
				Message:  fmt.Sprintf("command %q is shadowed by the subproject of the same name", g.Name),
				Path:     module,
			})
		}
	}

	byName := func(a, b *Command) int { return strings.Compare(a.Name, b.Name) }
	slices.SortStableFunc(own, byName)
	slices.SortStableFunc(groups, byName)
	listing.Commands = append(own, groups...)
	return listing, nil
}

// modules expands the command globs of the project in dir into loadable files, in
// pattern order and sorted within each pattern.
func (r *Registry) modules(dir string) ([]string, []project.Diagnostic, error) {
	globs, err := manifest.Get(r.store, manifest.Command, dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		modules []string
		diags   []project.Diagnostic
	)
	for _, pattern := range globs {
		matches, globErr := project.Glob(dir, pattern)
		if globErr != nil {
			diags = append(diags, project.Diagnostic{
				Severity: project.SeverityWarning,
				Code:     CodeInvalidGlob,
				Message:  fmt.Sprintf("invalid command pattern %q", pattern),
				Path:     manifest.Path(dir),
				Cause:    globErr,
			})
			continue
		}
		for _, m := range matches {
			if _, ok := r.loaders[filepath.Ext(m)]; !ok || slices.Contains(modules, m) {
				continue
			}
			modules = append(modules, m)
		}
	}
	return modules, diags, nil
}

func (r *Registry) groups(proj project.Project) ([]*Command, []project.Diagnostic, error) {
	subs, diags, err := project.Subprojects(r.store, proj.Dir)
	if err != nil {
		return nil, nil, err
	}

	groups := make([]*Command, 0, len(subs))
	for _, sub := range subs {
		description, descErr := manifest.Get(r.store, manifest.Description, sub.Dir)
		if descErr != nil {
			description = ""
		}
		groups = append(groups, &Command{
			Name:         sub.Name,
			DeclaredName: sub.Name,
			FullName:     proj.Name + " " + sub.Name,
			Project:      proj.Name,
			ProjectDir:   sub.Dir,
			Module:       manifest.Path(sub.Dir),
			Description:  description,
			Group:        true,
		})
	}
	return groups, diags, nil
}

// Lookup resolves path against the project in projectDir. The first segment is matched
// against subproject groups first, recursing into the subproject while segments remain,
// then against the project's own commands. It returns the command and the segments it
// did not consume, or a nil command when nothing matches. A group is returned as is when
// it is the last segment.
func (r *Registry) Lookup(ctx context.Context, path []string, projectDir string) (*Command, []string, error) {
	if len(path) == 0 {
		return nil, nil, nil
	}

	listing, err := r.List(ctx, projectDir)
	if err != nil {
		return nil, nil, err
	}

	head, rest := path[0], path[1:]
	for _, g := range listing.Groups() {
		if g.Name != head {
			continue
		}
		if len(rest) == 0 {
			return g, rest, nil
		}
		return r.Lookup(ctx, rest, g.ProjectDir)
	}

	for _, c := range listing.Own() {
		if c.Name == head {
			return c, rest, nil
		}
	}
	return nil, nil, nil
}

// Resolve finds the target of an invoke step issued by from. A single-segment target
// declared in the same module wins; otherwise the target is looked up from rootDir.
func (r *Registry) Resolve(ctx context.Context, from *Command, target []string, rootDir string) (*Command, []string, error) {
	if from != nil && len(target) > 0 {
		listing, err := r.List(ctx, from.ProjectDir)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range listing.Own() {
			if c.Module == from.Module && (c.DeclaredName == target[0] || c.Name == target[0]) {
				return c, target[1:], nil
			}
		}
	}
	return r.Lookup(ctx, target, rootDir)
}

// Check loads every project reachable from rootDir and returns every diagnostic found,
// including invoke steps whose target cannot be resolved and invoke cycles.
func (r *Registry) Check(ctx context.Context, rootDir string) ([]project.Diagnostic, error) {
	projects, diags, err := project.List(r.store, rootDir)
	if err != nil {
		return nil, err
	}

	invokes := dag.New()
	modules := make(map[string]string)

	for _, p := range projects {
		listing, listErr := r.List(ctx, p.Dir)
		if listErr != nil {
			diags = append(diags, project.Diagnostic{
				Severity: project.SeverityError,
				Code:     project.CodeUnreadableManifest,
				Message:  "project skipped",
				Path:     manifest.Path(p.Dir),
				Cause:    listErr,
			})
			continue
		}
		diags = append(diags, listing.Diagnostics...)

		for _, c := range listing.Own() {
			invokes.AddNode(c.FullName)
			modules[c.FullName] = c.Module
			for _, step := range c.Definition.Steps {
				if step.Invoke == "" {
					continue
				}
				var found *Command
				target, resolveErr := step.InvokeTarget()
				if resolveErr == nil {
					found, _, resolveErr = r.Resolve(ctx, c, target, rootDir)
				}
				if resolveErr != nil || found == nil {
					diags = append(diags, project.Diagnostic{
						Severity: project.SeverityError,
						Code:     CodeUnknownInvoke,
						Message:  fmt.Sprintf("command %q invokes unknown command %q", c.FullName, step.Invoke),
						Path:     c.Module,
						Cause:    resolveErr,
					})
					continue
				}
				invokes.AddEdge(c.FullName, found.FullName)
			}
		}
	}

	for _, cycle := range invokes.Cycles() {
		diags = append(diags, project.Diagnostic{
			Severity: project.SeverityError,
			Code:     CodeInvokeCycle,
			Message:  cycle.Error(),
			Path:     modules[cycle.Cycle[0]],
		})
	}
	return dedupe(diags), nil
}

// dedupe drops repeated diagnostics: a subproject listed by its parent and walked on
// its own reports the same problems twice.
func dedupe(diags []project.Diagnostic) []project.Diagnostic {
	seen := make(map[string]struct{}, len(diags))
	result := diags[:0]
	for _, d := range diags {
		key := d.Code + "\x00" + d.Path + "\x00" + d.Message
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, d)
	}
	return result
}
