// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"alfred-cli/internal/command"
	"alfred-cli/internal/project"
	"alfred-cli/pkg/types"
)

// check reports every problem of the project tree rooted at rootDir. It fails when
// at least one diagnostic is an error.
func (inv *invocation) check(ctx context.Context, registry *command.Registry, rootDir string) error {
	diags, err := registry.Check(ctx, rootDir)
	if err != nil {
		return manifestError(err, rootDir)
	}

	if len(diags) == 0 {
		fmt.Fprintln(inv.app.stdout, inv.theme.Success.Render("✓")+" no problems found")
		return nil
	}

	renderDiagnostics(inv.app.stdout, inv.theme, diags)
	errs := 0
	for _, d := range diags {
		if d.Severity == project.SeverityError {
			errs++
		}
	}
	fmt.Fprintf(inv.app.stdout, "\n%d problem(s), %d error(s)\n", len(diags), errs)
	if errs > 0 {
		return &ExitError{Code: types.ExitFailure}
	}
	return nil
}
