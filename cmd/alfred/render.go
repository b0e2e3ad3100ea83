// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"alfred-cli/internal/command"
	"alfred-cli/internal/issue"
	"alfred-cli/internal/project"
)

// renderListing writes the commands of listing, own commands first then subprojects.
func renderListing(w io.Writer, th theme, listing *command.Listing, description string, path []string) {
	header := th.Title.Render(listing.Project.Name)
	if description != "" {
		header += " " + th.Subtitle.Render(description)
	}
	fmt.Fprintln(w, header)

	usage := strings.Join(append([]string{"alfred"}, path...), " ")
	fmt.Fprintf(w, "\nUsage: %s <command> [args...]\n", usage)

	if len(listing.Commands) == 0 {
		fmt.Fprintln(w, "\nNo commands found. Declare some in a module under alfred/.")
		return
	}
	renderSection(w, th, "Commands", listing.Own())
	renderSection(w, th, "Subprojects", listing.Groups())
}

func renderSection(w io.Writer, th theme, heading string, cmds []*command.Command) {
	if len(cmds) == 0 {
		return
	}
	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name))
	}

	fmt.Fprintf(w, "\n%s\n", th.Title.Render(heading+":"))
	for _, c := range cmds {
		if c.Description == "" {
			fmt.Fprintf(w, "  %s\n", th.Cmd.Render(c.Name))
			continue
		}
		name := th.Cmd.Render(fmt.Sprintf("%-*s", width, c.Name))
		fmt.Fprintf(w, "  %s  %s\n", name, th.Subtitle.Render(c.Description))
	}
}

// renderDiagnostics writes one line per diagnostic.
func renderDiagnostics(w io.Writer, th theme, diags []project.Diagnostic) {
	for _, d := range diags {
		style := th.Warning
		if d.Severity == project.SeverityError {
			style = th.Error
		}
		fmt.Fprintln(w, style.Render(string(d.Severity)+":")+" "+strings.TrimPrefix(d.String(), string(d.Severity)+": "))
	}
}

// renderError writes err to stderr, followed by its catalog entry when it has one.
func (inv *invocation) renderError(err error) {
	w := inv.app.stderr

	msg := err.Error()
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		msg = ae.Format(inv.flags.debug)
	}
	fmt.Fprintln(w, inv.theme.Error.Render("Error:")+" "+msg)

	id := issue.IDOf(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(inv.glamourStyle())
	if renderErr != nil {
		inv.log().Warn("failed to render issue", "id", int(id), "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

func (inv *invocation) glamourStyle() string {
	if !isTerminal(inv.app.stderr) {
		return "notty"
	}
	return inv.cfg.UI.GlamourStyle()
}
