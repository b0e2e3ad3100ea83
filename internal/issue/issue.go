// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	NotInitializedId Id = iota + 1
	AlreadyInitializedId
	ManifestParseErrorId
	InvalidModuleId
	CommandNotFoundId
	ShellOperationId
	ProgramNotFoundId
	InvalidVenvId
	DelegationFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the markdown through glamour using the given style
// ("dark", "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- " + string(link) + "\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- " + string(link) + "\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	notInitializedIssue = &Issue{
		id: NotInitializedId,
		mdMsg: `
# This is not an alfred project!

No ` + "`.alfred.toml`" + ` was found in the current directory or any of its parents.

## Things you can try:
- Create a manifest and a sample command here:
~~~
$ alfred init
~~~

- Or move into a directory that belongs to a project:
~~~
$ cd /path/to/your/project
$ alfred
~~~`,
	}

	alreadyInitializedIssue = &Issue{
		id: AlreadyInitializedId,
		mdMsg: `
# Project already initialized

A ` + "`.alfred.toml`" + ` already exists here. ` + "`alfred init`" + ` never overwrites an existing manifest.

## Things you can try:
- Edit the existing manifest by hand
- Remove it first if you really want a fresh one`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to read .alfred.toml!

The manifest is not valid TOML.

## Example manifest:
~~~toml
[alfred]
name = "backend"
subprojects = ["services/*"]

[alfred.project]
command = ["alfred/*.toml"]
venv = ".venv"
~~~`,
	}

	invalidModuleIssue = &Issue{
		id: InvalidModuleId,
		mdMsg: `
# A command module could not be loaded

The commands from that module are missing from the list. Every other module still works.

## Things you can try:
- List every invalid module of the project tree with its line:
~~~
$ alfred --check
~~~

## Example module (TOML):
~~~toml
[[commands]]
name = "lint"
description = "lint the code"
run = ["ruff check ."]
~~~`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

No command or subproject with that name exists in this project.

## Things you can try:
- List all available commands:
~~~
$ alfred
~~~

- List the commands of a subproject:
~~~
$ alfred <subproject>
~~~`,
	}

	shellOperationIssue = &Issue{
		id: ShellOperationId,
		mdMsg: `
# Shell operations are not supported in run steps

A ` + "`run`" + ` step starts exactly one program. Pipes, redirections, ` + "`&&`" + ` and ` + "`;`" + ` are rejected before anything starts.

## Things you can try:
- Move the pipeline into a ` + "`script`" + ` step:
~~~toml
[[commands]]
name = "count"
[[commands.steps]]
script = "ls | wc -l"
~~~

- Quoting does not help: an argument that is exactly an operator, such as ` + "`'|'`" + `, is rejected too.
  Pass it from a ` + "`script`" + ` step instead.`,
	}

	programNotFoundIssue = &Issue{
		id: ProgramNotFoundId,
		mdMsg: `
# Program not found

None of the candidate program names could be found on PATH.

## Things you can try:
- Check the program is installed in the project virtualenv
- Add its directory through ` + "`path_extends`" + ` in the manifest`,
	}

	invalidVenvIssue = &Issue{
		id: InvalidVenvId,
		mdMsg: `
# Invalid virtualenv

The configured virtualenv has no executable directory (` + "`bin`" + ` or ` + "`Scripts`" + `).

## Things you can try:
- Recreate it:
~~~
$ python -m venv .venv
~~~

- Or fix the ` + "`venv`" + ` entry in ` + "`.alfred.toml`",
	}

	delegationFailedIssue = &Issue{
		id: DelegationFailedId,
		mdMsg: `
# Could not re-run inside the project virtualenv

alfred found a virtualenv for this project but failed to start itself inside it.

## Things you can try:
- Install alfred in the virtualenv so it can be run from its bin directory
- Run with ` + "`--debug`" + ` to see the exact command line`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The user configuration file could not be read.

## Example configuration:
~~~toml
debug = false

[delegation]
output = "auto" # auto, stream or capture

[ui]
color = true
~~~

Every key can also be set through the environment, e.g. ` + "`ALFRED_DELEGATION_OUTPUT=stream`" + `.`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

A file or program needed by the command is not accessible.

## Things you can try:
- Check the file permissions:
~~~
$ ls -la <file>
~~~

- Make a script executable:
~~~
$ chmod +x <script>
~~~`,
	}

	issues = map[Id]*Issue{
		notInitializedIssue.Id():     notInitializedIssue,
		alreadyInitializedIssue.Id(): alreadyInitializedIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		invalidModuleIssue.Id():      invalidModuleIssue,
		commandNotFoundIssue.Id():    commandNotFoundIssue,
		shellOperationIssue.Id():     shellOperationIssue,
		programNotFoundIssue.Id():    programNotFoundIssue,
		invalidVenvIssue.Id():        invalidVenvIssue,
		delegationFailedIssue.Id():   delegationFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

// Values returns every catalog entry sorted by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
