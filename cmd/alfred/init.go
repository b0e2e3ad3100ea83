// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alfred-cli/internal/issue"
	"alfred-cli/internal/manifest"
)

// sampleModule is the command module written next to a new manifest.
const sampleModule = `[[commands]]
name = "hello"
description = "Print a greeting"
run = ["echo hello from alfred"]
`

type initOptions struct {
	name string
	venv string
}

func newInitCommand(inv *invocation) *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new alfred project",
		Long: `Create .alfred.toml and a sample command module in dir (default: the
current directory). An existing manifest is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := inv.app.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			if len(args) > 0 {
				if filepath.IsAbs(args[0]) {
					dir = args[0]
				} else {
					dir = filepath.Join(dir, args[0])
				}
			}
			return inv.runInit(dir, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "project name (default is the directory name)")
	cmd.Flags().StringVar(&opts.venv, "venv", "", "virtualenv directory of the project, relative to it")
	return cmd
}

func (inv *invocation) runInit(dir string, opts initOptions) error {
	doc := manifest.NewDocument()
	doc.Alfred.Name = opts.name
	doc.Alfred.Project.Venv = opts.venv

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path, err := manifest.Create(dir, doc)
	if err != nil {
		ec := issue.NewErrorContext().WithOperation("initialize project").WithResource(dir).Wrap(err)
		if errors.Is(err, manifest.ErrAlreadyInitialized) {
			ec.WithIssue(issue.AlreadyInitializedId)
		}
		return ec.BuildError()
	}

	out := inv.app.stdout
	fmt.Fprintf(out, "%s Created %s\n", inv.theme.Success.Render("✓"), path)

	module := filepath.Join(dir, "alfred", "cmd.toml")
	created, err := writeNew(module, sampleModule)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "%s Created %s\n", inv.theme.Success.Render("✓"), module)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, inv.theme.Subtitle.Render("Next steps:"))
	fmt.Fprintln(out, "  1. Declare your commands in a module under alfred/")
	fmt.Fprintln(out, "  2. Run 'alfred' to see available commands")
	fmt.Fprintln(out, "  3. Run 'alfred <command>' to execute a command")
	return nil
}

// writeNew writes content to path unless the file already exists.
func writeNew(path, content string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err = f.WriteString(content); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, f.Close()
}
