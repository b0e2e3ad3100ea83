// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"alfred-cli/internal/config"
	"alfred-cli/internal/delegate"
	"alfred-cli/internal/environ"
	"alfred-cli/internal/manifest"
	"alfred-cli/internal/process"
	"alfred-cli/internal/testutil"
	"alfred-cli/pkg/platform"
	"alfred-cli/pkg/types"
)

const greetModule = `[[commands]]
name = "greet"
description = "Say hello"
[[commands.steps]]
script = 'echo "hello $1"'

[[commands]]
name = "fail"
[[commands.steps]]
script = "exit 5"
`

type (
	staticConfig struct {
		cfg *config.Config
	}

	recordingSpawner struct {
		requests []delegate.Request
		code     types.ExitCode
	}

	appResult struct {
		code   types.ExitCode
		stdout string
		stderr string
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.cfg == nil {
		return config.DefaultConfig(), nil
	}
	return s.cfg, nil
}

func (r *recordingSpawner) Spawn(_ context.Context, req delegate.Request) (*process.Result, error) {
	r.requests = append(r.requests, req)
	return &process.Result{ExitCode: r.code}, nil
}

// runApp runs alfred with args from dir. The spawner may be nil.
func runApp(t *testing.T, dir string, spawner delegate.Spawner, args ...string) appResult {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := NewApp(Dependencies{
		Config:     staticConfig{},
		Spawner:    spawner,
		Getwd:      func() (string, error) { return dir, nil },
		Executable: func() (string, error) { return "/usr/local/bin/alfred", nil },
		IsTerminal: func() bool { return false },
		Environ:    []string{"PATH=" + os.Getenv("PATH")},
		Stdin:      strings.NewReader(""),
		Stdout:     stdout,
		Stderr:     stderr,
	})
	code := app.Run(context.Background(), args)
	return appResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, "[alfred]\nname = \"demo\"\ndescription = \"demo project\"\n")
	testutil.WriteModule(t, dir, "alfred/cmd.toml", greetModule)
	return dir
}

func TestApp_ListsCommands(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	res := runApp(t, dir, nil)
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	for _, want := range []string{"demo", "demo project", "greet", "Say hello", "fail"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("listing misses %q:\n%s", want, res.stdout)
		}
	}
}

func TestApp_RunsCommand(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	res := runApp(t, dir, nil, "greet", "--world")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if res.stdout != "hello --world\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestApp_PropagatesExitCode(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	res := runApp(t, dir, nil, "fail")
	if res.code != 5 {
		t.Fatalf("exit code = %d, want 5", res.code)
	}
	if res.stderr != "" {
		t.Errorf("a failing command should not add an error message, got %q", res.stderr)
	}
}

func TestApp_NotInitialized(t *testing.T) {
	t.Parallel()

	res := runApp(t, t.TempDir(), nil, "greet")
	if res.code != types.ExitNotInitialized {
		t.Fatalf("exit code = %d, want %d", res.code, types.ExitNotInitialized)
	}
	if !strings.Contains(res.stderr, "alfred init") {
		t.Errorf("stderr should suggest alfred init:\n%s", res.stderr)
	}
}

func TestApp_UnknownCommand(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	res := runApp(t, dir, nil, "nope")
	if res.code != types.ExitFailure {
		t.Fatalf("exit code = %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, `unknown command "nope"`) {
		t.Errorf("stderr = %q", res.stderr)
	}
	if !strings.Contains(res.stderr, "Command not found") {
		t.Errorf("stderr should include the catalog entry:\n%s", res.stderr)
	}
}

func TestApp_BrokenModuleIsReportedNotFatal(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	testutil.WriteModule(t, dir, "alfred/broken.toml", "[[commands]\nname = ")

	res := runApp(t, dir, nil, "greet", "x")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stderr, "broken.toml") {
		t.Errorf("stderr should name the broken module:\n%s", res.stderr)
	}

	check := runApp(t, dir, nil, "--check")
	if check.code != types.ExitFailure {
		t.Errorf("--check exit code = %d, want 1", check.code)
	}
	if !strings.Contains(check.stdout, "broken.toml") {
		t.Errorf("--check output should name the broken module:\n%s", check.stdout)
	}
}

func TestApp_CheckCleanProject(t *testing.T) {
	t.Parallel()

	res := runApp(t, newProject(t), nil, "--check")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stdout = %q", res.code, res.stdout)
	}
	if !strings.Contains(res.stdout, "no problems found") {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestApp_DelegatesToSubprojectVenv(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"product1\"]\n")
	product := filepath.Join(root, "product1")
	testutil.WriteManifest(t, product, "[alfred]\nname = \"product1\"\n[alfred.project]\nvenv = \".venv\"\n")
	testutil.WriteModule(t, product, "alfred/cmd.toml", greetModule)
	target := testutil.MakeVenv(t, product, ".venv")

	spawner := &recordingSpawner{code: 3}
	res := runApp(t, root, spawner, "-d", "product1", "greet", "x")
	if res.code != 3 {
		t.Fatalf("exit code = %d, want the child's 3; stderr = %q", res.code, res.stderr)
	}
	if len(spawner.requests) != 1 {
		t.Fatalf("spawned %d children, want 1", len(spawner.requests))
	}

	req := spawner.requests[0]
	if req.Program != "/usr/local/bin/alfred" {
		t.Errorf("program = %q", req.Program)
	}
	if want := []string{"--debug", "product1", "greet", "x"}; !slices.Equal(req.Args, want) {
		t.Errorf("args = %q, want %q", req.Args, want)
	}
	if got := environ.FromList(req.Env).Get(environ.VarVirtualEnv); got != target {
		t.Errorf("VIRTUAL_ENV = %q, want %q", got, target)
	}
	if req.Stream {
		t.Error("a non-terminal host should capture in auto mode")
	}
}

func TestApp_ListsSubproject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"product1\"]\n")
	product := filepath.Join(root, "product1")
	testutil.WriteManifest(t, product, "[alfred]\nname = \"product1\"\n")
	testutil.WriteModule(t, product, "alfred/cmd.toml", greetModule)

	res := runApp(t, root, nil)
	if !strings.Contains(res.stdout, "Subprojects:") || !strings.Contains(res.stdout, "product1") {
		t.Errorf("root listing should show the subproject:\n%s", res.stdout)
	}

	res = runApp(t, root, nil, "product1")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "alfred product1 <command>") || !strings.Contains(res.stdout, "greet") {
		t.Errorf("subproject listing:\n%s", res.stdout)
	}

	res = runApp(t, root, nil, "--list", "product1", "greet")
	if res.code != types.ExitFailure {
		t.Errorf("--list on a command: exit code = %d, want 1", res.code)
	}
}

func TestApp_Init(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res := runApp(t, dir, nil, "init", "--name", "shop")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !manifest.Exists(dir) {
		t.Fatal("manifest was not created")
	}
	if _, err := os.Stat(filepath.Join(dir, "alfred", "cmd.toml")); err != nil {
		t.Fatalf("sample module missing: %v", err)
	}

	if runtime.GOOS != platform.Windows {
		res = runApp(t, dir, nil, "hello")
		if res.code != types.ExitSuccess || res.stdout != "hello from alfred\n" {
			t.Errorf("sample command: exit code %d, stdout %q", res.code, res.stdout)
		}
	}

	res = runApp(t, dir, nil, "init")
	if res.code != types.ExitFailure {
		t.Fatalf("second init exit code = %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "already initialized") {
		t.Errorf("stderr = %q", res.stderr)
	}
}
