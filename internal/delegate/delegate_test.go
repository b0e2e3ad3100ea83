// SPDX-License-Identifier: MPL-2.0

package delegate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"alfred-cli/internal/command"
	"alfred-cli/internal/config"
	"alfred-cli/internal/environ"
	"alfred-cli/internal/manifest"
	"alfred-cli/internal/process"
	"alfred-cli/internal/session"
	"alfred-cli/internal/testutil"
	"alfred-cli/internal/venv"
	"alfred-cli/pkg/platform"
	"alfred-cli/pkg/types"
)

type fakeSpawner struct {
	requests []Request
	result   *process.Result
	err      error
}

func (f *fakeSpawner) Spawn(_ context.Context, req Request) (*process.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &process.Result{}, nil
	}
	return f.result, nil
}

// newProduct creates a root project with a product1 subproject declaring venv = ".venv".
func newProduct(t *testing.T) (root, product, target string) {
	t.Helper()
	root = t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"product1\"]\n")
	product = filepath.Join(root, "product1")
	testutil.WriteManifest(t, product, "[alfred]\nname = \"product1\"\n[alfred.project]\nvenv = \".venv\"\n")
	target = testutil.MakeVenv(t, product, ".venv")
	return root, product, target
}

func newDelegator(t *testing.T, env environ.Env, dir string, spawner Spawner) (*Delegator, *session.Session) {
	t.Helper()
	_, logger := testutil.NewLogRecorder()
	s := session.New(session.WithDir(dir), session.WithEnv(env))
	s.SetMode(session.ModeRunCommand)
	return &Delegator{
		Session:    s,
		Finder:     venv.NewFinder(manifest.NewStore(manifest.WithLogger(logger)), logger),
		Policy:     Fixed(false),
		Spawner:    spawner,
		Executable: func() (string, error) { return "/usr/local/bin/alfred", nil },
		Stderr:     &bytes.Buffer{},
		Logger:     logger,
	}, s
}

func TestShouldDelegate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root, product, target := newProduct(t)

	t.Run("outside a command", func(t *testing.T) {
		t.Parallel()
		d, _ := newDelegator(t, environ.FromList(nil), root, &fakeSpawner{})
		if _, ok := d.ShouldDelegate(ctx); ok {
			t.Error("no command is running, nothing to delegate")
		}
	})

	t.Run("project without runtime", func(t *testing.T) {
		t.Parallel()
		d, s := newDelegator(t, environ.FromList(nil), root, &fakeSpawner{})
		s.PushRoot(&command.Command{Name: "lint", ProjectDir: root})
		if got, ok := d.ShouldDelegate(ctx); ok || got != "" {
			t.Errorf("ShouldDelegate() = %q, %v; want no runtime", got, ok)
		}
	})

	t.Run("different runtime active", func(t *testing.T) {
		t.Parallel()
		d, s := newDelegator(t, environ.FromList([]string{"VIRTUAL_ENV=/opt/other"}), root, &fakeSpawner{})
		s.PushRoot(&command.Command{Name: "build", ProjectDir: product})
		got, ok := d.ShouldDelegate(ctx)
		if !ok || !venv.Same(got, target) {
			t.Errorf("ShouldDelegate() = %q, %v; want %q, true", got, ok, target)
		}
	})

	t.Run("not running a command", func(t *testing.T) {
		t.Parallel()
		for _, mode := range []session.Mode{session.ModeUnknown, session.ModeListCommands} {
			d, s := newDelegator(t, environ.FromList([]string{"VIRTUAL_ENV=/opt/other"}), root, &fakeSpawner{})
			s.SetMode(mode)
			s.PushRoot(&command.Command{Name: "build", ProjectDir: product})
			if got, ok := d.ShouldDelegate(ctx); ok || got != "" {
				t.Errorf("mode %s: ShouldDelegate() = %q, %v; want no delegation", mode, got, ok)
			}
		}
	})

	t.Run("target already active", func(t *testing.T) {
		t.Parallel()
		d, s := newDelegator(t, environ.FromList([]string{"VIRTUAL_ENV=" + target}), root, &fakeSpawner{})
		s.PushRoot(&command.Command{Name: "build", ProjectDir: product})
		if _, ok := d.ShouldDelegate(ctx); ok {
			t.Error("the marker equals the target, the command must run in-process")
		}
	})
}

func TestDelegate_ChildUnderRuntime(t *testing.T) {
	t.Parallel()

	root, product, target := newProduct(t)
	installed := filepath.Join(platform.BinDir(target), platform.ExecutableName(ProgramName))
	testutil.MustWriteFile(t, installed, "")

	spawner := &fakeSpawner{result: &process.Result{ExitCode: 3}}
	d, s := newDelegator(t, environ.FromList([]string{"PATH=/usr/bin", "PYTHONPATH=/lib/py"}), root, spawner)
	s.SetFlag("--debug", true)
	s.PushRoot(&command.Command{Name: "build", ProjectDir: product})

	got, ok := d.ShouldDelegate(context.Background())
	if !ok {
		t.Fatal("expected delegation")
	}
	code, err := d.Delegate(context.Background(), got, []string{"product1", "build", "--fast"})
	if err != nil {
		t.Fatalf("Delegate() error = %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want the child's 3", code)
	}

	if len(spawner.requests) != 1 {
		t.Fatalf("spawned %d children, want 1", len(spawner.requests))
	}
	req := spawner.requests[0]
	if !strings.HasPrefix(req.Program, filepath.Join(product, ".venv")) {
		t.Errorf("child program %q does not lie under product1/.venv", req.Program)
	}
	if want := []string{"--debug", "product1", "build", "--fast"}; !slices.Equal(req.Args, want) {
		t.Errorf("child args = %v, want %v", req.Args, want)
	}
	if req.Dir != root {
		t.Errorf("child dir = %q, want the invocation dir %q", req.Dir, root)
	}

	env := environ.FromList(req.Env)
	bin := platform.BinDir(got)
	if env.Get(environ.VarVirtualEnv) != got {
		t.Errorf("VIRTUAL_ENV = %q, want %q", env.Get(environ.VarVirtualEnv), got)
	}
	if want := environ.PrependList("/usr/bin", bin); env.Get(environ.VarPath) != want {
		t.Errorf("PATH = %q, want %q", env.Get(environ.VarPath), want)
	}
	if want := environ.PrependList("/lib/py", bin); env.Get(environ.VarPythonPath) != want {
		t.Errorf("PYTHONPATH = %q, want %q", env.Get(environ.VarPythonPath), want)
	}

	if s.Env().Get(environ.VarVirtualEnv) != "" {
		t.Error("delegation must not change the parent environment")
	}
}

func TestDelegate_FallsBackToRunningExecutable(t *testing.T) {
	t.Parallel()

	root, product, target := newProduct(t)
	spawner := &fakeSpawner{}
	d, s := newDelegator(t, environ.FromList(nil), root, spawner)
	s.PushRoot(&command.Command{Name: "build", ProjectDir: product})

	if _, err := d.Delegate(context.Background(), target, nil); err != nil {
		t.Fatal(err)
	}
	if spawner.requests[0].Program != "/usr/local/bin/alfred" {
		t.Errorf("program = %q, want the running executable", spawner.requests[0].Program)
	}
}

func TestDelegate_CaptureReplaysStderr(t *testing.T) {
	t.Parallel()

	root, product, target := newProduct(t)
	spawner := &fakeSpawner{result: &process.Result{ExitCode: 2, Stderr: "boom\n"}}
	d, s := newDelegator(t, environ.FromList(nil), root, spawner)
	s.PushRoot(&command.Command{Name: "build", ProjectDir: product})
	stderr := &bytes.Buffer{}
	d.Stderr = stderr

	code, err := d.Delegate(context.Background(), target, []string{"build"})
	if err != nil {
		t.Fatal(err)
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if stderr.String() != "boom\n" {
		t.Errorf("replayed stderr = %q", stderr.String())
	}
	if spawner.requests[0].Stream {
		t.Error("Fixed(false) must capture")
	}
}

func TestDelegate_SpawnFailure(t *testing.T) {
	t.Parallel()

	root, product, target := newProduct(t)
	d, s := newDelegator(t, environ.FromList(nil), root, &fakeSpawner{err: errors.New("exec format error")})
	s.PushRoot(&command.Command{Name: "build", ProjectDir: product})

	code, err := d.Delegate(context.Background(), target, nil)
	if !errors.Is(err, ErrDelegation) {
		t.Fatalf("expected ErrDelegation, got %v", err)
	}
	if code != types.ExitFailure {
		t.Errorf("exit code = %d, want %d", code, types.ExitFailure)
	}
}

func TestDelegation_NeverNests(t *testing.T) {
	t.Parallel()

	root, product, _ := newProduct(t)
	spawner := &fakeSpawner{}
	ctx := context.Background()
	cmd := &command.Command{Name: "build", ProjectDir: product}

	parent, ps := newDelegator(t, environ.FromList([]string{"PATH=/usr/bin"}), root, spawner)
	ps.PushRoot(cmd)
	target, ok := parent.ShouldDelegate(ctx)
	if !ok {
		t.Fatal("parent should delegate")
	}
	if _, err := parent.Delegate(ctx, target, []string{"product1", "build"}); err != nil {
		t.Fatal(err)
	}

	// The child process starts from the environment it was given.
	child, cs := newDelegator(t, environ.FromList(spawner.requests[0].Env), root, spawner)
	cs.PushRoot(cmd)
	if _, ok := child.ShouldDelegate(ctx); ok {
		t.Fatal("child must run in-process")
	}
	if len(spawner.requests) != 1 {
		t.Errorf("spawned %d children end-to-end, want exactly 1", len(spawner.requests))
	}
}

func TestHostPolicy(t *testing.T) {
	t.Parallel()

	yes := func() bool { return true }
	no := func() bool { return false }

	tests := []struct {
		name   string
		policy HostPolicy
		want   bool
	}{
		{"stream", HostPolicy{Mode: config.OutputStream, IsTerminal: no}, true},
		{"capture", HostPolicy{Mode: config.OutputCapture, IsTerminal: yes}, false},
		{"auto on terminal", HostPolicy{Mode: config.OutputAuto, IsTerminal: yes}, true},
		{"auto off terminal", HostPolicy{Mode: config.OutputAuto, IsTerminal: no}, false},
	}
	for _, tt := range tests {
		if got := tt.policy.Stream(); got != tt.want {
			t.Errorf("%s: Stream() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProcessSpawner(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == platform.Windows {
		t.Skip("uses a POSIX shell")
	}

	env := environ.FromOS().With(map[string]string{"ALFRED_MARKER": "marker"}).List()

	t.Run("capture", func(t *testing.T) {
		t.Parallel()
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		s := &ProcessSpawner{Stdout: stdout, Stderr: stderr}
		result, err := s.Spawn(context.Background(), Request{
			Program: "sh",
			Args:    []string{"-c", `echo "$ALFRED_MARKER"; echo oops >&2; exit 4`},
			Env:     env,
			Dir:     t.TempDir(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.ExitCode != 4 || result.Stderr != "oops\n" {
			t.Errorf("result = %+v", result)
		}
		if stdout.String() != "marker\n" {
			t.Errorf("live stdout = %q", stdout.String())
		}
		if stderr.Len() != 0 {
			t.Errorf("captured stderr must not be echoed live, got %q", stderr.String())
		}
	})

	t.Run("capture forwards stdin", func(t *testing.T) {
		t.Parallel()
		stdout := &bytes.Buffer{}
		s := &ProcessSpawner{Stdin: strings.NewReader("piped-data\n"), Stdout: stdout, Stderr: &bytes.Buffer{}}
		result, err := s.Spawn(context.Background(), Request{
			Program: "cat",
			Env:     env,
			Dir:     t.TempDir(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.ExitCode != 0 || result.Stdout != "piped-data\n" {
			t.Errorf("result = %+v", result)
		}
		if stdout.String() != "piped-data\n" {
			t.Errorf("live stdout = %q", stdout.String())
		}
	})

	t.Run("stream", func(t *testing.T) {
		t.Parallel()
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		s := &ProcessSpawner{Stdin: strings.NewReader("in\n"), Stdout: stdout, Stderr: stderr}
		result, err := s.Spawn(context.Background(), Request{
			Program: "sh",
			Args:    []string{"-c", `read line; echo "got $line"; echo err >&2`},
			Env:     env,
			Dir:     os.TempDir(),
			Stream:  true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.ExitCode != 0 || stdout.String() != "got in\n" || stderr.String() != "err\n" {
			t.Errorf("result = %+v, stdout = %q, stderr = %q", result, stdout.String(), stderr.String())
		}
	})
}
