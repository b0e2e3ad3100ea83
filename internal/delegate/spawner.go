// SPDX-License-Identifier: MPL-2.0

package delegate

import (
	"context"
	"io"
	"os"

	"alfred-cli/internal/process"
)

type (
	// Request describes one child invocation of alfred.
	Request struct {
		Program string
		Args    []string
		// Env is the complete child environment as KEY=VALUE entries.
		Env []string
		Dir string
		// Stream connects the child to this process's streams instead of capturing
		// its error output.
		Stream bool
	}

	// Spawner starts the child described by a Request and waits for it.
	Spawner interface {
		Spawn(ctx context.Context, req Request) (*process.Result, error)
	}

	// ProcessSpawner spawns children with the process package.
	ProcessSpawner struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// Spawn runs req. In stream mode the child inherits the streams and the result holds
// only its exit code. In capture mode stdout is echoed live while stderr is kept in
// the result for the caller to replay.
func (s *ProcessSpawner) Spawn(ctx context.Context, req Request) (*process.Result, error) {
	opts := []process.Option{
		process.Dir(req.Dir),
		process.Env(req.Env),
		process.Stdin(s.stdin()),
		process.Stdout(s.stdout()),
		process.Stderr(s.stderr()),
	}

	if req.Stream {
		code, err := process.Attach(ctx, req.Program, req.Args, opts...)
		if err != nil {
			return nil, err
		}
		return &process.Result{ExitCode: code}, nil
	}

	return process.Run(ctx, req.Program, req.Args, append(opts, process.QuietStderr())...)
}

func (s *ProcessSpawner) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s *ProcessSpawner) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

func (s *ProcessSpawner) stderr() io.Writer {
	if s.Stderr != nil {
		return s.Stderr
	}
	return os.Stderr
}
