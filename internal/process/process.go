// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"alfred-cli/pkg/types"
)

// Result is the outcome of a finished child process.
type Result struct {
	// ExitCode is the child's exit status. A non-zero value is not an error of Run.
	ExitCode types.ExitCode
	// Stdout holds everything the child wrote to standard output.
	Stdout string
	// Stderr holds everything the child wrote to standard error.
	Stderr string
}

// Success reports whether the child exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess()
}

// RunText parses text with Parse and runs the resulting program.
// No child is started when parsing fails.
func RunText(ctx context.Context, text string, opts ...Option) (*Result, error) {
	argv, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Run(ctx, argv[0], argv[1:], opts...)
}

// Run starts program with args and blocks until it exits and both of its output
// streams are drained. Errors are returned only when the child cannot be started
// or its output cannot be read.
func Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	path, err := Lookup([]string{program}, opts...)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = o.dir
	cmd.Env = o.env
	cmd.Stdin = o.stdin

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of %s: %w", program, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr of %s: %w", program, err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", program, err)
	}

	outSink, errSink := o.stdoutSink(), o.stderrSink()
	if outSink != nil && outSink == errSink {
		shared := &lockedWriter{w: outSink}
		outSink, errSink = shared, shared
	}

	var stdout, stderr strings.Builder
	var g errgroup.Group
	g.Go(func() error { return drain(stdoutPipe, &stdout, outSink) })
	g.Go(func() error { return drain(stderrPipe, &stderr, errSink) })

	// Both readers must hit EOF before Wait closes the pipes.
	readErr := g.Wait()
	waitErr := cmd.Wait()

	result := &Result{
		ExitCode: exitCodeOf(waitErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if readErr != nil {
		return result, fmt.Errorf("failed to read output of %s: %w", program, readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("failed to wait for %s: %w", program, waitErr)
		}
	}
	return result, nil
}

// drain copies r line by line into buf and, when sink is set, echoes each line as it arrives.
// Echo failures never stop the drain; the child would block on a full pipe otherwise.
func drain(r io.Reader, buf *strings.Builder, sink io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			buf.WriteString(line)
			if sink != nil {
				_, _ = io.WriteString(sink, line)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() != nil {
			return types.ExitFailure
		}
		return code
	}
	return types.ExitFailure
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Attach runs program with args connected directly to the configured streams, without
// capturing anything. When the streams are files, such as the defaults, the child
// inherits them and sees the same terminal as this process.
func Attach(ctx context.Context, program string, args []string, opts ...Option) (types.ExitCode, error) {
	o := newOptions(opts)

	path, err := Lookup([]string{program}, opts...)
	if err != nil {
		return types.ExitFailure, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = o.dir
	cmd.Env = o.env
	cmd.Stdin = o.stdin
	cmd.Stdout = o.stdoutSink()
	cmd.Stderr = o.stderrSink()

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return types.ExitFailure, fmt.Errorf("failed to run %s: %w", program, err)
	}
	return exitCodeOf(err), nil
}
