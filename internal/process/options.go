// SPDX-License-Identifier: MPL-2.0

package process

import (
	"io"
	"os"
)

type (
	// Option configures a single Run, RunText or Lookup call.
	Option func(*options)

	options struct {
		dir         string
		env         []string
		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
		quietStdout bool
		quietStderr bool
	}
)

func newOptions(opts []Option) *options {
	o := &options{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dir sets the working directory of the child and the base of relative program paths.
func Dir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// Env sets the complete environment of the child as KEY=VALUE entries.
// Without it the child inherits the environment of this process.
func Env(env []string) Option {
	return func(o *options) { o.env = env }
}

// Stdin connects the child's standard input. The default is no input.
func Stdin(r io.Reader) Option {
	return func(o *options) { o.stdin = r }
}

// Stdout sets where the child's output is echoed while it runs.
func Stdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// Stderr sets where the child's error output is echoed while it runs.
func Stderr(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// Quiet captures both streams without echoing them.
func Quiet() Option {
	return func(o *options) {
		o.quietStdout = true
		o.quietStderr = true
	}
}

// QuietStdout captures standard output without echoing it.
func QuietStdout() Option {
	return func(o *options) { o.quietStdout = true }
}

// QuietStderr captures standard error without echoing it.
func QuietStderr() Option {
	return func(o *options) { o.quietStderr = true }
}

func (o *options) stdoutSink() io.Writer {
	if o.quietStdout {
		return nil
	}
	return o.stdout
}

func (o *options) stderrSink() io.Writer {
	if o.quietStderr {
		return nil
	}
	return o.stderr
}

func (o *options) environ() []string {
	if o.env != nil {
		return o.env
	}
	return os.Environ()
}

func (o *options) workDir() string {
	if o.dir != "" {
		return o.dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
