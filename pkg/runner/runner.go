// Copyright (c) 2025, XPDEV LABS.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/xpdev-labs/xpdev/pkg/errors"
)

// Command describes a single process invocation.
type Command struct {
	// Name is the program to run, resolved through PATH.
	Name string
	// Args are the program arguments, not including the program name.
	Args []string
	// Dir is an optional working directory.
	Dir string
	// Stdin is optional data fed to the process on standard input.
	Stdin string
}

// Runner executes external commands on behalf of tool-specific
// collaborators such as the docker and kubectl clients.
type Runner interface {
	// Run executes the command with output streaming to the user's
	// terminal, failing on nonzero exit.
	Run(ctx context.Context, c Command) error

	// Output executes the command and returns its captured stdout.
	// On failure the returned error carries the captured stderr.
	Output(ctx context.Context, c Command) (string, error)

	// CombinedOutput executes the command, echoing output through to the
	// terminal while also capturing interleaved stdout and stderr.
	CombinedOutput(ctx context.Context, c Command) (string, error)
}

// Local runs commands as child processes of the current process.
type Local struct{}

// New creates a process runner.
func New() *Local {
	return &Local{}
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, c Command) error {
	cmd, err := l.build(ctx, c)
	if err != nil {
		return err
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return commandFailed(c, err, "")
	}

	return nil
}

// Output implements Runner.
func (l *Local) Output(ctx context.Context, c Command) (string, error) {
	cmd, err := l.build(ctx, c)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandFailed(c, err, stderr.String())
	}

	return stdout.String(), nil
}

// CombinedOutput implements Runner.
func (l *Local) CombinedOutput(ctx context.Context, c Command) (string, error) {
	cmd, err := l.build(ctx, c)
	if err != nil {
		return "", err
	}

	// Stdout and stderr are copied by separate goroutines inside exec, so
	// the shared capture buffer needs locking.
	capture := &syncWriter{}
	cmd.Stdout = io.MultiWriter(os.Stdout, capture)
	cmd.Stderr = io.MultiWriter(os.Stderr, capture)

	if err := cmd.Run(); err != nil {
		return capture.String(), commandFailed(c, err, "")
	}

	return capture.String(), nil
}

// build resolves the program and assembles an exec.Cmd from c.
func (l *Local) build(ctx context.Context, c Command) (*exec.Cmd, error) {
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeExternalCommand, err, "%s not found in PATH", c.Name)
	}

	slog.Debug("running command",
		slog.String("command", c.Name),
		slog.Any("args", c.Args),
	)

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	return cmd, nil
}

// commandFailed wraps a process failure with the invocation details and
// any captured stderr.
func commandFailed(c Command, cause error, stderr string) error {
	context := map[string]any{
		"command": c.Name,
		"args":    c.Args,
	}
	if s := strings.TrimSpace(stderr); s != "" {
		context["stderr"] = s
	}

	return errors.WrapWithContext(
		errors.ErrCodeExternalCommand,
		c.Name+" failed",
		cause,
		context,
	)
}

// syncWriter is a mutex-guarded buffer safe for the two concurrent copy
// goroutines exec uses for stdout and stderr.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
