// Package execx runs host commands behind an interface so the network and
// permission code can be unit-tested without touching the host.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long a cancelled command may keep its output pipes
// open, e.g. through a child process that outlived it.
const waitDelay = 500 * time.Millisecond

// ErrCommandFailed is wrapped by errors returned for a non-zero exit.
var ErrCommandFailed = errors.New("command failed")

// Runner abstracts command execution.
type Runner interface {
	// Run executes the command and discards its standard output.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes the command and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

// NewOSRunner creates a runner for the local host.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run executes the command, killing it when ctx is done.
func (r *OSRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.run(ctx, name, args)
	return err
}

// Output executes the command and returns its standard output.
func (r *OSRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := r.run(ctx, name, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *OSRunner) run(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", name, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrCommandFailed, name, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrCommandFailed, name, err)
	}
	return stdout.String(), nil
}

// Redact returns args with the value following any of the given flag words
// replaced, for logging command lines that carry secrets.
func Redact(args []string, secretFlags ...string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		for _, f := range secretFlags {
			if out[i] == f {
				out[i+1] = "********"
				i++
				break
			}
		}
	}
	return out
}

// Compile-time interface satisfaction check.
var _ Runner = (*OSRunner)(nil)
