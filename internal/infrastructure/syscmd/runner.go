// Package syscmd runs the platform's printing utilities (PowerShell, lpstat,
// lp) behind an interface so probes and queue transports can be tested with
// canned output.
package syscmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Run waits for output pipes after the process
// is killed, in case a grandchild keeps them open.
const waitDelay = 2 * time.Second

// Command is one invocation of an external program
type Command struct {
	Name  string
	Args  []string
	Stdin []byte
	Env   []string // appended to the current environment
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds captured output
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes commands
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError is returned when a command ran but failed
type ExitError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates an ExecRunner; a nil logger is allowed.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run executes cmd and captures stdout and stderr. A cancelled or expired ctx
// is reported as the ctx error so callers can tell timeouts from failures.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.WaitDelay = waitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.logger.Debug("exec", zap.String("cmd", cmd.String()), zap.Int("stdin_bytes", len(cmd.Stdin)))

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s: %w", cmd.Name, ctxErr)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("%s not found in PATH: %w", cmd.Name, err)
		}
		return res, &ExitError{
			Command: cmd.String(),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return res, nil
}
