package launch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotInstalled is returned when a command cannot be found on PATH
var ErrNotInstalled = errors.New("command not installed")

// Runner spawns external programs on behalf of plugins
type Runner interface {
	// Output runs the command to completion and returns its stdout
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the command detached and does not wait for it
	Start(name string, args ...string) error
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// Dir is the working directory for started commands, empty means inherit
	Dir string
}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (r *ExecRunner) Start(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = r.Dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	// reap in the background so the child does not linger as a zombie
	go func() { _ = cmd.Wait() }()
	return nil
}

// Call is one recorded invocation
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}
