package resolve

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult is the captured outcome of one subprocess.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the process could not be started or did not exit
	// normally.
	Err error
}

// NotFound reports whether the command does not exist on this system.
func (r RunResult) NotFound() bool {
	return errors.Is(r.Err, exec.ErrNotFound) || r.ExitCode == 127
}

// Runner executes a command with captured output.
type Runner interface {
	Run(ctx context.Context, name string, args []string) RunResult
}

// ExecRunner runs commands with os/exec. Stdin is empty so a tool that
// would read from it sees EOF instead of blocking.
type ExecRunner struct{}

// Run executes name with args and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, name string, args []string) RunResult {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}
