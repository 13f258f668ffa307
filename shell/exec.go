package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a command when Run is given no timeout.
const DefaultTimeout = 30 * time.Second

// TimedOutMessage is the Stderr of a command killed by its timeout.
const TimedOutMessage = "Command timed out"

// Result is the outcome of one command.
type Result struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// Runner executes a shell command line.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) Result
}

// Executor runs commands with the platform shell.
type Executor struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env, when non-nil, replaces the process environment.
	Env []string
}

// Run executes command and waits for it or for timeout. The whole process
// group is killed on timeout or cancellation. A command that could not
// start, timed out or was cancelled reports ExitCode -1.
func (e *Executor) Run(ctx context.Context, command string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, args := shellCommand(command)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	cmd.Env = e.Env
	configureProcess(cmd)
	cmd.Cancel = func() error {
		terminateProcess(cmd)
		return nil
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Stdout = ""
		res.Stderr = TimedOutMessage
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Stderr = ctx.Err().Error()
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Stderr = err.Error()
		}
	}
	return res
}

var _ Runner = (*Executor)(nil)
