// Package process runs external tools under a context deadline and makes sure
// a timed-out tool does not leave children behind.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ErrNotFound is returned when the executable cannot be located.
var ErrNotFound = errors.New("executable not found")

// DefaultWaitDelay bounds how long Wait keeps draining output pipes after the
// process group has been killed.
const DefaultWaitDelay = 2 * time.Second

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements Runner using os/exec. The child is started in its own
// process group; when ctx is done the whole group is killed.
type ExecRunner struct {
	WaitDelay time.Duration
}

// NewExecRunner creates an ExecRunner with the default wait delay.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: DefaultWaitDelay}
}

// Run executes name with args and returns captured stdout and stderr.
// A context expiry is reported as an error wrapping ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay

	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", "", fmt.Errorf("starting %s: %w", name, err)
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%s: %w", name, ctxErr)
	}
	if err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), stderr.String(), nil
}
