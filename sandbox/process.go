package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/isdmx/codelab/apperrors"
)

// waitDelay bounds how long Wait lingers on I/O after the guest was killed.
const waitDelay = 2 * time.Second

var errOutputLimit = errors.New("output limit exceeded")

// capture is the raw outcome of one guest process.
type capture struct {
	Stdout   string
	Stderr   string
	ExitCode int
	WaitErr  error
	TimedOut bool
	Overflow bool
	Duration time.Duration
}

// command is the binary and leading arguments a runner invokes; the entry
// path is appended last.
type command struct {
	Binary string
	Args   []string
}

// launch starts the guest with stdout and stderr copied into bounded buffers,
// then waits for exit. A timeout or an output overflow kills the whole
// process group. Descendants that escaped the group and still hold the pipes
// are cut off waitDelay after the guest exits or the context ends.
func launch(ctx context.Context, cmdSpec command, req RunRequest) (*capture, error) {
	runCtx, cancelTimeout := ctx, context.CancelFunc(func() {})
	if req.Limits.Timeout > 0 {
		runCtx, cancelTimeout = context.WithTimeout(ctx, req.Limits.Timeout)
	}
	defer cancelTimeout()

	runCtx, abort := context.WithCancelCause(runCtx)
	defer abort(nil)

	onExceed := func() { abort(errOutputLimit) }
	stdout := newBoundedBuffer(req.Limits.MaxOutputBytes, onExceed)
	stderr := newBoundedBuffer(req.Limits.MaxOutputBytes, onExceed)

	args := append(append([]string{}, cmdSpec.Args...), req.EntryPath)
	cmd := exec.CommandContext(runCtx, cmdSpec.Binary, args...) //nolint:gosec // binary and args come from config
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)
	// exec copies each stream on its own goroutine, so a chatty guest never
	// blocks on a full pipe buffer.
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindExecution, fmt.Sprintf("failed to start %s", cmdSpec.Binary))
	}

	waitErr := cmd.Wait()
	stdout.Close()
	stderr.Close()

	// The guest itself exited cleanly; only a leaked descendant kept the
	// pipes open.
	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		waitErr = nil
	}

	c := &capture{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, waitErr),
		WaitErr:  waitErr,
		Duration: time.Since(start),
	}

	cause := context.Cause(runCtx)
	switch {
	case errors.Is(cause, errOutputLimit):
		c.Overflow = true
	case ctx.Err() != nil:
		return c, apperrors.Wrap(ctx.Err(), apperrors.KindInternal, "execution cancelled")
	case errors.Is(cause, context.DeadlineExceeded):
		c.TimedOut = true
	}

	return c, nil
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}

// limitError converts a timeout or overflow into its error kind.
func limitError(c *capture, limits Limits) error {
	switch {
	case c.Overflow:
		return apperrors.Newf(apperrors.KindResourceExceeded,
			"output exceeded %d bytes", limits.MaxOutputBytes)
	case c.TimedOut:
		return apperrors.Newf(apperrors.KindTimeout,
			"execution exceeded %d ms", limits.Timeout.Milliseconds())
	}
	return nil
}
