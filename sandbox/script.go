package sandbox

import (
	"context"

	"github.com/isdmx/codelab/apperrors"
)

// ScriptRunner runs a script runtime such as node. Any stderr text takes the
// place of stdout in the combined output, even when the guest exits 0.
type ScriptRunner struct {
	cmd command
}

// NewScriptRunner creates a ScriptRunner invoking binary with args followed
// by the entry path.
func NewScriptRunner(binary string, args ...string) *ScriptRunner {
	return &ScriptRunner{cmd: command{Binary: binary, Args: args}}
}

// Name returns the runner kind.
func (*ScriptRunner) Name() string {
	return "script"
}

// Run executes the entry file under the request limits.
func (r *ScriptRunner) Run(ctx context.Context, req RunRequest) (Result, error) {
	c, err := launch(ctx, r.cmd, req)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Stdout:   c.Stdout,
		Stderr:   c.Stderr,
		ExitCode: c.ExitCode,
		Duration: c.Duration,
	}

	if limitErr := limitError(c, req.Limits); limitErr != nil {
		return result, limitErr
	}

	if c.WaitErr != nil && c.Stderr == "" {
		return result, apperrors.Wrap(c.WaitErr, apperrors.KindExecution, "guest process failed")
	}

	result.Output = c.Stdout
	if c.Stderr != "" {
		result.Output = c.Stderr
	}
	return result, nil
}
