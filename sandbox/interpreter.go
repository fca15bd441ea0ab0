package sandbox

import (
	"context"
	"strings"

	"github.com/isdmx/codelab/apperrors"
)

// ErrorLinePrefix marks stderr lines in interpreter output.
const ErrorLinePrefix = "Error: "

// InterpreterRunner runs an interpreter such as python. Stdout lines come
// first, followed by every stderr line prefixed with ErrorLinePrefix.
type InterpreterRunner struct {
	cmd command
}

// NewInterpreterRunner creates an InterpreterRunner invoking binary with args
// followed by the entry path.
func NewInterpreterRunner(binary string, args ...string) *InterpreterRunner {
	return &InterpreterRunner{cmd: command{Binary: binary, Args: args}}
}

// Name returns the runner kind.
func (*InterpreterRunner) Name() string {
	return "interpreter"
}

// Run executes the entry file. A non-zero exit is an ExecutionError carrying
// the interpreter's diagnostic text, or the process failure when stderr was
// empty.
func (r *InterpreterRunner) Run(ctx context.Context, req RunRequest) (Result, error) {
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

	if c.WaitErr != nil {
		if diag := strings.TrimSpace(c.Stderr); diag != "" {
			return result, apperrors.New(apperrors.KindExecution, diag)
		}
		return result, apperrors.Wrap(c.WaitErr, apperrors.KindExecution, "guest process failed")
	}

	result.Output = combineLines(splitLines(c.Stdout), splitLines(c.Stderr))
	return result, nil
}

func combineLines(stdout, stderr []string) string {
	var b strings.Builder
	for _, line := range stdout {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range stderr {
		b.WriteString(ErrorLinePrefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
