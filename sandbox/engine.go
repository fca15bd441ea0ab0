package sandbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/project"
	"github.com/isdmx/codelab/workspace"
)

// ExecutionResult is what a caller of Execute receives. Output is trimmed and
// already follows the runner's stream precedence; Stdout and Stderr are the
// raw streams for callers that want to decide for themselves.
type ExecutionResult struct {
	Output    string
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	Language  string
	EntryFile string
}

// SandboxExecutor defines the interface for executing a submission
type SandboxExecutor interface {
	Execute(ctx context.Context, sub project.Submission) (ExecutionResult, error)
}

// WorkspaceManager creates and removes per-submission directories
type WorkspaceManager interface {
	Materialize(ctx context.Context, sub project.Submission) (*workspace.Workspace, error)
	Release(ws *workspace.Workspace) error
}

// Engine implements SandboxExecutor with local guest processes
type Engine struct {
	logger     *zap.Logger
	workspaces WorkspaceManager
	registry   *Registry
	slots      *semaphore.Weighted
}

// EngineOption defines a functional option for Engine
type EngineOption func(*Engine)

// WithMaxConcurrent caps how many guest processes run at once; n <= 0 leaves
// execution unbounded.
func WithMaxConcurrent(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewEngine creates an Engine
func NewEngine(logger *zap.Logger, workspaces WorkspaceManager, registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:     logger,
		workspaces: workspaces,
		registry:   registry,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry returns the runner registry the engine dispatches through.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// SelectEntry returns the first file, in submission order, whose extension has
// a registered runner.
func (e *Engine) SelectEntry(sub project.Submission) (project.SourceFile, Binding, error) {
	for _, f := range sub {
		if b, ok := e.registry.Lookup(project.LanguageFromName(f.Name)); ok {
			return f, b, nil
		}
	}
	return project.SourceFile{}, Binding{}, apperrors.Newf(apperrors.KindNoRunnableFile,
		"no runnable file, expected one of: %s", strings.Join(e.registry.Extensions(), ", "))
}

// Execute runs the submission's entry file. The workspace is released on
// every path after it was created; release failures are logged only.
func (e *Engine) Execute(ctx context.Context, sub project.Submission) (ExecutionResult, error) {
	entry, binding, err := e.SelectEntry(sub)
	if err != nil {
		return ExecutionResult{}, err
	}

	if e.slots != nil {
		if acqErr := e.slots.Acquire(ctx, 1); acqErr != nil {
			return ExecutionResult{}, apperrors.Wrap(acqErr, apperrors.KindInternal, "cancelled while waiting for an execution slot")
		}
		defer e.slots.Release(1)
	}

	ws, err := e.workspaces.Materialize(ctx, sub)
	if err != nil {
		return ExecutionResult{}, err
	}
	defer func() {
		_ = e.workspaces.Release(ws)
	}()

	e.logger.Info("executing submission",
		zap.String("workspace_id", ws.ID),
		zap.String("entry", entry.Name),
		zap.String("runner", binding.Runner.Name()),
		zap.Int("files", len(sub)))

	res, runErr := binding.Runner.Run(ctx, RunRequest{
		EntryPath: ws.Path(entry.Name),
		Dir:       ws.Dir,
		Env:       binding.Env,
		Limits:    binding.Limits,
	})

	result := ExecutionResult{
		Output:    strings.TrimSpace(res.Output),
		Stdout:    res.Stdout,
		Stderr:    res.Stderr,
		ExitCode:  res.ExitCode,
		Duration:  res.Duration,
		Language:  binding.Extension,
		EntryFile: entry.Name,
	}

	if runErr != nil {
		if apperrors.KindOf(runErr) == apperrors.KindInternal {
			e.logger.Error("execution failed", zap.String("workspace_id", ws.ID), zap.Error(runErr))
		} else {
			e.logger.Info("guest run rejected",
				zap.String("workspace_id", ws.ID),
				zap.String("kind", string(apperrors.KindOf(runErr))),
				zap.Duration("duration", res.Duration))
		}
		return result, classify(runErr)
	}

	e.logger.Info("execution completed",
		zap.String("workspace_id", ws.ID),
		zap.Int("exit_code", res.ExitCode),
		zap.Int("output_len", len(result.Output)),
		zap.Duration("duration", res.Duration))

	return result, nil
}

// classify makes sure every error leaving the engine carries a kind.
func classify(err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(err, apperrors.KindInternal, "unexpected execution failure")
}
