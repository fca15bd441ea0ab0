package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
)

// DefaultPrefix is prepended to every workspace directory name.
const DefaultPrefix = "codelab-"

// Workspace is the scratch directory backing one submission.
type Workspace struct {
	ID    string
	Dir   string
	Files []string
}

// Path returns the absolute path of a materialized file.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Manager creates and destroys workspaces.
type Manager struct {
	logger *zap.Logger
	fs     FileSystem
	root   string
	prefix string
	newID  func() string
}

// Option defines a functional option for Manager
type Option func(*Manager)

// WithFileSystem sets the FileSystem for Manager
func WithFileSystem(fs FileSystem) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithRoot sets the directory workspaces are created under
func WithRoot(root string) Option {
	return func(m *Manager) {
		if root != "" {
			m.root = root
		}
	}
}

// WithPrefix sets the workspace directory name prefix
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithIDGenerator replaces the UUID source, for tests
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// NewManager creates a Manager rooted at the system temp directory unless
// overridden by options.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger: logger,
		fs:     &RealFileSystem{},
		root:   os.TempDir(),
		prefix: DefaultPrefix,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Root returns the directory workspaces are created under.
func (m *Manager) Root() string {
	return m.root
}

// Materialize writes every file of the submission into a new directory. On
// failure the partially written directory is removed before returning.
func (m *Manager) Materialize(ctx context.Context, sub project.Submission) (*Workspace, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := m.fs.MkdirAll(m.root, DirPermission); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindIO, "failed to create workspace root")
	}

	id := m.newID()
	ws := &Workspace{
		ID:    id,
		Dir:   filepath.Join(m.root, m.prefix+id),
		Files: make([]string, 0, len(sub)),
	}

	// Mkdir, not MkdirAll: an existing directory must never be reused
	if err := m.fs.Mkdir(ws.Dir, DirPermission); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindIO, "failed to create workspace")
	}

	for _, f := range sub {
		if err := ctx.Err(); err != nil {
			_ = m.Release(ws)
			return nil, apperrors.Wrap(err, apperrors.KindIO, "materialize cancelled")
		}

		path := ws.Path(f.Name)
		if err := m.fs.WriteFile(path, []byte(f.Content), FilePermission); err != nil {
			_ = m.Release(ws)
			return nil, apperrors.Wrap(err, apperrors.KindIO, "failed to write "+f.Name)
		}
		ws.Files = append(ws.Files, path)
	}

	m.logger.Debug("workspace materialized",
		zap.String("workspace_id", ws.ID),
		zap.String("dir", ws.Dir),
		zap.Int("files", len(ws.Files)))

	return ws, nil
}

// Release removes the workspace directory. Failures are logged and returned
// for callers that care; the engine only logs them.
func (m *Manager) Release(ws *Workspace) error {
	if ws == nil || ws.Dir == "" {
		return nil
	}

	if err := m.fs.RemoveAll(ws.Dir); err != nil {
		m.logger.Error("failed to remove workspace",
			zap.String("workspace_id", ws.ID),
			zap.String("dir", ws.Dir),
			zap.Error(err))
		return apperrors.Wrap(err, apperrors.KindIO, "failed to remove workspace")
	}

	m.logger.Debug("workspace released", zap.String("workspace_id", ws.ID))
	return nil
}

// NewFromConfig creates a Manager placed according to the sandbox section
func NewFromConfig(logger *zap.Logger, cfg *config.Config) *Manager {
	return NewManager(logger,
		WithRoot(cfg.Sandbox.WorkspaceRoot),
		WithPrefix(cfg.Sandbox.WorkspacePrefix))
}
