package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
	"github.com/isdmx/codelab/workspace"
)

// MockRunner implements Runner for testing
type MockRunner struct {
	mu       sync.Mutex
	result   Result
	err      error
	requests []RunRequest
	run      func(ctx context.Context, req RunRequest) (Result, error)
}

func (*MockRunner) Name() string {
	return "mock"
}

func (m *MockRunner) Run(ctx context.Context, req RunRequest) (Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.run != nil {
		return m.run(ctx, req)
	}
	return m.result, m.err
}

// MockWorkspaces implements WorkspaceManager for testing
type MockWorkspaces struct {
	mu             sync.Mutex
	materializeErr error
	releaseErr     error
	materialized   int
	released       []*workspace.Workspace
}

func (m *MockWorkspaces) Materialize(_ context.Context, sub project.Submission) (*workspace.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialized++
	if m.materializeErr != nil {
		return nil, m.materializeErr
	}
	ws := &workspace.Workspace{ID: fmt.Sprintf("ws-%d", m.materialized), Dir: "/work/ws"}
	for _, f := range sub {
		ws.Files = append(ws.Files, ws.Path(f.Name))
	}
	return ws, nil
}

func (m *MockWorkspaces) Release(ws *workspace.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, ws)
	return m.releaseErr
}

func newTestEngine(t *testing.T, ws WorkspaceManager, runner Runner, opts ...EngineOption) *Engine {
	t.Helper()
	registry := NewRegistry(
		Binding{Extension: "js", Runner: runner, Limits: defaultLimits},
		Binding{Extension: "py", Runner: runner, Limits: defaultLimits, Env: []string{"A=1"}},
	)
	return NewEngine(zaptest.NewLogger(t), ws, registry, opts...)
}

func TestSelectEntry(t *testing.T) {
	e := newTestEngine(t, &MockWorkspaces{}, &MockRunner{})

	tests := []struct {
		name    string
		files   []string
		want    string
		wantErr bool
	}{
		{"FirstRunnableWins", []string{"index.html", "b.py", "a.js"}, "b.py", false},
		{"SingleScript", []string{"main.js"}, "main.js", false},
		{"UppercaseExtensionFolds", []string{"README", "MAIN.JS"}, "MAIN.JS", false},
		{"NoRunnable", []string{"index.html", "style.css"}, "", true},
		{"NoExtension", []string{"Makefile"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sub project.Submission
			for _, name := range tt.files {
				sub = append(sub, project.NewSourceFile(name, ""))
			}

			entry, _, err := e.SelectEntry(sub)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrNoRunnableFile))
				assert.Contains(t, err.Error(), "js, py")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Name)
		})
	}
}

func TestExecute(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ws := &MockWorkspaces{}
		runner := &MockRunner{result: Result{Output: "  hi\n", Stdout: "  hi\n", Duration: time.Millisecond}}
		e := newTestEngine(t, ws, runner)

		res, err := e.Execute(context.Background(), project.Submission{
			project.NewSourceFile("index.html", "<p>"),
			project.NewSourceFile("main.py", "print('hi')"),
		})
		require.NoError(t, err)
		assert.Equal(t, "hi", res.Output)
		assert.Equal(t, "  hi\n", res.Stdout)
		assert.Equal(t, "py", res.Language)
		assert.Equal(t, "main.py", res.EntryFile)

		require.Len(t, runner.requests, 1)
		req := runner.requests[0]
		assert.Equal(t, "/work/ws/main.py", req.EntryPath)
		assert.Equal(t, "/work/ws", req.Dir)
		assert.Equal(t, []string{"A=1"}, req.Env)
		assert.Equal(t, defaultLimits, req.Limits)
		assert.Len(t, ws.released, 1)
	})

	t.Run("NoRunnableFileCreatesNoWorkspace", func(t *testing.T) {
		ws := &MockWorkspaces{}
		e := newTestEngine(t, ws, &MockRunner{})

		_, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.css", "")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNoRunnableFile))
		assert.Zero(t, ws.materialized)
		assert.Empty(t, ws.released)
	})

	t.Run("MaterializeFailure", func(t *testing.T) {
		ws := &MockWorkspaces{materializeErr: apperrors.New(apperrors.KindIO, "disk full")}
		runner := &MockRunner{}
		e := newTestEngine(t, ws, runner)

		_, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrIO))
		assert.Empty(t, runner.requests)
	})

	t.Run("RunnerErrorStillReleases", func(t *testing.T) {
		ws := &MockWorkspaces{}
		runner := &MockRunner{err: apperrors.New(apperrors.KindTimeout, "execution exceeded 5000 ms")}
		e := newTestEngine(t, ws, runner)

		_, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrTimeout))
		assert.Len(t, ws.released, 1)
	})

	t.Run("UnclassifiedErrorBecomesInternal", func(t *testing.T) {
		runner := &MockRunner{err: errors.New("boom")}
		e := newTestEngine(t, &MockWorkspaces{}, runner)

		_, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInternal))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("ReleaseFailureIsNotReturned", func(t *testing.T) {
		ws := &MockWorkspaces{releaseErr: apperrors.New(apperrors.KindIO, "busy")}
		e := newTestEngine(t, ws, &MockRunner{result: Result{Output: "ok"}})

		res, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
		require.NoError(t, err)
		assert.Equal(t, "ok", res.Output)
	})
}

func TestExecuteMaxConcurrent(t *testing.T) {
	var active, peak int32
	runner := &MockRunner{run: func(_ context.Context, _ RunRequest) (Result, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return Result{Output: "ok"}, nil
	}}
	e := newTestEngine(t, &MockWorkspaces{}, runner, WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Len(t, runner.requests, 8)
}

func TestExecuteCancelledWhileQueued(t *testing.T) {
	release := make(chan struct{})
	runner := &MockRunner{run: func(_ context.Context, _ RunRequest) (Result, error) {
		<-release
		return Result{}, nil
	}}
	e := newTestEngine(t, &MockWorkspaces{}, runner, WithMaxConcurrent(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Execute(context.Background(), project.Submission{project.NewSourceFile("a.js", "")})
	}()

	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.requests) == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.Execute(ctx, project.Submission{project.NewSourceFile("a.js", "")})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	close(release)
	<-done
}

// Every execution, successful or not, leaves the workspace root empty.
func TestExecuteLeavesNoWorkspaces(t *testing.T) {
	requireShell(t)
	root := t.TempDir()
	manager := workspace.NewManager(zaptest.NewLogger(t), workspace.WithRoot(root))
	registry := NewRegistry(Binding{
		Extension: "sh",
		Runner:    NewScriptRunner("sh"),
		Limits:    Limits{Timeout: 300 * time.Millisecond, MaxOutputBytes: 256},
	})
	e := NewEngine(zaptest.NewLogger(t), manager, registry)

	scripts := []string{
		"echo ok\n",
		"exit 4\n",
		"echo oops >&2\n",
		"sleep 5\n",
		"while :; do echo flood; done\n",
		"cat helper.txt\n",
	}

	for _, body := range scripts {
		_, _ = e.Execute(context.Background(), project.Submission{
			project.NewSourceFile("main.sh", body),
			project.NewSourceFile("helper.txt", "data"),
		})

		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		assert.Empty(t, entries, "workspace left behind after %q", body)
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := &config.Config{
		Sandbox: config.SandboxConfig{TimeoutMS: 1500, InterpreterTimeoutMS: 0, MaxOutputBytes: 2048, MaxConcurrent: 3},
		Languages: map[string]config.Language{
			"js": {Runner: config.RunnerScript, Binary: "node"},
			"py": {Runner: config.RunnerInterpreter, Binary: "python3", Args: []string{"-u"}, Env: []string{"X=1"}},
		},
	}

	e, err := NewEngineFromConfig(zaptest.NewLogger(t), cfg, &MockWorkspaces{})
	require.NoError(t, err)
	assert.NotNil(t, e.slots)
	assert.Equal(t, []string{"js", "py"}, e.Registry().Extensions())

	js, ok := e.Registry().Lookup("js")
	require.True(t, ok)
	assert.Equal(t, "script", js.Runner.Name())
	assert.Equal(t, Limits{Timeout: 1500 * time.Millisecond, MaxOutputBytes: 2048}, js.Limits)

	py, ok := e.Registry().Lookup("py")
	require.True(t, ok)
	assert.Equal(t, "interpreter", py.Runner.Name())
	assert.Equal(t, Limits{Timeout: 0, MaxOutputBytes: 2048}, py.Limits)
	assert.Equal(t, []string{"X=1"}, py.Env)

	cfg.Languages["rb"] = config.Language{Runner: "jit", Binary: "ruby"}
	_, err = NewEngineFromConfig(zaptest.NewLogger(t), cfg, &MockWorkspaces{})
	require.Error(t, err)
}

func defaultLanguageConfig() *config.Config {
	return &config.Config{
		Sandbox: config.SandboxConfig{TimeoutMS: 5000, InterpreterTimeoutMS: 5000, MaxOutputBytes: 1 << 20},
		Languages: map[string]config.Language{
			"js": {Runner: config.RunnerScript, Binary: "node"},
			"py": {Runner: config.RunnerInterpreter, Binary: "python3", Args: []string{"-u"}},
		},
	}
}

func TestExecuteNode(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not available")
	}
	manager := workspace.NewManager(zaptest.NewLogger(t), workspace.WithRoot(t.TempDir()))
	e, err := NewEngineFromConfig(zaptest.NewLogger(t), defaultLanguageConfig(), manager)
	require.NoError(t, err)

	res, err := e.Execute(context.Background(), project.Submission{
		project.NewSourceFile("main.js", `console.log("hi")`),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Output)

	res, err = e.Execute(context.Background(), project.Submission{
		project.NewSourceFile("main.js", `const m = require("./util"); console.log(m.answer)`),
		project.NewSourceFile("util.js", `module.exports = { answer: 42 }`),
	})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Output)
}

func TestExecutePython(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	manager := workspace.NewManager(zaptest.NewLogger(t), workspace.WithRoot(t.TempDir()))
	e, err := NewEngineFromConfig(zaptest.NewLogger(t), defaultLanguageConfig(), manager)
	require.NoError(t, err)

	res, err := e.Execute(context.Background(), project.Submission{
		project.NewSourceFile("main.py", "print('hi')\nprint(2 + 3)"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi\n5", res.Output)

	_, err = e.Execute(context.Background(), project.Submission{
		project.NewSourceFile("main.py", "print(1/0)"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExecution))
	assert.Contains(t, err.Error(), "ZeroDivisionError")
}
