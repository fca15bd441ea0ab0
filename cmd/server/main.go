package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/analysis"
	"github.com/isdmx/codelab/api"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/logger"
	"github.com/isdmx/codelab/mcpserver"
	"github.com/isdmx/codelab/sandbox"
	"github.com/isdmx/codelab/store"
	"github.com/isdmx/codelab/workspace"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Workspaces and the execution engine
			fx.Annotate(workspace.NewFromConfig, fx.As(new(sandbox.WorkspaceManager))),
			fx.Annotate(sandbox.NewEngineFromConfig, fx.As(new(sandbox.SandboxExecutor))),

			// Analysis
			fx.Annotate(analysis.New, fx.As(new(api.Analyzer)), fx.As(new(mcpserver.Analyzer))),

			// Project store
			store.New,

			// Transports
			api.New,
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(run),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}

func run(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	projects store.Store,
	httpAPI *api.Server,
	mcp *mcpserver.MCPServer,
) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return projects.Close()
		},
	})

	// serve runs a blocking transport and stops the app when it returns.
	serve := func(name string, fn func() error) {
		go func() {
			if err := fn(); err != nil {
				log.Error("transport stopped", zap.String("transport", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
				return
			}
			_ = shutdowner.Shutdown()
		}()
	}

	switch cfg.Server.Transport {
	case "http":
		lc.Append(fx.Hook{
			OnStart: httpAPI.Start,
			OnStop:  httpAPI.Stop,
		})
	case "stdio":
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				serve("stdio", mcp.ServeStdio)
				return nil
			},
		})
	case "mcp":
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				serve("mcp", mcp.ServeHTTP)
				return nil
			},
			OnStop: mcp.Shutdown,
		})
	default:
		panic("unsupported transport: " + cfg.Server.Transport)
	}
}
