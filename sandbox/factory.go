package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/codelab/config"
)

// NewRegistryFromConfig builds the runner registry from the languages section
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	bindings := make([]Binding, 0, len(cfg.Languages))

	for ext, lang := range cfg.Languages {
		b := Binding{
			Extension: ext,
			Env:       lang.Env,
			Limits:    Limits{MaxOutputBytes: cfg.Sandbox.MaxOutputBytes},
		}

		switch lang.Runner {
		case config.RunnerScript:
			b.Runner = NewScriptRunner(lang.Binary, lang.Args...)
			b.Limits.Timeout = cfg.GetTimeout()
		case config.RunnerInterpreter:
			b.Runner = NewInterpreterRunner(lang.Binary, lang.Args...)
			b.Limits.Timeout = cfg.GetInterpreterTimeout()
		default:
			return nil, fmt.Errorf("unsupported runner %q for extension %s", lang.Runner, ext)
		}

		bindings = append(bindings, b)
	}

	return NewRegistry(bindings...), nil
}

// NewEngineFromConfig creates the execution engine described by the configuration
func NewEngineFromConfig(logger *zap.Logger, cfg *config.Config, workspaces WorkspaceManager) (*Engine, error) {
	registry, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("runner registry loaded", zap.Strings("extensions", registry.Extensions()))

	return NewEngine(logger, workspaces, registry, WithMaxConcurrent(cfg.Sandbox.MaxConcurrent)), nil
}
