package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Runner kinds
const (
	RunnerScript      = "script"
	RunnerInterpreter = "interpreter"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Logging   LoggingConfig       `mapstructure:"logging"`
	Sandbox   SandboxConfig       `mapstructure:"sandbox"`
	Languages map[string]Language `mapstructure:"languages"`
	Store     StoreConfig         `mapstructure:"store"`
	CORS      CORSConfig          `mapstructure:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// SandboxConfig holds execution limits and workspace placement
type SandboxConfig struct {
	WorkspaceRoot        string `mapstructure:"workspace_root"`
	WorkspacePrefix      string `mapstructure:"workspace_prefix"`
	TimeoutMS            int    `mapstructure:"timeout_ms"`
	InterpreterTimeoutMS int    `mapstructure:"interpreter_timeout_ms"`
	MaxOutputBytes       int    `mapstructure:"max_output_bytes"`
	MaxConcurrent        int    `mapstructure:"max_concurrent"`
}

// Language describes how files with one extension are executed
type Language struct {
	Runner string   `mapstructure:"runner"`
	Binary string   `mapstructure:"binary"`
	Args   []string `mapstructure:"args"`
	Env    []string `mapstructure:"env"` // KEY=VALUE; viper lower-cases map keys
}

// StoreConfig selects the project store backend
type StoreConfig struct {
	Backend   string      `mapstructure:"backend"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	TTLSec    int         `mapstructure:"ttl_sec"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CORSConfig lists origins allowed to call the HTTP API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

// Load reads the configuration from an explicit file path
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("CODELAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.http_port", 3001)

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")

	v.SetDefault("sandbox.workspace_root", "")
	v.SetDefault("sandbox.workspace_prefix", "codelab-")
	v.SetDefault("sandbox.timeout_ms", 5000)
	v.SetDefault("sandbox.interpreter_timeout_ms", 5000)
	v.SetDefault("sandbox.max_output_bytes", 1024*1024)
	v.SetDefault("sandbox.max_concurrent", 0)

	// Guest languages, keyed by file extension
	v.SetDefault("languages", map[string]any{
		"js": map[string]any{
			"runner": RunnerScript,
			"binary": "node",
		},
		"py": map[string]any{
			"runner": RunnerInterpreter,
			"binary": "python3",
			"args":   []string{"-u"},
			"env":    []string{"PYTHONDONTWRITEBYTECODE=1"},
		},
	})

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.key_prefix", "codelab:project:")
	v.SetDefault("store.ttl_sec", 0)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	switch c.Server.Transport {
	case "http", "stdio", "mcp":
	default:
		return fmt.Errorf("invalid server.transport: %s, must be 'http', 'stdio' or 'mcp'", c.Server.Transport)
	}

	if c.Server.Transport != "stdio" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}

	if c.Logging.Mode != "development" && c.Logging.Mode != "production" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Sandbox.TimeoutMS <= 0 {
		return fmt.Errorf("sandbox.timeout_ms must be positive, got: %d", c.Sandbox.TimeoutMS)
	}

	if c.Sandbox.InterpreterTimeoutMS < 0 {
		return fmt.Errorf("sandbox.interpreter_timeout_ms must not be negative, got: %d", c.Sandbox.InterpreterTimeoutMS)
	}

	if c.Sandbox.MaxOutputBytes <= 0 {
		return fmt.Errorf("sandbox.max_output_bytes must be positive, got: %d", c.Sandbox.MaxOutputBytes)
	}

	if c.Sandbox.MaxConcurrent < 0 {
		return fmt.Errorf("sandbox.max_concurrent must not be negative, got: %d", c.Sandbox.MaxConcurrent)
	}

	for ext, lang := range c.Languages {
		if lang.Runner != RunnerScript && lang.Runner != RunnerInterpreter {
			return fmt.Errorf("languages.%s.runner: unsupported runner %q", ext, lang.Runner)
		}
		if lang.Binary == "" {
			return fmt.Errorf("languages.%s.binary is required", ext)
		}
		for _, kv := range lang.Env {
			if !strings.Contains(kv, "=") {
				return fmt.Errorf("languages.%s.env: entry %q must be KEY=VALUE", ext, kv)
			}
		}
	}

	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported store.backend: %s", c.Store.Backend)
	}

	if c.Store.TTLSec < 0 {
		return fmt.Errorf("store.ttl_sec must not be negative, got: %d", c.Store.TTLSec)
	}

	return nil
}

// GetTimeout returns the script-runtime timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutMS) * time.Millisecond
}

// GetInterpreterTimeout returns the interpreter timeout; zero means unbounded
func (c *Config) GetInterpreterTimeout() time.Duration {
	return time.Duration(c.Sandbox.InterpreterTimeoutMS) * time.Millisecond
}

// GetStoreTTL returns how long saved projects are kept; zero means forever
func (c *Config) GetStoreTTL() time.Duration {
	return time.Duration(c.Store.TTLSec) * time.Second
}
