package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Docker    DockerConfig    `mapstructure:"docker"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	UploadDir       string        `mapstructure:"upload_dir"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	APIToken        string        `mapstructure:"api_token"` // Set via DOCKAFORGE_SERVER_API_TOKEN
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// DockerConfig selects how images are built and pushed.
// "sdk" talks to the daemon API, "cli" shells out to the docker binary.
type DockerConfig struct {
	Mode   string `mapstructure:"mode"`
	Host   string `mapstructure:"host"`
	Binary string `mapstructure:"binary"`
}

// RegistryConfig holds image registry configuration.
type RegistryConfig struct {
	Server string `mapstructure:"server"` // "" for Docker Hub
	Push   bool   `mapstructure:"push"`
}

// GitHubConfig holds repository hosting configuration.
type GitHubConfig struct {
	APIURL  string `mapstructure:"api_url"`
	GitURL  string `mapstructure:"git_url"`
	Private bool   `mapstructure:"private"`
}

// WorkspaceConfig holds workspace configuration.
type WorkspaceConfig struct {
	Root            string `mapstructure:"root"`
	CollisionPolicy string `mapstructure:"collision_policy"`
}

// TemplatesConfig points at build descriptor overrides.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"` // "" uses the embedded templates only
}

// ManifestConfig holds dependency manifest tooling configuration.
type ManifestConfig struct {
	InstallPipreqs bool   `mapstructure:"install_pipreqs"`
	Pip            string `mapstructure:"pip"`
	Pipreqs        string `mapstructure:"pipreqs"`
	Go             string `mapstructure:"go"`
}

// TimeoutsConfig bounds each external stage.
type TimeoutsConfig struct {
	Command time.Duration `mapstructure:"command"`
	Build   time.Duration `mapstructure:"build"`
	Login   time.Duration `mapstructure:"login"`
	Publish time.Duration `mapstructure:"publish"`
}

// pipelineMargin covers the unbounded local stages: extraction, flattening
// and descriptor writing.
const pipelineMargin = 5 * time.Minute

// PipelineBudget is the longest one deployment can spend in its bounded
// stages. Push shares the build bound.
func (t TimeoutsConfig) PipelineBudget() time.Duration {
	return t.Login + 2*t.Build + t.Command + t.Publish
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5m")
	v.SetDefault("server.write_timeout", "0") // derived from the stage timeouts
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.upload_dir", "")
	v.SetDefault("server.max_upload_bytes", 512<<20)
	v.SetDefault("server.api_token", "")
	v.SetDefault("database.dsn", "./data/dockaforge.db")
	v.SetDefault("docker.mode", "sdk")
	v.SetDefault("docker.host", "")
	v.SetDefault("docker.binary", "docker")
	v.SetDefault("registry.server", "")
	v.SetDefault("registry.push", true)
	v.SetDefault("github.api_url", "")
	v.SetDefault("github.git_url", "https://github.com")
	v.SetDefault("github.private", false)
	v.SetDefault("workspace.root", "./data/workspaces")
	v.SetDefault("workspace.collision_policy", "overwrite")
	v.SetDefault("templates.dir", "")
	v.SetDefault("manifest.install_pipreqs", true)
	v.SetDefault("manifest.pip", "pip")
	v.SetDefault("manifest.pipreqs", "pipreqs")
	v.SetDefault("manifest.go", "go")
	v.SetDefault("timeouts.command", "5m")
	v.SetDefault("timeouts.build", "20m")
	v.SetDefault("timeouts.login", "1m")
	v.SetDefault("timeouts.publish", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DOCKAFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A deploy request spans the whole pipeline
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = cfg.Timeouts.PipelineBudget() + pipelineMargin
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Docker.Mode {
	case "sdk", "cli":
	default:
		return fmt.Errorf("docker.mode must be sdk or cli, got %q", c.Docker.Mode)
	}
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return errors.New("workspace.root is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if budget := c.Timeouts.PipelineBudget(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < budget {
		return fmt.Errorf("server.write_timeout %s is shorter than the stage timeouts allow (%s)", c.Server.WriteTimeout, budget)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to stderr so command output on stdout stays machine readable.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
