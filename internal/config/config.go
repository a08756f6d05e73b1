// Package config loads moodlens configuration with layered precedence:
// built-in defaults, then an optional YAML file, then MOODLENS_ environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/moodlens/moodlens/internal/analysis"
)

// EnvPrefix namespaces all environment overrides, e.g.
// MOODLENS_SERVER_ADDR or MOODLENS_ENGINE_CUTOFF_PERCENTILE.
const EnvPrefix = "MOODLENS_"

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moodlens/config.yaml",
}

// ServerConfig holds the HTTP glue layer settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// EngineConfig holds the analysis engine tunables.
type EngineConfig struct {
	CutoffPercentile float64       `koanf:"cutoff_percentile"`
	MinClusterSize   int           `koanf:"min_cluster_size"`
	MaxIterations    int           `koanf:"max_iterations"`
	MaxSeedTracks    int           `koanf:"max_seed_tracks"`
	MaxConcurrency   int           `koanf:"max_concurrency"`
	PlaylistTimeout  time.Duration `koanf:"playlist_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Engine  EngineConfig  `koanf:"engine"`
	Logging LoggingConfig `koanf:"logging"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	eng := analysis.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			CutoffPercentile: eng.CutoffPercentile,
			MinClusterSize:   eng.MinClusterSize,
			MaxIterations:    eng.MaxIterations,
			MaxSeedTracks:    eng.MaxSeedTracks,
			MaxConcurrency:   eng.MaxConcurrency,
			PlaylistTimeout:  eng.PlaylistTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty, in which case the
// default paths are probed and a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing default config path.
func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps MOODLENS_SERVER_READ_TIMEOUT to server.read_timeout:
// the first underscore after the prefix separates the section.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Engine.CutoffPercentile <= 0 || c.Engine.CutoffPercentile > 100 {
		return fmt.Errorf("engine.cutoff_percentile must be in (0, 100], got %v", c.Engine.CutoffPercentile)
	}
	if c.Engine.MinClusterSize < 1 {
		return fmt.Errorf("engine.min_cluster_size must be >= 1, got %d", c.Engine.MinClusterSize)
	}
	if c.Engine.MaxIterations < 1 {
		return fmt.Errorf("engine.max_iterations must be >= 1, got %d", c.Engine.MaxIterations)
	}
	if c.Engine.MaxConcurrency < 1 {
		return fmt.Errorf("engine.max_concurrency must be >= 1, got %d", c.Engine.MaxConcurrency)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// AnalysisConfig converts the loaded settings into the analysis package's
// config type.
func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		CutoffPercentile: c.Engine.CutoffPercentile,
		MinClusterSize:   c.Engine.MinClusterSize,
		MaxIterations:    c.Engine.MaxIterations,
		MaxSeedTracks:    c.Engine.MaxSeedTracks,
		MaxConcurrency:   c.Engine.MaxConcurrency,
		PlaylistTimeout:  c.Engine.PlaylistTimeout,
	}
}
