// Package config loads nardserver settings from defaults, an optional YAML
// file, an optional .env file and NARD_* environment variables, in that
// order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Engine  EngineConfig  `yaml:"engine" envPrefix:"ENGINE_"`
	Rollout RolloutConfig `yaml:"rollout" envPrefix:"ROLLOUT_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds the HTTP listener and worker pool settings.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxFastWorkers  int           `yaml:"max_fast_workers" env:"MAX_FAST_WORKERS"`
	MaxSlowWorkers  int           `yaml:"max_slow_workers" env:"MAX_SLOW_WORKERS"`
	QueueTimeout    time.Duration `yaml:"queue_timeout" env:"QUEUE_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// EngineConfig holds analysis settings.
type EngineConfig struct {
	CacheSize int `yaml:"cache_size" env:"CACHE_SIZE"` // negative disables the move cache
}

// RolloutConfig holds defaults and limits for self-play rollouts.
type RolloutConfig struct {
	Games      int `yaml:"games" env:"GAMES"`
	MaxGames   int `yaml:"max_games" env:"MAX_GAMES"`
	MaxPlies   int `yaml:"max_plies" env:"MAX_PLIES"`
	MaxWorkers int `yaml:"max_workers" env:"MAX_WORKERS"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NARD_"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxFastWorkers:  100,
			MaxSlowWorkers:  4,
			QueueTimeout:    5 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Engine: EngineConfig{
			CacheSize: 1 << 14,
		},
		Rollout: RolloutConfig{
			Games:      1000,
			MaxGames:   100000,
			MaxPlies:   5000,
			MaxWorkers: 32,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an
// empty path skips it. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv overlays NARD_* environment variables onto target. Unset
// variables leave the existing values alone.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxFastWorkers <= 0 {
		errs = append(errs, errors.New("server.max_fast_workers must be positive"))
	}
	if c.Server.MaxSlowWorkers <= 0 {
		errs = append(errs, errors.New("server.max_slow_workers must be positive"))
	}
	if c.Server.QueueTimeout <= 0 {
		errs = append(errs, errors.New("server.queue_timeout must be positive"))
	}
	if c.Rollout.Games <= 0 {
		errs = append(errs, errors.New("rollout.games must be positive"))
	}
	if c.Rollout.MaxGames < c.Rollout.Games {
		errs = append(errs, fmt.Errorf("rollout.max_games %d below rollout.games %d", c.Rollout.MaxGames, c.Rollout.Games))
	}
	if c.Rollout.MaxPlies <= 0 {
		errs = append(errs, errors.New("rollout.max_plies must be positive"))
	}
	if c.Rollout.MaxWorkers <= 0 {
		errs = append(errs, errors.New("rollout.max_workers must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
