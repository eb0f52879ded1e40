// Package config is the viper-backed configuration layer: logging,
// analysis resource limits, engine concurrency, and the optional verdict
// store, adapted from the teacher's Interface/Config split so callers can
// inject a mock Interface in tests.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Interface is the contract every consumer of configuration depends on,
// rather than the concrete *Config, so tests can supply a stub.
type Interface interface {
	Logger() LoggerConfig
	Limits() LimitsConfig
	Engine() EngineConfig
	Store() StoreConfig
}

// LoggerConfig mirrors the teacher's logger configuration shape, trimmed
// to the fields internal/observability actually consumes.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the ANSI color used per log level in console format.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Panic string `mapstructure:"panic" yaml:"panic"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// LimitsConfig configures the evaluator's fixpoint passes, per spec.md
// §4.F's widening threshold and §7's automaton size ceiling.
type LimitsConfig struct {
	WideningThreshold  int `mapstructure:"widening_threshold" yaml:"widening_threshold"`
	MaxAutomatonStates int `mapstructure:"max_automaton_states" yaml:"max_automaton_states"`
}

// EngineConfig configures the driver's concurrent backward-pass fan-out.
type EngineConfig struct {
	WorkerConcurrency int `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
}

// StoreConfig configures the optional persisted-verdict store; an empty
// DSN means verdicts are not persisted.
type StoreConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// Config is the concrete, viper-unmarshaled Interface implementation.
type Config struct {
	logger LoggerConfig
	limits LimitsConfig
	engine EngineConfig
	store  StoreConfig
}

func (c *Config) Logger() LoggerConfig { return c.logger }
func (c *Config) Limits() LimitsConfig { return c.limits }
func (c *Config) Engine() EngineConfig { return c.engine }
func (c *Config) Store() StoreConfig   { return c.store }

// NewDefaultConfig returns a Config populated entirely from SetDefaults,
// with no file or environment overlay -- used by tests and as the
// fallback when a command's context carries no resolved config.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("sanitizer-checker: default config failed validation: %v", err))
	}
	return cfg
}

// SetDefaults installs every default this module reads, grouped by
// section the way the teacher's SetDefaults does.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sanitizer-checker")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("limits.widening_threshold", 3)
	v.SetDefault("limits.max_automaton_states", 100000)

	v.SetDefault("engine.worker_concurrency", 8)

	v.SetDefault("store.postgres_dsn", "")
}

// NewConfigFromViper unmarshals and validates a Config from v, binding the
// store DSN to an environment variable the way the teacher binds its
// GitHub token and database password.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("store.postgres_dsn", "SANITIZER_CHECKER_STORE_DSN")

	var raw struct {
		Logger LoggerConfig `mapstructure:"logger"`
		Limits LimitsConfig `mapstructure:"limits"`
		Engine EngineConfig `mapstructure:"engine"`
		Store  StoreConfig  `mapstructure:"store"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg := &Config{logger: raw.Logger, limits: raw.Limits, engine: raw.Engine, store: raw.Store}
	if cfg.store.PostgresDSN == "" {
		cfg.store.PostgresDSN = os.Getenv("SANITIZER_CHECKER_STORE_DSN")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.engine.WorkerConcurrency <= 0 {
		return fmt.Errorf("engine.worker_concurrency must be a positive integer")
	}
	if c.limits.MaxAutomatonStates < 0 {
		return fmt.Errorf("limits.max_automaton_states must not be negative")
	}
	if c.limits.WideningThreshold <= 0 {
		return fmt.Errorf("limits.widening_threshold must be a positive integer")
	}
	return nil
}
