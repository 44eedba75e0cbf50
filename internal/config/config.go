// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset" mapstructure:"dataset"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Rubric    RubricConfig    `yaml:"rubric" mapstructure:"rubric"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DatasetConfig points at the directory holding the four source tables.
type DatasetConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// RunConfig configures chain execution.
type RunConfig struct {
	Steps     []string `yaml:"steps" mapstructure:"steps"`
	Instances int      `yaml:"instances" mapstructure:"instances"`
	Workers   int      `yaml:"workers" mapstructure:"workers"`
	Backend   string   `yaml:"backend" mapstructure:"backend"`
	Label     string   `yaml:"label" mapstructure:"label"`
}

// RubricConfig points at an optional synthesis rubric override file.
type RubricConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures result output.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHAINBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.requests_per_minute", 60)
	v.SetDefault("run.steps", []string{"s1", "s2", "s3", "s4", "s5:cb", "s5:rag", "s6", "s7"})
	v.SetDefault("run.instances", 5)
	v.SetDefault("run.workers", 4)
	v.SetDefault("run.backend", "anthropic")
	v.SetDefault("run.label", "")
	v.SetDefault("rubric.path", "")
	v.SetDefault("output.path", "results/results.jsonl")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "chainbench.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields required by the given command mode are
// present and in range. It aggregates all problems into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Run.Workers < 1 || c.Run.Workers > 64 {
		problems = append(problems, "run.workers must be between 1 and 64")
	}

	switch mode {
	case "run":
		if c.Dataset.Dir == "" {
			problems = append(problems, "dataset.dir is required")
		}
		if c.Run.Backend == "anthropic" && c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required for the anthropic backend")
		}
		if c.Output.Path == "" {
			problems = append(problems, "output.path is required")
		}
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "validate":
		if c.Dataset.Dir == "" {
			problems = append(problems, "dataset.dir is required")
		}
	case "report":
		// No extra requirements beyond the shared checks.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
