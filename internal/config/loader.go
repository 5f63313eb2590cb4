package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a fixit_config.yaml file and returns a Config with environment
// references resolved and defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes config bytes. name is used in error messages only.
func Parse(data []byte, name string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}

	applyEnvironmentVariables(&cfg)
	resolveEnvVars(&cfg)
	setDefaults(&cfg)
	Validate(&cfg)

	return &cfg, nil
}

// applyEnvironmentVariables exports the environment_variables section into
// the process environment before anything else resolves against it.
func applyEnvironmentVariables(cfg *Config) {
	for k, v := range cfg.EnvironmentVariables {
		os.Setenv(k, ResolveEnvVar(v))
	}
}

func resolveEnvVars(cfg *Config) {
	cfg.Server.AdminKey = ResolveEnvVar(cfg.Server.AdminKey)
	cfg.Upstream.APIKey = ResolveEnvVar(cfg.Upstream.APIKey)
	cfg.Upstream.APIBase = ResolveEnvVar(cfg.Upstream.APIBase)
	cfg.Cache.RedisAddr = ResolveEnvVar(cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ResolveEnvVar(cfg.Cache.RedisPassword)
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Upstream.Provider == "" {
		cfg.Upstream.Provider = "gemini"
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = "gemini-2.0-flash"
	}
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = 60
	}
	if cfg.RateLimit.MaxCalls == 0 {
		cfg.RateLimit.MaxCalls = 5
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Budget.DailyUnits == 0 {
		cfg.Budget.DailyUnits = 20
	}
	if cfg.Budget.WarnBelow == 0 {
		cfg.Budget.WarnBelow = 5
	}
	if cfg.Retry.BackoffSeconds == 0 {
		cfg.Retry.BackoffSeconds = 2
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Pipeline.ContextChunks == 0 {
		cfg.Pipeline.ContextChunks = 3
	}
}
