package config

// Config represents the top-level fixit_config.yaml structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Budget    BudgetConfig    `yaml:"budget"`
	Retry     RetryConfig     `yaml:"retry"`
	Cache     CacheConfig     `yaml:"cache"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`

	// EnvironmentVariables are exported into the process environment before
	// any other field is resolved.
	EnvironmentVariables map[string]string `yaml:"environment_variables"`

	Overflow map[string]any `yaml:",inline"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`

	// AdminKey guards the quota reset endpoint.
	AdminKey string `yaml:"admin_key"`

	Overflow map[string]any `yaml:",inline"`
}

type UpstreamConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	APIBase        string `yaml:"api_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	Overflow map[string]any `yaml:",inline"`
}

type RateLimitConfig struct {
	MaxCalls      int `yaml:"max_calls"`
	WindowSeconds int `yaml:"window_seconds"`

	Overflow map[string]any `yaml:",inline"`
}

type BudgetConfig struct {
	DailyUnits int64 `yaml:"daily_units"`
	WarnBelow  int64 `yaml:"warn_below"`

	// UnitCosts overrides the per-stage cost, keyed by stage name.
	UnitCosts map[string]int64 `yaml:"unit_costs"`

	Overflow map[string]any `yaml:",inline"`
}

type RetryConfig struct {
	BackoffSeconds int `yaml:"backoff_seconds"`

	Overflow map[string]any `yaml:",inline"`
}

type CacheConfig struct {
	Type          string `yaml:"type"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	Overflow map[string]any `yaml:",inline"`
}

type PipelineConfig struct {
	ManualDir     string `yaml:"manual_dir"`
	ContextChunks int    `yaml:"context_chunks"`

	Overflow map[string]any `yaml:",inline"`
}
