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
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Remote     RemoteConfig     `yaml:"remote" mapstructure:"remote"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Correction CorrectionConfig `yaml:"correction" mapstructure:"correction"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ClassifierConfig selects the classification path.
type ClassifierConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"`
	Provider     string `yaml:"provider" mapstructure:"provider"`
	Model        string `yaml:"model" mapstructure:"model"`
	TaxonomyPath string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RemoteConfig configures outbound classification calls.
type RemoteConfig struct {
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMs          int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	MinBackoffMs     int     `yaml:"min_backoff_ms" mapstructure:"min_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	DescriptionLimit int     `yaml:"description_limit" mapstructure:"description_limit"`
	FallbackOnError  bool    `yaml:"fallback_on_error" mapstructure:"fallback_on_error"`
	CircuitThreshold int     `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	CheckpointPath  string  `yaml:"checkpoint_path" mapstructure:"checkpoint_path"`
	CheckpointEvery int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	CostPerCall     float64 `yaml:"cost_per_call" mapstructure:"cost_per_call"`
}

// CorrectionConfig configures the founding-year correction.
type CorrectionConfig struct {
	ThresholdYear   int     `yaml:"threshold_year" mapstructure:"threshold_year"`
	MinNumericShare float64 `yaml:"min_numeric_share" mapstructure:"min_numeric_share"`
}

// PricingConfig holds per-model token pricing overrides.
type PricingConfig struct {
	Models map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("ARCHETYPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("classifier.mode", "keyword")
	v.SetDefault("classifier.provider", "anthropic")
	v.SetDefault("classifier.model", "")
	v.SetDefault("classifier.taxonomy_path", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("remote.temperature", 0.0)
	v.SetDefault("remote.max_tokens", 800)
	v.SetDefault("remote.timeout_secs", 30)
	v.SetDefault("remote.delay_ms", 500)
	v.SetDefault("remote.max_attempts", 3)
	v.SetDefault("remote.min_backoff_ms", 2000)
	v.SetDefault("remote.max_backoff_ms", 10000)
	v.SetDefault("remote.description_limit", 500)
	v.SetDefault("remote.fallback_on_error", false)
	v.SetDefault("remote.circuit_threshold", 5)
	v.SetDefault("remote.circuit_reset_secs", 60)
	v.SetDefault("batch.checkpoint_path", "")
	v.SetDefault("batch.checkpoint_every", 5)
	v.SetDefault("batch.cost_per_call", 0.0002)
	v.SetDefault("correction.threshold_year", 2010)
	v.SetDefault("correction.min_numeric_share", 0.3)
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

// RemoteModel returns the model for the configured provider. An explicit
// classifier.model wins.
func (c *Config) RemoteModel() string {
	if c.Classifier.Model != "" {
		return c.Classifier.Model
	}
	if c.Classifier.Provider == "openai" {
		return c.OpenAI.Model
	}
	return c.Anthropic.Model
}

// MissingRemoteKey names the API key setting the configured provider needs
// but lacks, or returns "" when it is set. A missing key is not a
// validation error: AI mode degrades to keyword fallback.
func (c *Config) MissingRemoteKey() string {
	switch c.Classifier.Provider {
	case "openai":
		if c.OpenAI.Key == "" {
			return "openai.key"
		}
	case "anthropic", "":
		if c.Anthropic.Key == "" {
			return "anthropic.key"
		}
	}
	return ""
}

// Validate checks the settings needed by a command. mode is "classify",
// "estimate" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "classify", "serve":
		errs = append(errs, c.validateClassifier()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "estimate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.CheckpointEvery < 0 {
		errs = append(errs, "batch.checkpoint_every must be >= 0")
	}
	if c.Batch.CostPerCall < 0 {
		errs = append(errs, "batch.cost_per_call must be >= 0")
	}
	if s := c.Correction.MinNumericShare; s < 0 || s > 1 {
		errs = append(errs, "correction.min_numeric_share must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateClassifier() []string {
	var errs []string
	switch c.Classifier.Mode {
	case "keyword":
		return nil
	case "ai":
	default:
		return []string{"classifier.mode must be keyword or ai"}
	}

	switch c.Classifier.Provider {
	case "anthropic", "", "openai":
	default:
		errs = append(errs, "classifier.provider must be anthropic or openai")
	}
	if c.Remote.MaxTokens <= 0 {
		errs = append(errs, "remote.max_tokens must be > 0")
	}
	if t := c.Remote.Temperature; t < 0 || t > 2 {
		errs = append(errs, "remote.temperature must be between 0 and 2")
	}
	return errs
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
