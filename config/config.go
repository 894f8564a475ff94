// Package config loads runtime settings from environment variables and an
// optional YAML file, with code-level defaults for everything that is not
// secret. API keys only ever come from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds everything needed to assemble models, agents, and pipelines.
type Config struct {
	Provider        string        `mapstructure:"provider"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	ModelName       string        `mapstructure:"model_name"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int64         `mapstructure:"max_tokens"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxIterations   int           `mapstructure:"max_iterations"`
	HistoryDir      string        `mapstructure:"history_dir"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RetrievalTopK   int           `mapstructure:"retrieval_top_k"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
}

// Load reads configuration from the environment (FATHOM_ prefix) and, when
// path is non-empty, a YAML file. Environment values win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FATHOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Environment values arrive as strings; decode them weakly so numeric
	// and duration fields accept "0.7" or "60s".
	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv values survive Unmarshal;
// viper only considers keys it already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("model_name", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("max_retries", 3)
	v.SetDefault("timeout", "60s")
	v.SetDefault("max_iterations", 0)
	v.SetDefault("history_dir", "./chat_histories")
	v.SetDefault("retrieval_top_k", 3)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Validate checks cross-field requirements: the selected provider must have
// its API key set.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required when provider is %q", c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key is required when provider is %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0, 1]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}
