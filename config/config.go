// Package config loads wikichat configuration from defaults, an optional
// config file, and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the wikichat service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, or test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ModelConfig configures the Anthropic model client.
type ModelConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Name      string `mapstructure:"name"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ChatConfig configures the tool-use loop.
type ChatConfig struct {
	MaxToolCalls     int    `mapstructure:"max_tool_calls"`
	MaxMessageLength int    `mapstructure:"max_message_length"`
	SystemPrompt     string `mapstructure:"system_prompt"` // empty uses the built-in prompt
}

// WikipediaConfig configures the Wikipedia search client.
type WikipediaConfig struct {
	DefaultLanguage string        `mapstructure:"default_language"`
	SearchLimit     int           `mapstructure:"search_limit"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// AuthConfig configures optional bearer-token authentication for the chat
// endpoints.
type AuthConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Mode     string            `mapstructure:"mode"`   // static or jwks
	Tokens   map[string]string `mapstructure:"tokens"` // token -> subject, static mode only
	JWKSURL  string            `mapstructure:"jwks_url"`
	Issuer   string            `mapstructure:"issuer"`
	Audience string            `mapstructure:"audience"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Auth modes accepted by Validate.
const (
	AuthModeStatic = "static"
	AuthModeJWKS   = "jwks"
)

// ErrMissingAPIKey is returned by Validate when no Anthropic API key is
// configured. The key may come from the config file or the
// ANTHROPIC_API_KEY environment variable.
var ErrMissingAPIKey = errors.New("config: model.api_key is required (set ANTHROPIC_API_KEY)")

// Load reads configuration from the given file path. When path is empty it
// searches for a file named "config" (yaml) in "." and "./config", and missing
// files are fine: defaults plus environment variables apply. Environment
// variables use the WIKICHAT_ prefix with underscores (WIKICHAT_SERVER_PORT);
// ANTHROPIC_API_KEY is bound to model.api_key directly.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("WIKICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("model.api_key", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "claude-haiku-4-5-20251001")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.max_tokens", 4096)

	v.SetDefault("chat.max_tool_calls", 5)
	v.SetDefault("chat.max_message_length", 4000)
	v.SetDefault("chat.system_prompt", "")

	v.SetDefault("wikipedia.default_language", "en")
	v.SetDefault("wikipedia.search_limit", 3)
	v.SetDefault("wikipedia.timeout", "10s")
	v.SetDefault("wikipedia.user_agent", "wikichat/0.1 (https://github.com/localrivet/wikichat)")
	v.SetDefault("wikipedia.rate_per_second", 5.0)
	v.SetDefault("wikipedia.rate_burst", 5)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.mode", AuthModeStatic)
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("log.level", "info")
}

// Validate checks the configuration for values the service cannot start
// without. It is called by the server binary, not by Load, so library users
// may build partial configs.
func (c *Config) Validate() error {
	if c.Model.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: invalid server.mode %q", c.Server.Mode)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config: model.max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	if c.Chat.MaxToolCalls <= 0 {
		return fmt.Errorf("config: chat.max_tool_calls must be positive, got %d", c.Chat.MaxToolCalls)
	}
	if c.Chat.MaxMessageLength <= 0 {
		return fmt.Errorf("config: chat.max_message_length must be positive, got %d", c.Chat.MaxMessageLength)
	}
	if c.Wikipedia.SearchLimit <= 0 {
		return fmt.Errorf("config: wikipedia.search_limit must be positive, got %d", c.Wikipedia.SearchLimit)
	}
	if c.Auth.Enabled {
		switch c.Auth.Mode {
		case AuthModeStatic:
			if len(c.Auth.Tokens) == 0 {
				return fmt.Errorf("config: auth.tokens must not be empty in static mode")
			}
		case AuthModeJWKS:
			if c.Auth.JWKSURL == "" {
				return fmt.Errorf("config: auth.jwks_url is required in jwks mode")
			}
		default:
			return fmt.Errorf("config: invalid auth.mode %q", c.Auth.Mode)
		}
	}
	return nil
}

// ServerAddr returns the host:port the HTTP server listens on.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
