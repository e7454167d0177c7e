package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Model.Name)
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.Equal(t, 5, cfg.Chat.MaxToolCalls)
	assert.Equal(t, 4000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, "en", cfg.Wikipedia.DefaultLanguage)
	assert.Equal(t, 3, cfg.Wikipedia.SearchLimit)
	assert.Equal(t, 10*time.Second, cfg.Wikipedia.Timeout)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
  mode: debug
chat:
  max_tool_calls: 3
wikipedia:
  default_language: ja
  rate_per_second: 1.5
auth:
  enabled: true
  mode: static
  tokens:
    sekrit: alice
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 3, cfg.Chat.MaxToolCalls)
	assert.Equal(t, "ja", cfg.Wikipedia.DefaultLanguage)
	assert.Equal(t, 1.5, cfg.Wikipedia.RatePerSecond)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "alice", cfg.Auth.Tokens["sekrit"])

	// File values merge over defaults; untouched keys keep theirs.
	assert.Equal(t, 4000, cfg.Chat.MaxMessageLength)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	t.Setenv("WIKICHAT_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.Model.APIKey)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Model.APIKey = "sk-test"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.Model.APIKey = "" }, "api_key"},
		{"bad server mode", func(c *Config) { c.Server.Mode = "verbose" }, "server.mode"},
		{"zero max tokens", func(c *Config) { c.Model.MaxTokens = 0 }, "max_tokens"},
		{"zero tool calls", func(c *Config) { c.Chat.MaxToolCalls = 0 }, "max_tool_calls"},
		{"zero message length", func(c *Config) { c.Chat.MaxMessageLength = -1 }, "max_message_length"},
		{"zero search limit", func(c *Config) { c.Wikipedia.SearchLimit = 0 }, "search_limit"},
		{"static auth without tokens", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Mode = AuthModeStatic
		}, "auth.tokens"},
		{"jwks auth without url", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Mode = AuthModeJWKS
		}, "jwks_url"},
		{"unknown auth mode", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Mode = "oauth"
		}, "auth.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: "8081"}}
	assert.Equal(t, "127.0.0.1:8081", cfg.ServerAddr())
}
