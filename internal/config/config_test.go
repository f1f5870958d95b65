package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "gitlab:\n  secret_token: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, "./data/cibulb.db", cfg.Store.URI)
	assert.Equal(t, "repositories", cfg.Store.Table)
	assert.Equal(t, "master", cfg.GitLab.Ref)
	assert.Equal(t, NotifierIFTTT, cfg.Notifier.Mode)
	assert.Equal(t, "ci_build_", cfg.IFTTT.EventPrefix)
	assert.Equal(t, "icolorlive", cfg.Light.Name)
	assert.Equal(t, 0, cfg.Refresh.Interval)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
store:
  uri: mongodb://localhost:27017
notifier:
  mode: telegram
telegram:
  token: abc
  chat_id: 42
`)
	t.Setenv("CIBULB_GITLAB_SECRET_TOKEN", "from-env")
	t.Setenv("CIBULB_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI)
	assert.Equal(t, "from-env", cfg.GitLab.SecretToken)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:    StoreConfig{URI: "x.db"},
			GitLab:   GitLabConfig{SecretToken: "s"},
			Notifier: NotifierConfig{Mode: NotifierIFTTT},
			IFTTT:    IFTTTConfig{BaseURL: "http://ifttt", Key: "k"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no secret", func(c *Config) { c.GitLab.SecretToken = "" }, "secret token"},
		{"no store", func(c *Config) { c.Store.URI = "" }, "store uri"},
		{"no ifttt key", func(c *Config) { c.IFTTT.Key = "" }, "ifttt"},
		{"pubsub without topic", func(c *Config) { c.Notifier.Mode = NotifierPubSub }, "pubsub topic"},
		{"pubsub with topic", func(c *Config) {
			c.Notifier.Mode = NotifierPubSub
			c.PubSub.Topic = "mem://cibulb"
		}, ""},
		{"telegram without chat", func(c *Config) {
			c.Notifier.Mode = NotifierTelegram
			c.Telegram.Token = "t"
		}, "chat id"},
		{"unknown mode", func(c *Config) { c.Notifier.Mode = "smoke-signal" }, "unknown notifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
