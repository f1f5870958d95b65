// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Notifier modes.
const (
	NotifierIFTTT    = "ifttt"
	NotifierPubSub   = "pubsub"
	NotifierTelegram = "telegram"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	GitLab   GitLabConfig   `mapstructure:"gitlab"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	IFTTT    IFTTTConfig    `mapstructure:"ifttt"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Light    LightConfig    `mapstructure:"light"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StoreConfig holds repository record store configuration.
type StoreConfig struct {
	URI      string `mapstructure:"uri"`      // SQLite path or mongodb:// URI
	Database string `mapstructure:"database"` // Mongo only
	Table    string `mapstructure:"table"`    // table or collection
}

// GitLabConfig holds inbound pipeline webhook settings.
type GitLabConfig struct {
	SecretToken string `mapstructure:"secret_token"`
	Ref         string `mapstructure:"ref"`
}

// NotifierConfig selects the outbound notification client.
type NotifierConfig struct {
	Mode string `mapstructure:"mode"` // ifttt, pubsub, or telegram
}

// IFTTTConfig holds IFTTT webhook trigger settings.
type IFTTTConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Key         string `mapstructure:"key"`
	EventPrefix string `mapstructure:"event_prefix"`
}

// PubSubConfig holds the topic the aggregate is published to.
type PubSubConfig struct {
	Topic string `mapstructure:"topic"` // gocloud.dev URL, e.g. awssns:///arn:...
}

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	ChatID      int64  `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
	Commands    bool   `mapstructure:"commands"` // answer /status etc.
	Debug       bool   `mapstructure:"debug"`
}

// SentryConfig holds crash reporting configuration.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// RefreshConfig holds the in-process refresh scheduler settings.
type RefreshConfig struct {
	Interval int `mapstructure:"interval"` // seconds, 0 disables
}

// GitHubConfig holds the commit status source used by the light.
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
	Owner  string `mapstructure:"owner"`
	Repo   string `mapstructure:"repo"`
	Ref    string `mapstructure:"ref"`
}

// LightConfig holds Bluetooth bulb settings.
type LightConfig struct {
	Name string `mapstructure:"name"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Read environment variables
	v.SetEnvPrefix("CIBULB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.uri", "./data/cibulb.db")
	v.SetDefault("store.database", "cibulb")
	v.SetDefault("store.table", "repositories")
	v.SetDefault("gitlab.secret_token", "")
	v.SetDefault("gitlab.ref", "master")
	v.SetDefault("notifier.mode", NotifierIFTTT)
	v.SetDefault("ifttt.base_url", "https://maker.ifttt.com")
	v.SetDefault("ifttt.key", "")
	v.SetDefault("ifttt.event_prefix", "ci_build_")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.api_endpoint", "")
	v.SetDefault("telegram.commands", false)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("refresh.interval", 0)
	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", "")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.ref", "master")
	v.SetDefault("light.name", "icolorlive")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Validate checks the fields the relay needs to serve webhooks and refreshes.
func (c *Config) Validate() error {
	if c.Store.URI == "" {
		return fmt.Errorf("store uri is required")
	}
	if c.GitLab.SecretToken == "" {
		return fmt.Errorf("gitlab secret token is required")
	}
	return c.ValidateNotifier()
}

// ValidateNotifier checks the settings of the selected notification client.
func (c *Config) ValidateNotifier() error {
	switch c.Notifier.Mode {
	case NotifierIFTTT:
		if c.IFTTT.BaseURL == "" || c.IFTTT.Key == "" {
			return fmt.Errorf("ifttt base url and key are required")
		}
	case NotifierPubSub:
		if c.PubSub.Topic == "" {
			return fmt.Errorf("pubsub topic is required")
		}
	case NotifierTelegram:
		if c.Telegram.Token == "" || c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram token and chat id are required")
		}
	default:
		return fmt.Errorf("unknown notifier mode %q", c.Notifier.Mode)
	}
	return nil
}

// ServerAddress returns the full server address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
