package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/notifier"
	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/internal/reporter"
	"github.com/user/cibulb/internal/storage"
	"github.com/user/cibulb/internal/telegram"
	"github.com/user/cibulb/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cibulb",
	Short: "CI build status relay",
	Long: `cibulb records GitLab pipeline results per repository, folds them into one
overall status and pushes that status to IFTTT, a pub/sub topic or Telegram.
The light command shows the status on a Bluetooth color bulb.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(lightCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// app holds the collaborators shared by serve and refresh.
type app struct {
	cfg       *config.Config
	relay     *relay.Relay
	connector storage.Connector
	notifier  notifier.Notifier
	reporter  reporter.Reporter
	bot       *telegram.Bot
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rep, err := reporter.New(cfg.Sentry)
	if err != nil {
		return nil, err
	}

	connector, err := storage.NewConnector(cfg.Store)
	if err != nil {
		return nil, err
	}

	var bot *telegram.Bot
	if cfg.Notifier.Mode == config.NotifierTelegram || cfg.Telegram.Commands {
		bot, err = telegram.NewBot(cfg.Telegram, connector)
		if err != nil {
			return nil, err
		}
	}

	n, err := notifier.New(ctx, cfg, bot)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("notifier", n.Name()).
		Str("ref", cfg.GitLab.Ref).
		Msg("Relay configured")

	return &app{
		cfg: cfg,
		relay: relay.New(relay.Options{
			Secret:    cfg.GitLab.SecretToken,
			Ref:       cfg.GitLab.Ref,
			Connector: connector,
			Notifier:  n,
			Reporter:  rep,
		}),
		connector: connector,
		notifier:  n,
		reporter:  rep,
		bot:       bot,
	}, nil
}

// close releases the notifier and flushes pending crash reports.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c, ok := a.notifier.(notifier.Closer); ok {
		if err := c.Close(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to close notifier")
		}
	}
	a.reporter.Flush(2 * time.Second)
}
