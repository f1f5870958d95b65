package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cibulb/internal/scheduler"
	"github.com/user/cibulb/internal/server"
	"github.com/user/cibulb/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook, refresh and status endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger.Info().Msg("Starting cibulb relay")

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			// Start scheduler if enabled
			var sched *scheduler.Scheduler
			if cfg.Refresh.Interval > 0 {
				sched = scheduler.New(a.relay.Refresh, time.Duration(cfg.Refresh.Interval)*time.Second)
				sched.Start()
			}

			srv := &http.Server{
				Addr:    cfg.ServerAddress(),
				Handler: server.NewRouter(a.relay),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("address", cfg.ServerAddress()).Msg("Starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			if a.bot != nil && cfg.Telegram.Commands {
				a.bot.Start()
				defer a.bot.Stop()
			}

			// Wait for shutdown signal
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case err = <-errCh:
				logger.Error().Err(err).Msg("HTTP server error")
			}

			logger.Info().Msg("Shutting down...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if sched != nil {
				sched.Stop()
			}
			if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
				logger.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("Shutdown complete")
			return err
		},
	}
}
