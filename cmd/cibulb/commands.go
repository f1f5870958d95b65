package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"tinygo.org/x/bluetooth"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/github"
	"github.com/user/cibulb/internal/indicator"
	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/internal/storage"
	"github.com/user/cibulb/pkg/logger"
)

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute the overall status and notify once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.relay.Refresh(cmd.Context())
			fmt.Printf("%s %s\n", res.Outcome, res.Aggregate)
			if res.Outcome == relay.OutcomeFailed {
				return res.Err
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored repositories and the overall status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connector, err := storage.NewConnector(cfg.Store)
			if err != nil {
				return err
			}

			records, agg, err := relay.New(relay.Options{Connector: connector}).Current(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"status": agg, "repositories": records})
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Repository", "Status", "Updated"})
			for _, r := range records {
				tw.AppendRow(table.Row{r.Name, r.Status, r.UpdatedAt.Format(time.RFC3339)})
			}
			tw.AppendFooter(table.Row{"Overall", agg, ""})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func lightCmd() *cobra.Command {
	var (
		relayURL string
		state    string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "light",
		Short: "Show the build status on the Bluetooth bulb",
		Long: `light reads the build status from a relay (--relay-url), from GitHub commit
statuses (github.* settings) or from --status, and sets the bulb color:
pending is yellow, failures are red, success is green and anything else pink.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			src, err := lightSource(cfg, relayURL, state)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			st, err := src.State(ctx)
			if err != nil {
				return err
			}
			color := indicator.ColorFor(st)
			logger.Info().Str("state", st).Str("color", color.String()).Msg("Build status fetched")

			bulb, err := indicator.Connect(ctx, bluetooth.DefaultAdapter, cfg.Light.Name)
			if err != nil {
				return err
			}
			defer func() {
				if err := bulb.Disconnect(); err != nil {
					logger.Warn().Err(err).Msg("Failed to disconnect light")
				}
			}()

			if err := bulb.SetMode(indicator.ModeColor); err != nil {
				return err
			}
			return bulb.SetColor(color)
		},
	}
	cmd.Flags().StringVar(&relayURL, "relay-url", "", "base URL of a cibulb relay")
	cmd.Flags().StringVar(&state, "status", "", "show this state instead of fetching one")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

// lightSource picks the status source: an explicit state, then a relay, then
// GitHub.
func lightSource(cfg *config.Config, relayURL, state string) (indicator.Source, error) {
	switch {
	case state != "":
		return indicator.StaticSource(state), nil
	case relayURL != "":
		return indicator.RelaySource{URL: relayURL}, nil
	case cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "":
		client, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
		if err != nil {
			return nil, err
		}
		return indicator.GitHubSource{
			Client: client,
			Owner:  cfg.GitHub.Owner,
			Repo:   cfg.GitHub.Repo,
			Ref:    cfg.GitHub.Ref,
		}, nil
	default:
		return nil, fmt.Errorf("no status source: pass --relay-url or --status, or set github.owner and github.repo")
	}
}
