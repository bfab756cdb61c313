package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmaher/corkboard/internal/config"
	"github.com/dmaher/corkboard/internal/maintenance"
	"github.com/dmaher/corkboard/internal/notify"
	"github.com/dmaher/corkboard/internal/notify/discord"
	"github.com/dmaher/corkboard/internal/notify/slack"
	"github.com/dmaher/corkboard/internal/server"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Corkboard API server",
		Long:  "Runs the HTTP API, plus the activity digest watcher and the maintenance sweep when enabled in config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Notify.Enabled {
		if err := startNotify(ctx, cmd, cfg, gormDB); err != nil {
			return err
		}
	}

	if cfg.Maintenance.Enabled {
		sched, err := maintenance.NewScheduler(ctx, gormDB, cfg.Maintenance.Cron)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Maintenance sweep scheduled: %s\n", cfg.Maintenance.Cron)
	}

	return server.Start(ctx, server.StartOpts{
		DB:          gormDB,
		Port:        port,
		MoveTimeout: cfg.Placement.MoveTimeout(),
		Out:         cmd.OutOrStdout(),
	})
}

// startNotify connects the configured chat adapters and starts the digest
// watcher in the background.
func startNotify(ctx context.Context, cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB) error {
	var adapters []notify.Adapter

	if cfg.Notify.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return err
		}
		adapters = append(adapters, a)
	}
	if cfg.Notify.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return err
		}
		adapters = append(adapters, a)
	}

	for _, a := range adapters {
		if err := a.Connect(ctx); err != nil {
			return fmt.Errorf("connect notify adapter: %w", err)
		}
	}

	watcher, err := notify.NewWatcher(notify.WatcherOpts{
		DB:       gormDB,
		Adapters: adapters,
		Interval: time.Duration(cfg.Notify.IntervalMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}
	go func() {
		defer func() {
			for _, a := range adapters {
				a.Close()
			}
		}()
		watcher.Run(ctx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Notify watcher running (%d adapter(s), every %dm)\n",
		len(adapters), cfg.Notify.IntervalMinutes)
	return nil
}

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance sweep now",
		Long:  "Inspects every column's position keyspace and rebalances the ones drifting toward exhaustion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			report, err := maintenance.Sweep(cmd.Context(), gormDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d columns, rebalanced %d (%d rows)\n",
				report.ColumnsChecked, report.ColumnsRebalanced, report.RowsTouched)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	return cmd
}
