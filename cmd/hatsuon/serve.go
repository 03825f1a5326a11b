package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxseedlab/hatsuon/internal/config"
	discordpkg "github.com/foxseedlab/hatsuon/internal/discord"
	"github.com/foxseedlab/hatsuon/internal/interaction"
	"github.com/foxseedlab/hatsuon/internal/metrics"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const discordConnectTimeout = 20 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForServe(); err != nil {
				slog.Error("config validation failed", "error", err)
				return err
			}

			slog.Info("startup: building dependency graph")
			injector := setupDI(cfg)
			defer shutdown(injector)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBot(ctx, cfg, injector)
		},
	}
}

func runBot(ctx context.Context, cfg *config.Config, injector do.Injector) error {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		return fmt.Errorf("resolve discord client: %w", err)
	}
	handler, err := do.Invoke[*interaction.Handler](injector)
	if err != nil {
		return fmt.Errorf("resolve interaction handler: %w", err)
	}
	m, err := do.Invoke[*metrics.Metrics](injector)
	if err != nil {
		return fmt.Errorf("resolve metrics: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(connectCtx); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()
	slog.Info("startup: discord connected")

	if err := dc.UpsertGuildSlashCommands(cfg.DiscordGuildID, interaction.SlashCommandDefinitions()); err != nil {
		return fmt.Errorf("upsert slash commands for guild %s: %w", cfg.DiscordGuildID, err)
	}
	dc.RegisterSlashCommandHandler(handler.HandleSlashCommand)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID, "commands", []string{"ipa"})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := m.Serve(gctx, cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics server on %s: %w", cfg.MetricsAddr, err)
		}
		return nil
	})
	g.Go(func() error {
		done := make(chan error, 1)
		go func() {
			slog.Info("startup: entering discord run loop")
			done <- dc.Run()
		}()
		select {
		case <-gctx.Done():
			slog.Info("shutting down")
			return nil
		case err := <-done:
			if err != nil {
				return fmt.Errorf("discord run loop: %w", err)
			}
			return nil
		}
	})
	return g.Wait()
}
