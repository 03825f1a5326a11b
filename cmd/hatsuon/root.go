package main

import (
	"log/slog"
	"os"

	audioimpl "github.com/foxseedlab/hatsuon/external/audio"
	configloader "github.com/foxseedlab/hatsuon/external/config"
	"github.com/foxseedlab/hatsuon/external/discord"
	phonemizerimpl "github.com/foxseedlab/hatsuon/external/phonemizer"
	repositoryimpl "github.com/foxseedlab/hatsuon/external/repository"
	synthesisimpl "github.com/foxseedlab/hatsuon/external/synthesis"
	transcriberimpl "github.com/foxseedlab/hatsuon/external/transcriber"
	webhookimpl "github.com/foxseedlab/hatsuon/external/webhook"
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/interaction"
	"github.com/foxseedlab/hatsuon/internal/metrics"
	"github.com/foxseedlab/hatsuon/internal/pipeline"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "hatsuon",
		Short:         "Convert spoken or typed English into IPA and read it back",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is parsed")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newServeCmd(opts), newConvertCmd(opts))
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := configloader.Load(opts.envFile)
	if err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, err
	}
	initLogger(cfg, opts.verbose)
	slog.Info("startup: configuration loaded", "env", cfg.Env)
	return cfg, nil
}

func initLogger(cfg *config.Config, verbose bool) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() || verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metrics.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	phonemizerimpl.RegisterDI(injector)
	synthesisimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	pipeline.RegisterDI(injector)
	interaction.RegisterDI(injector)

	return injector
}

func shutdown(injector do.Injector) {
	if report := injector.Shutdown(); report != nil && !report.Succeed {
		slog.Error("dependency shutdown failed", "error", report.Error())
	}
}
