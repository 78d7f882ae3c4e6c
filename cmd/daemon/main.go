// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/nestsync/internal/api"
	"github.com/ManuGH/nestsync/internal/config"
	"github.com/ManuGH/nestsync/internal/daemon"
	nslog "github.com/ManuGH/nestsync/internal/log"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	outputDir := flag.String("output", "", "directory for saved clips")
	concurrency := flag.Int("concurrency", config.DefaultConcurrency, "maximum simultaneous downloads")
	checkInterval := flag.Duration("check-interval", config.DefaultCheckInterval, "how often to check for new events")
	pruneInterval := flag.Duration("prune-interval", config.DefaultPruneInterval, "how often to prune old clips")
	retention := flag.Int("retention-days", config.DefaultRetentionDays, "maximum clip age before pruning (0 disables)")
	retentionHours := flag.Bool("retention-hours", false, "interpret retention as hours instead of days")
	lookback := flag.Int("lookback-minutes", config.DefaultLookbackMinutes, "how far back each check looks for events")
	once := flag.Bool("once", false, "run a single check and exit")
	listen := flag.String("listen", "", "address for the status/metrics API (empty disables)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	nslog.Configure(nslog.Config{
		Level:   "info",
		Service: "nestsync",
		Version: version,
	})
	logger := nslog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Precedence: flags > ENV > file > defaults. Load resolves the lower
	// three; explicitly set flags win over everything.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.OutputDir = *outputDir
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "check-interval":
			cfg.CheckInterval = *checkInterval
		case "prune-interval":
			cfg.PruneInterval = *pruneInterval
		case "retention-days":
			cfg.RetentionDays = *retention
		case "retention-hours":
			cfg.RetentionHours = *retentionHours
		case "lookback-minutes":
			cfg.LookbackMinutes = *lookback
		case "once":
			cfg.Once = *once
		case "listen":
			cfg.ListenAddr = *listen
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("invalid configuration")
	}

	nslog.SetLevel(cfg.LogLevel)

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Msg("starting nestsync")
	logger.Info().Msgf("→ Output: %s (timezone %s)", cfg.OutputDir, cfg.Timezone)
	logger.Info().Msgf("→ Check: every %s, lookback %dm, %d parallel downloads",
		cfg.CheckInterval, cfg.LookbackMinutes, cfg.Concurrency)
	if r := cfg.Retention(); r > 0 {
		logger.Info().Msgf("→ Prune: every %s, retention %s", cfg.PruneInterval, r)
	} else {
		logger.Info().Msg("→ Prune: disabled")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.output_dir_failed").
			Str("dir", cfg.OutputDir).
			Msg("cannot create output directory")
	}

	mgr := daemon.New(cfg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mgr.Run(ctx)
	})
	if cfg.ListenAddr != "" && !cfg.Once {
		logger.Info().Msgf("→ API: listening on %s", cfg.ListenAddr)
		srv := api.New(cfg.ListenAddr, api.Deps{
			Status:  mgr.Status(),
			Ready:   mgr.Ready,
			Version: version,
		})
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}
	logger.Info().Msg("nestsync exiting")
}
