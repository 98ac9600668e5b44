package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/optionsim/config"
	"github.com/alejandrodnm/optionsim/internal/adapters/api"
	"github.com/alejandrodnm/optionsim/internal/adapters/assets"
	"github.com/alejandrodnm/optionsim/internal/adapters/notify"
	"github.com/alejandrodnm/optionsim/internal/adapters/session"
	"github.com/alejandrodnm/optionsim/internal/adapters/storage"
	"github.com/alejandrodnm/optionsim/internal/application/engine"
	"github.com/alejandrodnm/optionsim/internal/application/pricing"
	"github.com/alejandrodnm/optionsim/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	demo := flag.Bool("demo", false, "run a scripted demo session and exit")
	serve := flag.Bool("serve", false, "expose the engine over JSON REST")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	deviceID := flag.String("device-id", "", "account/device ID (default: DEVICE_ID env or random)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("optionsim starting",
		"config", *configPath,
		"balance", cfg.Engine.InitialBalance,
		"currency", cfg.Engine.Currency,
		"payout_rate", cfg.Engine.PayoutRate,
		"dsn", cfg.Storage.DSN,
		"demo", *demo,
		"serve", *serve,
	)

	registry := buildRegistry(cfg)
	sim := pricing.New(pricing.Config{
		TickInterval: cfg.TickInterval(),
		Volatility:   cfg.Pricing.Volatility,
		Seed:         cfg.Pricing.Seed,
	}, nil)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open trade journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	eng := engine.New(engine.Config{
		InitialBalance:   cfg.Engine.InitialBalance,
		Currency:         cfg.Engine.Currency,
		PayoutRate:       cfg.Engine.PayoutRate,
		AllowedDurations: cfg.Durations(),
		SweepInterval:    cfg.SweepInterval(),
	}, sim, registry, journal, session.NewDevice(*deviceID), nil)

	notifier := notify.NewConsole(*table)
	feed := pricing.NewFeed(sim, registry, cfg.TickInterval())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *demo {
		if err := runDemo(ctx, eng, feed, notifier); err != nil {
			slog.Error("demo failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *serve {
		go feed.Run(ctx)
		go eng.Run(ctx)

		srv := api.NewServer(eng, sim, registry)
		if err := srv.Start(ctx, cfg.API.Addr); err != nil {
			slog.Error("api server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("optionsim stopped cleanly")
		return
	}

	flag.Usage()
}

// loadConfig falls back to built-in defaults when the default config file is
// absent, so `optionsim -demo` works out of the box.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func buildRegistry(cfg *config.Config) *assets.Registry {
	if len(cfg.Assets) == 0 {
		return assets.New(assets.Defaults())
	}
	list := make([]domain.Asset, len(cfg.Assets))
	for i, a := range cfg.Assets {
		list[i] = domain.Asset{Name: a.Name, RIC: a.RIC, Active: a.Active}
	}
	return assets.New(list)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
