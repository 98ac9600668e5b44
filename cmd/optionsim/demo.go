package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/optionsim/internal/application/engine"
	"github.com/alejandrodnm/optionsim/internal/application/pricing"
	"github.com/alejandrodnm/optionsim/internal/domain"
	"github.com/alejandrodnm/optionsim/internal/ports"
)

// runDemo opens a few options, watches them until they settle and prints the
// final history and statistics.
func runDemo(ctx context.Context, eng *engine.Engine, feed *pricing.Feed, notifier ports.Notifier) error {
	go feed.Run(ctx)
	go eng.Run(ctx)

	account, err := eng.Balance(ctx)
	if err != nil {
		return fmt.Errorf("runDemo: %w", err)
	}
	slog.Info("demo: starting session", "balance", fmt.Sprintf("%.2f %s", account.Balance, account.Currency))

	trades := []struct {
		asset    string
		dir      domain.Direction
		stake    float64
		duration time.Duration
	}{
		{"EUR/USD", domain.DirectionCall, 50, 30 * time.Second},
		{"GBP/USD", domain.DirectionPut, 25, 60 * time.Second},
		{"XBT/USD", domain.DirectionCall, 100, 45 * time.Second},
	}

	for _, tr := range trades {
		opt, err := eng.OpenOption(ctx, tr.asset, tr.dir, tr.stake, tr.duration)
		if err != nil {
			return fmt.Errorf("runDemo: open %s: %w", tr.asset, err)
		}
		slog.Info("demo: opened", "id", opt.ID, "asset", opt.Asset, "direction", opt.Direction)
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		positions, err := eng.Positions(ctx)
		if err != nil {
			return fmt.Errorf("runDemo: positions: %w", err)
		}
		account, err := eng.Balance(ctx)
		if err != nil {
			return fmt.Errorf("runDemo: balance: %w", err)
		}
		if err := notifier.NotifyPositions(ctx, positions, account); err != nil {
			slog.Warn("demo: notifier error", "err", err)
		}

		if len(positions) == 0 {
			break
		}
	}

	history, err := eng.History(ctx, 0)
	if err != nil {
		return fmt.Errorf("runDemo: history: %w", err)
	}
	stats, err := eng.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("runDemo: statistics: %w", err)
	}
	account, err = eng.Balance(ctx)
	if err != nil {
		return fmt.Errorf("runDemo: balance: %w", err)
	}
	if err := notifier.NotifySummary(ctx, history, stats, account); err != nil {
		slog.Warn("demo: notifier error", "err", err)
	}

	slog.Info("demo: session complete",
		"trades", stats.TradeCount,
		"won", stats.WonCount,
		"lost", stats.LostCount,
		"net", fmt.Sprintf("%+.2f", stats.NetProfit),
	)
	return nil
}
