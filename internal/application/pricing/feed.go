package pricing

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/optionsim/internal/ports"
)

// Feed keeps every active asset's walk moving in the background, so prices
// advance even while no caller is polling them.
type Feed struct {
	sim      *Simulator
	registry ports.AssetRegistry
	limiter  *rate.Limiter
}

// NewFeed creates a background feed ticking once per interval.
func NewFeed(sim *Simulator, registry ports.AssetRegistry, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Feed{
		sim:      sim,
		registry: registry,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run advances all active assets until the context is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	slog.Info("price feed starting", "assets", len(f.registry.List()))

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			slog.Info("price feed stopped")
			return nil
		}
		for _, a := range f.registry.List() {
			if !a.Active {
				continue
			}
			if _, err := f.sim.Price(ctx, a.Name); err != nil {
				slog.Warn("price feed: advance failed", "asset", a.Name, "err", err)
			}
		}
	}
}
