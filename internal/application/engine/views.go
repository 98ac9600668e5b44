package engine

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// Every accessor sweeps due options first, so callers that never invoke
// Settle or Run still observe settled state once expiry has passed.

// Balance returns the account after settling anything due.
func (e *Engine) Balance(ctx context.Context) (domain.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)
	return e.account, nil
}

// OpenTrades returns all options still OPEN.
func (e *Engine) OpenTrades(ctx context.Context) ([]domain.Option, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)
	open, err := e.journal.OpenOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.OpenTrades: %w", err)
	}
	return open, nil
}

// Positions returns the open options enriched with the current price, time
// left and whether each would win if settled now.
func (e *Engine) Positions(ctx context.Context) ([]domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)
	open, err := e.journal.OpenOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.Positions: %w", err)
	}

	now := e.clock.Now()
	positions := make([]domain.Position, 0, len(open))
	for _, opt := range open {
		price, err := e.prices.Price(ctx, opt.Asset)
		if err != nil {
			return nil, fmt.Errorf("engine.Positions: price %q: %w", opt.Asset, err)
		}
		positions = append(positions, domain.Position{
			Option:       opt,
			CurrentPrice: price,
			TimeLeft:     opt.Remaining(now),
			Winning:      domain.Outcome(opt.Direction, opt.EntryPrice, price) == domain.StatusWon,
		})
	}
	return positions, nil
}

// History returns the ledger newest-first, at most limit entries (0 = all).
func (e *Engine) History(ctx context.Context, limit int) ([]domain.Option, error) {
	if limit < 0 {
		return nil, fmt.Errorf("engine.History: %w: limit %d", domain.ErrInvalidParameter, limit)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)
	history, err := e.journal.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("engine.History: %w", err)
	}
	return history, nil
}

// Statistics recomputes the aggregate stats from the full ledger. Nothing is
// cached incrementally, so the numbers can't drift from the options they
// summarize.
func (e *Engine) Statistics(ctx context.Context) (domain.Statistics, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)
	all, err := e.journal.All(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("engine.Statistics: %w", err)
	}
	return domain.ComputeStatistics(all), nil
}

// Reset wipes the ledger and restores the balance.
func (e *Engine) Reset(ctx context.Context, initialBalance float64) error {
	if initialBalance < 0 {
		return fmt.Errorf("engine.Reset: %w: initial balance %.2f", domain.ErrInvalidParameter, initialBalance)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.journal.Reset(ctx); err != nil {
		return fmt.Errorf("engine.Reset: %w", err)
	}
	e.account.Balance = initialBalance
	return nil
}
