package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/optionsim/internal/domain"
	"github.com/alejandrodnm/optionsim/internal/ports"
	"github.com/alejandrodnm/optionsim/internal/util"
)

const (
	DefaultInitialBalance = 8000.0
	DefaultCurrency       = "USD"
	defaultSweepInterval  = time.Second
)

// Config holds engine-specific settings.
type Config struct {
	InitialBalance float64
	Currency       string
	PayoutRate     float64

	// AllowedDurations, when non-empty, restricts options to the listed
	// lengths. Empty means any positive duration.
	AllowedDurations []time.Duration

	// SweepInterval is the cadence of the background settlement loop.
	SweepInterval time.Duration
}

// Engine owns all mutable trading state: the account, the option ledger and
// the link to the price feed. Every mutation happens under one mutex, so
// concurrent opens can't double-spend the balance and concurrent settles
// can't credit a payout twice.
type Engine struct {
	cfg      Config
	prices   ports.PriceSource
	registry ports.AssetRegistry
	journal  ports.TradeJournal
	clock    util.Clock

	mu      sync.Mutex
	account domain.Account
}

// New creates an engine trading under the session's account context.
// A nil clock means wall-clock time.
func New(
	cfg Config,
	prices ports.PriceSource,
	registry ports.AssetRegistry,
	journal ports.TradeJournal,
	session ports.Session,
	clock util.Clock,
) *Engine {
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = DefaultInitialBalance
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.PayoutRate <= 0 {
		cfg.PayoutRate = domain.DefaultPayoutRate
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Engine{
		cfg:      cfg,
		prices:   prices,
		registry: registry,
		journal:  journal,
		clock:    clock,
		account: domain.Account{
			ID:       session.AccountID(),
			Balance:  cfg.InitialBalance,
			Currency: cfg.Currency,
		},
	}
}

// OpenOption validates and registers a CALL/PUT option: the stake is debited
// immediately so the balance always reflects committed risk, the entry price
// is read from the feed, and the option is appended to the ledger. The
// returned Option is a copy the caller can't corrupt.
func (e *Engine) OpenOption(
	ctx context.Context,
	asset string,
	dir domain.Direction,
	stake float64,
	duration time.Duration,
) (domain.Option, error) {
	if !dir.Valid() {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: direction %q", domain.ErrInvalidParameter, dir)
	}
	if stake <= 0 {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: stake %.2f", domain.ErrInvalidParameter, stake)
	}
	if duration <= 0 {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: duration %s", domain.ErrInvalidParameter, duration)
	}
	if !e.durationAllowed(duration) {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: duration %s not in allowed set", domain.ErrInvalidParameter, duration)
	}

	a, ok := e.registry.Lookup(asset)
	if !ok {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: unknown asset %q", domain.ErrAssetUnavailable, asset)
	}
	if !a.Active {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: asset %q is inactive", domain.ErrAssetUnavailable, a.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(ctx)

	if stake > e.account.Balance {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: %w: stake %.2f > balance %.2f",
			domain.ErrInsufficientBalance, stake, e.account.Balance)
	}

	entry, err := e.prices.Price(ctx, a.Name)
	if err != nil {
		return domain.Option{}, fmt.Errorf("engine.OpenOption: entry price: %w", err)
	}

	now := e.clock.Now().UTC()
	opt := domain.Option{
		ID:         uuid.New().String(),
		AccountID:  e.account.ID,
		Asset:      a.Name,
		Direction:  dir,
		Stake:      stake,
		Duration:   duration,
		EntryPrice: entry,
		EntryTime:  now,
		ExpiryTime: now.Add(duration),
		Status:     domain.StatusOpen,
	}

	e.account.Balance -= stake
	if err := e.journal.Append(ctx, opt); err != nil {
		e.account.Balance += stake
		return domain.Option{}, fmt.Errorf("engine.OpenOption: append: %w", err)
	}

	slog.Info("engine: option opened",
		"id", opt.ID,
		"asset", opt.Asset,
		"direction", opt.Direction,
		"stake", fmt.Sprintf("%.2f", opt.Stake),
		"duration", opt.Duration,
		"entry", fmt.Sprintf("%.6f", opt.EntryPrice),
		"balance", fmt.Sprintf("%.2f", e.account.Balance),
	)
	return opt, nil
}

// Settle resolves the option with the given ID. Settling an already-terminal
// option is a no-op returning its existing state; settling before expiry
// fails with ErrInvalidState and changes nothing.
func (e *Engine) Settle(ctx context.Context, id string) (domain.Option, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	opt, err := e.journal.Get(ctx, id)
	if err != nil {
		return domain.Option{}, fmt.Errorf("engine.Settle: %w", err)
	}
	if opt.Status.Terminal() {
		return opt, nil
	}
	if !opt.Expired(e.clock.Now()) {
		return domain.Option{}, fmt.Errorf("engine.Settle: %w: option %s expires in %s",
			domain.ErrInvalidState, id, opt.Remaining(e.clock.Now()).Round(time.Millisecond))
	}
	return e.settleLocked(ctx, opt)
}

// Run drives settlement in the background until the context is cancelled.
// Lazy sweeping on every accessor makes this optional; running it keeps
// balances current even when nobody is polling.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine: settlement loop starting", "interval", e.cfg.SweepInterval)

	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine: settlement loop stopped")
			return nil
		case <-ticker.C:
			e.mu.Lock()
			e.sweepLocked(ctx)
			e.mu.Unlock()
		}
	}
}

// settleLocked resolves a single OPEN option against the current price.
// Caller holds the mutex and has already checked expiry.
func (e *Engine) settleLocked(ctx context.Context, opt domain.Option) (domain.Option, error) {
	exit, err := e.prices.Price(ctx, opt.Asset)
	if err != nil {
		return domain.Option{}, fmt.Errorf("engine.settle: exit price: %w", err)
	}

	status := domain.Outcome(opt.Direction, opt.EntryPrice, exit)
	var payout float64
	if status == domain.StatusWon {
		payout = domain.WinPayout(opt.Stake, e.cfg.PayoutRate)
	}

	if err := e.journal.MarkSettled(ctx, opt.ID, status, exit, payout, e.clock.Now().UTC()); err != nil {
		return domain.Option{}, fmt.Errorf("engine.settle: mark settled: %w", err)
	}
	e.account.Balance += payout

	opt.Status = status
	opt.ExitPrice = exit
	opt.Payout = payout

	slog.Info("engine: option settled",
		"id", opt.ID,
		"asset", opt.Asset,
		"direction", opt.Direction,
		"status", opt.Status,
		"entry", fmt.Sprintf("%.6f", opt.EntryPrice),
		"exit", fmt.Sprintf("%.6f", opt.ExitPrice),
		"payout", fmt.Sprintf("%.2f", opt.Payout),
		"balance", fmt.Sprintf("%.2f", e.account.Balance),
	)
	return opt, nil
}

// sweepLocked settles every expired OPEN option. The OPEN-status guard in
// settleLocked's journal update keeps settlement at-most-once regardless of
// whether the sweep raced the background loop or an explicit Settle call.
func (e *Engine) sweepLocked(ctx context.Context) {
	open, err := e.journal.OpenOptions(ctx)
	if err != nil {
		slog.Warn("engine: sweep: list open options", "err", err)
		return
	}

	now := e.clock.Now()
	for _, opt := range open {
		if !opt.Expired(now) {
			continue
		}
		if _, err := e.settleLocked(ctx, opt); err != nil {
			slog.Warn("engine: sweep: settle failed", "id", opt.ID, "err", err)
		}
	}
}

func (e *Engine) durationAllowed(d time.Duration) bool {
	if len(e.cfg.AllowedDurations) == 0 {
		return true
	}
	for _, allowed := range e.cfg.AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}
