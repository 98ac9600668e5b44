package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/optionsim/internal/adapters/assets"
	"github.com/alejandrodnm/optionsim/internal/adapters/storage"
	"github.com/alejandrodnm/optionsim/internal/application/engine"
	"github.com/alejandrodnm/optionsim/internal/domain"
)

// stubPrices is a settable price source, so settlement outcomes are chosen
// by the test instead of the random walk.
type stubPrices struct {
	prices map[string]float64
}

func newStubPrices() *stubPrices {
	return &stubPrices{prices: map[string]float64{
		"EUR/USD": 1.0845,
		"GBP/USD": 1.2651,
		"XBT/USD": 43250.0,
	}}
}

func (s *stubPrices) Price(_ context.Context, asset string) (float64, error) {
	return s.prices[asset], nil
}

func (s *stubPrices) Set(asset string, price float64) {
	s.prices[asset] = price
}

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type stubSession struct{ id string }

func (s stubSession) AccountID() string { return s.id }

func newTestEngine(t *testing.T, cfg engine.Config) (*engine.Engine, *stubPrices, *manualClock) {
	t.Helper()

	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	prices := newStubPrices()
	clock := &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	eng := engine.New(cfg, prices, assets.New(assets.Defaults()), journal, stubSession{id: "test-device"}, clock)
	return eng, prices, clock
}

func TestOpenOption_DebitsStakeImmediately(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	opt, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOpen, opt.Status)
	assert.NotEmpty(t, opt.ID)
	assert.Equal(t, "test-device", opt.AccountID)
	assert.InDelta(t, 1.0845, opt.EntryPrice, 1e-9)
	assert.Equal(t, opt.EntryTime.Add(time.Minute), opt.ExpiryTime)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 7950, account.Balance, 1e-9)
}

func TestOpenOption_InsufficientBalance(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 10000, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8000, account.Balance, 1e-9)
}

func TestOpenOption_InvalidParameters(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.Direction("SIDEWAYS"), 50, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 0, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, -5, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8000, account.Balance, 1e-9)
}

func TestOpenOption_UnknownAsset(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{InitialBalance: 8000})

	_, err := eng.OpenOption(context.Background(), "NOPE/USD", domain.DirectionCall, 50, time.Minute)
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)
}

func TestOpenOption_InactiveAsset(t *testing.T) {
	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer journal.Close()

	registry := assets.New([]domain.Asset{{Name: "EUR/USD", RIC: "EURUSD", Active: false}})
	clock := &manualClock{now: time.Now()}
	eng := engine.New(engine.Config{InitialBalance: 8000}, newStubPrices(), registry, journal, stubSession{id: "t"}, clock)

	_, err = eng.OpenOption(context.Background(), "EUR/USD", domain.DirectionCall, 50, time.Minute)
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)
}

func TestOpenOption_DurationWhitelist(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{
		InitialBalance:   8000,
		AllowedDurations: []time.Duration{60 * time.Second, 90 * time.Second, 120 * time.Second},
	})
	ctx := context.Background()

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 45*time.Second)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 90*time.Second)
	assert.NoError(t, err)
}

func TestSettle_BeforeExpiryFails(t *testing.T) {
	eng, _, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	opt, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, time.Minute)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = eng.Settle(ctx, opt.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	open, err := eng.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, domain.StatusOpen, open[0].Status)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 7950, account.Balance, 1e-9)
}

func TestSettle_UnknownID(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Config{InitialBalance: 8000})

	_, err := eng.Settle(context.Background(), "no-such-option")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestSettle_CallWinsOnRise(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000, Currency: "CLP"})
	ctx := context.Background()

	entry := 1.0845
	prices.Set("EUR/USD", entry)

	opt, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 60*time.Second)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	prices.Set("EUR/USD", entry*1.01)

	settled, err := eng.Settle(ctx, opt.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWon, settled.Status)
	assert.InDelta(t, entry*1.01, settled.ExitPrice, 1e-9)
	assert.InDelta(t, 92.5, settled.Payout, 1e-9)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CLP", account.Currency)
	// 8000 - 50 + 50*1.85
	assert.InDelta(t, 8042.5, account.Balance, 1e-9)
}

func TestSettle_CallLosesOnFallOrTie(t *testing.T) {
	for name, exitMult := range map[string]float64{"fall": 0.99, "tie": 1.0} {
		t.Run(name, func(t *testing.T) {
			eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
			ctx := context.Background()

			entry := 1.0845
			prices.Set("EUR/USD", entry)

			opt, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 60*time.Second)
			require.NoError(t, err)

			clock.Advance(61 * time.Second)
			prices.Set("EUR/USD", entry*exitMult)

			settled, err := eng.Settle(ctx, opt.ID)
			require.NoError(t, err)

			assert.Equal(t, domain.StatusLost, settled.Status)
			assert.Equal(t, 0.0, settled.Payout)

			account, err := eng.Balance(ctx)
			require.NoError(t, err)
			assert.InDelta(t, 7950, account.Balance, 1e-9)
		})
	}
}

func TestSettle_PutWinsOnFall(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	entry := 1.2651
	prices.Set("GBP/USD", entry)

	opt, err := eng.OpenOption(ctx, "GBP/USD", domain.DirectionPut, 25, 90*time.Second)
	require.NoError(t, err)

	clock.Advance(91 * time.Second)
	prices.Set("GBP/USD", entry*0.995)

	settled, err := eng.Settle(ctx, opt.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWon, settled.Status)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8000-25+25*1.85, account.Balance, 1e-9)
}

func TestSettle_PutTieLoses(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	prices.Set("GBP/USD", 1.2651)

	opt, err := eng.OpenOption(ctx, "GBP/USD", domain.DirectionPut, 25, 90*time.Second)
	require.NoError(t, err)

	clock.Advance(91 * time.Second)
	// exit == entry

	settled, err := eng.Settle(ctx, opt.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusLost, settled.Status)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 7975, account.Balance, 1e-9)
}

func TestSettle_Idempotent(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	entry := 1.0845
	prices.Set("EUR/USD", entry)

	opt, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 60*time.Second)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	prices.Set("EUR/USD", entry*1.01)

	first, err := eng.Settle(ctx, opt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusWon, first.Status)

	// Price keeps moving, but the second settle must return the recorded
	// terminal state without crediting again.
	prices.Set("EUR/USD", entry*0.5)
	second, err := eng.Settle(ctx, opt.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ExitPrice, second.ExitPrice)
	assert.Equal(t, first.Payout, second.Payout)

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8042.5, account.Balance, 1e-9)
}

func TestLazySettlement_OnAccessors(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	entry := 1.0845
	prices.Set("EUR/USD", entry)

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 60*time.Second)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	prices.Set("EUR/USD", entry*1.02)

	// No explicit Settle: reading the balance sweeps the expired option.
	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8042.5, account.Balance, 1e-9)

	open, err := eng.OpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStatistics_WinRateFromHistory(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	entry := 1.0845
	prices.Set("EUR/USD", entry)

	for i := 0; i < 3; i++ {
		_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 10, 30*time.Second)
		require.NoError(t, err)
	}
	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionPut, 10, 30*time.Second)
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	prices.Set("EUR/USD", entry*1.01) // 3 CALLs win, the PUT loses

	stats, err := eng.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TradeCount)
	assert.Equal(t, 3, stats.WonCount)
	assert.Equal(t, 1, stats.LostCount)
	assert.InDelta(t, 3.0/4.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 40, stats.GrossStake, 1e-9)

	// Recomputed, not cached: a new open shifts counts but not settled ones.
	_, err = eng.OpenOption(ctx, "GBP/USD", domain.DirectionCall, 5, time.Minute)
	require.NoError(t, err)

	stats, err = eng.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TradeCount)
	assert.Equal(t, 1, stats.OpenCount)
	assert.InDelta(t, 3.0/4.0, stats.WinRate, 1e-9)
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	eng, _, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	assetsInOrder := []string{"EUR/USD", "GBP/USD", "XBT/USD"}
	for _, asset := range assetsInOrder {
		_, err := eng.OpenOption(ctx, asset, domain.DirectionCall, 10, time.Hour)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	history, err := eng.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "XBT/USD", history[0].Asset)
	assert.Equal(t, "GBP/USD", history[1].Asset)
	assert.Equal(t, "EUR/USD", history[2].Asset)

	limited, err := eng.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "XBT/USD", limited[0].Asset)

	_, err = eng.History(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestPositions_EnrichedView(t *testing.T) {
	eng, prices, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	entry := 1.0845
	prices.Set("EUR/USD", entry)

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, time.Minute)
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	prices.Set("EUR/USD", entry*1.001)

	positions, err := eng.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.True(t, pos.Winning)
	assert.InDelta(t, entry*1.001, pos.CurrentPrice, 1e-9)
	assert.Equal(t, 40*time.Second, pos.TimeLeft)
}

func TestReset_RestoresBalanceAndClearsHistory(t *testing.T) {
	eng, _, clock := newTestEngine(t, engine.Config{InitialBalance: 8000})
	ctx := context.Background()

	_, err := eng.OpenOption(ctx, "EUR/USD", domain.DirectionCall, 50, 30*time.Second)
	require.NoError(t, err)
	clock.Advance(31 * time.Second)

	require.NoError(t, eng.Reset(ctx, 5000))

	account, err := eng.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 5000, account.Balance, 1e-9)

	history, err := eng.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, eng.Reset(ctx, -1), domain.ErrInvalidParameter)
}

func TestEngine_Defaults(t *testing.T) {
	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer journal.Close()

	eng := engine.New(engine.Config{}, newStubPrices(), assets.New(assets.Defaults()), journal, stubSession{id: "t"}, nil)

	account, err := eng.Balance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, engine.DefaultInitialBalance, account.Balance, 1e-9)
	assert.Equal(t, engine.DefaultCurrency, account.Currency)
}
