package pricing

// simulator.go — self-contained random-walk price feed.
//
// There is no external data source: each asset evolves by bounded relative
// steps (±0.2% per tick by default). Seeds are derived from the asset name,
// so two runs touching the same assets produce the same walk for a given
// configured seed. Prices only live in memory for the process lifetime.

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/alejandrodnm/optionsim/internal/domain"
	"github.com/alejandrodnm/optionsim/internal/util"
)

const (
	DefaultTickInterval = time.Second
	DefaultVolatility   = 0.002 // max relative step per tick

	priceFloor = 1e-6
	// Bound on steps replayed after a long idle stretch; beyond this the
	// walk resumes from wherever it landed.
	maxCatchUpSteps = 100_000
)

// Baseline prices for the common pairs; anything else gets a baseline
// derived from a hash of its name.
var baselines = map[string]float64{
	"EUR/USD": 1.0845,
	"GBP/USD": 1.2651,
	"USD/JPY": 149.23,
	"AUD/USD": 0.6543,
	"USD/CAD": 1.3421,
	"XBT/USD": 43250.0,
	"ETH/USD": 2450.0,
	"ADA/USD": 0.4523,
}

// Config controls the random walk.
type Config struct {
	TickInterval time.Duration
	Volatility   float64
	Seed         int64 // mixed into every per-asset seed
}

// Simulator implements ports.PriceSource with a per-asset random walk.
type Simulator struct {
	cfg   Config
	clock util.Clock

	mu     sync.Mutex
	assets map[string]*assetState
}

type assetState struct {
	price float64
	last  time.Time // walk position, advanced in whole ticks
	rng   *rand.Rand
}

// New creates a simulator. A nil clock means wall-clock time.
func New(cfg Config, clock util.Clock) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = DefaultVolatility
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Simulator{
		cfg:    cfg,
		clock:  clock,
		assets: make(map[string]*assetState),
	}
}

// Price returns the current simulated price for the asset, seeding it on
// first reference and applying any elapsed movement.
func (s *Simulator) Price(ctx context.Context, asset string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if asset == "" {
		return 0, fmt.Errorf("pricing.Price: %w: empty asset name", domain.ErrInvalidParameter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensureLocked(asset)
	s.advanceLocked(st)
	return st.price, nil
}

// Tick returns the current price as a timestamped tick.
func (s *Simulator) Tick(ctx context.Context, asset string) (domain.PriceTick, error) {
	price, err := s.Price(ctx, asset)
	if err != nil {
		return domain.PriceTick{}, err
	}
	return domain.PriceTick{
		Asset:     asset,
		Price:     price,
		Timestamp: s.clock.Now().UTC(),
	}, nil
}

// ensureLocked seeds an unseen asset at its baseline, positioned one tick
// in the past so the first read already moves.
func (s *Simulator) ensureLocked(asset string) *assetState {
	if st, ok := s.assets[asset]; ok {
		return st
	}
	st := &assetState{
		price: baselinePrice(asset),
		last:  s.clock.Now().Add(-s.cfg.TickInterval),
		rng:   rand.New(rand.NewSource(assetSeed(asset, s.cfg.Seed))),
	}
	s.assets[asset] = st
	return st
}

// advanceLocked replays the whole ticks elapsed since the walk's last
// position. Each step is uniform in ±volatility, and the price is clamped
// to stay strictly positive.
func (s *Simulator) advanceLocked(st *assetState) {
	now := s.clock.Now()
	steps := int(now.Sub(st.last) / s.cfg.TickInterval)
	if steps <= 0 {
		return
	}
	if steps > maxCatchUpSteps {
		steps = maxCatchUpSteps
		st.last = now
	} else {
		st.last = st.last.Add(time.Duration(steps) * s.cfg.TickInterval)
	}

	for i := 0; i < steps; i++ {
		step := (st.rng.Float64()*2 - 1) * s.cfg.Volatility
		st.price *= 1 + step
		if st.price < priceFloor {
			st.price = priceFloor
		}
	}
}

func baselinePrice(asset string) float64 {
	if base, ok := baselines[asset]; ok {
		return base
	}
	// Deterministic pseudo-baseline in [0.5, 2.0).
	h := fnv.New64a()
	h.Write([]byte(asset))
	return 0.5 + 1.5*float64(h.Sum64()%10_000)/10_000
}

func assetSeed(asset string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(asset))
	return int64(h.Sum64()) ^ seed
}
