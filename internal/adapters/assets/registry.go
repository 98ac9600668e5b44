package assets

import (
	"strings"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// Registry implements ports.AssetRegistry over a fixed asset set. Lookups
// accept either the display name or the RIC, case-insensitive, matching how
// callers address instruments on the real platform.
type Registry struct {
	assets []domain.Asset
	byKey  map[string]int // lowercased name and ric → index
}

// New builds a registry from the given assets. Later entries win on key
// collisions.
func New(list []domain.Asset) *Registry {
	r := &Registry{
		assets: make([]domain.Asset, len(list)),
		byKey:  make(map[string]int, 2*len(list)),
	}
	copy(r.assets, list)
	for i, a := range r.assets {
		if a.Name != "" {
			r.byKey[strings.ToLower(a.Name)] = i
		}
		if a.RIC != "" {
			r.byKey[strings.ToLower(a.RIC)] = i
		}
	}
	return r
}

// Lookup resolves an asset by name or RIC.
func (r *Registry) Lookup(name string) (domain.Asset, bool) {
	i, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Asset{}, false
	}
	return r.assets[i], true
}

// List returns a copy of all known assets.
func (r *Registry) List() []domain.Asset {
	out := make([]domain.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Defaults is the built-in asset set, mirroring the pairs the platform
// quotes out of the box.
func Defaults() []domain.Asset {
	return []domain.Asset{
		{Name: "EUR/USD", RIC: "EURUSD", Active: true},
		{Name: "GBP/USD", RIC: "GBPUSD", Active: true},
		{Name: "USD/JPY", RIC: "USDJPY", Active: true},
		{Name: "AUD/USD", RIC: "AUDUSD", Active: true},
		{Name: "USD/CAD", RIC: "USDCAD", Active: true},
		{Name: "XBT/USD", RIC: "XBTUSD", Active: true},
		{Name: "ETH/USD", RIC: "ETHUSD", Active: true},
		{Name: "ADA/USD", RIC: "ADAUSD", Active: true},
	}
}
