package ports

import "github.com/alejandrodnm/optionsim/internal/domain"

// AssetRegistry supplies the set of known assets and their active flags.
type AssetRegistry interface {
	// Lookup resolves an asset by display name or RIC, case-insensitive.
	Lookup(name string) (domain.Asset, bool)

	// List returns all known assets.
	List() []domain.Asset
}
