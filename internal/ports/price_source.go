package ports

import "context"

// PriceSource supplies the current simulated price for an asset.
type PriceSource interface {
	// Price returns the current price, seeding the asset on first
	// reference and advancing it by any elapsed movement.
	Price(ctx context.Context, asset string) (float64, error)
}
