package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// TradeJournal is the option ledger. Options are appended at open, mutated
// exactly once at settlement, and never deleted (except by Reset).
type TradeJournal interface {
	// Append records a freshly opened option.
	Append(ctx context.Context, opt domain.Option) error

	// Get returns an option by ID.
	Get(ctx context.Context, id string) (domain.Option, error)

	// MarkSettled transitions an OPEN option to a terminal status and
	// fills exit price and payout.
	MarkSettled(ctx context.Context, id string, status domain.Status, exitPrice, payout float64, settledAt time.Time) error

	// OpenOptions returns all options still in OPEN status.
	OpenOptions(ctx context.Context) ([]domain.Option, error)

	// History returns options newest-first, at most limit (0 = all).
	History(ctx context.Context, limit int) ([]domain.Option, error)

	// All returns the full ledger, used for statistics.
	All(ctx context.Context) ([]domain.Option, error)

	// Reset wipes the ledger.
	Reset(ctx context.Context) error

	// Close releases the underlying store cleanly.
	Close() error
}
