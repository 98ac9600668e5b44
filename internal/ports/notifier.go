package ports

import (
	"context"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// Notifier presents engine state to the user.
type Notifier interface {
	// NotifyPositions shows the currently open positions.
	NotifyPositions(ctx context.Context, positions []domain.Position, account domain.Account) error

	// NotifySummary shows the trade history and aggregate statistics.
	NotifySummary(ctx context.Context, history []domain.Option, stats domain.Statistics, account domain.Account) error
}
