package domain

import "errors"

// Engine error kinds. All failures are local and synchronous — there is no
// transient class to retry. Call sites wrap these with context via fmt.Errorf
// and %w so callers can match with errors.Is.
var (
	// ErrInvalidParameter covers malformed stake, duration, direction or
	// asset name shapes.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAssetUnavailable means the registry doesn't know the asset or
	// reports it inactive.
	ErrAssetUnavailable = errors.New("asset unavailable")

	// ErrInsufficientBalance means the stake exceeds the current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidState means settling an option that hasn't expired yet.
	ErrInvalidState = errors.New("invalid state")
)
