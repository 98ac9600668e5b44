package domain

import "time"

// Direction is the side of a binary option bet.
type Direction string

const (
	DirectionCall Direction = "CALL" // wins if exit > entry
	DirectionPut  Direction = "PUT"  // wins if exit < entry
)

// Valid reports whether the direction is one of CALL or PUT.
func (d Direction) Valid() bool {
	return d == DirectionCall || d == DirectionPut
}

// Status represents the lifecycle of an option.
type Status string

const (
	StatusOpen Status = "OPEN"
	StatusWon  Status = "WON"
	StatusLost Status = "LOST"
)

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// DefaultPayoutRate is the fraction of the stake returned as profit on a win.
const DefaultPayoutRate = 0.85

// Option is a binary option trade, pending or settled.
// It is mutated exactly once, at settlement, and never deleted.
type Option struct {
	ID         string
	AccountID  string
	Asset      string
	Direction  Direction
	Stake      float64
	Duration   time.Duration
	EntryPrice float64
	EntryTime  time.Time
	ExpiryTime time.Time
	Status     Status
	ExitPrice  float64 // zero until settled
	Payout     float64 // zero unless WON
}

// Expired reports whether the option's duration has elapsed at the given time.
func (o Option) Expired(now time.Time) bool {
	return !now.Before(o.ExpiryTime)
}

// Remaining returns how long until expiry, floored at zero.
func (o Option) Remaining(now time.Time) time.Duration {
	if o.Expired(now) {
		return 0
	}
	return o.ExpiryTime.Sub(now)
}

// Profit is the realized P&L: payout minus stake for settled options,
// zero while the option is still open.
func (o Option) Profit() float64 {
	if !o.Status.Terminal() {
		return 0
	}
	return o.Payout - o.Stake
}

// Outcome resolves a direction against entry and exit prices.
// An exact tie loses for both directions, matching binary-option convention.
func Outcome(dir Direction, entry, exit float64) Status {
	switch dir {
	case DirectionCall:
		if exit > entry {
			return StatusWon
		}
	case DirectionPut:
		if exit < entry {
			return StatusWon
		}
	}
	return StatusLost
}

// WinPayout is the amount credited on a winning option: the stake back
// plus stake*rate profit.
func WinPayout(stake, rate float64) float64 {
	return stake * (1 + rate)
}

// PriceTick is one observation of the simulated price feed.
type PriceTick struct {
	Asset     string
	Price     float64
	Timestamp time.Time
}

// Position is an open option enriched with live feed data, for display.
type Position struct {
	Option
	CurrentPrice float64
	TimeLeft     time.Duration
	Winning      bool // would win if settled at the current price
}
