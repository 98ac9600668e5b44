package util

import "time"

// Clock abstracts time so settlement and price movement are deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall-clock implementation.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
