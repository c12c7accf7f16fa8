package chain

import "time"

// Clock supplies version timestamps in seconds since the Unix epoch.
// Timestamps are informational and never feed a digest.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current Unix time in seconds.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock always returns the same instant. Used for deterministic tests
// and golden traces.
type FixedClock int64

// Now returns the fixed instant.
func (c FixedClock) Now() int64 {
	return int64(c)
}
