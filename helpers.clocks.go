package main

import (
	"sync"
	"time"
)

var (
	_ Clocker        = (*Clock)(nil)        // ensure Clock implements Clocker
	_ TickerClocker  = (*TickClock)(nil)    // ensure TickClock implements TickerClocker
	_ LogicalClocker = (*LogicalClock)(nil) // ensure LogicalClock implements LogicalClocker
)

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// TickerClocker is an interface which can provides the current time and a ticker.
// It satisfies zapcore.Clock.
type TickerClocker interface {
	Clocker
	NewTicker(time.Duration) *time.Ticker
}

// LogicalClocker provides the timestamps stamped on catalog records.
type LogicalClocker interface {
	Stamp() uint64
	Advance(ts uint64)
}

// Clock implements the Clocker interface.
type Clock struct {
	tz *time.Location
}

// NewClock returns a ready to use Clock with timezone sets
// to UTC in production environment and Local in dev env.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

type TickClock struct {
	clock Clocker
}

func NewTickClock(ck Clocker) *TickClock {
	return &TickClock{ck}
}

func (tc *TickClock) Now() time.Time {
	return tc.clock.Now()
}

func (tc *TickClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// LogicalClock derives strictly increasing unix nanoseconds stamps
// from a wall clock. A stamp never goes backward even if the wall
// clock does, it then moves one nanosecond past the previous one.
type LogicalClock struct {
	mu    sync.Mutex
	clock Clocker
	last  uint64
}

func NewLogicalClock(ck Clocker) *LogicalClock {
	return &LogicalClock{clock: ck}
}

// Stamp returns the next timestamp.
func (lc *LogicalClock) Stamp() uint64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	ts := uint64(0)
	if now := lc.clock.Now().UnixNano(); now > 0 {
		ts = uint64(now)
	}
	if ts <= lc.last {
		ts = lc.last + 1
	}
	lc.last = ts
	return ts
}

// Advance makes sure the next stamp comes after ts. It is used
// once records are restored from storage.
func (lc *LogicalClock) Advance(ts uint64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if ts > lc.last {
		lc.last = ts
	}
}
