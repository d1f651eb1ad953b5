package syncengine

import (
	"sync"
	"time"
)

// Clock supplies the time source for elapsed-time and progress reporting.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the engine uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock implements Clock with the time package.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t systemTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t systemTicker) Stop() {
	t.ticker.Stop()
}

// ManualClock is a Clock whose time only moves when Advance is called, and
// whose tickers fire only when Tick is called. For tests.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

// NewManualClock returns a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, tick: make(chan time.Time)}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// NewTicker returns a ticker driven by Tick. The interval is ignored.
func (c *ManualClock) NewTicker(time.Duration) Ticker {
	return manualTicker{ch: c.tick}
}

// Tick delivers one tick to a ticker of this clock, blocking until it is received.
func (c *ManualClock) Tick() {
	c.tick <- c.Now()
}

type manualTicker struct {
	ch chan time.Time
}

func (t manualTicker) C() <-chan time.Time {
	return t.ch
}

func (manualTicker) Stop() {}
