package services

import "time"

// Clock is the single global tick driver. One ticker serves every match
// regardless of match count; per-match fault isolation lives in the
// engine's tick handler.
type Clock struct {
	engine   *Engine
	interval time.Duration
	stop     chan struct{}
}

// NewClock creates a clock driving the engine at the given period.
func NewClock(engine *Engine, interval time.Duration) *Clock {
	return &Clock{
		engine:   engine,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run ticks until Stop is called. Call it from its own goroutine.
func (c *Clock) Run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.engine.TickAll()
		case <-c.stop:
			return
		}
	}
}

// Stop halts the clock.
func (c *Clock) Stop() {
	close(c.stop)
}
