package sync

import (
	"sync"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
)

// Change describes one content-change notification produced by a sync.
type Change struct {
	ContentType models.ContentType `json:"content_type"`
	Kind        EffectKind         `json:"kind"`
	ItemCount   int64              `json:"item_count,omitempty"`
	At          time.Time          `json:"at"`
}

// FlushFunc receives queued changes in their original order as one batch.
type FlushFunc func(changes []Change)

// IdleCoalescer defers content-change notifications while the observer is
// interacting. Notifications arriving while idle flush immediately; during
// interaction they queue, and the whole queue flushes once the idle window
// passes without a new interaction. Batching only delays delivery: every
// change is delivered exactly once, in order, never merged.
type IdleCoalescer struct {
	mu          sync.Mutex
	pending     []Change
	lastTouch   time.Time
	window      time.Duration
	timer       *time.Timer
	flush       FlushFunc
	stopped     bool
	now         func() time.Time
	timerActive bool
}

// NewIdleCoalescer creates a coalescer with the given idle window.
func NewIdleCoalescer(window time.Duration, flush FlushFunc) *IdleCoalescer {
	return &IdleCoalescer{
		window: window,
		flush:  flush,
		now:    time.Now,
	}
}

// Touch records an interaction, resetting the idle window.
func (c *IdleCoalescer) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.lastTouch = c.now()
	if len(c.pending) > 0 {
		c.armLocked(c.window)
	}
}

// Notify queues one change, flushing immediately when the observer has
// been idle for the window.
func (c *IdleCoalescer) Notify(change Change) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	if change.At.IsZero() {
		change.At = c.now()
	}
	c.pending = append(c.pending, change)

	if c.idleLocked() {
		batch := c.takeLocked()
		c.mu.Unlock()
		c.flush(batch)
		return
	}

	c.armLocked(c.remainingLocked())
	c.mu.Unlock()
}

// Flush delivers anything queued regardless of interaction state.
func (c *IdleCoalescer) Flush() {
	c.mu.Lock()
	batch := c.takeLocked()
	c.mu.Unlock()
	if len(batch) > 0 {
		c.flush(batch)
	}
}

// Stop halts the timer and discards queued changes.
func (c *IdleCoalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerActive = false
}

// idleLocked reports whether the idle window has elapsed since the last
// interaction. A coalescer that was never touched is idle.
func (c *IdleCoalescer) idleLocked() bool {
	return c.lastTouch.IsZero() || c.now().Sub(c.lastTouch) >= c.window
}

// remainingLocked is the time until the idle window elapses.
func (c *IdleCoalescer) remainingLocked() time.Duration {
	remaining := c.window - c.now().Sub(c.lastTouch)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// takeLocked removes and returns the pending queue.
func (c *IdleCoalescer) takeLocked() []Change {
	batch := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerActive = false
	return batch
}

// armLocked (re)schedules the flush timer for d from now.
func (c *IdleCoalescer) armLocked(d time.Duration) {
	if c.timer == nil {
		c.timer = time.AfterFunc(d, c.onTimer)
		c.timerActive = true
		return
	}
	c.timer.Stop()
	c.timer.Reset(d)
	c.timerActive = true
}

// onTimer fires when the idle window may have elapsed. An interaction that
// slipped in since arming re-arms for the remainder instead of flushing.
func (c *IdleCoalescer) onTimer() {
	c.mu.Lock()
	if c.stopped || !c.timerActive || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	if !c.idleLocked() {
		c.armLocked(c.remainingLocked())
		c.mu.Unlock()
		return
	}
	batch := c.takeLocked()
	c.mu.Unlock()
	c.flush(batch)
}
