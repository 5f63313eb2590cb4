// Package breaker implements the global fuse that disables all upstream
// calls after a quota failure. There is no half-open probe state: the
// upstream quota resets on a fixed external schedule this process cannot
// observe, so the breaker reopens only via an explicit administrative reset
// or a process restart.
package breaker

import (
	"sync"
	"time"
)

// State is a snapshot of the breaker.
type State struct {
	Open      bool      `json:"open"`
	TrippedAt time.Time `json:"tripped_at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Breaker is a process-wide circuit breaker with two states:
// Closed → Open on Trip, Open → Closed only on Reset.
type Breaker struct {
	mu        sync.Mutex
	open      bool
	trippedAt time.Time
	reason    string

	now func() time.Time
}

// New creates a closed breaker.
func New() *Breaker {
	return &Breaker{now: time.Now}
}

// IsOpen reports whether upstream calls are disabled.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Trip opens the breaker. Idempotent: a second quota failure while open
// keeps the first trip's timestamp and reason.
func (b *Breaker) Trip(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open {
		return
	}
	b.open = true
	b.trippedAt = b.now()
	b.reason = reason
}

// Reset closes the breaker unconditionally. Administrative operation;
// authorization happens at the boundary, not here.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.trippedAt = time.Time{}
	b.reason = ""
}

// Snapshot returns a copy of the current state.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Open: b.open, TrippedAt: b.trippedAt, Reason: b.reason}
}
