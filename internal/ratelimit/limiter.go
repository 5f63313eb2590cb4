package ratelimit

import (
	"sync"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// callRecord is one admitted call inside the current window.
type callRecord struct {
	at   time.Time
	kind model.StageKind
}

// Limiter is a sliding-window admission gate over upstream calls.
// It never blocks: a denied caller decides for itself whether to queue,
// fail fast, or fall back to a cached answer.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	calls  []callRecord

	now func() time.Time
}

// NewLimiter creates a limiter allowing max calls per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Admit discards records older than the window, then admits and records the
// call iff the remaining count is below the max. Denied calls record nothing.
func (l *Limiter) Admit(kind model.StageKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.calls) >= l.max {
		return false
	}
	l.calls = append(l.calls, callRecord{at: now, kind: kind})
	return true
}

// InWindow returns the number of admitted calls inside the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.calls)
}

// Remaining returns how many more calls the current window can admit.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	if n := l.max - len(l.calls); n > 0 {
		return n
	}
	return 0
}

// Max returns the configured per-window call limit.
func (l *Limiter) Max() int { return l.max }

// evict drops records older than the window width. Caller holds the lock.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.calls[:0]
	for _, c := range l.calls {
		if c.at.After(cutoff) {
			kept = append(kept, c)
		}
	}
	l.calls = kept
}
