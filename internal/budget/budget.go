// Package budget tracks the coarse daily cost units consumed by upstream
// calls, independently of the per-minute rate window. Unit bookkeeping is
// local only: resets happen by external rollover or restart, and consumed
// units are never refunded.
package budget

import (
	"log"
	"sync"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Tracker is a running counter of budget units consumed per day.
type Tracker struct {
	mu          sync.Mutex
	consumed    int64
	windowStart time.Time

	daily     int64
	warnBelow int64
	unitCosts map[model.StageKind]int64

	now func() time.Time
}

// New creates a tracker with a daily allotment and per-stage unit costs.
// Stage kinds missing from unitCosts default to one unit per call.
func New(daily, warnBelow int64, unitCosts map[model.StageKind]int64) *Tracker {
	t := &Tracker{
		daily:     daily,
		warnBelow: warnBelow,
		unitCosts: make(map[model.StageKind]int64, len(unitCosts)),
		now:       time.Now,
	}
	for k, v := range unitCosts {
		t.unitCosts[k] = v
	}
	t.windowStart = t.now()
	return t
}

// UnitCost returns the configured cost of one call of the given kind.
func (t *Tracker) UnitCost(kind model.StageKind) int64 {
	if c, ok := t.unitCosts[kind]; ok {
		return c
	}
	return 1
}

// Consume records the cost of a completed call of the given kind and logs a
// warning when the remaining budget crosses the warn threshold. Remaining may
// go negative; overshoot is a diagnostic signal, not an error.
func (t *Tracker) Consume(kind model.StageKind) {
	units := t.UnitCost(kind)

	t.mu.Lock()
	before := t.daily - t.consumed
	t.consumed += units
	after := t.daily - t.consumed
	t.mu.Unlock()

	if after <= t.warnBelow && before > t.warnBelow {
		log.Printf("warn: budget low: %d units remaining of %d daily", after, t.daily)
	}
}

// Remaining returns the signed number of units left in the current period.
func (t *Tracker) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.daily - t.consumed
}

// Consumed returns the units consumed in the current period.
func (t *Tracker) Consumed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consumed
}

// Daily returns the configured daily allotment.
func (t *Tracker) Daily() int64 { return t.daily }

// WindowStart returns when the current budget period began.
func (t *Tracker) WindowStart() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windowStart
}

// Reset starts a fresh budget period. Called by the external daily rollover,
// never from within the pipeline.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumed = 0
	t.windowStart = t.now()
}
