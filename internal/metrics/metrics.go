// Package metrics exposes the protection-stack state: a snapshot type shared
// by the API quota endpoint and a dedicated status listener for operators.
package metrics

import (
	"context"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/breaker"
	"github.com/SumitPatel-HQ/fixit/internal/budget"
	"github.com/SumitPatel-HQ/fixit/internal/cache"
	"github.com/SumitPatel-HQ/fixit/internal/ratelimit"
)

// Collector reads the live protection state. All reads are lock-protected by
// the components themselves; the snapshot is not atomic across components.
type Collector struct {
	Limiter *ratelimit.Limiter
	Breaker *breaker.Breaker
	Budget  *budget.Tracker
	Cache   cache.Cache
}

// QuotaSnapshot is the externally visible protection state.
type QuotaSnapshot struct {
	Status string `json:"status"`

	CircuitBreakerActive bool       `json:"circuit_breaker_active"`
	BreakerReason        string     `json:"breaker_reason,omitempty"`
	BreakerTrippedAt     *time.Time `json:"breaker_tripped_at,omitempty"`

	CallsInWindow      int `json:"calls_in_window"`
	RateLimitRemaining int `json:"rate_limit_remaining"`
	RateLimitMax       int `json:"rate_limit_max"`

	BudgetDaily    int64 `json:"budget_daily"`
	BudgetConsumed int64 `json:"budget_consumed"`
	// BudgetRemaining goes negative when concurrent calls overshoot the
	// daily allowance. The overshoot is real spend and stays visible.
	BudgetRemaining     int64     `json:"budget_remaining"`
	BudgetPercentUsed   int       `json:"budget_percent_used"`
	BudgetWindowStarted time.Time `json:"budget_window_started"`

	CacheEntries int `json:"cache_entries"`
}

// Snapshot assembles the current protection state.
func (c *Collector) Snapshot(ctx context.Context) QuotaSnapshot {
	state := c.Breaker.Snapshot()

	s := QuotaSnapshot{
		CircuitBreakerActive: state.Open,
		BreakerReason:        state.Reason,
		CallsInWindow:        c.Limiter.InWindow(),
		RateLimitRemaining:   c.Limiter.Remaining(),
		RateLimitMax:         c.Limiter.Max(),
		BudgetDaily:          c.Budget.Daily(),
		BudgetConsumed:       c.Budget.Consumed(),
		BudgetRemaining:      c.Budget.Remaining(),
		BudgetWindowStarted:  c.Budget.WindowStart(),
	}
	if state.Open {
		t := state.TrippedAt
		s.BreakerTrippedAt = &t
	}
	if s.BudgetDaily > 0 {
		s.BudgetPercentUsed = int(s.BudgetConsumed * 100 / s.BudgetDaily)
	}
	if c.Cache != nil {
		if n, err := c.Cache.Len(ctx); err == nil {
			s.CacheEntries = int(n)
		}
	}

	switch {
	case state.Open:
		s.Status = "disabled"
	case s.RateLimitRemaining == 0:
		s.Status = "rate_limited"
	default:
		s.Status = "active"
	}
	return s
}
