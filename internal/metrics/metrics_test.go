package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumitPatel-HQ/fixit/internal/breaker"
	"github.com/SumitPatel-HQ/fixit/internal/budget"
	"github.com/SumitPatel-HQ/fixit/internal/cache"
	"github.com/SumitPatel-HQ/fixit/internal/model"
	"github.com/SumitPatel-HQ/fixit/internal/ratelimit"
)

func testCollector() *Collector {
	return &Collector{
		Limiter: ratelimit.NewLimiter(5, time.Minute),
		Breaker: breaker.New(),
		Budget:  budget.New(20, 5, nil),
		Cache:   cache.NewMemoryCache(),
	}
}

func TestSnapshot_Active(t *testing.T) {
	c := testCollector()
	c.Limiter.Admit(model.StageAnalysis)
	c.Budget.Consume(model.StageAnalysis)

	s := c.Snapshot(context.Background())

	assert.Equal(t, "active", s.Status)
	assert.False(t, s.CircuitBreakerActive)
	assert.Equal(t, 1, s.CallsInWindow)
	assert.Equal(t, 4, s.RateLimitRemaining)
	assert.Equal(t, int64(19), s.BudgetRemaining)
	assert.Equal(t, 5, s.BudgetPercentUsed)
}

func TestSnapshot_BreakerOpen(t *testing.T) {
	c := testCollector()
	c.Breaker.Trip("quota exhausted")

	s := c.Snapshot(context.Background())

	assert.Equal(t, "disabled", s.Status)
	assert.True(t, s.CircuitBreakerActive)
	assert.Equal(t, "quota exhausted", s.BreakerReason)
	require.NotNil(t, s.BreakerTrippedAt)
}

func TestSnapshot_RateLimited(t *testing.T) {
	c := testCollector()
	for i := 0; i < 5; i++ {
		c.Limiter.Admit(model.StageAnalysis)
	}

	s := c.Snapshot(context.Background())
	assert.Equal(t, "rate_limited", s.Status)
	assert.Equal(t, 0, s.RateLimitRemaining)
}

func TestSnapshot_NegativeBudgetStaysSigned(t *testing.T) {
	c := testCollector()
	c.Budget = budget.New(2, 0, nil)
	for i := 0; i < 3; i++ {
		c.Budget.Consume(model.StageAnalysis)
	}

	s := c.Snapshot(context.Background())
	assert.Equal(t, int64(-1), s.BudgetRemaining)
}

func TestStatusServer_ServesSnapshot(t *testing.T) {
	t.Setenv("STATUS_PORT", ":19093")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ListenAndServe(ctx, testCollector())

	var resp *http.Response
	var err error
	for i := 0; i < 20; i++ {
		time.Sleep(50 * time.Millisecond)
		resp, err = http.Get("http://localhost:19093/status")
		if err == nil {
			break
		}
	}
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var s QuotaSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, "active", s.Status)
	assert.Equal(t, 5, s.RateLimitMax)
}

func TestStatusServer_DisabledWhenEmpty(t *testing.T) {
	t.Setenv("STATUS_PORT", "")
	assert.Equal(t, "", Addr())
}

func TestAddr_PrependsColon(t *testing.T) {
	t.Setenv("STATUS_PORT", "9191")
	assert.Equal(t, ":9191", Addr())
}
