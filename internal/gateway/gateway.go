// Package gateway wraps every upstream call with the full protection stack:
// cache lookup, rate-limiter admission, circuit-breaker check, invocation,
// failure classification, the single transient retry, cache store, and
// budget bookkeeping. Callers only ever see the four StageResult variants.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/breaker"
	"github.com/SumitPatel-HQ/fixit/internal/budget"
	"github.com/SumitPatel-HQ/fixit/internal/cache"
	"github.com/SumitPatel-HQ/fixit/internal/model"
	"github.com/SumitPatel-HQ/fixit/internal/ratelimit"
)

// Upstream is the capability boundary to the inference service.
type Upstream interface {
	Generate(ctx context.Context, in *model.PromptInput) (json.RawMessage, error)
}

// Gateway mediates all upstream calls. The four state objects are locked
// independently and only one at a time, in the fixed check order below.
type Gateway struct {
	upstream Upstream
	cache    cache.Cache
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	budget   *budget.Tracker

	cacheTTL time.Duration
	backoff  time.Duration

	sleep func(time.Duration)
}

// Config holds the gateway's collaborators and tuning.
type Config struct {
	Upstream Upstream
	Cache    cache.Cache
	Limiter  *ratelimit.Limiter
	Breaker  *breaker.Breaker
	Budget   *budget.Tracker
	CacheTTL time.Duration
	Backoff  time.Duration
}

// New creates a gateway.
func New(cfg Config) *Gateway {
	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = defaultBackoff
	}
	return &Gateway{
		upstream: cfg.Upstream,
		cache:    cfg.Cache,
		limiter:  cfg.Limiter,
		breaker:  cfg.Breaker,
		budget:   cfg.Budget,
		cacheTTL: cfg.CacheTTL,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
}

// Invoke performs one protected upstream call for the given stage.
//
// Order matters: a cache hit costs no budget and is exempt from admission
// checks entirely; the breaker is consulted before the limiter so that a
// tripped process does not keep consuming window slots; a limiter denial is
// a local transient condition, distinct from upstream quota exhaustion.
func (g *Gateway) Invoke(ctx context.Context, kind model.StageKind, in *model.PromptInput) model.StageResult {
	key := cache.Key(kind, in)

	if cached, err := g.cache.Get(ctx, key); err != nil {
		log.Printf("warn: cache get failed for stage %s: %v", kind, err)
	} else if cached != nil {
		res := model.Success(kind, cached)
		res.Cached = true
		return res
	}

	if g.breaker.IsOpen() {
		return model.QuotaFailure(kind, "upstream disabled: quota exhausted for the current period")
	}

	if !g.limiter.Admit(kind) {
		return model.TransientFailure(kind,
			"local rate limit exceeded, retry shortly")
	}

	start := time.Now()
	payload, err := g.upstream.Generate(ctx, in)
	if err != nil && ShouldRetry(err, 0) {
		log.Printf("warn: transient failure on stage %s, retrying once: %v", kind, err)
		g.sleep(g.backoff)
		payload, err = g.upstream.Generate(ctx, in)
	}

	if err != nil {
		return g.failure(kind, err)
	}

	if err := g.cache.Set(ctx, key, payload, g.cacheTTL); err != nil {
		log.Printf("warn: cache set failed for stage %s: %v", kind, err)
	}
	g.budget.Consume(kind)

	res := model.Success(kind, payload)
	res.Duration = time.Since(start)
	log.Printf("stage %s completed in %s", kind, res.Duration.Round(time.Millisecond))
	return res
}

// failure converts a classified upstream error into a stage result and
// performs the breaker side effect for quota failures.
func (g *Gateway) failure(kind model.StageKind, err error) model.StageResult {
	switch Classify(err) {
	case ClassQuota:
		g.breaker.Trip(err.Error())
		log.Printf("warn: quota exhausted, circuit breaker tripped: %v", err)
		return model.QuotaFailure(kind, "upstream quota exhausted")
	case ClassTransient:
		log.Printf("warn: stage %s failed after retry: %v", kind, err)
		return model.TransientFailure(kind, "upstream temporarily unavailable")
	default:
		// Raw upstream text stays in the log, never in the result detail.
		log.Printf("warn: stage %s permanent failure: %v", kind, err)
		return model.PermanentFailure(kind, "upstream call failed")
	}
}
