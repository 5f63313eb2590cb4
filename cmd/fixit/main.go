package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/breaker"
	"github.com/SumitPatel-HQ/fixit/internal/budget"
	"github.com/SumitPatel-HQ/fixit/internal/cache"
	"github.com/SumitPatel-HQ/fixit/internal/config"
	"github.com/SumitPatel-HQ/fixit/internal/gateway"
	"github.com/SumitPatel-HQ/fixit/internal/manual"
	"github.com/SumitPatel-HQ/fixit/internal/metrics"
	"github.com/SumitPatel-HQ/fixit/internal/model"
	"github.com/SumitPatel-HQ/fixit/internal/pipeline"
	"github.com/SumitPatel-HQ/fixit/internal/provider"
	"github.com/SumitPatel-HQ/fixit/internal/provider/gemini"
	"github.com/SumitPatel-HQ/fixit/internal/proxy"
	"github.com/SumitPatel-HQ/fixit/internal/proxy/handler"
	"github.com/SumitPatel-HQ/fixit/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "fixit_config.yaml", "path to fixit config YAML")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Upstream.APIKey == "" {
		log.Fatal("upstream.api_key is not set")
	}

	// Cache backend
	cacheBackend, err := cache.New(cfg.Cache.Type, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
	if err != nil {
		log.Fatalf("init cache: %v", err)
	}

	// Protection stack
	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxCalls, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	circuitBreaker := breaker.New()
	budgetTracker := budget.New(cfg.Budget.DailyUnits, cfg.Budget.WarnBelow, unitCosts(cfg.Budget.UnitCosts))

	// Upstream provider
	upstream, err := buildUpstream(cfg)
	if err != nil {
		log.Fatalf("init upstream: %v", err)
	}

	gw := gateway.New(gateway.Config{
		Upstream: upstream,
		Cache:    cacheBackend,
		Limiter:  limiter,
		Breaker:  circuitBreaker,
		Budget:   budgetTracker,
		CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Backoff:  time.Duration(cfg.Retry.BackoffSeconds) * time.Second,
	})

	// Manual index and pipeline
	manualIndex := manual.Load(cfg.Pipeline.ManualDir)
	runner := pipeline.NewRunner(gw, manualIndex, cfg.Pipeline.ContextChunks)

	collector := &metrics.Collector{
		Limiter: limiter,
		Breaker: circuitBreaker,
		Budget:  budgetTracker,
		Cache:   cacheBackend,
	}

	srv := proxy.NewServer(&handler.Handlers{
		Runner:   runner,
		Status:   collector,
		Breaker:  circuitBreaker,
		AdminKey: cfg.Server.AdminKey,
	})

	// Operator status server on its own listener
	go metrics.ListenAndServe(ctx, collector)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		cancel()
	}()

	log.Printf("fixit listening on %s (model=%s, cache=%s, budget=%d/day)",
		cfg.Server.Addr, cfg.Upstream.Model, cfg.Cache.Type, cfg.Budget.DailyUnits)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func buildUpstream(cfg *config.Config) (*provider.Client, error) {
	var p provider.Provider
	switch cfg.Upstream.Provider {
	case "gemini":
		if cfg.Upstream.APIBase != "" {
			p = gemini.NewWithBaseURL(cfg.Upstream.APIBase)
		} else {
			p = gemini.New()
		}
	default:
		return nil, fmt.Errorf("unknown upstream provider %q", cfg.Upstream.Provider)
	}

	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	return provider.NewClient(p, cfg.Upstream.Model, cfg.Upstream.APIKey, timeout), nil
}

// unitCosts converts the config's stage name keys to typed stage kinds.
func unitCosts(raw map[string]int64) map[model.StageKind]int64 {
	if len(raw) == 0 {
		return nil
	}
	costs := make(map[model.StageKind]int64, len(raw))
	for name, cost := range raw {
		costs[model.StageKind(name)] = cost
	}
	return costs
}
