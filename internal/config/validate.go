package config

import (
	"log"
	"sort"
)

// Validate checks the config for unrecognized fields and logs warnings.
// Typos in a section name should be visible at startup, not silently ignored.
func Validate(cfg *Config) {
	warnOverflow("config", cfg.Overflow)
	warnOverflow("server", cfg.Server.Overflow)
	warnOverflow("upstream", cfg.Upstream.Overflow)
	warnOverflow("rate_limit", cfg.RateLimit.Overflow)
	warnOverflow("budget", cfg.Budget.Overflow)
	warnOverflow("retry", cfg.Retry.Overflow)
	warnOverflow("cache", cfg.Cache.Overflow)
	warnOverflow("pipeline", cfg.Pipeline.Overflow)
}

func warnOverflow(section string, overflow map[string]any) {
	if len(overflow) == 0 {
		return
	}
	keys := make([]string, 0, len(overflow))
	for k := range overflow {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("warn: unrecognized config field %s.%s, field will be ignored", section, k)
	}
}
