package gateway

import (
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Class is the retry classification of an upstream failure.
type Class int

const (
	// ClassTransient failures (timeouts, 5xx) are retried exactly once.
	ClassTransient Class = iota
	// ClassQuota failures are permanent for the rest of the budget period
	// and trip the breaker. Retrying one wastes budget for a guaranteed
	// second failure.
	ClassQuota
	// ClassPermanent failures (bad input, broken contract) are surfaced
	// directly with no retry and no breaker trip.
	ClassPermanent
)

// maxRetries is intentionally one: a single retry covers a blip, anything
// beyond that multiplies spend against an already-constrained budget.
const maxRetries = 1

// defaultBackoff is the fixed pause before the single transient retry.
const defaultBackoff = 2 * time.Second

// Classify buckets an upstream failure. Quota wins over transient: an error
// mentioning both a 429 and a timeout is a quota failure.
func Classify(err error) Class {
	switch {
	case model.IsQuotaError(err):
		return ClassQuota
	case model.IsTransientError(err):
		return ClassTransient
	default:
		return ClassPermanent
	}
}

// ShouldRetry reports whether a failed attempt should be retried.
// Only transient failures on the first attempt qualify.
func ShouldRetry(err error, attempt int) bool {
	return Classify(err) == ClassTransient && attempt < maxRetries
}
