package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for upstream failure classification.
var (
	ErrQuotaExhausted     = errors.New("QuotaExhaustedError")
	ErrRateLimited        = errors.New("RateLimitedError")
	ErrTimeout            = errors.New("Timeout")
	ErrServiceUnavailable = errors.New("ServiceUnavailableError")
	ErrInvalidRequest     = errors.New("InvalidRequestError")
	ErrAuthentication     = errors.New("AuthenticationError")
	ErrMalformedResponse  = errors.New("MalformedResponseError")
)

// UpstreamError is the unified error type returned by provider calls.
type UpstreamError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Err        error  `json:"-"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, model=%s)",
		e.Provider, e.Message, e.StatusCode, e.Model)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON error body returned by the API.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// MapHTTPStatusToError maps an upstream HTTP status code to a sentinel error.
// 429 maps to quota exhaustion: on the free tier the upstream returns 429 with
// RESOURCE_EXHAUSTED when the daily allotment is gone, and retrying it only
// burns budget for a guaranteed second failure.
func MapHTTPStatusToError(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuthentication
	case status == 429:
		return ErrQuotaExhausted
	case status == 400 || status == 404:
		return ErrInvalidRequest
	case status == 408:
		return ErrTimeout
	case status >= 500:
		return ErrServiceUnavailable
	default:
		return fmt.Errorf("unexpected status code: %d", status)
	}
}

// quotaIndicators match upstream quota failures that arrive without a clean
// status code (SDK-wrapped errors, proxy rewrites).
var quotaIndicators = []string{"429", "resource_exhausted", "quota"}

// transientIndicators match timeouts and server-side failures worth one retry.
var transientIndicators = []string{"timeout", "deadline exceeded", "500", "502", "503", "504"}

// IsQuotaError reports whether err is a quota-class failure.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range quotaIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

// IsTransientError reports whether err is a transient infra failure.
// Quota errors are never transient, whatever their message says.
func IsTransientError(err error) bool {
	if err == nil || IsQuotaError(err) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrServiceUnavailable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range transientIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
