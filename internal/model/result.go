package model

import (
	"encoding/json"
	"time"
)

// StageKind identifies one unit of pipeline work backed by at most one
// upstream call.
type StageKind string

const (
	StageAnalysis StageKind = "analysis"
	StageLocate   StageKind = "locate"
	StageSteps    StageKind = "steps"
)

// StageStatus discriminates the four outcomes a gateway call can produce.
type StageStatus string

const (
	StageSuccess          StageStatus = "success"
	StageTransientFailure StageStatus = "transient_failure"
	StageQuotaFailure     StageStatus = "quota_failure"
	StagePermanentFailure StageStatus = "permanent_failure"
)

// StageResult is the outcome of a single pipeline stage. Callers of the
// gateway only ever see these four variants, never raw upstream errors.
type StageResult struct {
	Stage    StageKind       `json:"stage"`
	Status   StageStatus     `json:"status"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Detail   string          `json:"detail,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
	Duration time.Duration   `json:"-"`
}

func (r StageResult) OK() bool { return r.Status == StageSuccess }

// Success builds a successful stage result.
func Success(stage StageKind, payload json.RawMessage) StageResult {
	return StageResult{Stage: stage, Status: StageSuccess, Payload: payload}
}

// TransientFailure builds a retryable stage failure.
func TransientFailure(stage StageKind, detail string) StageResult {
	return StageResult{Stage: stage, Status: StageTransientFailure, Detail: detail}
}

// QuotaFailure builds a quota-class stage failure.
func QuotaFailure(stage StageKind, detail string) StageResult {
	return StageResult{Stage: stage, Status: StageQuotaFailure, Detail: detail}
}

// PermanentFailure builds a non-retryable stage failure.
func PermanentFailure(stage StageKind, detail string) StageResult {
	return StageResult{Stage: stage, Status: StagePermanentFailure, Detail: detail}
}

// PipelineStatus is the overall outcome of a pipeline run.
type PipelineStatus string

const (
	PipelineSuccess   PipelineStatus = "success"
	PipelinePartial   PipelineStatus = "partial_success"
	PipelineTransient PipelineStatus = "transient_failure"
	PipelineError     PipelineStatus = "error"
)

// Gate marks a routing decision that ended the pipeline before (or instead
// of) the remaining stages. These are business outcomes, not failures.
type Gate string

const (
	GateNone               Gate = ""
	GateInvalidImage       Gate = "invalid_image"
	GateLowConfidence      Gate = "low_confidence"
	GateSafetyWarning      Gate = "safety_warning"
	GateComponentNotFound  Gate = "component_not_located"
	GateNeedsClarification Gate = "needs_clarification"
)

// PipelineOutcome accumulates per-stage results for one request, in attempt
// order. Created fresh per request and discarded after the response is built.
type PipelineOutcome struct {
	RequestID string

	// Results holds one entry per attempted stage, in attempt order, even
	// when the pipeline stops early.
	Results []StageResult

	// QuotaLimited is set when a quota failure terminated the pipeline.
	QuotaLimited bool

	Gate Gate

	// Parsed stage payloads, nil when the stage did not run or failed.
	Analysis *Analysis
	Spatial  *SpatialInfo
	Steps    *StepPlan

	ManualContext []string
}

// Append records an attempted stage result.
func (o *PipelineOutcome) Append(r StageResult) {
	o.Results = append(o.Results, r)
}

// Result returns the recorded result for stage, if any.
func (o *PipelineOutcome) Result(stage StageKind) (StageResult, bool) {
	for _, r := range o.Results {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageResult{}, false
}

// Succeeded reports whether any attempted stage succeeded.
func (o *PipelineOutcome) Succeeded() bool {
	for _, r := range o.Results {
		if r.OK() {
			return true
		}
	}
	return false
}

// Status derives the overall pipeline status from the per-stage results.
// A quota failure after at least one successful stage is a partial success,
// never an error: the caller still gets every payload that was produced.
func (o *PipelineOutcome) Status() PipelineStatus {
	var sawQuota, sawPermanent bool
	for _, r := range o.Results {
		switch r.Status {
		case StageQuotaFailure:
			sawQuota = true
		case StagePermanentFailure:
			sawPermanent = true
		}
	}

	switch {
	case sawQuota && o.Succeeded():
		return PipelinePartial
	case sawQuota:
		return PipelineError
	case sawPermanent:
		return PipelineError
	}

	// A transient failure only terminates the run when the stage was
	// required, so it is always the last recorded result. Optional-stage
	// transients are appended and skipped over.
	if n := len(o.Results); n > 0 && o.Results[n-1].Status == StageTransientFailure {
		return PipelineTransient
	}
	return PipelineSuccess
}
