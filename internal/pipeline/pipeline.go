// Package pipeline routes one troubleshooting request through the staged
// gates: combined analysis first, then conditional localization, then
// conditional step generation. Every upstream call goes through the gateway;
// the router itself only decides which calls happen and in what order.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Invoker is the protected upstream call surface the router depends on.
type Invoker interface {
	Invoke(ctx context.Context, kind model.StageKind, in *model.PromptInput) model.StageResult
}

// Retriever supplies manual context for the step generation prompt.
type Retriever interface {
	Retrieve(query, deviceType string, n int) []string
}

// Runner executes the staged pipeline for troubleshoot requests.
type Runner struct {
	gw            Invoker
	manual        Retriever
	contextChunks int
}

// NewRunner creates a pipeline runner. manual may be nil when no manual index
// is configured.
func NewRunner(gw Invoker, manual Retriever, contextChunks int) *Runner {
	if contextChunks <= 0 {
		contextChunks = 3
	}
	return &Runner{gw: gw, manual: manual, contextChunks: contextChunks}
}

// Run executes the full pipeline for one request. The returned outcome always
// carries every attempted stage result, in order, regardless of where the run
// stopped. Cancellation is honored between stages; work already paid for is
// not refunded.
func (r *Runner) Run(ctx context.Context, req *model.TroubleshootRequest) *model.PipelineOutcome {
	out := &model.PipelineOutcome{RequestID: uuid.NewString()}
	log.Printf("pipeline %s: %q", out.RequestID, req.Query)

	// Stage 1: combined analysis. Mandatory, so any failure ends the run.
	res := r.gw.Invoke(ctx, model.StageAnalysis, analysisPrompt(req))
	if !res.OK() {
		out.Append(res)
		out.QuotaLimited = res.Status == model.StageQuotaFailure
		return out
	}

	var analysis model.Analysis
	if err := json.Unmarshal(res.Payload, &analysis); err != nil {
		log.Printf("warn: pipeline %s: unusable analysis payload: %v", out.RequestID, err)
		out.Append(model.PermanentFailure(model.StageAnalysis, "analysis produced an unusable response"))
		return out
	}
	out.Append(res)
	out.Analysis = &analysis

	// Gate 1: image validation.
	if !analysis.Validation.IsValid {
		log.Printf("pipeline %s: rejected, %s", out.RequestID, analysis.Validation.ImageCategory)
		out.Gate = model.GateInvalidImage
		return out
	}

	// Gate 2: device detection.
	device := &analysis.Device
	if device.DeviceType == "not_a_device" {
		out.Gate = model.GateInvalidImage
		return out
	}
	if analysis.Safety.SafetyDetected {
		log.Printf("pipeline %s: safety override, keywords %v", out.RequestID, analysis.Safety.SafetyKeywords)
		out.Gate = model.GateSafetyWarning
		return out
	}
	if device.EffectiveConfidenceLevel() == "low" || device.DeviceConfidence < model.MediumConfidenceThreshold {
		out.Gate = model.GateLowConfidence
		return out
	}

	// Gate 3: query understanding.
	query := &analysis.Query
	if query.QueryType == "unclear" && query.ClarificationNeeded {
		out.Gate = model.GateNeedsClarification
		return out
	}

	// Manual retrieval. Local, free, and allowed to come back empty.
	if r.manual != nil && device.Identified() {
		out.ManualContext = r.manual.Retrieve(device.DeviceType+" "+req.Query, device.DeviceType, r.contextChunks)
	}

	if err := ctx.Err(); err != nil {
		out.Append(model.TransientFailure(model.StageLocate, "request cancelled"))
		return out
	}

	// Gate 4: conditional localization. Optional, so non-quota failures are
	// recorded and skipped over.
	if ok, reason := shouldLocate(device, query); ok {
		if done := r.locate(ctx, req, out); done {
			return out
		}
	} else {
		log.Printf("pipeline %s: localization skipped, %s", out.RequestID, reason)
	}

	if err := ctx.Err(); err != nil {
		out.Append(model.TransientFailure(model.StageSteps, "request cancelled"))
		return out
	}

	// Gate 5: conditional step generation.
	if shouldSkipSteps(query) {
		log.Printf("pipeline %s: step generation skipped for locate query", out.RequestID)
		// When localization itself failed, the outcome keeps its failure
		// result and the status derivation reports that instead.
		if out.Spatial != nil {
			out.Steps = &model.StepPlan{IssueDiagnosis: "Location identified."}
		}
		return out
	}

	res = r.gw.Invoke(ctx, model.StageSteps, stepsPrompt(req, &analysis, out.Spatial, out.ManualContext))
	if !res.OK() {
		out.Append(res)
		out.QuotaLimited = out.QuotaLimited || res.Status == model.StageQuotaFailure
		return out
	}
	var plan model.StepPlan
	if err := json.Unmarshal(res.Payload, &plan); err != nil {
		log.Printf("warn: pipeline %s: unusable step payload: %v", out.RequestID, err)
		out.Append(model.PermanentFailure(model.StageSteps, "step generation produced an unusable response"))
		return out
	}
	out.Append(res)
	renumber(&plan)
	out.Steps = &plan
	return out
}

// locate runs the localization stage. It returns true when the pipeline must
// stop: a quota failure, or a locate query whose component was not found.
func (r *Runner) locate(ctx context.Context, req *model.TroubleshootRequest, out *model.PipelineOutcome) bool {
	device := &out.Analysis.Device
	query := &out.Analysis.Query

	target := query.TargetComponent
	if target == "" {
		target = inferTargetComponent(req.Query, device.Components)
	}
	if target == "" {
		target = fmt.Sprintf("component relevant to: %s", req.Query)
	}

	res := r.gw.Invoke(ctx, model.StageLocate, locatePrompt(target, device, req.Image))
	out.Append(res)
	if !res.OK() {
		if res.Status == model.StageQuotaFailure {
			out.QuotaLimited = true
			return true
		}
		// Optional stage: continue without spatial context.
		log.Printf("warn: pipeline %s: localization unavailable (%s)", out.RequestID, res.Status)
		return false
	}

	var spatial model.SpatialInfo
	if err := json.Unmarshal(res.Payload, &spatial); err != nil {
		log.Printf("warn: pipeline %s: unusable spatial payload: %v", out.RequestID, err)
		return false
	}
	if spatial.ComponentName == "" {
		spatial.ComponentName = target
	}

	// A box below the confidence floor is worse than no box.
	if spatial.BoundingBox != nil && spatial.ComponentVisible && spatial.Confidence >= localizationThreshold {
		w, h := req.ImageWidth, req.ImageHeight
		if w == 0 && req.Image != nil {
			w = req.Image.Width
		}
		if h == 0 && req.Image != nil {
			h = req.Image.Height
		}
		if w > 0 && h > 0 {
			box := spatial.BoundingBox.ToPixels(w, h)
			box.Clamp(w, h)
			spatial.PixelCoords = box
		}
	} else {
		spatial.BoundingBox = nil
	}
	out.Spatial = &spatial

	if !spatial.ComponentVisible && query.QueryType == "locate" {
		out.Gate = model.GateComponentNotFound
		return true
	}
	return false
}

// Analyze runs the combined analysis stage alone, for the standalone
// validation and identification endpoints.
func (r *Runner) Analyze(ctx context.Context, req *model.TroubleshootRequest) (*model.Analysis, model.StageResult) {
	res := r.gw.Invoke(ctx, model.StageAnalysis, analysisPrompt(req))
	if !res.OK() {
		return nil, res
	}
	var analysis model.Analysis
	if err := json.Unmarshal(res.Payload, &analysis); err != nil {
		return nil, model.PermanentFailure(model.StageAnalysis, "analysis produced an unusable response")
	}
	return &analysis, res
}

func renumber(plan *model.StepPlan) {
	for i := range plan.Steps {
		plan.Steps[i].StepNumber = i + 1
	}
}
