package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// scriptedInvoker returns pre-built results per stage and records the order
// of stage invocations.
type scriptedInvoker struct {
	results map[model.StageKind]model.StageResult
	invoked []model.StageKind
	inputs  map[model.StageKind]*model.PromptInput
}

func newScripted() *scriptedInvoker {
	return &scriptedInvoker{
		results: make(map[model.StageKind]model.StageResult),
		inputs:  make(map[model.StageKind]*model.PromptInput),
	}
}

func (s *scriptedInvoker) Invoke(_ context.Context, kind model.StageKind, in *model.PromptInput) model.StageResult {
	s.invoked = append(s.invoked, kind)
	s.inputs[kind] = in
	res, ok := s.results[kind]
	if !ok {
		panic(fmt.Sprintf("unscripted stage %s", kind))
	}
	return res
}

type fixedRetriever struct {
	chunks []string
	query  string
	device string
}

func (f *fixedRetriever) Retrieve(query, deviceType string, _ int) []string {
	f.query = query
	f.device = deviceType
	return f.chunks
}

func analysisPayload(t *testing.T, a model.Analysis) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	return raw
}

func confidentAnalysis() model.Analysis {
	return model.Analysis{
		Validation: model.ValidationInfo{IsValid: true, ImageCategory: "networking", ImageQuality: "good"},
		Device: model.DeviceInfo{
			DeviceType: "Router", DeviceCategory: "networking",
			Brand: "unknown", Model: "not visible",
			DeviceConfidence: 0.9, ConfidenceLevel: "high",
			Components: []string{"antenna", "ethernet port", "reset button"},
		},
		Query: model.QueryInfo{
			QueryType: "troubleshoot", AnswerType: "troubleshoot_steps",
			ActionRequested: "fix", NeedsSteps: true, Confidence: 0.9,
		},
	}
}

func stepsPayload(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(model.StepPlan{
		IssueDiagnosis: "Likely a stale DHCP lease.",
		Steps: []model.Step{
			{Instruction: "Power cycle the router."},
			{Instruction: "Wait for the status light to turn solid."},
		},
	})
	require.NoError(t, err)
	return raw
}

func request() *model.TroubleshootRequest {
	return &model.TroubleshootRequest{
		Query: "my router is not working",
		Image: &model.BinaryPart{MIME: "image/jpeg", Width: 800, Height: 600, Data: []byte{1}},
	}
}

func TestRun_TroubleshootHappyPath(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, confidentAnalysis()))
	inv.results[model.StageSteps] = model.Success(model.StageSteps, stepsPayload(t))

	manual := &fixedRetriever{chunks: []string{"hold reset for ten seconds"}}
	r := NewRunner(inv, manual, 3)

	out := r.Run(context.Background(), request())

	assert.Equal(t, model.PipelineSuccess, out.Status())
	assert.Equal(t, model.GateNone, out.Gate)
	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageSteps}, inv.invoked,
		"no localization for a query without a target")
	require.NotNil(t, out.Steps)
	assert.Equal(t, 1, out.Steps.Steps[0].StepNumber, "steps renumbered sequentially")
	assert.Equal(t, 2, out.Steps.Steps[1].StepNumber)
	assert.Equal(t, []string{"hold reset for ten seconds"}, out.ManualContext)
	assert.Equal(t, "Router", manual.device)
	assert.NotEmpty(t, out.RequestID)
}

func TestRun_AnalysisQuotaFailureEndsRun(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.QuotaFailure(model.StageAnalysis, "upstream quota exhausted")

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineError, out.Status(), "quota with zero successes is an error")
	assert.True(t, out.QuotaLimited)
	assert.Equal(t, []model.StageKind{model.StageAnalysis}, inv.invoked)
}

func TestRun_StepsQuotaAfterAnalysisIsPartial(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, confidentAnalysis()))
	inv.results[model.StageSteps] = model.QuotaFailure(model.StageSteps, "upstream quota exhausted")

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelinePartial, out.Status(),
		"quota after a successful stage must degrade, not cascade")
	assert.True(t, out.QuotaLimited)
	require.NotNil(t, out.Analysis, "successful stage payload is retained")
	assert.Equal(t, "Router", out.Analysis.Device.DeviceType)
	assert.Nil(t, out.Steps)
}

func TestRun_AnalysisPermanentFailureIsError(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.PermanentFailure(model.StageAnalysis, "upstream call failed")

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineError, out.Status())
	assert.False(t, out.QuotaLimited)
	assert.Len(t, inv.invoked, 1)
}

func TestRun_UnparseableAnalysisIsPermanent(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, json.RawMessage(`["not an object"]`))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineError, out.Status())
	res, ok := out.Result(model.StageAnalysis)
	require.True(t, ok)
	assert.Equal(t, model.StagePermanentFailure, res.Status)
}

func TestRun_InvalidImageGate(t *testing.T) {
	a := confidentAnalysis()
	a.Validation.IsValid = false
	a.Validation.RejectionReason = "This appears to be a screenshot of a game."

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.GateInvalidImage, out.Gate)
	assert.Equal(t, model.PipelineSuccess, out.Status(), "a gate rejection is a business outcome, not a failure")
	assert.Len(t, inv.invoked, 1, "no further upstream calls after rejection")
}

func TestRun_NotADeviceGate(t *testing.T) {
	a := confidentAnalysis()
	a.Device.DeviceType = "not_a_device"

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())
	assert.Equal(t, model.GateInvalidImage, out.Gate)
}

func TestRun_SafetyGateOverridesEverything(t *testing.T) {
	a := confidentAnalysis()
	a.Safety = model.SafetyInfo{
		SafetyDetected: true,
		SafetyKeywords: []string{"swelling battery"},
		SafetyMessage:  "Stop using the device and disconnect power.",
	}

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.GateSafetyWarning, out.Gate)
	assert.Len(t, inv.invoked, 1)
}

func TestRun_LowConfidenceGate(t *testing.T) {
	a := confidentAnalysis()
	a.Device.DeviceConfidence = 0.2
	a.Device.ConfidenceLevel = ""

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())
	assert.Equal(t, model.GateLowConfidence, out.Gate)
}

func TestRun_UnclearQueryGate(t *testing.T) {
	a := confidentAnalysis()
	a.Query.QueryType = "unclear"
	a.Query.ClarificationNeeded = true
	a.Query.ClarifyingQuestions = []string{"What problem are you seeing?"}

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())
	assert.Equal(t, model.GateNeedsClarification, out.Gate)
}

func locateAnalysis() model.Analysis {
	a := confidentAnalysis()
	a.Query = model.QueryInfo{
		QueryType: "locate", AnswerType: "locate_only",
		TargetComponent:   "reset button",
		NeedsLocalization: true, NeedsSteps: false,
		Confidence: 0.9,
	}
	return a
}

func spatialPayload(t *testing.T, s model.SpatialInfo) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return raw
}

func TestRun_PureLocateQuerySkipsSteps(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, locateAnalysis()))
	inv.results[model.StageLocate] = model.Success(model.StageLocate, spatialPayload(t, model.SpatialInfo{
		ComponentVisible:   true,
		ComponentName:      "reset button",
		VisibilityStatus:   "visible",
		SpatialDescription: "bottom edge, next to the power port",
		BoundingBox:        &model.NormBox{YMin: 800, XMin: 100, YMax: 900, XMax: 200},
		Confidence:         0.8,
	}))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineSuccess, out.Status())
	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageLocate}, inv.invoked,
		"no step generation for a pure locate query")
	require.NotNil(t, out.Spatial)
	require.NotNil(t, out.Spatial.PixelCoords)
	assert.Equal(t, 80, out.Spatial.PixelCoords.XMin, "0-1000 scale converted against image width")
	assert.Equal(t, 480, out.Spatial.PixelCoords.YMin)
	require.NotNil(t, out.Steps)
	assert.Empty(t, out.Steps.Steps)
}

func TestRun_LocateWithActionVerbStillGeneratesSteps(t *testing.T) {
	a := locateAnalysis()
	a.Query.ActionRequested = "replace"

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))
	inv.results[model.StageLocate] = model.Success(model.StageLocate, spatialPayload(t, model.SpatialInfo{
		ComponentVisible: true, ComponentName: "reset button",
		SpatialDescription: "rear panel", Confidence: 0.7,
	}))
	inv.results[model.StageSteps] = model.Success(model.StageSteps, stepsPayload(t))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageLocate, model.StageSteps}, inv.invoked)
	assert.NotNil(t, out.Steps)
}

func TestRun_ComponentNotFoundGateForLocateQueries(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, locateAnalysis()))
	inv.results[model.StageLocate] = model.Success(model.StageLocate, spatialPayload(t, model.SpatialInfo{
		ComponentVisible: false, ComponentName: "reset button",
		VisibilityStatus: "not_visible", VisibilityReason: "rear panel not in frame",
	}))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.GateComponentNotFound, out.Gate)
	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageLocate}, inv.invoked)
}

func TestRun_LocateTransientFailureIsSkippedOver(t *testing.T) {
	a := confidentAnalysis()
	a.Query.NeedsLocalization = true
	a.Query.TargetComponent = "reset button"

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))
	inv.results[model.StageLocate] = model.TransientFailure(model.StageLocate, "local rate limit exceeded, retry shortly")
	inv.results[model.StageSteps] = model.Success(model.StageSteps, stepsPayload(t))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineSuccess, out.Status(),
		"an optional stage failing transiently must not fail the run")
	assert.Nil(t, out.Spatial)
	assert.NotNil(t, out.Steps)
}

func TestRun_PureLocateTransientFailureReportsTransient(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, locateAnalysis()))
	inv.results[model.StageLocate] = model.TransientFailure(model.StageLocate, "upstream temporarily unavailable")

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelineTransient, out.Status(),
		"a locate query with nothing located is a retryable failure")
	assert.Nil(t, out.Spatial)
	assert.Nil(t, out.Steps, "no success content when localization failed")
	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageLocate}, inv.invoked,
		"step generation stays skipped for a pure locate query")
}

func TestRun_LocateQuotaFailureIsPartial(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, locateAnalysis()))
	inv.results[model.StageLocate] = model.QuotaFailure(model.StageLocate, "upstream quota exhausted")

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	assert.Equal(t, model.PipelinePartial, out.Status())
	assert.True(t, out.QuotaLimited)
	assert.NotNil(t, out.Analysis)
	assert.Equal(t, []model.StageKind{model.StageAnalysis, model.StageLocate}, inv.invoked)
}

func TestRun_LowConfidenceBoxIsDropped(t *testing.T) {
	a := locateAnalysis()
	a.Query.QueryType = "troubleshoot"
	a.Query.NeedsSteps = true

	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, a))
	inv.results[model.StageLocate] = model.Success(model.StageLocate, spatialPayload(t, model.SpatialInfo{
		ComponentVisible: true, ComponentName: "reset button",
		BoundingBox: &model.NormBox{YMin: 10, XMin: 10, YMax: 20, XMax: 20},
		Confidence:  0.2,
	}))
	inv.results[model.StageSteps] = model.Success(model.StageSteps, stepsPayload(t))

	out := NewRunner(inv, nil, 3).Run(context.Background(), request())

	require.NotNil(t, out.Spatial)
	assert.Nil(t, out.Spatial.BoundingBox)
	assert.Nil(t, out.Spatial.PixelCoords)
}

func TestRun_CancelledContextStopsBetweenStages(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, confidentAnalysis()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewRunner(inv, nil, 3).Run(ctx, request())

	assert.Equal(t, model.PipelineTransient, out.Status())
	assert.Equal(t, []model.StageKind{model.StageAnalysis}, inv.invoked,
		"no stage calls after cancellation")
}

func TestAnalyze_StandaloneStage(t *testing.T) {
	inv := newScripted()
	inv.results[model.StageAnalysis] = model.Success(model.StageAnalysis, analysisPayload(t, confidentAnalysis()))

	a, res := NewRunner(inv, nil, 3).Analyze(context.Background(), request())

	require.True(t, res.OK())
	require.NotNil(t, a)
	assert.Equal(t, "Router", a.Device.DeviceType)
}

func TestShouldSkipSteps(t *testing.T) {
	cases := []struct {
		name  string
		query model.QueryInfo
		skip  bool
	}{
		{"pure locate", model.QueryInfo{QueryType: "locate", NeedsSteps: false}, true},
		{"locate with replace", model.QueryInfo{QueryType: "locate", NeedsSteps: false, ActionRequested: "Replace"}, false},
		{"locate needing steps", model.QueryInfo{QueryType: "locate", NeedsSteps: true}, false},
		{"troubleshoot", model.QueryInfo{QueryType: "troubleshoot", NeedsSteps: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.skip, shouldSkipSteps(&tc.query))
		})
	}
}

func TestInferTargetComponent(t *testing.T) {
	assert.Equal(t, "reset button", inferTargetComponent("where is the reset hole", nil))
	assert.Equal(t, "ethernet port", inferTargetComponent("which one is the LAN port", nil))
	assert.Equal(t, "fan header", inferTargetComponent("is the fan header populated", []string{"fan header"}))
	assert.Equal(t, "", inferTargetComponent("tell me about this", nil))
}
