package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

func baseOutcome() *model.PipelineOutcome {
	return &model.PipelineOutcome{
		RequestID: "req-1",
		Analysis: &model.Analysis{
			Validation: model.ValidationInfo{IsValid: true, WhatISee: "a white router"},
			Device: model.DeviceInfo{
				DeviceType: "Router", DeviceConfidence: 0.9, ConfidenceLevel: "high",
				Components: []string{"antenna", "reset button"},
			},
			Query: model.QueryInfo{QueryType: "troubleshoot", ActionRequested: "fix"},
		},
	}
}

func TestBuild_Success(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Append(model.Success(model.StageSteps, nil))
	out.Steps = &model.StepPlan{
		IssueDiagnosis: "Stale firmware.",
		Steps:          []model.Step{{StepNumber: 1, Instruction: "Update the firmware."}},
		WhenToSeekHelp: "If the device no longer boots.",
	}

	r := Build(out)

	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "Router", r.DeviceIdentified)
	assert.Equal(t, "Stale firmware.", r.IssueDiagnosis)
	require.Len(t, r.TroubleshootingSteps, 1)
	assert.False(t, r.QuotaLimited)
	require.NotNil(t, r.QueryUnderstood)
	assert.Equal(t, "troubleshoot", r.QueryUnderstood.Type)
	assert.Equal(t, 200, HTTPStatus(r))
}

func TestBuild_PartialSuccessOnQuotaAfterAnalysis(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Append(model.QuotaFailure(model.StageSteps, "upstream quota exhausted"))
	out.QuotaLimited = true

	r := Build(out)

	assert.Equal(t, StatusPartialSuccess, r.Status)
	assert.True(t, r.QuotaLimited)
	assert.Equal(t, "Router", r.DeviceIdentified, "successful stage output survives the quota failure")
	assert.NotEmpty(t, r.Message)
	assert.Equal(t, "tomorrow", r.RetryAfter)
	assert.Equal(t, 200, HTTPStatus(r), "degraded answers are still answers")
}

func TestBuild_QuotaBeforeAnySuccessIsError(t *testing.T) {
	out := &model.PipelineOutcome{RequestID: "req-2", QuotaLimited: true}
	out.Append(model.QuotaFailure(model.StageAnalysis, "upstream disabled: quota exhausted for the current period"))

	r := Build(out)

	assert.Equal(t, StatusError, r.Status)
	assert.True(t, r.QuotaLimited)
	assert.Equal(t, 429, HTTPStatus(r))
}

func TestBuild_TransientFailure(t *testing.T) {
	out := &model.PipelineOutcome{RequestID: "req-3"}
	out.Append(model.TransientFailure(model.StageAnalysis, "local rate limit exceeded, retry shortly"))

	r := Build(out)

	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "shortly", r.RetryAfter)
	assert.Equal(t, "local rate limit exceeded, retry shortly", r.Message)
	assert.Equal(t, 503, HTTPStatus(r))
}

func TestBuild_PermanentFailure(t *testing.T) {
	out := &model.PipelineOutcome{RequestID: "req-4"}
	out.Append(model.PermanentFailure(model.StageAnalysis, "upstream call failed"))

	r := Build(out)

	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, 502, HTTPStatus(r))
}

func TestBuild_InvalidImageGate(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Gate = model.GateInvalidImage
	out.Analysis.Validation = model.ValidationInfo{
		IsValid:         false,
		RejectionReason: "This appears to be a screenshot.",
		WhatISee:        "a game menu",
	}

	r := Build(out)

	assert.Equal(t, StatusInvalidImage, r.Status)
	assert.Equal(t, "This appears to be a screenshot.", r.Message)
	assert.Equal(t, "a game menu", r.WhatISee)
	assert.NotEmpty(t, r.SupportedDevices)
	assert.Equal(t, 200, HTTPStatus(r))
}

func TestBuild_LowConfidenceGate(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Gate = model.GateLowConfidence
	out.Analysis.Device.DeviceConfidence = 0.2
	out.Analysis.Device.ConfidenceLevel = "low"

	r := Build(out)

	assert.Equal(t, StatusLowConfidence, r.Status)
	assert.NotEmpty(t, r.ClarifyingQuestions)
	assert.NotEmpty(t, r.Suggestions)
	require.Len(t, r.TroubleshootingSteps, 1)
}

func TestBuild_SafetyGateAddsWarnings(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Gate = model.GateSafetyWarning
	out.Analysis.Safety = model.SafetyInfo{
		SafetyDetected: true,
		SafetyMessage:  "Disconnect power immediately.",
	}

	r := Build(out)

	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, "Disconnect power immediately.", r.Warnings[0])
	assert.Equal(t, "Disconnect power immediately.", r.Message)
}

func TestBuild_ComponentNotFoundGate(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Append(model.Success(model.StageLocate, nil))
	out.Gate = model.GateComponentNotFound
	out.Spatial = &model.SpatialInfo{
		ComponentVisible:    false,
		ComponentName:       "reset button",
		VisibilityReason:    "The rear panel is not in frame.",
		TypicalLocation:     "on the rear panel near the power port",
		VisibleAlternatives: []string{"antenna", "ethernet port"},
	}

	r := Build(out)

	assert.Equal(t, StatusComponentNotFound, r.Status)
	assert.Contains(t, r.Message, "reset button")
	assert.Contains(t, r.Message, "rear panel is not in frame")
	assert.Equal(t, []string{"antenna", "ethernet port"}, r.VisibleAlternatives)
	require.NotEmpty(t, r.TroubleshootingSteps)
	assert.Equal(t, 1, r.TroubleshootingSteps[0].StepNumber)
}

func TestBuild_ClarificationGate(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Gate = model.GateNeedsClarification
	out.Analysis.Query.ClarifyingQuestions = []string{"What problem are you seeing?"}

	r := Build(out)

	assert.Equal(t, StatusNeedsClarification, r.Status)
	assert.Equal(t, []string{"What problem are you seeing?"}, r.ClarifyingQuestions)
}

func TestBuild_BoundingBoxOnlyWhenVisible(t *testing.T) {
	out := baseOutcome()
	out.Append(model.Success(model.StageAnalysis, nil))
	out.Append(model.Success(model.StageLocate, nil))
	out.Append(model.Success(model.StageSteps, nil))
	out.Spatial = &model.SpatialInfo{
		ComponentVisible:   true,
		ComponentName:      "reset button",
		SpatialDescription: "bottom edge",
		PixelCoords:        &model.Box{XMin: 10, YMin: 20, XMax: 30, YMax: 40},
	}
	out.Steps = &model.StepPlan{IssueDiagnosis: "Location identified."}

	r := Build(out)

	require.NotNil(t, r.BoundingBox)
	assert.Equal(t, 10, r.BoundingBox.XMin)
}
