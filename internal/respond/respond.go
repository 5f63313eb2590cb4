// Package respond turns a pipeline outcome into the API response body. Each
// routing outcome gets its own shape; degraded quota outcomes are rendered as
// partial successes with an explicit limitation notice, never as errors.
package respond

import (
	"fmt"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Response statuses shown to API clients.
const (
	StatusSuccess            = "success"
	StatusPartialSuccess     = "partial_success"
	StatusInvalidImage       = "invalid_image"
	StatusLowConfidence      = "low_confidence"
	StatusComponentNotFound  = "component_not_located"
	StatusNeedsClarification = "needs_clarification"
	StatusError              = "error"
)

var statusMessages = map[string]string{
	StatusSuccess:            "Analysis complete",
	StatusPartialSuccess:     "Analysis partially complete",
	StatusInvalidImage:       "Invalid image for troubleshooting",
	StatusLowConfidence:      "Need more information",
	StatusComponentNotFound:  "Component not visible",
	StatusNeedsClarification: "Clarification needed",
	StatusError:              "An error occurred",
}

// Response is the troubleshoot API body. Scenario-specific fields stay empty
// outside their scenario.
type Response struct {
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
	RequestID     string `json:"request_id,omitempty"`

	DeviceIdentified string  `json:"device_identified,omitempty"`
	DeviceConfidence float64 `json:"device_confidence"`
	ConfidenceLevel  string  `json:"confidence_level,omitempty"`

	Component          string     `json:"component,omitempty"`
	SpatialDescription string     `json:"spatial_description,omitempty"`
	BoundingBox        *model.Box `json:"bounding_box,omitempty"`

	IssueDiagnosis       string       `json:"issue_diagnosis,omitempty"`
	TroubleshootingSteps []model.Step `json:"troubleshooting_steps"`
	AudioInstructions    string       `json:"audio_instructions,omitempty"`

	Message             string   `json:"message,omitempty"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
	Suggestions         []string `json:"suggestions,omitempty"`
	SupportedDevices    []string `json:"supported_devices,omitempty"`
	VisibleAlternatives []string `json:"visible_alternatives,omitempty"`
	TypicalLocation     string   `json:"typical_location,omitempty"`
	DetectedComponents  []string `json:"detected_components,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	Warnings            []string `json:"warnings,omitempty"`
	WhenToSeekHelp      string   `json:"when_to_seek_help,omitempty"`
	GeneralSafetyTip    string   `json:"general_safety_tip,omitempty"`
	WhatISee            string   `json:"what_i_see,omitempty"`

	QuotaLimited bool   `json:"quota_limited,omitempty"`
	RetryAfter   string `json:"retry_after,omitempty"`

	QueryUnderstood *QuerySummary `json:"query_understood,omitempty"`
}

// QuerySummary echoes how the query was interpreted, for transparency.
type QuerySummary struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Action string `json:"action,omitempty"`
}

var defaultSupportedDevices = []string{
	"WiFi Routers & Modems",
	"Printers & Scanners",
	"Laptops & Computers",
	"Smart Home Devices",
	"Home Appliances",
	"Circuit Boards & Arduino",
}

// Build renders the final response for a pipeline outcome.
func Build(out *model.PipelineOutcome) *Response {
	if out.Gate != model.GateNone {
		return buildGate(out)
	}

	switch out.Status() {
	case model.PipelineError:
		if out.QuotaLimited {
			return &Response{
				Status:               StatusError,
				StatusMessage:        statusMessages[StatusError],
				RequestID:            out.RequestID,
				Message:              "The AI analysis quota is exhausted for the current period. Please try again later.",
				RetryAfter:           "tomorrow",
				QuotaLimited:         true,
				TroubleshootingSteps: []model.Step{},
			}
		}
		return &Response{
			Status:               StatusError,
			StatusMessage:        statusMessages[StatusError],
			RequestID:            out.RequestID,
			Message:              failureDetail(out, "The analysis could not be completed."),
			TroubleshootingSteps: []model.Step{},
		}
	case model.PipelineTransient:
		return &Response{
			Status:               StatusError,
			StatusMessage:        statusMessages[StatusError],
			RequestID:            out.RequestID,
			Message:              failureDetail(out, "The service is temporarily busy."),
			RetryAfter:           "shortly",
			TroubleshootingSteps: []model.Step{},
		}
	}

	return buildResult(out)
}

// buildResult renders success and partial_success bodies.
func buildResult(out *model.PipelineOutcome) *Response {
	a := out.Analysis

	r := &Response{
		Status:               StatusSuccess,
		RequestID:            out.RequestID,
		DeviceIdentified:     a.Device.DeviceType,
		DeviceConfidence:     a.Device.DeviceConfidence,
		ConfidenceLevel:      a.Device.EffectiveConfidenceLevel(),
		DetectedComponents:   a.Device.Components,
		Reasoning:            a.Device.Reasoning,
		TroubleshootingSteps: []model.Step{},
		QueryUnderstood: &QuerySummary{
			Type:   a.Query.QueryType,
			Target: a.Query.TargetComponent,
			Action: a.Query.ActionRequested,
		},
	}

	if s := out.Spatial; s != nil {
		r.Component = s.ComponentName
		r.SpatialDescription = s.SpatialDescription
		if s.ComponentVisible {
			r.BoundingBox = s.PixelCoords
		}
	}

	if p := out.Steps; p != nil {
		r.IssueDiagnosis = p.IssueDiagnosis
		if p.Steps != nil {
			r.TroubleshootingSteps = p.Steps
		}
		r.AudioInstructions = p.AudioInstructions
		r.Warnings = p.Warnings
		r.WhenToSeekHelp = p.WhenToSeekHelp
	}

	if out.Status() == model.PipelinePartial {
		r.Status = StatusPartialSuccess
		r.QuotaLimited = true
		r.Message = "Device identified successfully. Detailed guidance temporarily unavailable (AI quota reached)."
		r.RetryAfter = "tomorrow"
	}
	r.StatusMessage = statusMessages[r.Status]
	return r
}

func buildGate(out *model.PipelineOutcome) *Response {
	a := out.Analysis
	switch out.Gate {
	case model.GateInvalidImage:
		return buildInvalidImage(out)
	case model.GateLowConfidence:
		return buildLowConfidence(out)
	case model.GateSafetyWarning:
		r := buildResult(out)
		r.Warnings = append([]string{a.Safety.SafetyMessage}, r.Warnings...)
		r.Message = a.Safety.SafetyMessage
		r.GeneralSafetyTip = "Stop using the device and disconnect power before anything else."
		return r
	case model.GateComponentNotFound:
		return buildComponentNotFound(out)
	case model.GateNeedsClarification:
		return &Response{
			Status:               StatusNeedsClarification,
			StatusMessage:        statusMessages[StatusNeedsClarification],
			RequestID:            out.RequestID,
			DeviceIdentified:     a.Device.DeviceType,
			DeviceConfidence:     a.Device.DeviceConfidence,
			ConfidenceLevel:      a.Device.EffectiveConfidenceLevel(),
			Message:              "I need a little more detail to help with this.",
			ClarifyingQuestions:  a.Query.ClarifyingQuestions,
			TroubleshootingSteps: []model.Step{},
		}
	default:
		return buildResult(out)
	}
}

func buildInvalidImage(out *model.PipelineOutcome) *Response {
	v := out.Analysis.Validation
	reason := v.RejectionReason
	if reason == "" {
		if r := out.Analysis.Device.Reasoning; r != "" && out.Analysis.Device.DeviceType == "not_a_device" {
			reason = r
		} else {
			reason = "This image is not suitable for device troubleshooting."
		}
	}
	suggestion := v.Suggestion
	if suggestion == "" {
		suggestion = "Please upload a photo of an electronic device you need help with."
	}
	return &Response{
		Status:               StatusInvalidImage,
		StatusMessage:        statusMessages[StatusInvalidImage],
		RequestID:            out.RequestID,
		Message:              reason,
		WhatISee:             v.WhatISee,
		Suggestions:          []string{suggestion},
		SupportedDevices:     defaultSupportedDevices,
		IssueDiagnosis:       "Image not suitable for device troubleshooting.",
		TroubleshootingSteps: []model.Step{},
	}
}

func buildLowConfidence(out *model.PipelineOutcome) *Response {
	d := out.Analysis.Device
	return &Response{
		Status:           StatusLowConfidence,
		StatusMessage:    statusMessages[StatusLowConfidence],
		RequestID:        out.RequestID,
		DeviceIdentified: d.DeviceType,
		DeviceConfidence: d.DeviceConfidence,
		ConfidenceLevel:  "low",
		Message:          "I'm having trouble identifying this device clearly.",
		WhatISee:         out.Analysis.Validation.WhatISee,
		Reasoning:        d.Reasoning,
		ClarifyingQuestions: []string{
			"What type of device is this? (router, printer, laptop, etc.)",
			"Can you take a photo from a different angle?",
			"Are there any visible brand names or labels?",
		},
		Suggestions: []string{
			"Ensure the entire device is visible in the photo",
			"Take the photo in good lighting",
			"Include any visible brand names or model numbers",
		},
		TroubleshootingSteps: []model.Step{{
			StepNumber:    1,
			Instruction:   "Please answer the questions above or provide a clearer image",
			VisualCue:     "Look for brand names, model numbers, or distinctive features",
			EstimatedTime: "1 minute",
		}},
		IssueDiagnosis:   "Device identification uncertain, more information needed.",
		GeneralSafetyTip: "Before working on any electronic device, always disconnect power first.",
	}
}

func buildComponentNotFound(out *model.PipelineOutcome) *Response {
	d := out.Analysis.Device
	s := out.Spatial

	message := fmt.Sprintf("I can see this is a %s, but I couldn't locate the %s.", d.DeviceType, s.ComponentName)
	if s.VisibilityReason != "" {
		message += " " + s.VisibilityReason
	}

	var steps []model.Step
	if s.TypicalLocation != "" {
		steps = append(steps, model.Step{
			Instruction:   fmt.Sprintf("The %s is typically located %s", s.ComponentName, s.TypicalLocation),
			VisualCue:     fmt.Sprintf("Look for the %s in that area", s.ComponentName),
			EstimatedTime: "30 seconds",
		})
	}
	if s.SuggestedAction != "" {
		steps = append(steps, model.Step{
			Instruction:   s.SuggestedAction,
			VisualCue:     "This should reveal the component",
			EstimatedTime: "1 minute",
		})
	}
	if len(steps) == 0 {
		steps = append(steps, model.Step{
			Instruction:   fmt.Sprintf("Try taking a photo from a different angle to show the %s", s.ComponentName),
			VisualCue:     fmt.Sprintf("Make sure the area containing the %s is visible", s.ComponentName),
			EstimatedTime: "30 seconds",
		})
	}
	for i := range steps {
		steps[i].StepNumber = i + 1
	}

	return &Response{
		Status:               StatusComponentNotFound,
		StatusMessage:        statusMessages[StatusComponentNotFound],
		RequestID:            out.RequestID,
		DeviceIdentified:     d.DeviceType,
		DeviceConfidence:     d.DeviceConfidence,
		ConfidenceLevel:      d.EffectiveConfidenceLevel(),
		Component:            s.ComponentName,
		Message:              message,
		SpatialDescription:   s.SpatialDescription,
		VisibleAlternatives:  s.VisibleAlternatives,
		TypicalLocation:      s.TypicalLocation,
		TroubleshootingSteps: steps,
	}
}

// failureDetail surfaces the sanitized detail of the terminating stage.
func failureDetail(out *model.PipelineOutcome, fallback string) string {
	if n := len(out.Results); n > 0 && out.Results[n-1].Detail != "" {
		return out.Results[n-1].Detail
	}
	return fallback
}

// HTTPStatus maps a response status to the HTTP code the handler should use.
func HTTPStatus(r *Response) int {
	switch r.Status {
	case StatusError:
		if r.RetryAfter == "shortly" {
			return 503
		}
		if r.QuotaLimited {
			return 429
		}
		return 502
	default:
		// Gate rejections and partial successes are well-formed answers.
		return 200
	}
}
