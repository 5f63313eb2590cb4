package model

// Confidence thresholds for routing decisions after device detection.
const (
	HighConfidenceThreshold   = 0.6
	MediumConfidenceThreshold = 0.3
)

// Analysis is the payload of the combined analysis stage: image validation,
// device detection, query understanding, and safety screening in one call.
type Analysis struct {
	Validation ValidationInfo `json:"validation"`
	Device     DeviceInfo     `json:"device"`
	Query      QueryInfo      `json:"query"`
	Safety     SafetyInfo     `json:"safety"`
}

type ValidationInfo struct {
	IsValid         bool     `json:"is_valid"`
	ImageCategory   string   `json:"image_category"`
	WhatISee        string   `json:"what_i_see"`
	ImageQuality    string   `json:"image_quality"`
	MultipleDevices bool     `json:"multiple_devices"`
	DeviceList      []string `json:"device_list,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	Suggestion      string   `json:"suggestion,omitempty"`
}

type DeviceInfo struct {
	DeviceType         string   `json:"device_type"`
	DeviceCategory     string   `json:"device_category"`
	Brand              string   `json:"brand"`
	Model              string   `json:"model"`
	BrandModelGuidance string   `json:"brand_model_guidance,omitempty"`
	DeviceConfidence   float64  `json:"device_confidence"`
	ConfidenceLevel    string   `json:"confidence_level"`
	Components         []string `json:"components,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// EffectiveConfidenceLevel returns the reported level, deriving one from the
// numeric confidence when the model left it blank.
func (d *DeviceInfo) EffectiveConfidenceLevel() string {
	if d.ConfidenceLevel != "" {
		return d.ConfidenceLevel
	}
	switch {
	case d.DeviceConfidence >= HighConfidenceThreshold:
		return "high"
	case d.DeviceConfidence >= MediumConfidenceThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Identified reports whether detection produced a usable device type.
func (d *DeviceInfo) Identified() bool {
	return d.DeviceType != "" && d.DeviceType != "Unknown" && d.DeviceType != "not_a_device"
}

type QueryInfo struct {
	QueryType           string   `json:"query_type"`
	AnswerType          string   `json:"answer_type"`
	TargetComponent     string   `json:"target_component,omitempty"`
	TargetComponents    []string `json:"target_components,omitempty"`
	ActionRequested     string   `json:"action_requested,omitempty"`
	NeedsLocalization   bool     `json:"needs_localization"`
	NeedsSteps          bool     `json:"needs_steps"`
	NeedsExplanation    bool     `json:"needs_explanation"`
	ClarificationNeeded bool     `json:"clarification_needed"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
	Confidence          float64  `json:"confidence"`
}

type SafetyInfo struct {
	SafetyDetected     bool     `json:"safety_detected"`
	SafetyKeywords     []string `json:"safety_keywords_found,omitempty"`
	SafetyMessage      string   `json:"safety_message,omitempty"`
	OverrideAnswerType bool     `json:"override_answer_type"`
}

// SpatialInfo is the payload of the component localization stage.
type SpatialInfo struct {
	ComponentVisible    bool     `json:"component_visible"`
	ComponentName       string   `json:"component_name"`
	VisibilityStatus    string   `json:"visibility_status"`
	VisibilityReason    string   `json:"visibility_reason,omitempty"`
	SpatialDescription  string   `json:"spatial_description"`
	BoundingBox         *NormBox `json:"bounding_box,omitempty"`
	PixelCoords         *Box     `json:"pixel_coords,omitempty"`
	Confidence          float64  `json:"confidence"`
	SuggestedAction     string   `json:"suggested_action,omitempty"`
	VisibleAlternatives []string `json:"visible_alternatives,omitempty"`
	TypicalLocation     string   `json:"typical_location,omitempty"`
}

// NormBox is a bounding box on the upstream's 0-1000 normalized scale.
type NormBox struct {
	YMin float64 `json:"ymin"`
	XMin float64 `json:"xmin"`
	YMax float64 `json:"ymax"`
	XMax float64 `json:"xmax"`
}

// Box is a bounding box in pixel coordinates, clamped to the image.
type Box struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// ToPixels scales a normalized box to pixel coordinates for a width×height image.
func (n *NormBox) ToPixels(width, height int) *Box {
	return &Box{
		XMin: int(n.XMin / 1000.0 * float64(width)),
		YMin: int(n.YMin / 1000.0 * float64(height)),
		XMax: int(n.XMax / 1000.0 * float64(width)),
		YMax: int(n.YMax / 1000.0 * float64(height)),
	}
}

// Clamp bounds the box to the image dimensions in place.
func (b *Box) Clamp(width, height int) {
	clamp := func(v, hi int) int {
		if v < 0 {
			return 0
		}
		if v > hi {
			return hi
		}
		return v
	}
	b.XMin = clamp(b.XMin, width)
	b.YMin = clamp(b.YMin, height)
	b.XMax = clamp(b.XMax, width)
	b.YMax = clamp(b.YMax, height)
}

// StepPlan is the payload of the step generation stage.
type StepPlan struct {
	IssueDiagnosis    string   `json:"issue_diagnosis"`
	Steps             []Step   `json:"troubleshooting_steps"`
	AudioInstructions string   `json:"audio_instructions,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	WhenToSeekHelp    string   `json:"when_to_seek_help,omitempty"`
}

type Step struct {
	StepNumber    int    `json:"step_number"`
	Instruction   string `json:"instruction"`
	VisualCue     string `json:"visual_cue,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
	SafetyNote    string `json:"safety_note,omitempty"`
	Caveat        string `json:"caveat,omitempty"`
}
