package handler

import (
	"net/http"

	"github.com/SumitPatel-HQ/fixit/internal/model"
	"github.com/SumitPatel-HQ/fixit/internal/respond"
)

// Troubleshoot handles POST /api/troubleshoot, the main pipeline endpoint.
// Accepts form fields: image_base64 (required), query (required),
// device_hint, image_width, image_height.
func (h *Handlers) Troubleshoot(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	image, ok, msg := parseImage(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	req := &model.TroubleshootRequest{
		Query:       query,
		DeviceHint:  r.FormValue("device_hint"),
		Image:       image,
		ImageWidth:  formInt(r, "image_width"),
		ImageHeight: formInt(r, "image_height"),
	}
	if req.ImageWidth == 0 {
		req.ImageWidth = image.Width
	}
	if req.ImageHeight == 0 {
		req.ImageHeight = image.Height
	}

	out := h.Runner.Run(r.Context(), req)
	resp := respond.Build(out)
	writeJSON(w, respond.HTTPStatus(resp), resp)
}

// ValidateImage handles POST /api/validate-image. Runs the analysis stage
// alone so clients can pre-check an image before the full pipeline.
func (h *Handlers) ValidateImage(w http.ResponseWriter, r *http.Request) {
	image, ok, msg := parseImage(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	analysis, res := h.Runner.Analyze(r.Context(), &model.TroubleshootRequest{
		Query: "is this image suitable for device troubleshooting",
		Image: image,
	})
	if analysis == nil {
		writeError(w, stageFailureStatus(res), res.Detail)
		return
	}
	writeJSON(w, http.StatusOK, analysis.Validation)
}

// IdentifyDevice handles POST /api/identify-device. Returns device detection
// results without running the rest of the pipeline.
func (h *Handlers) IdentifyDevice(w http.ResponseWriter, r *http.Request) {
	image, ok, msg := parseImage(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	query := r.FormValue("query")
	if query == "" {
		query = "identify this device"
	}

	analysis, res := h.Runner.Analyze(r.Context(), &model.TroubleshootRequest{
		Query: query,
		Image: image,
	})
	if analysis == nil {
		writeError(w, stageFailureStatus(res), res.Detail)
		return
	}

	if !analysis.Validation.IsValid {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"reason":     analysis.Validation.RejectionReason,
			"suggestion": analysis.Validation.Suggestion,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"device":           analysis.Device,
		"confidence_level": analysis.Device.EffectiveConfidenceLevel(),
	})
}

// stageFailureStatus maps a failed stage result to an HTTP status code.
func stageFailureStatus(res model.StageResult) int {
	switch res.Status {
	case model.StageQuotaFailure:
		return http.StatusTooManyRequests
	case model.StageTransientFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
