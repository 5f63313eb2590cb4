package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/SumitPatel-HQ/fixit/internal/breaker"
	"github.com/SumitPatel-HQ/fixit/internal/imageutil"
	"github.com/SumitPatel-HQ/fixit/internal/metrics"
	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// PipelineRunner is the pipeline surface the handlers depend on.
type PipelineRunner interface {
	Run(ctx context.Context, req *model.TroubleshootRequest) *model.PipelineOutcome
	Analyze(ctx context.Context, req *model.TroubleshootRequest) (*model.Analysis, model.StageResult)
}

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	Runner   PipelineRunner
	Status   *metrics.Collector
	Breaker  *breaker.Breaker
	AdminKey string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}

// parseImage reads the image_base64 form field into a binary part. A missing
// field is allowed when required is false.
func parseImage(r *http.Request, required bool) (*model.BinaryPart, bool, string) {
	payload := r.FormValue("image_base64")
	if payload == "" {
		if required {
			return nil, false, "image_base64 is required"
		}
		return nil, true, ""
	}
	decoded, err := imageutil.Decode(payload)
	if err != nil {
		return nil, false, "invalid image: " + err.Error()
	}
	if decoded.Downscaled {
		log.Printf("warn: oversized image downscaled to %dx%d before upstream use",
			decoded.Part.Width, decoded.Part.Height)
	}
	return decoded.Part, true, ""
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}
