package pipeline

import (
	"strings"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// localizationThreshold is the minimum locate confidence required before a
// bounding box is surfaced to callers.
const localizationThreshold = 0.4

// actionVerbs force step generation even for locate-type queries.
var actionVerbs = map[string]bool{
	"remove":  true,
	"replace": true,
	"install": true,
	"repair":  true,
	"fix":     true,
}

// shouldLocate decides whether the optional localization stage runs.
func shouldLocate(device *model.DeviceInfo, query *model.QueryInfo) (bool, string) {
	if device.DeviceConfidence < model.MediumConfidenceThreshold {
		return false, "device identification confidence too low for localization"
	}
	if !device.Identified() {
		return false, "cannot localize components on an unidentified device"
	}
	if !query.NeedsLocalization && query.TargetComponent == "" {
		return false, "query does not require component localization"
	}
	return true, "localization appropriate"
}

// shouldSkipSteps reports whether step generation can be skipped. All three
// conditions must hold: the query is a pure locate question, the analysis said
// no steps are needed, and no action verb was requested.
func shouldSkipSteps(query *model.QueryInfo) bool {
	return query.QueryType == "locate" &&
		!query.NeedsSteps &&
		!actionVerbs[strings.ToLower(query.ActionRequested)]
}

// componentKeywords maps canonical component names to query phrases, checked
// in a fixed order so extraction is deterministic.
var componentKeywords = []struct {
	name     string
	patterns []string
}{
	{"reset button", []string{"reset"}},
	{"power button", []string{"power button", "power switch", "on/off"}},
	{"power port", []string{"power port", "power jack", "power socket", "power"}},
	{"ethernet port", []string{"ethernet", "lan port", "network port"}},
	{"usb port", []string{"usb"}},
	{"hdmi port", []string{"hdmi"}},
	{"led indicator", []string{"light", "led", "indicator", "blinking"}},
	{"screen", []string{"screen", "display", "monitor"}},
	{"speaker", []string{"speaker", "audio"}},
	{"microphone", []string{"microphone", "mic"}},
	{"camera", []string{"camera", "webcam"}},
	{"antenna", []string{"antenna"}},
}

// inferTargetComponent extracts a localization target from the raw query when
// the analysis stage did not name one.
func inferTargetComponent(query string, detected []string) string {
	q := strings.ToLower(query)
	for _, ck := range componentKeywords {
		for _, p := range ck.patterns {
			if strings.Contains(q, p) {
				return ck.name
			}
		}
	}
	for _, comp := range detected {
		if comp != "" && strings.Contains(q, strings.ToLower(comp)) {
			return comp
		}
	}
	return ""
}
