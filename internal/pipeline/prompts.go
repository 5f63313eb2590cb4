package pipeline

import (
	"fmt"
	"strings"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// One prompt per stage. Every prompt demands a single JSON object so the
// response survives the gateway's extraction step unchanged.

const analysisPromptTemplate = `You are a device troubleshooting analysis system.

User Query: %q%s

Perform FOUR analyses in one response:

1. IMAGE VALIDATION AND QUALITY
   - Is this a physical electronic device? (yes or no)
   - What do you see in the image?
   - Image quality: is it blurry, too dark, or too far away?
   - Are MULTIPLE devices visible? If so, list them.
   - If not a valid device (game screenshot, UI, person, food, artwork), give a rejection reason.

2. DEVICE DETECTION (if valid device)
   - Identify the exact device type. Be specific (Router, Laser Printer, Microwave, ...).
   - Brand and model ONLY IF clearly visible. If not visible set brand to "unknown",
     model to "not visible", and fill brand_model_guidance with where to look.
   - Your confidence from 0.0 to 1.0, classified as "high" (0.6+), "medium" (0.3-0.6) or "low" (<0.3).
   - List ALL visible components.
   - NEVER guess brand from visual similarity.

3. QUERY UNDERSTANDING
   Classify the user's PRIMARY intent as one of:
   "identify", "locate", "explain", "troubleshoot", "unclear".
   - "where is" / "locate" / "find" means locate.
   - "not working" / "fix" / "repair" / "replace" / "remove" / "install" means troubleshoot.
   - Vague queries like "help with this" are unclear; set clarification_needed and add questions.
   Determine target_component (the component asked about, or null), action_requested,
   needs_localization, and needs_steps. A pure locate question needs no steps.

4. SAFETY DETECTION
   Check the query and image for safety-critical indicators: burning, smoke, melting,
   swelling battery, electric shock, exposed mains, sparking, fire, visible burn marks.
   If ANY risk is found set safety_detected to true and fill safety_message with
   specific instructions.

Return ONLY valid JSON with this structure:
{
  "validation": {
    "is_valid": true,
    "image_category": "the device category you identified",
    "what_i_see": "what you actually see in this image",
    "image_quality": "good",
    "multiple_devices": false,
    "device_list": [],
    "rejection_reason": null,
    "suggestion": null
  },
  "device": {
    "device_type": "the specific device type",
    "device_category": "broader category",
    "brand": "brand if clearly visible, else unknown",
    "model": "model if clearly visible, else not visible",
    "brand_model_guidance": null,
    "device_confidence": 0.85,
    "confidence_level": "high",
    "components": [],
    "reasoning": "why you identified it this way"
  },
  "query": {
    "query_type": "locate",
    "answer_type": "locate_only",
    "target_component": null,
    "target_components": [],
    "action_requested": "",
    "needs_localization": true,
    "needs_steps": false,
    "needs_explanation": false,
    "clarification_needed": false,
    "clarifying_questions": [],
    "confidence": 0.9
  },
  "safety": {
    "safety_detected": false,
    "safety_keywords_found": [],
    "safety_message": null,
    "override_answer_type": false
  }
}

Identify the ACTUAL device you see, not one from a predefined list. Be honest about uncertainty.`

func analysisPrompt(req *model.TroubleshootRequest) *model.PromptInput {
	hint := ""
	if req.DeviceHint != "" {
		hint = "\nDevice hint from user: " + req.DeviceHint
	}
	parts := []model.Part{
		model.TextPart(fmt.Sprintf(analysisPromptTemplate, req.Query, hint)),
	}
	if req.Image != nil {
		parts = append(parts, model.ImagePart(req.Image))
	}
	return &model.PromptInput{Parts: parts, Temperature: 0.2, MaxTokens: 3000}
}

const locatePromptTemplate = `You are a spatial reasoning system for device images.

Your task: locate %q in this image.
%s
Use MULTI-STAGE REASONING:

STAGE 1 - VISIBILITY: is the component visible at all? Could it exist on this
device type? Is the image quality good enough to see it?
STAGE 2 - ROUGH LOCATION (only if stage 1 passes): where in the image is it,
and what is it near?
STAGE 3 - PRECISE LOCATION (only if stage 2 passes): provide a bounding box
only if you can CLEARLY see the component.

BE HONEST: if you cannot see it say not_visible; if the image is unclear say
too_blurry; if it does not exist on this device type say not_applicable.

Return ONLY valid JSON:
{
  "component_visible": false,
  "component_name": %q,
  "visibility_status": "visible | not_visible | partially_visible | too_blurry | not_applicable | wrong_angle",
  "visibility_reason": "why the component is or is not visible",
  "spatial_description": "natural language location, or the reason it is not visible",
  "bounding_box": null,
  "confidence": 0.0,
  "suggested_action": "what the user should do if the component was not found",
  "visible_alternatives": [],
  "typical_location": "where this component usually sits on this device type"
}

bounding_box, when present, uses ymin/xmin/ymax/xmax on a 0-1000 scale.
Only provide bounding_box if confidence is above 0.4.`

func locatePrompt(target string, device *model.DeviceInfo, image *model.BinaryPart) *model.PromptInput {
	var ctx strings.Builder
	if device.Identified() {
		fmt.Fprintf(&ctx, "This device was identified as: %s\n", device.DeviceType)
		if len(device.Components) > 0 {
			n := len(device.Components)
			if n > 5 {
				n = 5
			}
			fmt.Fprintf(&ctx, "Already detected components: %s\n", strings.Join(device.Components[:n], ", "))
		}
	}
	parts := []model.Part{
		model.TextPart(fmt.Sprintf(locatePromptTemplate, target, ctx.String(), target)),
	}
	if image != nil {
		parts = append(parts, model.ImagePart(image))
	}
	return &model.PromptInput{Parts: parts, Temperature: 0.2, MaxTokens: 1500}
}

const stepsPromptTemplate = `You are an expert repair technician.

Generate troubleshooting guidance for this issue. %s

User Query: %s
Device: %s
%s

Manual Context:
%s

Return ONLY valid JSON:
{
  "issue_diagnosis": "concise explanation of what is likely happening",
  "troubleshooting_steps": [
    {
      "step_number": 1,
      "instruction": "clear action to take",
      "visual_cue": "what to look for",
      "estimated_time": "e.g. 30 seconds",
      "safety_note": "any safety precautions if needed"
    }
  ],
  "audio_instructions": "friendly paragraph combining the steps",
  "warnings": [],
  "when_to_seek_help": "when the user should consult a professional"
}

Keep steps safe, beginner friendly, specific to this device type, based on
actually visible components, and in logical order.`

func stepsPrompt(req *model.TroubleshootRequest, a *model.Analysis, spatial *model.SpatialInfo, manualContext []string) *model.PromptInput {
	device := a.Device.DeviceType
	if a.Device.Brand != "" && a.Device.Brand != "unknown" && a.Device.Brand != "generic" {
		device += " (" + a.Device.Brand
		if a.Device.Model != "" && a.Device.Model != "not visible" {
			device += " " + a.Device.Model
		}
		device += ")"
	}

	component := ""
	if spatial != nil {
		component = "Target: " + spatial.ComponentName
		if spatial.ComponentVisible {
			component += " - Located at: " + spatial.SpatialDescription
		} else if spatial.TypicalLocation != "" {
			component += " - Typically located: " + spatial.TypicalLocation
		}
	} else if a.Query.TargetComponent != "" {
		component = "Target: " + a.Query.TargetComponent
	}

	context := "No specific manual pages found."
	if len(manualContext) > 0 {
		context = strings.Join(manualContext, "\n\n")
	}

	// Medium confidence gets hedged steps rather than none.
	register := "Be SPECIFIC and ACTIONABLE."
	if a.Device.EffectiveConfidenceLevel() == "medium" {
		register = "Device identification is only moderately confident, so add caveats where a step depends on the exact model."
	}

	text := fmt.Sprintf(stepsPromptTemplate, register, req.Query, device, component, context)
	return &model.PromptInput{Parts: []model.Part{model.TextPart(text)}, Temperature: 0.3, MaxTokens: 2500}
}
