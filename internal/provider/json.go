package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first complete JSON object out of generated text.
// Models asked for JSON still wrap it in markdown fences or append prose
// often enough that strict parsing alone loses otherwise-good responses.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)

	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	// Strip markdown code fences.
	cleaned := strings.ReplaceAll(trimmed, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}

	// Last resort: decode the first object and ignore trailing content.
	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object found")
	}
	dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
	var obj json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return obj, nil
}
