package model

// TroubleshootRequest is the parsed form of an incoming troubleshoot call.
// The image has already been decoded and shape-checked at the HTTP boundary;
// the pipeline never sees raw base64.
type TroubleshootRequest struct {
	Query      string
	DeviceHint string
	Image      *BinaryPart
	// Display dimensions reported by the client, used to scale bounding
	// boxes back to what the user is looking at. Fall back to the decoded
	// image dimensions when absent.
	ImageWidth  int
	ImageHeight int
}

// Part is one element of a normalized prompt. Exactly one field is set.
type Part struct {
	Text   string
	Binary *BinaryPart
}

// BinaryPart is a non-text prompt payload with an explicit shape.
// Cache keys and logs use only MIME and dimensions, never the raw bytes.
type BinaryPart struct {
	MIME   string
	Width  int
	Height int
	Data   []byte
}

// TextPart wraps s as a prompt part.
func TextPart(s string) Part { return Part{Text: s} }

// ImagePart wraps b as a prompt part.
func ImagePart(b *BinaryPart) Part { return Part{Binary: b} }

// PromptInput is the fully-normalized input of a single upstream call.
// Two inputs with the same normalized form are the same call for caching
// purposes.
type PromptInput struct {
	Parts       []Part
	Temperature float64
	MaxTokens   int
}
