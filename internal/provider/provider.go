// Package provider defines the capability boundary to the external
// inference service. Implementations translate a normalized prompt into a
// provider-native HTTP request and the provider's response back into the
// structured JSON payload the pipeline consumes.
package provider

import (
	"context"
	"net/http"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Provider translates between the normalized prompt form and a provider's
// wire format.
type Provider interface {
	// TransformRequest converts a normalized prompt input into a
	// provider-native HTTP request.
	TransformRequest(ctx context.Context, modelName string, in *model.PromptInput, apiKey string) (*http.Request, error)

	// TransformResponse converts a provider-native HTTP response into the
	// generated text. Non-2xx responses return an *model.UpstreamError.
	TransformResponse(ctx context.Context, resp *http.Response) (string, error)

	// Name returns the provider identifier used in errors and logs.
	Name() string
}
