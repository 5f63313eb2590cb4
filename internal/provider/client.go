package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Client is the HTTP-backed upstream caller: it owns the http.Client and
// drives a Provider's request/response translation for one configured model.
type Client struct {
	provider  Provider
	http      *http.Client
	modelName string
	apiKey    string
}

// NewClient creates an upstream client. A zero timeout means the upstream
// call has no local deadline beyond what the server enforces.
func NewClient(p Provider, modelName, apiKey string, timeout time.Duration) *Client {
	return &Client{
		provider:  p,
		http:      &http.Client{Timeout: timeout},
		modelName: modelName,
		apiKey:    apiKey,
	}
}

// Generate performs one upstream call and returns the extracted JSON payload.
// A response that cannot be reduced to a JSON object is a contract violation
// and returns ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, in *model.PromptInput) (json.RawMessage, error) {
	req, err := c.provider.TransformRequest(ctx, c.modelName, in, c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{
			Message:  err.Error(),
			Provider: c.provider.Name(),
			Model:    c.modelName,
			Err:      model.ErrServiceUnavailable,
		}
	}

	text, err := c.provider.TransformResponse(ctx, resp)
	if err != nil {
		return nil, err
	}

	payload, err := ExtractJSON(text)
	if err != nil {
		return nil, &model.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid JSON in response: %v", err),
			Provider:   c.provider.Name(),
			Model:      c.modelName,
			Err:        model.ErrMalformedResponse,
		}
	}
	return payload, nil
}
