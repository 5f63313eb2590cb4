package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Provider implements the Google Gemini generateContent translation layer.
type Provider struct {
	baseURL string
}

func New() *Provider {
	return &Provider{baseURL: defaultBaseURL}
}

// NewWithBaseURL creates a provider against a non-default endpoint. Used by
// tests and self-hosted proxies.
func NewWithBaseURL(baseURL string) *Provider {
	return &Provider{baseURL: baseURL}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) TransformRequest(ctx context.Context, modelName string, in *model.PromptInput, apiKey string) (*http.Request, error) {
	body := transformRequestBody(in)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, modelName, apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (p *Provider) TransformResponse(_ context.Context, resp *http.Response) (string, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", &model.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    "no candidates in response",
			Provider:   "gemini",
			Err:        model.ErrMalformedResponse,
		}
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}

func transformRequestBody(in *model.PromptInput) map[string]any {
	parts := make([]map[string]any, 0, len(in.Parts))
	for _, p := range in.Parts {
		if p.Binary != nil {
			parts = append(parts, map[string]any{
				"inline_data": map[string]any{
					"mime_type": p.Binary.MIME,
					"data":      base64.StdEncoding.EncodeToString(p.Binary.Data),
				},
			})
			continue
		}
		parts = append(parts, map[string]any{"text": p.Text})
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": parts},
		},
	}

	genConfig := map[string]any{
		"responseMimeType": "application/json",
	}
	if in.Temperature > 0 {
		genConfig["temperature"] = in.Temperature
	}
	if in.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = in.MaxTokens
	}
	body["generationConfig"] = genConfig

	return body
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	msg := string(body)
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
		if errResp.Error.Status != "" {
			msg = errResp.Error.Status + ": " + msg
		}
	}

	return &model.UpstreamError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Provider:   "gemini",
		Err:        model.MapHTTPStatusToError(resp.StatusCode),
	}
}
