package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Vision implements VisionClient against an OpenAI-compatible multimodal
// chat endpoint (e.g. qwen-vl via DashScope compatible mode).
type Vision struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ VisionClient = (*Vision)(nil)

// VisionOption configures the vision client.
type VisionOption func(*Vision)

// WithVisionModel sets the model name.
func WithVisionModel(model string) VisionOption {
	return func(v *Vision) { v.model = model }
}

// WithVisionBaseURL overrides the API endpoint.
func WithVisionBaseURL(url string) VisionOption {
	return func(v *Vision) { v.baseURL = strings.TrimRight(url, "/") }
}

// WithVisionTimeout sets the HTTP client timeout.
func WithVisionTimeout(d time.Duration) VisionOption {
	return func(v *Vision) { v.httpClient.Timeout = d }
}

// NewVision creates a vision-description client.
func NewVision(apiKey string, opts ...VisionOption) *Vision {
	v := &Vision{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "gpt-4o-mini",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
}

type visionMessage struct {
	Role    string       `json:"role"`
	Content []visionPart `json:"content"`
}

type visionPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

// Describe asks the model to describe the image behind imageURL. The URL
// must be fetchable by the remote service, typically a presigned blob URL.
func (v *Vision) Describe(ctx context.Context, imageURL, prompt string) (string, error) {
	body, err := json.Marshal(visionRequest{
		Model: v.model,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionPart{
					{Type: "image_url", ImageURL: &visionImageURL{URL: imageURL}},
					{Type: "text", Text: prompt},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision: %w", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("vision: unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("vision: no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}
