// Package llm wraps the generative services the pipeline calls: chat
// completion for structured payloads, vision description for image sources,
// and text-to-image rendering for slides. All implementations speak to
// OpenAI-compatible endpoints except the Gemini client.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// CompletionRequest is one chat-completion call. Model overrides the client
// default when set; Temperature falls back to a conservative default when
// zero.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatClient abstracts chat-completion calls against a generative model.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// VisionClient turns an image into descriptive text for sources that carry
// no extractable text.
type VisionClient interface {
	Describe(ctx context.Context, imageURL, prompt string) (string, error)
}

// ImageClient renders one image from a text prompt.
type ImageClient interface {
	Render(ctx context.Context, prompt string) ([]byte, error)
}

// APIError is a non-2xx response from a model or rendering API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether the failure is transient (rate limit, server
// errors). The pipeline does not retry model calls itself, but callers use
// this to classify failures in logs.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}
