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

// Ollama implements ChatClient against a local Ollama daemon. Useful for
// keyless development with a real model.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ChatClient = (*Ollama)(nil)

// OllamaOption configures the Ollama client.
type OllamaOption func(*Ollama)

// WithOllamaModel sets the default model name.
func WithOllamaModel(model string) OllamaOption {
	return func(c *Ollama) { c.model = model }
}

// WithOllamaTimeout sets the HTTP client timeout.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(c *Ollama) { c.httpClient.Timeout = d }
}

// NewOllama creates a new Ollama chat client.
func NewOllama(baseURL string, opts ...OllamaOption) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	c := &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "llama3",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Complete sends one completion request to the generate endpoint. The generate
// API takes a single prompt, so the system text is prepended. No retry.
func (c *Ollama) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	prompt := req.User
	if req.System != "" {
		prompt = req.System + "\n\n" + req.User
	}

	body, err := json.Marshal(ollamaRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{Temperature: temperature},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	text, err := c.doRequest(ctx, body)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return text, nil
}

func (c *Ollama) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if ollamaResp.Error != "" {
		return "", fmt.Errorf("api error: %s", ollamaResp.Error)
	}
	if ollamaResp.Response == "" {
		return "", fmt.Errorf("empty response")
	}
	return ollamaResp.Response, nil
}
