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

// claudeMaxTokens is the default completion budget; the Messages API requires
// an explicit value.
const claudeMaxTokens = 4096

// Claude implements ChatClient using the Anthropic Messages API.
type Claude struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ChatClient = (*Claude)(nil)

// ClaudeOption configures the Claude client.
type ClaudeOption func(*Claude)

// WithClaudeModel sets the default model name.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *Claude) { c.model = model }
}

// WithClaudeBaseURL overrides the API root.
func WithClaudeBaseURL(url string) ClaudeOption {
	return func(c *Claude) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithClaudeTimeout sets the HTTP client timeout.
func WithClaudeTimeout(d time.Duration) ClaudeOption {
	return func(c *Claude) { c.httpClient.Timeout = d }
}

// NewClaude creates a new Anthropic chat client.
func NewClaude(apiKey string, opts ...ClaudeOption) *Claude {
	c := &Claude{
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com",
		model:   "claude-sonnet-4-20250514",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one completion request to the Messages API. No retry; the
// caller's fallback policy absorbs failures.
func (c *Claude) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = claudeMaxTokens
	}

	body, err := json.Marshal(claudeRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      req.System,
		Messages: []claudeMessage{
			{Role: "user", Content: req.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: marshal request: %w", err)
	}

	text, err := c.doRequest(ctx, body)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}
	return text, nil
}

func (c *Claude) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

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

	var claudeResp claudeResponse
	if err := json.Unmarshal(respBody, &claudeResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if claudeResp.Error != nil {
		return "", fmt.Errorf("api error: %s", claudeResp.Error.Message)
	}

	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}
