package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxImageSize caps a downloaded rendering at 20MB.
const maxImageSize = 20 * 1024 * 1024

// Image implements ImageClient against the DashScope multimodal generation
// API. Rendering is a two-step exchange: the generation call returns a
// short-lived URL, which is then downloaded.
type Image struct {
	apiKey     string
	apiURL     string
	model      string
	size       string
	httpClient *http.Client
}

var _ ImageClient = (*Image)(nil)

// ImageOption configures the image client.
type ImageOption func(*Image)

// WithImageModel sets the model name.
func WithImageModel(model string) ImageOption {
	return func(i *Image) { i.model = model }
}

// WithImageURL overrides the generation endpoint.
func WithImageURL(url string) ImageOption {
	return func(i *Image) { i.apiURL = url }
}

// WithImageSize sets the requested output resolution, in the service's
// "width*height" form.
func WithImageSize(size string) ImageOption {
	return func(i *Image) { i.size = size }
}

// WithImageTimeout sets the HTTP client timeout.
func WithImageTimeout(d time.Duration) ImageOption {
	return func(i *Image) { i.httpClient.Timeout = d }
}

// NewImage creates a text-to-image client.
func NewImage(apiKey string, opts ...ImageOption) *Image {
	i := &Image{
		apiKey: apiKey,
		apiURL: "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation",
		model:  "wan2.2-t2i-flash",
		size:   "1664*928",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type imageGenRequest struct {
	Model      string          `json:"model"`
	Input      imageGenInput   `json:"input"`
	Parameters imageGenParams  `json:"parameters"`
}

type imageGenInput struct {
	Messages []imageGenMessage `json:"messages"`
}

type imageGenMessage struct {
	Role    string          `json:"role"`
	Content []imageGenPart  `json:"content"`
}

type imageGenPart struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type imageGenParams struct {
	PromptExtend bool   `json:"prompt_extend"`
	Watermark    bool   `json:"watermark"`
	Size         string `json:"size"`
}

type imageGenResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []imageGenPart `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Render generates one image for the prompt and returns its bytes.
func (i *Image) Render(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(imageGenRequest{
		Model: i.model,
		Input: imageGenInput{
			Messages: []imageGenMessage{
				{Role: "user", Content: []imageGenPart{{Text: prompt}}},
			},
		},
		Parameters: imageGenParams{
			PromptExtend: true,
			Watermark:    false,
			Size:         i.size,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("render: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render: %w", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	var genResp imageGenResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("render: unmarshal response: %w", err)
	}
	if genResp.Code != "" {
		return nil, fmt.Errorf("render: api error %s: %s", genResp.Code, genResp.Message)
	}

	imageURL := ""
	for _, choice := range genResp.Output.Choices {
		for _, part := range choice.Message.Content {
			if part.Image != "" {
				imageURL = part.Image
				break
			}
		}
	}
	if imageURL == "" {
		return nil, fmt.Errorf("render: no image in response")
	}

	return i.download(ctx, imageURL)
}

func (i *Image) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: %w", &APIError{StatusCode: resp.StatusCode, Body: ""})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return data, nil
}
