package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements ChatClient using the Google Generative AI SDK. System
// text is prepended to the user prompt, matching how the other clients use a
// single instruction channel.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ ChatClient = (*Gemini)(nil)

// NewGemini creates a Gemini-backed chat client.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(defaultTemperature)

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	prompt := req.User
	if req.System != "" {
		prompt = req.System + "\n\n" + req.User
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
