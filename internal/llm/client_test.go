package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("sk-test")

	if c.apiKey != "sk-test" {
		t.Errorf("apiKey = %q, want %q", c.apiKey, "sk-test")
	}
	if c.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want %q", c.model, "gpt-4o-mini")
	}
	if c.baseURL != "https://api.openai.com/v1" {
		t.Errorf("baseURL = %q, want default OpenAI URL", c.baseURL)
	}
}

func TestNewClientWithOptions(t *testing.T) {
	c := NewClient("sk-test",
		WithModel("qwen-plus"),
		WithBaseURL("https://dashscope.aliyuncs.com/compatible-mode/v1"),
		WithTimeout(5*time.Second),
	)

	if c.model != "qwen-plus" {
		t.Errorf("model = %q, want %q", c.model, "qwen-plus")
	}
	if c.baseURL != "https://dashscope.aliyuncs.com/compatible-mode/v1" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}
}

func TestWithBaseURLTrimsTrailingSlash(t *testing.T) {
	c := NewClient("sk-test", WithBaseURL("https://example.com/v1/"))
	if c.baseURL != "https://example.com/v1" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", c.baseURL)
	}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-mock" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer sk-mock")
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("request model = %q, want %q", req.Model, "test-model")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}
		if req.Temperature != defaultTemperature {
			t.Errorf("temperature = %v, want default", req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Hello from mock!"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-mock", WithModel("test-model"), WithBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), CompletionRequest{System: "be terse", User: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello from mock!" {
		t.Errorf("Complete = %q, want %q", got, "Hello from mock!")
	}
}

func TestCompleteModelOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "override-model" {
			t.Errorf("request model = %q, want override", req.Model)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithModel("default-model"), WithBaseURL(srv.URL))
	if _, err := c.Complete(context.Background(), CompletionRequest{User: "hi", Model: "override-model"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), CompletionRequest{User: "hi"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if ae.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", ae.StatusCode)
	}
	if ae.IsRetryable() {
		t.Error("401 should not be retryable")
	}
}

func TestCompleteNoRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server error"))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), CompletionRequest{User: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (failures fall through to the payload fallback)", attempts)
	}

	var ae *APIError
	if !errors.As(err, &ae) || !ae.IsRetryable() {
		t.Errorf("500 should classify as retryable, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithBaseURL(srv.URL))
	if _, err := c.Complete(context.Background(), CompletionRequest{User: "hi"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestVisionDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req visionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("messages = %+v, want one message with two parts", req.Messages)
		}
		img := req.Messages[0].Content[0]
		if img.Type != "image_url" || img.ImageURL == nil || img.ImageURL.URL != "https://blob/p.png" {
			t.Errorf("first part = %+v, want image_url", img)
		}
		if req.Messages[0].Content[1].Type != "text" {
			t.Errorf("second part type = %q, want text", req.Messages[0].Content[1].Type)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"a diagram of the system"}}]}`))
	}))
	defer srv.Close()

	v := NewVision("sk-test", WithVisionModel("qwen-vl-plus"), WithVisionBaseURL(srv.URL))
	got, err := v.Describe(context.Background(), "https://blob/p.png", "describe this image")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got != "a diagram of the system" {
		t.Errorf("Describe = %q", got)
	}
}

func TestImageRender(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		var req imageGenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Parameters.PromptExtend {
			t.Error("prompt_extend = false, want true")
		}
		if req.Parameters.Watermark {
			t.Error("watermark = true, want false")
		}
		if req.Parameters.Size != "1664*928" {
			t.Errorf("size = %q", req.Parameters.Size)
		}
		w.Write([]byte(`{"output":{"choices":[{"message":{"content":[{"image":"` + srv.URL + `/files/out.png"}]}}]}}`))
	})
	mux.HandleFunc("GET /files/out.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("PNGBYTES"))
	})

	i := NewImage("sk-test", WithImageURL(srv.URL))
	data, err := i.Render(context.Background(), "a slide about pipelines")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(data) != "PNGBYTES" {
		t.Errorf("Render bytes = %q", data)
	}
}

func TestImageRenderNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"output":{"choices":[{"message":{"content":[{"text":"no image today"}]}}]}}`))
	}))
	defer srv.Close()

	i := NewImage("sk-test", WithImageURL(srv.URL))
	if _, err := i.Render(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when response carries no image")
	}
}

func TestImageRenderAPICode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"InvalidParameter","message":"size not supported"}`))
	}))
	defer srv.Close()

	i := NewImage("sk-test", WithImageURL(srv.URL))
	if _, err := i.Render(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for api error code")
	}
}

// TestIntegrationDashScope makes a real API call using .env config.
// Run explicitly:  go test ./internal/llm/ -run TestIntegration -v
func TestIntegrationDashScope(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	godotenv.Load("../../.env")

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		t.Skip("skipping: LLM_API_KEY not set")
	}
	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = "qwen-plus"
	}

	c := NewClient(apiKey, WithBaseURL(baseURL), WithModel(model))
	got, err := c.Complete(context.Background(), CompletionRequest{User: "Say hello in one short sentence."})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	t.Logf("Response: %s", got)
	if len(got) == 0 {
		t.Error("expected non-empty response")
	}
}
