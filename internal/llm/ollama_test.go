package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaDefaults(t *testing.T) {
	c := NewOllama("")

	if c.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want local daemon default", c.baseURL)
	}
	if c.model != "llama3" {
		t.Errorf("model = %q, want %q", c.model, "llama3")
	}
}

func TestNewOllamaTrimsTrailingSlash(t *testing.T) {
	c := NewOllama("http://ollama.internal:11434/")
	if c.baseURL != "http://ollama.internal:11434" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", c.baseURL)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "be terse\n\nhi" {
			t.Errorf("prompt = %q, want system text prepended", req.Prompt)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if req.Options.Temperature != defaultTemperature {
			t.Errorf("temperature = %v, want default", req.Options.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Hello from mock!"}`))
	}))
	defer srv.Close()

	c := NewOllama(srv.URL)
	got, err := c.Complete(context.Background(), CompletionRequest{System: "be terse", User: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello from mock!" {
		t.Errorf("Complete = %q, want %q", got, "Hello from mock!")
	}
}

func TestOllamaCompleteNoSystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "hi" {
			t.Errorf("prompt = %q, want bare user text", req.Prompt)
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewOllama(srv.URL)
	if _, err := c.Complete(context.Background(), CompletionRequest{User: "hi"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestOllamaNoRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("daemon crashed"))
	}))
	defer srv.Close()

	c := NewOllama(srv.URL)
	_, err := c.Complete(context.Background(), CompletionRequest{User: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (failures fall through to the payload fallback)", attempts)
	}

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("error is %T, want *APIError", err)
	}
}

func TestOllamaErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":"model 'llama3' not found"}`))
	}))
	defer srv.Close()

	c := NewOllama(srv.URL)
	if _, err := c.Complete(context.Background(), CompletionRequest{User: "hi"}); err == nil {
		t.Fatal("expected error for error field in response")
	}
}

func TestOllamaEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	c := NewOllama(srv.URL)
	if _, err := c.Complete(context.Background(), CompletionRequest{User: "hi"}); err == nil {
		t.Fatal("expected error for empty response")
	}
}
