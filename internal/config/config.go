// Package config provides centralized configuration for the notestudio server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite database file.
	DBPath string

	// LLMProvider selects the chat backend: "openai" (any OpenAI-compatible
	// gateway), "gemini", "claude" or "ollama".
	LLMProvider string

	// LLMAPIKey authenticates against the chat/vision/image gateway.
	LLMAPIKey string

	// LLMBaseURL is the OpenAI-compatible API root for chat and vision calls.
	LLMBaseURL string

	// ChatModel is the model identifier for text generation.
	ChatModel string

	// VisionModel is the model identifier for image description.
	VisionModel string

	// ImageModel is the model identifier for slide image generation.
	ImageModel string

	// ImageAPIURL is the native endpoint used for image generation requests.
	ImageAPIURL string

	// GeminiKey is the API key for the alternative Gemini chat provider.
	GeminiKey string

	// GeminiModel is the model identifier for Gemini completions.
	GeminiModel string

	// ClaudeKey is the API key for the alternative Anthropic chat provider.
	ClaudeKey string

	// ClaudeModel is the model identifier for Anthropic completions.
	ClaudeModel string

	// OllamaURL is the local Ollama daemon address for the ollama provider.
	OllamaURL string

	// OllamaModel is the model identifier for Ollama completions.
	OllamaModel string

	// S3Endpoint overrides the S3 endpoint for S3-compatible object stores.
	S3Endpoint string

	// S3Region is the bucket region.
	S3Region string

	// S3Bucket holds generated documents and uploaded source files.
	// Leaving it empty selects the in-memory blob store.
	S3Bucket string

	// S3AccessKey and S3SecretKey are static credentials for the bucket.
	S3AccessKey string
	S3SecretKey string

	// S3PathStyle forces path-style addressing (needed by some S3-compatible services).
	S3PathStyle bool

	// MaxPerSource is the per-source character budget during aggregation.
	MaxPerSource int

	// RenderParallel bounds concurrent slide image rendering.
	RenderParallel int

	// TaskWorkers and TaskQueueSize size the background executor.
	// Zero for either makes every dispatch run inline.
	TaskWorkers   int
	TaskQueueSize int

	// JobTimeout bounds one queued generation attempt.
	JobTimeout time.Duration

	// SweepInterval is how often the recovery sweeper looks for orphaned
	// pending artifacts; SweepMinAge is how old they must be to qualify.
	SweepInterval time.Duration
	SweepMinAge   time.Duration

	// PresignTTL is the lifetime of presigned download URLs.
	PresignTTL time.Duration

	// HTTPTimeout applies to outgoing HTTP calls (chat, vision, image, web fetch).
	HTTPTimeout time.Duration

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		DBPath:         envOr("DB_PATH", "notestudio.db"),
		LLMProvider:    envOr("LLM_PROVIDER", "openai"),
		LLMAPIKey:      os.Getenv("LLM_API_KEY"),
		LLMBaseURL:     envOr("LLM_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		ChatModel:      envOr("CHAT_MODEL", "qwen-plus"),
		VisionModel:    envOr("VISION_MODEL", "qwen-vl-plus"),
		ImageModel:     envOr("IMAGE_MODEL", "wan2.2-t2i-flash"),
		ImageAPIURL:    envOr("IMAGE_API_URL", "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		ClaudeKey:      os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:    envOr("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		OllamaURL:      envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    envOr("OLLAMA_MODEL", "llama3"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       envOr("S3_REGION", "cn-north-4"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3PathStyle:    envBool("S3_PATH_STYLE", false),
		MaxPerSource:   envInt("MAX_PER_SOURCE", 3000),
		RenderParallel: envInt("RENDER_PARALLEL", 4),
		TaskWorkers:    envInt("TASK_WORKERS", 2),
		TaskQueueSize:  envInt("TASK_QUEUE_SIZE", 16),
		JobTimeout:     envDuration("JOB_TIMEOUT", 10*time.Minute),
		SweepInterval:  envDuration("SWEEP_INTERVAL", 15*time.Second),
		SweepMinAge:    envDuration("SWEEP_MIN_AGE", time.Minute),
		PresignTTL:     envDuration("PRESIGN_TTL", time.Hour),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 120*time.Second),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
	}
}

// StubLLM returns true when no API key is configured for the selected
// provider. Ollama is keyless and never stubs.
func (c Config) StubLLM() bool {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiKey == ""
	case "claude":
		return c.ClaudeKey == ""
	case "ollama":
		return false
	}
	return c.LLMAPIKey == ""
}

// MemoryBlob returns true when no S3 bucket is configured.
func (c Config) MemoryBlob() bool {
	return c.S3Bucket == ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
