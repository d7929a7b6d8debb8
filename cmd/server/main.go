package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/www6v/notestudio/internal/api"
	"github.com/www6v/notestudio/internal/blob"
	"github.com/www6v/notestudio/internal/config"
	"github.com/www6v/notestudio/internal/extract"
	"github.com/www6v/notestudio/internal/llm"
	"github.com/www6v/notestudio/internal/store"
	"github.com/www6v/notestudio/internal/studio"
	"github.com/www6v/notestudio/internal/task"
	"github.com/www6v/notestudio/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Open SQLite.
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// Initialize store.
	st, err := store.New(db)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Requeue artifacts stuck in processing from a previous run; the sweeper
	// picks them up once they age past the grace period.
	if n, err := st.ResetStaleProcessing(ctx); err != nil {
		log.Printf("warning: reset stale processing: %v", err)
	} else if n > 0 {
		log.Printf("reset %d stale processing artifacts to pending", n)
	}

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("init blob store: %v", err)
	}

	chat, vision, images, cleanup := buildModelClients(ctx, cfg)
	defer cleanup()

	// Build the generation pipeline.
	aggregator := studio.NewAggregator(blobs, vision, extract.Text, cfg.MaxPerSource)
	renderer := studio.NewRenderer(images, cfg.RenderParallel)
	generator := studio.NewGenerator(st, aggregator, chat, renderer, blobs)

	runner := task.NewRunner(cfg.TaskWorkers, cfg.TaskQueueSize, cfg.JobTimeout)
	runner.Start(ctx)

	sweeper := worker.NewSweeper(st, runner, generator, cfg.SweepInterval, cfg.SweepMinAge)
	go sweeper.Start(ctx)

	// Start API server.
	srv := api.New(api.Deps{
		Store:      st,
		Blobs:      blobs,
		Dispatcher: runner,
		Generator:  generator,
		Fetcher:    extract.NewFetcher(),
		PresignTTL: cfg.PresignTTL,
		CORSOrigin: cfg.CORSOrigin,
	})
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
		httpServer.Shutdown(context.Background())
	}()

	fmt.Printf("notestudio server listening on http://localhost:%s\n", cfg.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	runner.Wait()
}

// buildBlobStore selects S3 when a bucket is configured, the in-memory store
// otherwise.
func buildBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.MemoryBlob() {
		log.Println("S3_BUCKET not set, using in-memory blob store")
		return blob.NewMemStore(), nil
	}
	return blob.NewS3Store(ctx, blob.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PathStyle: cfg.S3PathStyle,
	})
}

// buildModelClients selects the chat provider and, separately, the vision and
// image clients gated on the gateway key. Each missing credential degrades
// that client family to its stub.
func buildModelClients(ctx context.Context, cfg config.Config) (llm.ChatClient, llm.VisionClient, llm.ImageClient, func()) {
	var vision llm.VisionClient = &llm.StubVision{}
	var images llm.ImageClient = &llm.StubImage{}
	if cfg.LLMAPIKey != "" {
		vision = llm.NewVision(cfg.LLMAPIKey,
			llm.WithVisionModel(cfg.VisionModel),
			llm.WithVisionBaseURL(cfg.LLMBaseURL),
			llm.WithVisionTimeout(cfg.HTTPTimeout),
		)
		images = llm.NewImage(cfg.LLMAPIKey,
			llm.WithImageModel(cfg.ImageModel),
			llm.WithImageURL(cfg.ImageAPIURL),
			llm.WithImageTimeout(cfg.HTTPTimeout),
		)
	}

	if cfg.StubLLM() {
		log.Println("no model API key set, using stub chat client")
		return &llm.StubChat{}, vision, images, func() {}
	}

	switch cfg.LLMProvider {
	case "gemini":
		gem, err := llm.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("init gemini: %v", err)
		}
		log.Println("using Gemini chat client")
		return gem, vision, images, func() { gem.Close() }

	case "claude":
		log.Println("using Anthropic chat client")
		chat := llm.NewClaude(cfg.ClaudeKey,
			llm.WithClaudeModel(cfg.ClaudeModel),
			llm.WithClaudeTimeout(cfg.HTTPTimeout),
		)
		return chat, vision, images, func() {}

	case "ollama":
		log.Println("using Ollama chat client")
		chat := llm.NewOllama(cfg.OllamaURL,
			llm.WithOllamaModel(cfg.OllamaModel),
			llm.WithOllamaTimeout(cfg.HTTPTimeout),
		)
		return chat, vision, images, func() {}
	}

	log.Println("using OpenAI-compatible chat client")
	chat := llm.NewClient(cfg.LLMAPIKey,
		llm.WithModel(cfg.ChatModel),
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithTimeout(cfg.HTTPTimeout),
	)
	return chat, vision, images, func() {}
}
