package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/www6v/notestudio/internal/blob"
	"github.com/www6v/notestudio/internal/store"
	"github.com/www6v/notestudio/internal/task"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Dispatcher hands generation jobs to the background pool.
type Dispatcher interface {
	Dispatch(ctx context.Context, job task.Job)
}

// Generator runs one generation attempt for an artifact.
type Generator interface {
	Generate(ctx context.Context, artifactID string) error
}

// WebFetcher retrieves and extracts readable text from a web page.
type WebFetcher interface {
	FetchWeb(ctx context.Context, pageURL string) (title, text string, err error)
}

// Deps are the collaborators the API server needs.
type Deps struct {
	Store      store.Repository
	Blobs      blob.Store
	Dispatcher Dispatcher
	Generator  Generator
	Fetcher    WebFetcher
	PresignTTL time.Duration
	CORSOrigin string
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	store      store.Repository
	blobs      blob.Store
	dispatcher Dispatcher
	generator  Generator
	fetcher    WebFetcher
	presignTTL time.Duration
	corsOrigin string
	mux        *http.ServeMux
}

// New creates a new API server.
func New(d Deps) *Server {
	if d.PresignTTL <= 0 {
		d.PresignTTL = time.Hour
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*" // TODO: restrict in production
	}
	srv := &Server{
		store:      d.Store,
		blobs:      d.Blobs,
		dispatcher: d.Dispatcher,
		generator:  d.Generator,
		fetcher:    d.Fetcher,
		presignTTL: d.PresignTTL,
		corsOrigin: d.CORSOrigin,
		mux:        http.NewServeMux(),
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(limitBody(jsonContent(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/notebooks", s.handleCreateNotebook)
	s.mux.HandleFunc("GET /api/notebooks/{id}/studio", s.handleStudioOverview)
	s.mux.HandleFunc("POST /api/notebooks/{id}/sources", s.handleCreateSource)
	s.mux.HandleFunc("GET /api/notebooks/{id}/sources", s.handleListSources)
	s.mux.HandleFunc("POST /api/notebooks/{id}/mindmaps", s.handleCreateMindMap)
	s.mux.HandleFunc("POST /api/notebooks/{id}/slidedecks", s.handleCreateSlideDeck)
	s.mux.HandleFunc("POST /api/notebooks/{id}/infographics", s.handleCreateInfographic)
	s.mux.HandleFunc("GET /api/artifacts/{id}", s.handleGetArtifact)
	s.mux.HandleFunc("POST /api/artifacts/{id}/regenerate", s.handleRegenerate)
	s.mux.HandleFunc("DELETE /api/artifacts/{id}", s.handleDeleteArtifact)
	s.mux.HandleFunc("GET /api/artifacts/{id}/file-url", s.handleFileURL)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// corsMiddleware sets CORS headers with the configured allowed origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
