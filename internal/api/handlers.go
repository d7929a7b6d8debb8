package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/www6v/notestudio/internal/model"
	"github.com/www6v/notestudio/internal/task"
)

// errorMessage is the user-facing explanation attached to artifacts in the
// error state. Failure detail lives in the logs, not on the row.
const errorMessage = "Generation failed. Add sources with readable text and try again."

// artifactResponse is the wire form of an artifact. Payload and options are
// inlined as raw JSON so clients do not have to double-decode strings.
type artifactResponse struct {
	ID         string          `json:"id"`
	NotebookID string          `json:"notebook_id"`
	Kind       model.Kind      `json:"kind"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	FileRef    *string         `json:"file_ref,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
	Message    string          `json:"message,omitempty"`
}

func toArtifactResponse(a *model.Artifact) artifactResponse {
	resp := artifactResponse{
		ID:         a.ID,
		NotebookID: a.NotebookID,
		Kind:       a.Kind,
		Title:      a.Title,
		Status:     a.Status,
		FileRef:    a.FileRef,
		Options:    json.RawMessage(a.Options),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Payload != nil {
		resp.Payload = json.RawMessage(*a.Payload)
	}
	if a.Status == model.StatusError {
		resp.Message = errorMessage
	}
	return resp
}

// decodeBody decodes a JSON request body into v. An empty body is allowed so
// artifact creation can rely on option defaults.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) dispatchGenerate(r *http.Request, artifactID string, kind model.Kind) {
	s.dispatcher.Dispatch(r.Context(), task.Job{
		Name: "generate " + string(kind),
		Run: func(ctx context.Context) error {
			return s.generator.Generate(ctx, artifactID)
		},
	})
}

// ---------------------------------------------------------------------------
// POST /api/notebooks
// ---------------------------------------------------------------------------

type createNotebookRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req createNotebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	nb := model.NewNotebook(uuid.New().String(), req.Name)
	if err := s.store.CreateNotebook(r.Context(), nb); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create notebook")
		return
	}

	writeJSON(w, http.StatusCreated, nb)
}

// ---------------------------------------------------------------------------
// GET /api/notebooks/{id}/studio
// ---------------------------------------------------------------------------

type studioOverview struct {
	NotebookID   string             `json:"notebook_id"`
	MindMaps     []artifactResponse `json:"mindmaps"`
	SlideDecks   []artifactResponse `json:"slidedecks"`
	Infographics []artifactResponse `json:"infographics"`
}

func (s *Server) handleStudioOverview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetNotebook(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "notebook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get notebook")
		return
	}

	kind := model.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !model.ValidKind(kind) {
		writeError(w, http.StatusBadRequest, "kind must be mindmap, slidedeck or infographic")
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), id, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list artifacts")
		return
	}

	overview := studioOverview{
		NotebookID:   id,
		MindMaps:     []artifactResponse{},
		SlideDecks:   []artifactResponse{},
		Infographics: []artifactResponse{},
	}
	for i := range artifacts {
		resp := toArtifactResponse(&artifacts[i])
		switch artifacts[i].Kind {
		case model.KindMindMap:
			overview.MindMaps = append(overview.MindMaps, resp)
		case model.KindSlideDeck:
			overview.SlideDecks = append(overview.SlideDecks, resp)
		case model.KindInfographic:
			overview.Infographics = append(overview.Infographics, resp)
		}
	}

	writeJSON(w, http.StatusOK, overview)
}

// ---------------------------------------------------------------------------
// POST /api/notebooks/{id}/sources
// ---------------------------------------------------------------------------

type createSourceRequest struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	BlobRef string `json:"blob_ref,omitempty"`
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	notebookID := r.PathValue("id")
	if _, err := s.store.GetNotebook(r.Context(), notebookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "notebook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get notebook")
		return
	}

	var req createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	provided := 0
	for _, v := range []string{req.Text, req.URL, req.BlobRef} {
		if v != "" {
			provided++
		}
	}
	if provided != 1 {
		writeError(w, http.StatusBadRequest, "provide exactly one of text, url or blob_ref")
		return
	}

	src := model.NewSource(uuid.New().String(), notebookID, req.Title, req.Kind)

	switch {
	case req.URL != "":
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			writeError(w, http.StatusBadRequest, "url must be http or https")
			return
		}
		title, text, err := s.fetcher.FetchWeb(r.Context(), req.URL)
		if err != nil {
			slog.Warn("web source fetch failed", "url", req.URL, "error", err)
			writeError(w, http.StatusBadRequest, "failed to fetch url content")
			return
		}
		src.Kind = model.SourceWeb
		src.CachedText = &text
		if src.Title == "" {
			src.Title = title
		}

	case req.Text != "":
		if src.Kind == "" {
			src.Kind = model.SourceText
		}
		if src.Kind != model.SourceText && src.Kind != model.SourceMarkdown {
			writeError(w, http.StatusBadRequest, "text sources must be kind text or markdown")
			return
		}
		if src.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		src.CachedText = &req.Text

	default: // blob_ref
		if !model.ValidSourceKind(src.Kind) {
			writeError(w, http.StatusBadRequest, "blob sources require a valid kind")
			return
		}
		if src.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		src.BlobRef = &req.BlobRef
	}

	if err := s.store.CreateSource(r.Context(), src); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create source")
		return
	}

	writeJSON(w, http.StatusCreated, src)
}

// ---------------------------------------------------------------------------
// GET /api/notebooks/{id}/sources
// ---------------------------------------------------------------------------

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	notebookID := r.PathValue("id")
	if _, err := s.store.GetNotebook(r.Context(), notebookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "notebook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get notebook")
		return
	}

	sources, err := s.store.ListSources(r.Context(), notebookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}
	if sources == nil {
		sources = []model.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

// ---------------------------------------------------------------------------
// POST /api/notebooks/{id}/{mindmaps,slidedecks,infographics}
// ---------------------------------------------------------------------------

type createMindMapRequest struct {
	Title string `json:"title"`
	model.MindMapOptions
}

func (s *Server) handleCreateMindMap(w http.ResponseWriter, r *http.Request) {
	var req createMindMapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.MindMapOptions.Normalize()
	opts, _ := json.Marshal(req.MindMapOptions)
	s.createArtifact(w, r, model.KindMindMap, req.Title, string(opts))
}

type createSlideDeckRequest struct {
	Title string `json:"title"`
	model.SlideDeckOptions
}

func (s *Server) handleCreateSlideDeck(w http.ResponseWriter, r *http.Request) {
	var req createSlideDeckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if st := req.Style; st != "" && st != model.SlideStyleDetailed && st != model.SlideStyleConcise {
		writeError(w, http.StatusBadRequest, "style must be detailed or concise")
		return
	}
	if d := req.Duration; d != "" && d != "short" && d != "default" && d != "long" {
		writeError(w, http.StatusBadRequest, "duration must be short, default or long")
		return
	}
	req.SlideDeckOptions.Normalize()
	opts, _ := json.Marshal(req.SlideDeckOptions)
	s.createArtifact(w, r, model.KindSlideDeck, req.Title, string(opts))
}

type createInfographicRequest struct {
	Title string `json:"title"`
	model.InfographicOptions
}

func (s *Server) handleCreateInfographic(w http.ResponseWriter, r *http.Request) {
	var req createInfographicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Template != "" && !model.ValidTemplate(req.Template) {
		writeError(w, http.StatusBadRequest, "unknown infographic template")
		return
	}
	if th := req.Theme; th != "" && th != "light" && th != "dark" {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}
	req.InfographicOptions.Normalize()
	opts, _ := json.Marshal(req.InfographicOptions)
	s.createArtifact(w, r, model.KindInfographic, req.Title, string(opts))
}

// createArtifact inserts a pending artifact for the notebook and dispatches
// its generation job. An empty title falls back to the notebook name.
func (s *Server) createArtifact(w http.ResponseWriter, r *http.Request, kind model.Kind, title, options string) {
	notebookID := r.PathValue("id")
	nb, err := s.store.GetNotebook(r.Context(), notebookID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "notebook not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get notebook")
		return
	}
	if title == "" {
		title = nb.Name
	}

	artifact := model.NewArtifact(uuid.New().String(), notebookID, kind, title, options)
	if err := s.store.CreateArtifact(r.Context(), artifact); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create artifact")
		return
	}

	s.dispatchGenerate(r, artifact.ID, kind)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     artifact.ID,
		"status": artifact.Status,
	})
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	artifact, err := s.store.GetArtifact(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	writeJSON(w, http.StatusOK, toArtifactResponse(artifact))
}

// ---------------------------------------------------------------------------
// POST /api/artifacts/{id}/regenerate
// ---------------------------------------------------------------------------

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	artifact, err := s.store.GetArtifact(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	ok, err := s.store.ResetArtifactForRegenerate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset artifact")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "a generation attempt is already in flight")
		return
	}

	// The row no longer points at the old document; removing the blob is
	// cleanup only.
	if artifact.FileRef != nil {
		if err := s.blobs.Delete(r.Context(), *artifact.FileRef); err != nil {
			slog.Warn("orphaned file cleanup failed", "artifact_id", id, "ref", *artifact.FileRef, "error", err)
		}
	}

	s.dispatchGenerate(r, id, artifact.Kind)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": model.StatusPending,
	})
}

// ---------------------------------------------------------------------------
// DELETE /api/artifacts/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	artifact, err := s.store.GetArtifact(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	if err := s.store.DeleteArtifact(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete artifact")
		return
	}

	if artifact.FileRef != nil {
		if err := s.blobs.Delete(r.Context(), *artifact.FileRef); err != nil {
			slog.Warn("orphaned file cleanup failed", "artifact_id", id, "ref", *artifact.FileRef, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"deleted": true,
	})
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}/file-url
// ---------------------------------------------------------------------------

func (s *Server) handleFileURL(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	artifact, err := s.store.GetArtifact(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}
	if artifact.FileRef == nil {
		writeError(w, http.StatusConflict, "artifact has no file")
		return
	}

	signed, err := s.blobs.Presign(r.Context(), *artifact.FileRef, s.presignTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign file url")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":        signed,
		"expires_in": int(s.presignTTL.Seconds()),
	})
}
