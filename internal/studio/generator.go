// Package studio derives artifacts (mind maps, slide decks, infographics)
// from a notebook's sources. The Generator owns the artifact state machine
// for one generation attempt; the surrounding components feed it prompt
// context and turn model output into persisted payloads.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/www6v/notestudio/internal/blob"
	"github.com/www6v/notestudio/internal/llm"
	"github.com/www6v/notestudio/internal/model"
)

// GeneratorStore is the persistence surface one generation attempt needs.
type GeneratorStore interface {
	ClaimArtifact(ctx context.Context, id string) (*model.Artifact, error)
	ListActiveSources(ctx context.Context, notebookID string) ([]model.Source, error)
	MarkArtifactReady(ctx context.Context, id, payload string, fileRef *string) error
	MarkArtifactError(ctx context.Context, id string) error
}

// strategy is the per-kind generation behavior: prompt construction, payload
// parsing, and the optional document finalization step.
type strategy struct {
	prompt   func(title, notes, optionsJSON string) llm.CompletionRequest
	parse    func(raw, fallbackTitle string) (model.Payload, error)
	finalize func(ctx context.Context, artifact *model.Artifact, payload model.Payload) (*string, error)
}

// Generator drives one artifact generation attempt end to end.
type Generator struct {
	store      GeneratorStore
	aggregator *Aggregator
	chat       llm.ChatClient
	renderer   *Renderer
	blobs      blob.Store
	strategies map[model.Kind]strategy
}

// NewGenerator wires the generation collaborators and builds the kind-indexed
// strategy table.
func NewGenerator(st GeneratorStore, aggregator *Aggregator, chat llm.ChatClient, renderer *Renderer, blobs blob.Store) *Generator {
	g := &Generator{
		store:      st,
		aggregator: aggregator,
		chat:       chat,
		renderer:   renderer,
		blobs:      blobs,
	}
	g.strategies = map[model.Kind]strategy{
		model.KindMindMap: {
			prompt: buildMindMapRequest,
			parse: func(raw, title string) (model.Payload, error) {
				return parseMindMap(raw, title)
			},
		},
		model.KindSlideDeck: {
			prompt: buildSlideDeckRequest,
			parse: func(raw, title string) (model.Payload, error) {
				return parseSlideDeck(raw, title)
			},
			finalize: g.finalizeSlideDeck,
		},
		model.KindInfographic: {
			prompt: buildInfographicRequest,
			parse: func(raw, title string) (model.Payload, error) {
				return parseInfographic(raw, title)
			},
		},
	}
	return g
}

// Generate runs one generation attempt for the artifact. It is safe to call
// concurrently for the same id: the status claim admits exactly one run, and
// every other call is a no-op.
func (g *Generator) Generate(ctx context.Context, artifactID string) error {
	artifact, err := g.store.ClaimArtifact(ctx, artifactID)
	if err != nil {
		return fmt.Errorf("claim artifact: %w", err)
	}
	if artifact == nil {
		slog.Info("artifact not claimable, skipping", "artifact_id", artifactID)
		return nil
	}

	strat, ok := g.strategies[artifact.Kind]
	if !ok {
		// Unreachable through the API, which validates kinds at creation.
		slog.Error("no strategy for artifact kind", "artifact_id", artifact.ID, "kind", artifact.Kind)
		return g.markError(ctx, artifact.ID)
	}

	slog.Info("generation started", "artifact_id", artifact.ID, "kind", artifact.Kind)

	sources, err := g.store.ListActiveSources(ctx, artifact.NotebookID)
	if err != nil {
		slog.Error("listing sources failed", "artifact_id", artifact.ID, "error", err)
		if mErr := g.markError(ctx, artifact.ID); mErr != nil {
			return mErr
		}
		return fmt.Errorf("list sources: %w", err)
	}
	if ids := model.SourceSelection(artifact.Options); len(ids) > 0 {
		sources = filterSources(sources, ids)
	}

	content := g.aggregator.Aggregate(ctx, sources)
	if content.Empty() {
		slog.Warn("generation failed: no usable content",
			"artifact_id", artifact.ID,
			"message", "add sources with readable text and try again")
		if mErr := g.markError(ctx, artifact.ID); mErr != nil {
			return mErr
		}
		return ErrNoUsableContent
	}

	raw, err := g.chat.Complete(ctx, strat.prompt(artifact.Title, content.Combined, artifact.Options))
	if err != nil {
		logModelFailure(artifact.ID, err)
		raw = ""
	}

	payload, parseErr := strat.parse(raw, artifact.Title)
	if parseErr != nil {
		slog.Warn("payload fallback used", "artifact_id", artifact.ID, "error", parseErr)
	}

	var fileRef *string
	if strat.finalize != nil {
		fileRef, err = strat.finalize(ctx, artifact, payload)
		if err != nil {
			slog.Error("finalize failed", "artifact_id", artifact.ID, "error", err)
			if mErr := g.markError(ctx, artifact.ID); mErr != nil {
				return mErr
			}
			return fmt.Errorf("finalize: %w", err)
		}
	}

	if err := g.store.MarkArtifactReady(ctx, artifact.ID, mustJSON(payload), fileRef); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}

	slog.Info("generation finished", "artifact_id", artifact.ID, "kind", artifact.Kind, "fallback", parseErr != nil)
	return nil
}

// finalizeSlideDeck renders the slides, assembles them into a PDF, and
// uploads the document. Upload and assembly failures are the hard kind.
func (g *Generator) finalizeSlideDeck(ctx context.Context, artifact *model.Artifact, payload model.Payload) (*string, error) {
	deck, ok := payload.(*model.SlideDeckPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", payload)
	}

	images := g.renderer.RenderAll(ctx, deck.Slides)
	doc, err := Assemble(deck.Slides, images)
	if err != nil {
		return nil, err
	}

	ref, err := g.blobs.Put(ctx, doc, deckKey(), "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("upload deck: %w", err)
	}
	return &ref, nil
}

func (g *Generator) markError(ctx context.Context, artifactID string) error {
	if err := g.store.MarkArtifactError(ctx, artifactID); err != nil {
		slog.Error("failed to set error status", "artifact_id", artifactID, "error", err)
		return fmt.Errorf("mark error: %w", err)
	}
	return nil
}

func logModelFailure(artifactID string, err error) {
	var ae *llm.APIError
	if errors.As(err, &ae) {
		slog.Warn("model call failed", "artifact_id", artifactID, "status", ae.StatusCode, "retryable", ae.IsRetryable(), "error", err)
		return
	}
	slog.Warn("model call failed", "artifact_id", artifactID, "error", err)
}

// filterSources keeps the named sources, preserving creation order.
func filterSources(sources []model.Source, ids []string) []model.Source {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var kept []model.Source
	for _, src := range sources {
		if want[src.ID] {
			kept = append(kept, src)
		}
	}
	return kept
}

// deckKey builds a short unique object key for an assembled deck.
func deckKey() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "slides/deck_" + id[:12] + ".pdf"
}
