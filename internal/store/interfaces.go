package store

import (
	"context"
	"time"

	"github.com/www6v/notestudio/internal/model"
)

// NotebookStore provides notebook persistence.
type NotebookStore interface {
	CreateNotebook(ctx context.Context, nb model.Notebook) error
	GetNotebook(ctx context.Context, id string) (*model.Notebook, error)
}

// SourceReader provides read access to sources.
type SourceReader interface {
	GetSource(ctx context.Context, id string) (*model.Source, error)
	ListSources(ctx context.Context, notebookID string) ([]model.Source, error)
	ListActiveSources(ctx context.Context, notebookID string) ([]model.Source, error)
}

// SourceWriter provides write access to sources.
type SourceWriter interface {
	CreateSource(ctx context.Context, src model.Source) error
}

// ArtifactReader provides read access to artifacts.
type ArtifactReader interface {
	GetArtifact(ctx context.Context, id string) (*model.Artifact, error)
	ListArtifacts(ctx context.Context, notebookID string, kind model.Kind) ([]model.Artifact, error)
}

// ArtifactWriter provides write access to artifacts.
type ArtifactWriter interface {
	CreateArtifact(ctx context.Context, a model.Artifact) error
	MarkArtifactReady(ctx context.Context, id, payload string, fileRef *string) error
	MarkArtifactError(ctx context.Context, id string) error
	ResetArtifactForRegenerate(ctx context.Context, id string) (bool, error)
	DeleteArtifact(ctx context.Context, id string) error
}

// ArtifactClaimer provides atomic status transitions for generation attempts.
type ArtifactClaimer interface {
	ClaimArtifact(ctx context.Context, id string) (*model.Artifact, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Artifact, error)
	ResetStaleProcessing(ctx context.Context) (int64, error)
}

// Repository combines all persistence operations for the API layer.
type Repository interface {
	NotebookStore
	SourceReader
	SourceWriter
	ArtifactReader
	ArtifactWriter
}
