package model

import "time"

// Kind identifies an artifact variant. Each kind carries its own options and
// payload type and is processed by a kind-indexed generation strategy.
type Kind string

// Artifact kinds
const (
	KindMindMap     Kind = "mindmap"
	KindSlideDeck   Kind = "slidedeck"
	KindInfographic Kind = "infographic"
)

// Artifact status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// Artifact is a derived document generated from a notebook's sources.
// Payload holds the generated JSON document and is non-nil only when Status
// is ready. FileRef points at the assembled file for slide decks. Failure
// detail is logged, never stored on the row.
type Artifact struct {
	ID         string  `json:"id"`
	NotebookID string  `json:"notebook_id"`
	Kind       Kind    `json:"kind"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Payload    *string `json:"payload,omitempty"`
	FileRef    *string `json:"file_ref,omitempty"`
	Options    string  `json:"options"` // JSON, kind-specific
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// ValidKind reports whether k is a known artifact kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindMindMap, KindSlideDeck, KindInfographic:
		return true
	}
	return false
}

// NewArtifact creates a pending Artifact with kind-specific options JSON.
func NewArtifact(id, notebookID string, kind Kind, title, options string) Artifact {
	now := time.Now().UTC().Format(time.RFC3339)
	return Artifact{
		ID:         id,
		NotebookID: notebookID,
		Kind:       kind,
		Title:      title,
		Status:     StatusPending,
		Options:    options,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
