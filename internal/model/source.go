package model

import "time"

// Source kind constants
const (
	SourceText     = "text"
	SourceMarkdown = "markdown"
	SourcePDF      = "pdf"
	SourceDOCX     = "docx"
	SourceImage    = "image"
	SourceWeb      = "web"
	SourceVideo    = "video"
)

// Source is one uploaded or linked piece of content belonging to a notebook.
// The generation pipeline reads sources but never mutates them.
type Source struct {
	ID         string  `json:"id"`
	NotebookID string  `json:"notebook_id"`
	Title      string  `json:"title"`
	Kind       string  `json:"kind"`
	CachedText *string `json:"cached_text,omitempty"`
	BlobRef    *string `json:"blob_ref,omitempty"`
	IsActive   bool    `json:"is_active"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// ValidSourceKind reports whether kind is one of the supported source kinds.
func ValidSourceKind(kind string) bool {
	switch kind {
	case SourceText, SourceMarkdown, SourcePDF, SourceDOCX, SourceImage, SourceWeb, SourceVideo:
		return true
	}
	return false
}

// NewSource creates an active Source.
func NewSource(id, notebookID, title, kind string) Source {
	now := time.Now().UTC().Format(time.RFC3339)
	return Source{
		ID:         id,
		NotebookID: notebookID,
		Title:      title,
		Kind:       kind,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
