package model

import "time"

// Notebook groups sources and the artifacts derived from them.
type Notebook struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewNotebook creates a named Notebook.
func NewNotebook(id, name string) Notebook {
	now := time.Now().UTC().Format(time.RFC3339)
	return Notebook{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
