package model

// Slide layout constants
const (
	LayoutTitle   = "title"
	LayoutContent = "content"
	LayoutClosing = "closing"
)

// Payload is the tagged union of per-kind generated documents.
type Payload interface {
	PayloadKind() Kind
}

// MindMapNode is one concept in a mind map.
type MindMapNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// MindMapEdge links two mind map nodes by id.
type MindMapEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MindMapPayload is the generated concept graph for a notebook.
type MindMapPayload struct {
	Nodes []MindMapNode `json:"nodes"`
	Edges []MindMapEdge `json:"edges"`
}

// PayloadKind implements Payload.
func (*MindMapPayload) PayloadKind() Kind { return KindMindMap }

// SlideUnit is one slide, the smallest independently rendered piece of a deck.
type SlideUnit struct {
	SlideNumber  int      `json:"slide_number"`
	Title        string   `json:"title"`
	Content      []string `json:"content"`
	SpeakerNotes string   `json:"speaker_notes"`
	Layout       string   `json:"layout"`
}

// SlideDeckPayload is the generated slide plan for a notebook.
type SlideDeckPayload struct {
	Slides []SlideUnit `json:"slides"`
}

// PayloadKind implements Payload.
func (*SlideDeckPayload) PayloadKind() Kind { return KindSlideDeck }

// InfographicItem is one labelled value within an infographic section.
type InfographicItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// InfographicSection is one heading with its items.
type InfographicSection struct {
	Heading string            `json:"heading"`
	Items   []InfographicItem `json:"items"`
}

// InfographicPayload is the generated infographic document for a notebook.
type InfographicPayload struct {
	Title       string               `json:"title"`
	Subtitle    string               `json:"subtitle"`
	Sections    []InfographicSection `json:"sections"`
	ColorScheme string               `json:"color_scheme"`
}

// PayloadKind implements Payload.
func (*InfographicPayload) PayloadKind() Kind { return KindInfographic }
