package studio

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/www6v/notestudio/internal/model"
)

// stripCodeFence removes a wrapping markdown code fence. Models frequently
// fence their output even when asked for raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", ...) on the opening fence.
	if i := strings.Index(s, "\n"); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if len(first) <= 10 && !strings.ContainsAny(first, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseMindMap parses raw model output against the mind map contract. The
// returned payload is always usable; a non-nil error reports that the
// deterministic fallback was substituted.
func parseMindMap(raw, fallbackTitle string) (*model.MindMapPayload, error) {
	var p model.MindMapPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &p); err != nil {
		return mindMapFallback(fallbackTitle), fmt.Errorf("parse mind map: %w", err)
	}
	if len(p.Nodes) == 0 {
		return mindMapFallback(fallbackTitle), fmt.Errorf("parse mind map: no nodes")
	}
	if p.Edges == nil {
		p.Edges = []model.MindMapEdge{}
	}
	return &p, nil
}

func mindMapFallback(title string) *model.MindMapPayload {
	return &model.MindMapPayload{
		Nodes: []model.MindMapNode{{ID: "1", Label: title}},
		Edges: []model.MindMapEdge{},
	}
}

// parseSlideDeck parses raw model output against the slide deck contract,
// with the same fallback discipline as parseMindMap.
func parseSlideDeck(raw, fallbackTitle string) (*model.SlideDeckPayload, error) {
	var p model.SlideDeckPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &p); err != nil {
		return slideDeckFallback(fallbackTitle), fmt.Errorf("parse slide deck: %w", err)
	}
	if len(p.Slides) == 0 {
		return slideDeckFallback(fallbackTitle), fmt.Errorf("parse slide deck: no slides")
	}
	for i := range p.Slides {
		if p.Slides[i].SlideNumber == 0 {
			p.Slides[i].SlideNumber = i + 1
		}
		if p.Slides[i].Layout == "" {
			p.Slides[i].Layout = model.LayoutContent
		}
		if p.Slides[i].Content == nil {
			p.Slides[i].Content = []string{}
		}
	}
	return &p, nil
}

func slideDeckFallback(title string) *model.SlideDeckPayload {
	return &model.SlideDeckPayload{
		Slides: []model.SlideUnit{{
			SlideNumber: 1,
			Title:       title,
			Content:     []string{"Content generation failed. Please try again."},
			Layout:      model.LayoutTitle,
		}},
	}
}

// parseInfographic parses raw model output against the infographic contract,
// with the same fallback discipline as parseMindMap.
func parseInfographic(raw, fallbackTitle string) (*model.InfographicPayload, error) {
	var p model.InfographicPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &p); err != nil {
		return infographicFallback(fallbackTitle), fmt.Errorf("parse infographic: %w", err)
	}
	if p.Title == "" {
		p.Title = fallbackTitle
	}
	if p.Sections == nil {
		p.Sections = []model.InfographicSection{}
	}
	if p.ColorScheme == "" {
		p.ColorScheme = "blue"
	}
	return &p, nil
}

func infographicFallback(title string) *model.InfographicPayload {
	return &model.InfographicPayload{
		Title:       title,
		Subtitle:    "Data extraction failed",
		Sections:    []model.InfographicSection{},
		ColorScheme: "blue",
	}
}
