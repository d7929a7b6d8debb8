package model

import "encoding/json"

// Slide style constants
const (
	SlideStyleDetailed = "detailed"
	SlideStyleConcise  = "concise"
)

// Infographic template constants
const (
	TemplateAuto       = "auto"
	TemplateTimeline   = "timeline"
	TemplateComparison = "comparison"
	TemplateProcess    = "process"
	TemplateStatistics = "statistics"
	TemplateHierarchy  = "hierarchy"
)

// DefaultLanguage is the output language used when a request does not name one.
const DefaultLanguage = "简体中文"

// MindMapOptions are the generation parameters for mind maps.
type MindMapOptions struct {
	Language   string   `json:"language,omitempty"`
	FocusTopic string   `json:"focus_topic,omitempty"`
	SourceIDs  []string `json:"source_ids,omitempty"`
}

// Normalize fills unset fields with defaults.
func (o *MindMapOptions) Normalize() {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
}

// SlideDeckOptions are the generation parameters for slide decks.
type SlideDeckOptions struct {
	Style        string   `json:"style,omitempty"`
	Language     string   `json:"language,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	CustomPrompt string   `json:"custom_prompt,omitempty"`
	FocusTopic   string   `json:"focus_topic,omitempty"`
	SourceIDs    []string `json:"source_ids,omitempty"`
}

// Normalize fills unset fields with defaults.
func (o *SlideDeckOptions) Normalize() {
	if o.Style == "" {
		o.Style = SlideStyleDetailed
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Duration == "" {
		o.Duration = "default"
	}
}

// ValidTemplate reports whether t is a known infographic template.
func ValidTemplate(t string) bool {
	switch t {
	case TemplateAuto, TemplateTimeline, TemplateComparison, TemplateProcess, TemplateStatistics, TemplateHierarchy:
		return true
	}
	return false
}

// InfographicOptions are the generation parameters for infographics.
type InfographicOptions struct {
	Template  string   `json:"template,omitempty"`
	Theme     string   `json:"theme,omitempty"`
	Language  string   `json:"language,omitempty"`
	SourceIDs []string `json:"source_ids,omitempty"`
}

// Normalize fills unset fields with defaults.
func (o *InfographicOptions) Normalize() {
	if o.Template == "" {
		o.Template = TemplateAuto
	}
	if o.Theme == "" {
		o.Theme = "light"
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
}

// SourceSelection extracts the source filter from kind-specific options JSON.
// An empty result means "all active sources".
func SourceSelection(options string) []string {
	if options == "" {
		return nil
	}
	var sel struct {
		SourceIDs []string `json:"source_ids"`
	}
	if err := json.Unmarshal([]byte(options), &sel); err != nil {
		return nil
	}
	return sel.SourceIDs
}
