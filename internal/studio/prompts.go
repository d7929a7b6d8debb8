package studio

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/www6v/notestudio/internal/llm"
	"github.com/www6v/notestudio/internal/model"
)

// maxPromptContext bounds the aggregated notes handed to the model.
const maxPromptContext = 24000

func buildMindMapRequest(title, notes, optionsJSON string) llm.CompletionRequest {
	var opts model.MindMapOptions
	_ = json.Unmarshal([]byte(optionsJSON), &opts)
	opts.Normalize()

	focus := ""
	if opts.FocusTopic != "" {
		focus = fmt.Sprintf("\n- Focus the map on the topic: %q", opts.FocusTopic)
	}

	user := fmt.Sprintf(`Create a mind map titled %q from the notes below.

Output ONLY valid JSON with this exact structure (no markdown, no explanation):
{"nodes": [{"id": "1", "label": "Central topic"}, {"id": "2", "label": "Branch"}], "edges": [{"source": "1", "target": "2"}]}

Rules:
- At most 20 nodes; ids are unique strings
- One central node connected to the main branches
- Labels written in %s%s

Notes:
%s`, title, opts.Language, focus, truncateRunes(notes, maxPromptContext))

	return llm.CompletionRequest{
		System: "You are a mind map designer. You turn study notes into a concise concept graph.",
		User:   user,
	}
}

// durationSlides maps the requested presentation length to a slide budget.
var durationSlides = map[string]string{
	"short":   "5 to 6 slides",
	"default": "8 to 10 slides",
	"long":    "12 to 15 slides",
}

func buildSlideDeckRequest(title, notes, optionsJSON string) llm.CompletionRequest {
	var opts model.SlideDeckOptions
	_ = json.Unmarshal([]byte(optionsJSON), &opts)
	opts.Normalize()

	style := "detailed, self-contained slides with full talking points"
	if opts.Style == model.SlideStyleConcise {
		style = "concise keyword slides meant to back a live talk"
	}

	budget, ok := durationSlides[opts.Duration]
	if !ok {
		budget = durationSlides["default"]
	}

	extra := ""
	if opts.FocusTopic != "" {
		extra += fmt.Sprintf("\n- Emphasize the topic: %q", opts.FocusTopic)
	}
	if opts.CustomPrompt != "" {
		extra += "\n- Additional instruction: " + opts.CustomPrompt
	}

	user := fmt.Sprintf(`Create a slide deck titled %q from the notes below.

Output ONLY valid JSON with this exact structure (no markdown, no explanation):
{"slides": [{"slide_number": 1, "title": "Opening", "content": ["bullet 1", "bullet 2"], "speaker_notes": "what to say", "layout": "title"}]}

Rules:
- Plan %s; slide_number starts at 1 and increases by 1
- layout: "title" for the first slide, "closing" for the last, "content" otherwise
- 2 to 5 content bullets per slide; %s
- Slides written in %s%s

Notes:
%s`, title, budget, style, opts.Language, extra, truncateRunes(notes, maxPromptContext))

	return llm.CompletionRequest{
		System: "You are a presentation writer. You turn study notes into a clear slide deck plan.",
		User:   user,
	}
}

// templateInstructions translates the infographic template choice into a
// layout instruction for the model.
var templateInstructions = map[string]string{
	model.TemplateAuto:       "Pick the section layout that best fits the content",
	model.TemplateTimeline:   "Arrange sections as a chronological timeline",
	model.TemplateComparison: "Contrast two or more subjects side by side",
	model.TemplateProcess:    "Lay out sections as sequential process steps",
	model.TemplateStatistics: "Lead every item with a number or percentage",
	model.TemplateHierarchy:  "Order sections from overview down to detail",
}

func buildInfographicRequest(title, notes, optionsJSON string) llm.CompletionRequest {
	var opts model.InfographicOptions
	_ = json.Unmarshal([]byte(optionsJSON), &opts)
	opts.Normalize()

	layout, ok := templateInstructions[opts.Template]
	if !ok {
		layout = templateInstructions[model.TemplateAuto]
	}

	user := fmt.Sprintf(`Create an infographic data sheet titled %q from the notes below.

Output ONLY valid JSON with this exact structure (no markdown, no explanation):
{"title": "Headline", "subtitle": "One-line context", "sections": [{"heading": "Section", "items": [{"label": "Metric", "value": "42%%", "icon": "📊"}]}], "color_scheme": "blue"}

Rules:
- 2 to 4 sections, each with 2 to 5 items
- values are short figures or phrases, not sentences
- %s
- color_scheme: one of "blue", "green", "purple", "orange"; visual theme is %q
- Text written in %s

Notes:
%s`, title, layout, opts.Theme, opts.Language, truncateRunes(notes, maxPromptContext))

	return llm.CompletionRequest{
		System: "You are an infographic designer. You distill study notes into a compact visual data sheet.",
		User:   user,
	}
}

// truncateRunes truncates s to maxRunes runes, never splitting a code point.
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}

// mustJSON marshals v to a JSON string. It panics on error because callers
// only pass known struct types that are guaranteed to be serializable.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("studio: json.Marshal failed on known type: %v", err))
	}
	return string(b)
}
