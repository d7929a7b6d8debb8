package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/www6v/notestudio/internal/blob"
	"github.com/www6v/notestudio/internal/llm"
	"github.com/www6v/notestudio/internal/model"
)

// visionPrompt asks the vision model for a textual stand-in of an image
// source, so image sources can join the prompt context like any other.
const visionPrompt = "Describe this image in detail. The description will be used as study-notes context in place of the image itself."

// visionPresignTTL is how long the vision service gets to fetch an image.
const visionPresignTTL = time.Hour

// Segment is one source's contribution to the aggregated content.
type Segment struct {
	Title     string
	Text      string
	Truncated bool
}

// AggregatedContent is the ordered per-source text plus the joined prompt
// context. It lives only for the duration of one generation attempt.
type AggregatedContent struct {
	Segments []Segment
	Combined string
}

// Empty reports whether no source yielded usable text.
func (a AggregatedContent) Empty() bool { return len(a.Segments) == 0 }

// extractFunc converts stored source bytes into text, keyed by source kind.
type extractFunc func(data []byte, kind string) (string, error)

// Aggregator turns a notebook's sources into prompt context.
type Aggregator struct {
	blobs        blob.Store
	vision       llm.VisionClient
	extract      extractFunc
	maxPerSource int
}

// NewAggregator wires the aggregation collaborators. maxPerSource bounds each
// source's contribution in runes; values <= 0 fall back to 3000.
func NewAggregator(blobs blob.Store, vision llm.VisionClient, extract extractFunc, maxPerSource int) *Aggregator {
	if maxPerSource <= 0 {
		maxPerSource = 3000
	}
	return &Aggregator{blobs: blobs, vision: vision, extract: extract, maxPerSource: maxPerSource}
}

// Aggregate walks sources in creation order and collects usable text. A
// failing source is skipped with a warning; whether an empty result is fatal
// is the caller's call.
func (g *Aggregator) Aggregate(ctx context.Context, sources []model.Source) AggregatedContent {
	var content AggregatedContent
	var parts []string

	for _, src := range sources {
		text, err := g.sourceText(ctx, src)
		if err != nil {
			slog.Warn("skipping source", "source_id", src.ID, "kind", src.Kind, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			slog.Warn("skipping source with no text", "source_id", src.ID, "kind", src.Kind)
			continue
		}

		truncated := utf8.RuneCountInString(text) > g.maxPerSource
		if truncated {
			text = truncateRunes(text, g.maxPerSource)
		}

		content.Segments = append(content.Segments, Segment{Title: src.Title, Text: text, Truncated: truncated})
		parts = append(parts, "["+src.Title+"]: "+text)
	}

	content.Combined = strings.Join(parts, "\n\n")
	return content
}

func (g *Aggregator) sourceText(ctx context.Context, src model.Source) (string, error) {
	if src.CachedText != nil && *src.CachedText != "" {
		return *src.CachedText, nil
	}
	if src.BlobRef == nil || *src.BlobRef == "" {
		return "", fmt.Errorf("source has neither cached text nor a blob")
	}

	if src.Kind == model.SourceImage {
		url, err := g.blobs.Presign(ctx, *src.BlobRef, visionPresignTTL)
		if err != nil {
			return "", fmt.Errorf("presign image: %w", err)
		}
		desc, err := g.vision.Describe(ctx, url, visionPrompt)
		if err != nil {
			return "", fmt.Errorf("vision describe: %w", err)
		}
		return desc, nil
	}

	data, err := g.blobs.Get(ctx, *src.BlobRef)
	if err != nil {
		return "", fmt.Errorf("fetch blob: %w", err)
	}
	return g.extract(data, src.Kind)
}
