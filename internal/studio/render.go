package studio

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/www6v/notestudio/internal/llm"
	"github.com/www6v/notestudio/internal/model"
)

// maxImagePrompt bounds the text-to-image prompt length in runes.
const maxImagePrompt = 800

// Renderer turns slide units into slide images with bounded fan-out.
type Renderer struct {
	images   llm.ImageClient
	parallel int
}

// NewRenderer wires the image client. parallel bounds concurrent renders;
// values <= 0 fall back to 4.
func NewRenderer(images llm.ImageClient, parallel int) *Renderer {
	if parallel <= 0 {
		parallel = 4
	}
	return &Renderer{images: images, parallel: parallel}
}

// buildImagePrompt flattens one slide into a rendering instruction.
func buildImagePrompt(unit model.SlideUnit) string {
	var sb strings.Builder
	sb.WriteString("Presentation slide, clean flat design, 16:9 layout. Title: ")
	sb.WriteString(unit.Title)
	if len(unit.Content) > 0 {
		sb.WriteString(". Bullet points: ")
		sb.WriteString(strings.Join(unit.Content, "; "))
	}

	prompt := sb.String()
	if utf8.RuneCountInString(prompt) > maxImagePrompt {
		prompt = truncateRunes(prompt, maxImagePrompt-3) + "..."
	}
	return prompt
}

// RenderAll renders every slide, bounded by the parallelism limit. Results
// hold slide order by index regardless of completion order; a failed render
// yields a placeholder so the deck always gets one image per slide.
func (r *Renderer) RenderAll(ctx context.Context, slides []model.SlideUnit) [][]byte {
	images := make([][]byte, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, unit := range slides {
		g.Go(func() error {
			data, err := r.images.Render(gctx, buildImagePrompt(unit))
			if err != nil {
				slog.Warn("slide render failed, using placeholder", "slide", unit.SlideNumber, "error", err)
				data = placeholderImage(unit.SlideNumber, unit.Title)
			}
			images[i] = data
			return nil
		})
	}
	// Render failures become placeholders, so the group never errors.
	_ = g.Wait()

	return images
}
