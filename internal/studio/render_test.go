package studio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/www6v/notestudio/internal/model"

	_ "image/png"
)

type fakeImage struct {
	mu      sync.Mutex
	calls   []string
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
	slow    string
	failOn  string
}

func (f *fakeImage) Render(_ context.Context, prompt string) ([]byte, error) {
	cur := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.slow != "" && strings.Contains(prompt, f.slow) {
		time.Sleep(50 * time.Millisecond)
	}

	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return nil, errors.New("render backend unavailable")
	}
	return []byte("img:" + prompt), nil
}

func TestBuildImagePrompt(t *testing.T) {
	got := buildImagePrompt(model.SlideUnit{
		SlideNumber: 2,
		Title:       "Quarterly Review",
		Content:     []string{"revenue up", "costs down"},
	})

	assert.True(t, strings.HasPrefix(got, "Presentation slide"))
	assert.Contains(t, got, "Title: Quarterly Review")
	assert.Contains(t, got, "Bullet points: revenue up; costs down")
}

func TestBuildImagePromptNoBullets(t *testing.T) {
	got := buildImagePrompt(model.SlideUnit{SlideNumber: 1, Title: "Cover"})
	assert.Contains(t, got, "Title: Cover")
	assert.NotContains(t, got, "Bullet points")
}

func TestBuildImagePromptCapped(t *testing.T) {
	got := buildImagePrompt(model.SlideUnit{
		SlideNumber: 1,
		Title:       "概览",
		Content:     []string{strings.Repeat("要点内容", 300)},
	})

	assert.Equal(t, maxImagePrompt, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
}

func TestRenderAllKeepsSlideOrder(t *testing.T) {
	// The first slide is the slowest, so results would arrive out of
	// order if they were appended instead of indexed.
	img := &fakeImage{slow: "One"}
	r := NewRenderer(img, 3)

	slides := []model.SlideUnit{
		{SlideNumber: 1, Title: "One"},
		{SlideNumber: 2, Title: "Two"},
		{SlideNumber: 3, Title: "Three"},
	}
	got := r.RenderAll(context.Background(), slides)

	require.Len(t, got, 3)
	assert.Contains(t, string(got[0]), "One")
	assert.Contains(t, string(got[1]), "Two")
	assert.Contains(t, string(got[2]), "Three")
}

func TestRenderAllFailureBecomesPlaceholder(t *testing.T) {
	img := &fakeImage{failOn: "Broken"}
	r := NewRenderer(img, 2)

	got := r.RenderAll(context.Background(), []model.SlideUnit{
		{SlideNumber: 1, Title: "Fine"},
		{SlideNumber: 2, Title: "Broken"},
	})

	require.Len(t, got, 2)
	assert.Contains(t, string(got[0]), "Fine")

	cfg, format, err := image.DecodeConfig(bytes.NewReader(got[1]))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, placeholderWidth, cfg.Width)
	assert.Equal(t, placeholderHeight, cfg.Height)
}

func TestRenderAllBoundsParallelism(t *testing.T) {
	img := &fakeImage{delay: 20 * time.Millisecond}
	r := NewRenderer(img, 2)

	slides := make([]model.SlideUnit, 6)
	for i := range slides {
		slides[i] = model.SlideUnit{SlideNumber: i + 1, Title: "S"}
	}
	got := r.RenderAll(context.Background(), slides)

	require.Len(t, got, 6)
	assert.Len(t, img.calls, 6)
	assert.LessOrEqual(t, img.maxSeen.Load(), int32(2))
}

func TestNewRendererDefaultParallel(t *testing.T) {
	r := NewRenderer(&fakeImage{}, 0)
	assert.Equal(t, 4, r.parallel)
}
