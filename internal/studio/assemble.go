package studio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/www6v/notestudio/internal/model"
)

// Assemble builds one PDF page per slide image, in slide order. Undecodable
// image bytes are replaced with a placeholder page rather than failing the
// whole deck; only producing the document itself can fail.
func Assemble(slides []model.SlideUnit, images [][]byte) ([]byte, error) {
	if len(slides) != len(images) {
		return nil, fmt.Errorf("assemble: %d slides but %d images", len(slides), len(images))
	}

	pdf := fpdf.New("L", "pt", "A4", "")

	for i, unit := range slides {
		data := images[i]

		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			slog.Warn("undecodable slide image, using placeholder", "slide", unit.SlideNumber, "error", err)
			data = placeholderImage(unit.SlideNumber, unit.Title)
			img, format, _ = image.Decode(bytes.NewReader(data))
		}

		bounds := img.Bounds()
		w, h := float64(bounds.Dx()), float64(bounds.Dy())
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("slide-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: strings.ToUpper(format)}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if !pdf.Ok() {
			// The pdf library rejects some encodings image.Decode accepts
			// (e.g. interlaced PNG).
			slog.Warn("pdf image registration failed, using placeholder", "slide", unit.SlideNumber, "error", pdf.Error())
			pdf.ClearError()
			data = placeholderImage(unit.SlideNumber, unit.Title)
			name += "-ph"
			opts = fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		}

		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}
	return buf.Bytes(), nil
}
