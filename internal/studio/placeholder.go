package studio

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	placeholderWidth    = 960
	placeholderHeight   = 540
	placeholderMaxTitle = 50
)

// placeholderImage synthesizes a plain slide image carrying the slide number
// and truncated title. It stands in whenever external rendering fails or
// returns undecodable bytes.
func placeholderImage(slideNumber int, title string) []byte {
	dc := gg.NewContext(placeholderWidth, placeholderHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.85, 0.87, 0.9)
	dc.SetLineWidth(4)
	dc.DrawRectangle(12, 12, placeholderWidth-24, placeholderHeight-24)
	dc.Stroke()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0.25, 0.25, 0.25)
	dc.DrawStringAnchored(fmt.Sprintf("Slide %d", slideNumber), placeholderWidth/2, placeholderHeight/2-16, 0.5, 0.5)
	dc.DrawStringAnchored(truncateRunes(title, placeholderMaxTitle), placeholderWidth/2, placeholderHeight/2+16, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		// Encoding an in-memory image to a buffer cannot fail.
		panic(fmt.Sprintf("studio: placeholder encode: %v", err))
	}
	return buf.Bytes()
}
