// Package extract converts stored source bytes into plain text, and fetches
// web pages at source-ingestion time.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/fumiama/go-docx"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"github.com/www6v/notestudio/internal/model"
)

const (
	pdfPlaceholder  = "[PDF document: text could not be extracted]"
	docxPlaceholder = "[Word document: text could not be extracted]"
)

// Text converts raw source bytes into plain text according to kind. Garbled
// pdf/docx input yields a placeholder string rather than an error, so one bad
// document cannot sink a whole aggregation. Kinds with no byte-level text
// (images, videos without a transcript) return an error and the caller skips
// the source.
func Text(data []byte, kind string) (string, error) {
	switch kind {
	case model.SourceText, model.SourceMarkdown:
		return strings.TrimSpace(strings.ToValidUTF8(string(data), "")), nil
	case model.SourceWeb:
		return htmlText(data), nil
	case model.SourcePDF:
		return pdfText(data), nil
	case model.SourceDOCX:
		return docxText(data), nil
	default:
		return "", fmt.Errorf("extract: no text extraction for kind %q", kind)
	}
}

// htmlText runs readability over stored HTML. Web sources normally carry
// cached_text from ingestion; this path covers raw HTML uploaded as a blob.
func htmlText(data []byte) string {
	pageURL, _ := nurl.Parse("http://localhost/")
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		slog.Warn("readability over stored html failed, keeping tag-stripped text", "error", err)
		return strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	}
	return normalizeText(article.TextContent)
}

func pdfText(data []byte) (text string) {
	// The pdf parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf extraction panicked", "panic", r)
			text = pdfPlaceholder
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("pdf open failed", "error", err)
		return pdfPlaceholder
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		slog.Warn("pdf text extraction failed", "error", err)
		return pdfPlaceholder
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		slog.Warn("pdf text read failed", "error", err)
		return pdfPlaceholder
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return pdfPlaceholder
	}
	return text
}

func docxText(data []byte) string {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("docx parse failed", "error", err)
		return docxPlaceholder
	}

	var sb strings.Builder
	for _, it := range doc.Document.Body.Items {
		switch it.(type) {
		case *docx.Paragraph, *docx.Table:
			fmt.Fprintln(&sb, it)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return docxPlaceholder
	}
	return text
}
