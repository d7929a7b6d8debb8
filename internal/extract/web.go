package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

const (
	maxTextLength = 15000
	// minTextLength is the minimum content length to accept as a valid extraction.
	// Pages returning less than this are likely login walls, cookie walls, or empty pages.
	minTextLength = 100
	// maxRetries is the number of fetch attempts before giving up.
	maxRetries = 3
	// maxBodySize is the maximum HTTP response body size (5MB).
	maxBodySize = 5 * 1024 * 1024
)

// Fetcher downloads web pages and extracts their readable content using
// go-readability. It is used once at source-ingestion time; the extracted
// text is cached on the source row.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchWeb fetches the URL and extracts title and main content with
// automatic retry.
func (f *Fetcher) FetchWeb(ctx context.Context, url string) (title, text string, err error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-ctx.Done():
				return "", "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		title, text, err = f.fetchOnce(ctx, url)
		if err == nil {
			return title, text, nil
		}
		lastErr = err

		// Don't retry on context cancellation.
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
	}
	return "", "", fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}

	// Use a realistic browser User-Agent to avoid being blocked by sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	parsedURL, _ := nurl.Parse(url)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", "", fmt.Errorf("readability: %w", err)
	}

	text := normalizeText(article.TextContent)

	// Content quality validation: reject suspiciously short content.
	if utf8.RuneCountInString(text) < minTextLength {
		return "", "", fmt.Errorf("extracted content too short (%d chars), possibly blocked or empty page", utf8.RuneCountInString(text))
	}

	if utf8.RuneCountInString(text) > maxTextLength {
		runes := []rune(text)
		text = string(runes[:maxTextLength]) + "\n... [truncated]"
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = url
	}

	return title, text, nil
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}
