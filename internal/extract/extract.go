// Package extract pulls a plain-text excerpt and a lead image out of an
// article page. It never fails loudly: any network or parse problem yields
// empty content and lets the caller decide to skip the candidate.
package extract

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"engnews/internal/logger"
)

const (
	maxBodyBytes     = 2 << 20 // 2 MiB page size cap
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"
)

// Content is the transient extraction result for one candidate.
type Content struct {
	Text     string
	ImageURL string
}

// strategyFunc is one ranked extraction attempt over the downloaded page.
type strategyFunc func(html []byte, pageURL *url.URL) (string, error)

type Extractor struct {
	client     *http.Client
	minTextLen int
	maxTextLen int
	userAgent  string
	strategies []strategyFunc
}

func NewExtractor(timeout time.Duration, minTextLen, maxTextLen int) *Extractor {
	e := &Extractor{
		client:     &http.Client{Timeout: timeout},
		minTextLen: minTextLen,
		maxTextLen: maxTextLen,
		userAgent:  defaultUserAgent,
	}
	e.strategies = []strategyFunc{readabilityText, manualText}
	return e
}

// Extract downloads the page and tries each strategy in order until one
// produces enough text. Both fields may come back empty.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Content {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		logger.Warn("extract: bad url", "url", rawURL, "error", err)
		return Content{}
	}

	html, err := e.fetch(ctx, rawURL)
	if err != nil {
		logger.Warn("extract: fetch failed", "url", rawURL, "error", err)
		return Content{}
	}

	var text string
	for _, strat := range e.strategies {
		candidate, err := strat(html, pageURL)
		if err != nil {
			continue
		}
		candidate = collapseWhitespace(candidate)
		if utf8.RuneCountInString(candidate) >= e.minTextLen {
			text = candidate
			break
		}
		// Keep the longest insufficient result; the orchestrator applies
		// the too-short-text policy, not this package.
		if utf8.RuneCountInString(candidate) > utf8.RuneCountInString(text) {
			text = candidate
		}
	}

	return Content{
		Text:     capText(text, e.maxTextLen),
		ImageURL: leadImage(html, pageURL),
	}
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }

// leadImage prefers the page's share-image metadata over anything the
// extraction strategies detected.
func leadImage(html []byte, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if abs := absoluteImageURL(pageURL, content); abs != "" {
				return abs
			}
		}
	}

	if src, ok := doc.Find("article img, main img").First().Attr("src"); ok {
		return absoluteImageURL(pageURL, src)
	}

	return ""
}

func absoluteImageURL(pageURL *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	abs := pageURL.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// capText bounds the excerpt, preferring to end on a sentence.
func capText(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	trimmed := string(runes[:max])
	if idx := strings.LastIndex(trimmed, ". "); idx > max/3 {
		trimmed = trimmed[:idx+1]
	}
	return strings.TrimSpace(trimmed)
}
