package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveArticle(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const longParagraph = "Engineers at the facility confirmed that the redesigned cooling loop sustained full load for over seventy-two hours without intervention, a result the team had not managed in two years of prior attempts."

func TestExtractArticleText(t *testing.T) {
	page := fmt.Sprintf(`<html><head>
		<meta property="og:image" content="/images/lead.jpg">
		<title>Cooling loop test</title>
	</head><body>
		<nav><a href="/">Home</a></nav>
		<article>
			<p>%s</p>
			<p>%s</p>
		</article>
		<footer>Copyright</footer>
	</body></html>`, longParagraph, longParagraph)

	srv := serveArticle(t, page)
	e := NewExtractor(5*time.Second, 150, 3500)

	got := e.Extract(context.Background(), srv.URL+"/news/cooling")
	require.NotEmpty(t, got.Text)
	assert.Contains(t, got.Text, "redesigned cooling loop")
	assert.NotContains(t, got.Text, "Copyright")
	assert.Equal(t, srv.URL+"/images/lead.jpg", got.ImageURL)
}

func TestManualTextSkipsJunk(t *testing.T) {
	// No article wrapper and heavy boilerplate: the manual strategy has to
	// find the body paragraphs on its own.
	page := fmt.Sprintf(`<html><body>
		<div class="newsletter"><p>%s</p></div>
		<div class="sidebar"><p>%s</p></div>
		<div><p>%s</p><p>short note</p></div>
	</body></html>`, "Subscribe to our weekly digest of everything we publish, delivered straight to your inbox every Friday morning without fail.", "Trending now on the site, updated hourly by our editorial automation system for your convenience and enjoyment today.", longParagraph)

	text, err := manualText([]byte(page), nil)
	require.NoError(t, err)
	assert.Contains(t, text, "redesigned cooling loop")
	assert.NotContains(t, text, "weekly digest")
	assert.NotContains(t, text, "Trending now")
	assert.NotContains(t, text, "short note")
}

func TestExtractFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewExtractor(5*time.Second, 150, 3500)
	got := e.Extract(context.Background(), srv.URL)

	assert.Empty(t, got.Text)
	assert.Empty(t, got.ImageURL)
}

func TestExtractTwitterImageFallback(t *testing.T) {
	page := fmt.Sprintf(`<html><head>
		<meta name="twitter:image" content="https://cdn.example.com/card.png">
	</head><body><article><p>%s</p></article></body></html>`, longParagraph)

	srv := serveArticle(t, page)
	e := NewExtractor(5*time.Second, 150, 3500)

	got := e.Extract(context.Background(), srv.URL)
	assert.Equal(t, "https://cdn.example.com/card.png", got.ImageURL)
}

func TestCapTextEndsOnSentence(t *testing.T) {
	text := strings.Repeat("One full sentence here. ", 50)

	capped := capText(text, 100)
	assert.LessOrEqual(t, utf8.RuneCountInString(capped), 100)
	assert.True(t, strings.HasSuffix(capped, "."), "capped text should end on a sentence: %q", capped)
}

func TestCapTextShortInputUntouched(t *testing.T) {
	assert.Equal(t, "unchanged", capText("unchanged", 100))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("  a\n\tb   c\n"))
}
