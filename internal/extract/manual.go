package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	minParagraphRunes = 80
	maxParagraphs     = 6
)

// Boilerplate removed wholesale before paragraph collection.
var junkSelectors = []string{
	"script", "style", "nav", "header", "footer", "aside", "form",
	"iframe", "noscript", "figure figcaption",
	"[class*=ad-]", "[class*=advert]", "[id*=advert]",
	".related", ".newsletter", ".social", ".share", ".comment",
	".comments", ".cookie", ".sidebar", ".promo", ".breadcrumb",
}

// Containers tried in order; the bare "p" pass covers pages with no
// recognizable article wrapper at all.
var containerSelectors = []string{
	"article p",
	"main p",
	".article-body p",
	".article-content p",
	".post-content p",
	".entry-content p",
	"#content p",
	"p",
}

// manualText is the fallback strategy: strip boilerplate tags and junk
// classes, then concatenate the first few long-enough paragraphs.
func manualText(html []byte, _ *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range junkSelectors {
		doc.Find(sel).Remove()
	}

	for _, sel := range containerSelectors {
		paragraphs := collectParagraphs(doc, sel)
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n"), nil
		}
	}

	return "", fmt.Errorf("no usable paragraphs")
}

func collectParagraphs(doc *goquery.Document, sel string) []string {
	var paragraphs []string

	doc.Find(sel).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if utf8.RuneCountInString(text) < minParagraphRunes {
			return true
		}
		paragraphs = append(paragraphs, text)
		return len(paragraphs) < maxParagraphs
	})

	return paragraphs
}
