package extract

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// readabilityText is the primary strategy: isolate the main article body
// with the Mozilla Readability algorithm.
func readabilityText(html []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	if article.TextContent == "" {
		return "", fmt.Errorf("readability: no readable content")
	}

	return article.TextContent, nil
}
