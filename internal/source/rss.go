package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"engnews/internal/config"
)

// fetchFeed parses one RSS/Atom source into candidates. The item summary
// is kept as a fallback excerpt for when page extraction comes up empty.
func (r *Reader) fetchFeed(ctx context.Context, src config.SourceConfig) ([]Candidate, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = r.userAgent
	fp.Client = r.client

	feed, err := fp.ParseURLWithContext(src.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var candidates []Candidate
	seen := make(map[string]struct{})

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if src.Domain != "" && !sameDomain(hostOf(link), src.Domain) {
			continue
		}

		title := strings.Join(strings.Fields(item.Title), " ")
		if title == "" {
			continue
		}

		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		candidates = append(candidates, Candidate{
			URL:             link,
			Title:           title,
			SourceLabel:     src.Name,
			FallbackExcerpt: stripTags(item.Description),
		})
	}

	return candidates, nil
}

// stripTags removes HTML markup that feeds often embed in summaries.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
