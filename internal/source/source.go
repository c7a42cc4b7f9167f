// Package source discovers article candidates from configured HTML pages
// and RSS feeds.
package source

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"engnews/internal/config"
	"engnews/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"

// Candidate is a discovered article reference, not yet checked against
// the dedup store.
type Candidate struct {
	URL         string
	Title       string
	SourceLabel string

	// FallbackExcerpt carries the RSS item summary, used when the article
	// page itself yields nothing extractable.
	FallbackExcerpt string
}

// Reader fetches candidates from all configured sources.
type Reader struct {
	client        *http.Client
	sources       []config.SourceConfig
	maxCandidates int
	minTitleLen   int
	userAgent     string
}

func NewReader(sources []config.SourceConfig, timeout time.Duration, maxCandidates int) *Reader {
	return &Reader{
		client:        &http.Client{Timeout: timeout},
		sources:       sources,
		maxCandidates: maxCandidates,
		minTitleLen:   25,
		userAgent:     defaultUserAgent,
	}
}

// Fetch collects candidates from every source. A failing source
// contributes nothing and never aborts the run. Sources are interleaved
// round-robin so one prolific feed cannot starve the others within the
// per-run cap.
func (r *Reader) Fetch(ctx context.Context) ([]Candidate, error) {
	perSource := make([][]Candidate, 0, len(r.sources))

	for _, src := range r.sources {
		var (
			candidates []Candidate
			err        error
		)

		if src.FeedURL != "" {
			candidates, err = r.fetchFeed(ctx, src)
		} else {
			candidates, err = r.fetchHTML(ctx, src)
		}

		if err != nil {
			logger.Warn("source failed, skipping", "source", src.Name, "error", err)
			continue
		}

		logger.Info("source produced candidates", "source", src.Name, "count", len(candidates))
		if len(candidates) > 0 {
			perSource = append(perSource, candidates)
		}
	}

	return interleave(perSource, r.maxCandidates), nil
}

// interleave merges per-source candidate lists round-robin, deduplicating
// by URL, capped at max (0 = no cap).
func interleave(perSource [][]Candidate, max int) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})

	for round := 0; ; round++ {
		progressed := false
		for _, list := range perSource {
			if round >= len(list) {
				continue
			}
			progressed = true

			c := list[round]
			if _, dup := seen[c.URL]; dup {
				continue
			}
			seen[c.URL] = struct{}{}
			out = append(out, c)

			if max > 0 && len(out) >= max {
				return out
			}
		}
		if !progressed {
			return out
		}
	}
}

func titleLongEnough(title string, min int) bool {
	return utf8.RuneCountInString(title) >= min
}
