// Package pipeline orchestrates one publishing run: fetch candidates,
// drop already-published ones, extract, transform, publish, record.
package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"engnews/internal/extract"
	"engnews/internal/logger"
	"engnews/internal/metrics"
	"engnews/internal/source"
	"engnews/internal/telegram"
	"engnews/internal/transform"
)

// Collaborator interfaces are defined here, on the consumer side, so the
// orchestrator can be tested with in-memory fakes.

type Reader interface {
	Fetch(ctx context.Context) ([]source.Candidate, error)
}

type Extractor interface {
	Extract(ctx context.Context, url string) extract.Content
}

type Transformer interface {
	Transform(ctx context.Context, title, text string) transform.Result
}

type Publisher interface {
	Publish(ctx context.Context, post telegram.Post) error
}

type Store interface {
	IsPublished(ctx context.Context, url string) bool
	Record(ctx context.Context, url, title string)
}

// Options tune a run. Now and Sleep default to the real clock; tests
// inject their own.
type Options struct {
	PublishTarget int
	PublishDelay  time.Duration
	TimeBudget    time.Duration
	MinTextLen    int
	Now           func() time.Time
	Sleep         func(ctx context.Context, d time.Duration) error
}

// RunResult is the run summary returned to the entry point.
type RunResult struct {
	PublishedCount int              `json:"published_count"`
	TotalFound     int              `json:"total_found"`
	Skipped        int              `json:"skipped"`
	Metrics        map[string]int64 `json:"metrics"`
	Log            []string         `json:"log"`
}

type Pipeline struct {
	reader      Reader
	store       Store
	extractor   Extractor
	transformer Transformer
	publisher   Publisher
	opts        Options
}

func New(reader Reader, store Store, extractor Extractor, transformer Transformer, publisher Publisher, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}
	return &Pipeline{
		reader:      reader,
		store:       store,
		extractor:   extractor,
		transformer: transformer,
		publisher:   publisher,
		opts:        opts,
	}
}

// Run processes candidates until the publish target is met, the list is
// exhausted, or the time budget runs out. One bad candidate never aborts
// the run; it is logged and skipped.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	m := metrics.New()
	deadline := p.opts.Now().Add(p.opts.TimeBudget)

	result := RunResult{}
	note := func(format string, args ...interface{}) {
		result.Log = append(result.Log, fmt.Sprintf(format, args...))
	}

	candidates, err := p.reader.Fetch(ctx)
	if err != nil && len(candidates) == 0 {
		m.Finish()
		result.Metrics = m.Snapshot()
		return result, fmt.Errorf("fetch candidates: %w", err)
	}

	result.TotalFound = len(candidates)
	m.AddFound(len(candidates))
	logger.Info("run started", "candidates", len(candidates), "target", p.opts.PublishTarget)

	for _, cand := range candidates {
		if result.PublishedCount >= p.opts.PublishTarget {
			break
		}
		if p.opts.TimeBudget > 0 && !p.opts.Now().Before(deadline) {
			note("time budget exhausted, stopping")
			logger.Warn("time budget exhausted", "published", result.PublishedCount)
			break
		}

		outcome := p.processCandidate(ctx, cand, m, &result)
		note("%s: %s", cand.URL, outcome)

		if ctx.Err() != nil {
			break
		}
	}

	m.Finish()
	result.Metrics = m.Snapshot()
	logger.Info("run finished", "published", result.PublishedCount, "found", result.TotalFound, "skipped", result.Skipped)
	return result, nil
}

func (p *Pipeline) processCandidate(ctx context.Context, cand source.Candidate, m *metrics.RunMetrics, result *RunResult) string {
	if p.store.IsPublished(ctx, cand.URL) {
		m.IncDuplicates()
		result.Skipped++
		return "skipped (already published)"
	}

	content := p.extractor.Extract(ctx, cand.URL)
	text := content.Text
	if utf8.RuneCountInString(text) < p.opts.MinTextLen && cand.FallbackExcerpt != "" {
		text = cand.FallbackExcerpt
	}
	// Too-short text after the fallback is still an extraction failure;
	// a two-line excerpt makes a useless post.
	if text == "" || utf8.RuneCountInString(text) < p.opts.MinTextLen {
		m.IncExtractionFailures()
		result.Skipped++
		return "skipped (no extractable text)"
	}

	res := p.transformer.Transform(ctx, cand.Title, text)
	if res.Degraded {
		m.IncDegraded()
	}

	post := telegram.Post{
		Title:       res.Title,
		Summary:     res.Summary,
		SourceLabel: cand.SourceLabel,
		Link:        cand.URL,
		ImageURL:    content.ImageURL,
	}

	// Space out channel posts; the first one goes immediately.
	if result.PublishedCount > 0 && p.opts.PublishDelay > 0 {
		if err := p.opts.Sleep(ctx, p.opts.PublishDelay); err != nil {
			result.Skipped++
			return "skipped (run cancelled)"
		}
	}

	if err := p.publisher.Publish(ctx, post); err != nil {
		logger.Error("publish failed", "url", cand.URL, "error", err)
		result.Skipped++
		return fmt.Sprintf("publish failed: %v", err)
	}

	// Best effort: a missed record risks a future duplicate, which the
	// channel tolerates better than a lost post. The record keeps the
	// original title, not the translated one.
	p.store.Record(ctx, cand.URL, cand.Title)

	result.PublishedCount++
	m.IncPublished()
	if res.Degraded {
		return "published (degraded)"
	}
	return "published"
}
