package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engnews/internal/extract"
	"engnews/internal/source"
	"engnews/internal/telegram"
	"engnews/internal/transform"
)

type fakeReader struct {
	candidates []source.Candidate
	err        error
}

func (f *fakeReader) Fetch(context.Context) ([]source.Candidate, error) {
	return f.candidates, f.err
}

type fakeStore struct {
	mu             sync.Mutex
	published      map[string]bool
	recorded       []string
	recordedTitles []string
}

func newFakeStore(published ...string) *fakeStore {
	s := &fakeStore{published: make(map[string]bool)}
	for _, u := range published {
		s.published[u] = true
	}
	return s
}

func (f *fakeStore) IsPublished(_ context.Context, url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[url]
}

func (f *fakeStore) Record(_ context.Context, url, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[url] = true
	f.recorded = append(f.recorded, url)
	f.recordedTitles = append(f.recordedTitles, title)
}

type fakeExtractor struct {
	content map[string]extract.Content
}

func (f *fakeExtractor) Extract(_ context.Context, url string) extract.Content {
	return f.content[url]
}

type fakeTransformer struct {
	degraded bool
}

func (f *fakeTransformer) Transform(_ context.Context, title, text string) transform.Result {
	if f.degraded {
		return transform.Result{Title: title, Summary: "(недоступно)", Degraded: true}
	}
	return transform.Result{Title: "UK: " + title, Summary: "Підсумок: " + text}
}

type fakePublisher struct {
	posts   []telegram.Post
	failFor map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, post telegram.Post) error {
	if f.failFor[post.Link] {
		return fmt.Errorf("telegram rejected the post")
	}
	f.posts = append(f.posts, post)
	return nil
}

const goodText = "A long enough extracted article body that easily clears the minimum text length threshold used by the orchestrator in these tests, padded with a second sentence for good measure."

func candidates(n int) []source.Candidate {
	out := make([]source.Candidate, n)
	for i := range out {
		out[i] = source.Candidate{
			URL:   fmt.Sprintf("https://example.com/news/%d", i+1),
			Title: fmt.Sprintf("Story number %d", i+1),
		}
	}
	return out
}

func contentFor(cands []source.Candidate) map[string]extract.Content {
	m := make(map[string]extract.Content, len(cands))
	for _, c := range cands {
		m[c.URL] = extract.Content{Text: goodText}
	}
	return m
}

func noSleep(context.Context, time.Duration) error { return nil }

func defaultOptions() Options {
	return Options{
		PublishTarget: 2,
		PublishDelay:  time.Millisecond,
		TimeBudget:    time.Minute,
		MinTextLen:    50,
		Sleep:         noSleep,
	}
}

func TestRunStopsAtPublishTarget(t *testing.T) {
	cands := candidates(5)
	st := newFakeStore("https://example.com/news/1") // one already published
	pub := &fakePublisher{}

	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: contentFor(cands)},
		&fakeTransformer{}, pub, defaultOptions())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.PublishedCount)
	assert.Equal(t, 5, result.TotalFound)
	require.Len(t, pub.posts, 2)
	assert.Equal(t, "UK: Story number 2", pub.posts[0].Title)
	assert.Equal(t, []string{"https://example.com/news/2", "https://example.com/news/3"}, st.recorded)
	// The record keeps the original title even though the post carries the
	// translated one.
	assert.Equal(t, []string{"Story number 2", "Story number 3"}, st.recordedTitles)
}

func TestRunSkipsTooShortText(t *testing.T) {
	cands := candidates(2)
	st := newFakeStore()
	content := contentFor(cands)
	// Non-empty but well under the minimum: still an extraction failure.
	content["https://example.com/news/1"] = extract.Content{Text: "A stub of just forty-two runes, no more."}

	pub := &fakePublisher{}
	opts := defaultOptions()
	opts.MinTextLen = 150
	opts.PublishTarget = 2
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: content},
		&fakeTransformer{}, pub, opts)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PublishedCount)
	assert.Equal(t, int64(1), result.Metrics["extraction_failures"])
	assert.Equal(t, []string{"https://example.com/news/2"}, st.recorded)
}

func TestRunSecondRunPublishesNothing(t *testing.T) {
	cands := candidates(3)
	st := newFakeStore()
	content := contentFor(cands)

	run := func() RunResult {
		pub := &fakePublisher{}
		opts := defaultOptions()
		opts.PublishTarget = 3
		p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: content},
			&fakeTransformer{}, pub, opts)
		result, err := p.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	first := run()
	assert.Equal(t, 3, first.PublishedCount)

	second := run()
	assert.Equal(t, 0, second.PublishedCount)
	assert.Equal(t, 3, second.Skipped)
}

func TestRunPublishFailureIsNotRecorded(t *testing.T) {
	cands := candidates(2)
	st := newFakeStore()
	pub := &fakePublisher{failFor: map[string]bool{"https://example.com/news/1": true}}

	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: contentFor(cands)},
		&fakeTransformer{}, pub, defaultOptions())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PublishedCount)
	// The failed URL stays unrecorded so the next run retries it.
	assert.Equal(t, []string{"https://example.com/news/2"}, st.recorded)
}

func TestRunTimeBudget(t *testing.T) {
	cands := candidates(5)
	st := newFakeStore()

	now := time.Now()
	calls := 0
	opts := defaultOptions()
	opts.PublishTarget = 5
	opts.TimeBudget = 10 * time.Second
	opts.Now = func() time.Time {
		calls++
		// Past the budget from the third clock reading on.
		if calls >= 3 {
			return now.Add(time.Minute)
		}
		return now
	}

	pub := &fakePublisher{}
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: contentFor(cands)},
		&fakeTransformer{}, pub, opts)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Less(t, result.PublishedCount, 5)
	assert.Contains(t, result.Log, "time budget exhausted, stopping")
}

func TestRunSkipsUnextractableCandidate(t *testing.T) {
	cands := candidates(2)
	st := newFakeStore()
	content := contentFor(cands)
	content["https://example.com/news/1"] = extract.Content{} // nothing extractable

	pub := &fakePublisher{}
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: content},
		&fakeTransformer{}, pub, defaultOptions())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PublishedCount)
	assert.Equal(t, int64(1), result.Metrics["extraction_failures"])
}

func TestRunUsesFallbackExcerpt(t *testing.T) {
	cands := candidates(1)
	cands[0].FallbackExcerpt = "The feed summary is long enough to stand in for the article body in this test case."
	st := newFakeStore()
	content := map[string]extract.Content{cands[0].URL: {Text: "too short"}}

	pub := &fakePublisher{}
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: content},
		&fakeTransformer{}, pub, defaultOptions())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PublishedCount)
	assert.Contains(t, pub.posts[0].Summary, "feed summary")
}

func TestRunDegradedStillPublishes(t *testing.T) {
	cands := candidates(1)
	st := newFakeStore()

	pub := &fakePublisher{}
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: contentFor(cands)},
		&fakeTransformer{degraded: true}, pub, defaultOptions())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PublishedCount)
	assert.Equal(t, int64(1), result.Metrics["degraded_publishes"])
	assert.Equal(t, "Story number 1", pub.posts[0].Title)
}

// degradeFor degrades candidates whose title is listed, mirroring a
// provider outage scoped to specific articles.
type selectiveTransformer struct {
	degradeFor map[string]bool
}

func (f *selectiveTransformer) Transform(_ context.Context, title, text string) transform.Result {
	if f.degradeFor[title] {
		return transform.Result{Title: title, Summary: "(недоступно)", Degraded: true}
	}
	return transform.Result{Title: "UK: " + title, Summary: "Підсумок: " + text}
}

func TestRunMixedBatch(t *testing.T) {
	// Five candidates: two already published, one unextractable, one that
	// only publishes degraded, one clean.
	cands := candidates(5)
	st := newFakeStore("https://example.com/news/1", "https://example.com/news/2")
	content := contentFor(cands)
	content["https://example.com/news/3"] = extract.Content{}

	pub := &fakePublisher{}
	opts := defaultOptions()
	opts.PublishTarget = 3
	p := New(&fakeReader{candidates: cands}, st, &fakeExtractor{content: content},
		&selectiveTransformer{degradeFor: map[string]bool{"Story number 4": true}}, pub, opts)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.PublishedCount)
	assert.Equal(t, 5, result.TotalFound)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, int64(2), result.Metrics["duplicates_filtered"])
	assert.Equal(t, int64(1), result.Metrics["extraction_failures"])
	assert.Equal(t, int64(1), result.Metrics["degraded_publishes"])
	assert.Equal(t, []string{"https://example.com/news/4", "https://example.com/news/5"}, st.recorded)
}

func TestRunReaderFailure(t *testing.T) {
	p := New(&fakeReader{err: fmt.Errorf("all sources down")}, newFakeStore(),
		&fakeExtractor{}, &fakeTransformer{}, &fakePublisher{}, defaultOptions())

	result, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, result.PublishedCount)
}
