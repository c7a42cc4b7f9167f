package metrics

import (
	"sync"
	"time"
)

// RunMetrics aggregates counters for a single pipeline run.
type RunMetrics struct {
	mu sync.Mutex

	CandidatesFound    int64
	DuplicatesFiltered int64
	ExtractionFailures int64
	DegradedPublishes  int64
	Published          int64
	StoreErrors        int64

	StartedAt time.Time
	Elapsed   time.Duration
}

func New() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

func (m *RunMetrics) AddFound(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesFound += int64(n)
}

func (m *RunMetrics) IncDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *RunMetrics) IncExtractionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractionFailures++
}

func (m *RunMetrics) IncDegraded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DegradedPublishes++
}

func (m *RunMetrics) IncPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published++
}

func (m *RunMetrics) IncStoreErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreErrors++
}

// Finish records total wall-clock time for the run.
func (m *RunMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Elapsed = time.Since(m.StartedAt)
}

// Snapshot returns the counters as a flat map for logging or responses.
func (m *RunMetrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]int64{
		"candidates_found":    m.CandidatesFound,
		"duplicates_filtered": m.DuplicatesFiltered,
		"extraction_failures": m.ExtractionFailures,
		"degraded_publishes":  m.DegradedPublishes,
		"published":           m.Published,
		"store_errors":        m.StoreErrors,
		"elapsed_ms":          m.Elapsed.Milliseconds(),
	}
}
