package ingestion

import (
	"time"
)

// IngestionMetrics aggregates counters for one orchestration cycle. It is
// process-local: created at cycle start, logged and returned at cycle end,
// never persisted.
type IngestionMetrics struct {
	SourcesProcessed int
	FetchedItems     int
	ProcessedItems   int
	DuplicatesFound  int
	Errors           int
	StartedAt        time.Time
	Elapsed          time.Duration
}

func NewMetrics() *IngestionMetrics {
	return &IngestionMetrics{StartedAt: time.Now()}
}

func (m *IngestionMetrics) Finish() *IngestionMetrics {
	m.Elapsed = time.Since(m.StartedAt)
	return m
}

// Merge folds another cycle's counters into this one. Timing fields are
// untouched; the receiver keeps its own clock.
func (m *IngestionMetrics) Merge(other *IngestionMetrics) {
	if other == nil {
		return
	}
	m.SourcesProcessed += other.SourcesProcessed
	m.FetchedItems += other.FetchedItems
	m.ProcessedItems += other.ProcessedItems
	m.DuplicatesFound += other.DuplicatesFound
	m.Errors += other.Errors
}

// DuplicateRate is the percentage of content-processed items classified as
// near duplicates. Zero (not NaN) when nothing reached content processing.
func (m *IngestionMetrics) DuplicateRate() float64 {
	total := m.ProcessedItems + m.DuplicatesFound
	if total == 0 {
		return 0
	}
	return float64(m.DuplicatesFound) / float64(total) * 100
}

// SuccessRate is the percentage of fetched items that did not error.
// Zero (not NaN) when nothing was fetched.
func (m *IngestionMetrics) SuccessRate() float64 {
	if m.FetchedItems == 0 {
		return 0
	}
	return float64(m.FetchedItems-m.Errors) / float64(m.FetchedItems) * 100
}
