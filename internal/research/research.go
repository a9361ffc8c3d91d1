// Package research discovers and condenses web evidence for a topic. A
// traversal expands the topic into a breadth-by-depth tree of search queries,
// scores and deduplicates the returned sources, and produces a bounded digest
// of key findings for the report planner.
package research

import (
	"errors"
	"time"
)

var (
	// ErrEmptyTopic is returned when a traversal is requested without a topic.
	ErrEmptyTopic = errors.New("research topic cannot be empty")
	// ErrInvalidBounds is returned for non-positive breadth or depth.
	ErrInvalidBounds = errors.New("breadth and depth must be positive")
)

// DepthMode selects how aggressively a traversal expands.
type DepthMode string

const (
	DepthBasic         DepthMode = "basic"
	DepthComprehensive DepthMode = "comprehensive"
)

// Query is the immutable input of one traversal.
type Query struct {
	Topic     string    `json:"topic"`
	Keywords  []string  `json:"keywords,omitempty"`
	Depth     DepthMode `json:"depth,omitempty"`
	Timeframe string    `json:"timeframe,omitempty"`
}

// SourceRecord is one scored, deduplicated web source. Records are keyed by
// normalized URL and never mutated; a later fetch of the same URL with a
// strictly higher score replaces the whole record.
type SourceRecord struct {
	URL                  string    `json:"url"`
	Title                string    `json:"title"`
	Domain               string    `json:"domain"`
	Content              string    `json:"content"`
	ReliabilityScore     float64   `json:"reliability_score"`
	ReliabilityReasoning string    `json:"reliability_reasoning"`
	ContentLength        int       `json:"content_length"`
	FetchedAt            time.Time `json:"fetched_at"`
}

// Metrics summarizes a whole traversal. It is computed over every source seen
// before the digest's source list is capped.
type Metrics struct {
	BreadthQueries     int     `json:"breadth_queries"`
	DepthQueries       int     `json:"depth_queries"`
	TotalSources       int     `json:"total_sources"`
	HighQualitySources int     `json:"high_quality_sources"`
	AverageReliability float64 `json:"average_reliability"`
}

// Digest is the condensed result of a traversal, consumed read-only by the
// planner and surfaced verbatim in the output payload.
type Digest struct {
	ID          string         `json:"id"`
	Topic       string         `json:"topic"`
	KeyFindings []string       `json:"key_findings"`
	Sources     []SourceRecord `json:"sources"`
	Metrics     Metrics        `json:"metrics"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// HighQualityThreshold is the reliability score at or above which a source
// counts as high quality and may seed the next traversal level.
const HighQualityThreshold = 0.6
