package research

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reportforge/internal/logger"
	"reportforge/internal/search"
)

// Summarizer optionally rewrites the digest's key findings with a single
// model call per traversal. Traversals without one fall back to sentence
// condensation, which needs no network.
type Summarizer interface {
	SummarizeFindings(ctx context.Context, topic string, findings []string) ([]string, error)
}

// TraverserConfig bounds a traversal. Zero values take the package defaults.
type TraverserConfig struct {
	Workers           int // concurrent queries per level
	ResultsPerQuery   int
	MaxSources        int // digest source cap, applied after metrics
	MaxFindings       int
	FindingCharBudget int
	QualityFloor      float64       // minimum score for expansion and the high-quality metric
	QueryTimeout      time.Duration // per-search bound within a level
}

const (
	defaultWorkers           = 3
	defaultResultsPerQuery   = 5
	defaultMaxSources        = 20
	defaultMaxFindings       = 15
	defaultFindingCharBudget = 220
	defaultQueryTimeout      = 30 * time.Second
)

// Traverser runs breadth-by-depth research traversals against a search
// provider. It is stateless across calls; every traversal accumulates into
// request-scoped maps only.
type Traverser struct {
	provider   search.Provider
	summarizer Summarizer
	config     TraverserConfig
}

// NewTraverser creates a Traverser over the given search provider.
func NewTraverser(provider search.Provider, config TraverserConfig) *Traverser {
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.ResultsPerQuery <= 0 {
		config.ResultsPerQuery = defaultResultsPerQuery
	}
	if config.MaxSources <= 0 {
		config.MaxSources = defaultMaxSources
	}
	if config.MaxFindings <= 0 {
		config.MaxFindings = defaultMaxFindings
	}
	if config.FindingCharBudget <= 0 {
		config.FindingCharBudget = defaultFindingCharBudget
	}
	if config.QualityFloor <= 0 {
		config.QualityFloor = HighQualityThreshold
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = defaultQueryTimeout
	}
	return &Traverser{provider: provider, config: config}
}

// SetSummarizer wires an optional digest-level summarizer.
func (t *Traverser) SetSummarizer(s Summarizer) {
	t.summarizer = s
}

// queryOutcome is the result of one search call within a level.
type queryOutcome struct {
	query   string
	results []search.Result
	err     error
}

// Traverse expands the query into up to depth levels of at most breadth
// searches each, returning a deduplicated, scored digest. Individual query
// failures are skipped; only an invalid request is a hard error. On
// cancellation the digest built so far is returned.
func (t *Traverser) Traverse(ctx context.Context, q Query, breadth, depth int) (*Digest, error) {
	if strings.TrimSpace(q.Topic) == "" {
		return nil, ErrEmptyTopic
	}
	if breadth <= 0 || depth <= 0 {
		return nil, ErrInvalidBounds
	}

	accumulated := make(map[string]SourceRecord)
	var metrics Metrics

	queries := initialQueries(q, breadth)
	for level := 0; level < depth; level++ {
		outcomes := t.runLevel(ctx, q, queries)

		levelBest := 0.0
		levelSources := 0
		for _, outcome := range outcomes {
			if outcome.err != nil {
				logger.Warn("Search query failed, skipping",
					"query", outcome.query, "level", level, "error", outcome.err.Error())
				continue
			}
			if level == 0 {
				metrics.BreadthQueries++
			} else {
				metrics.DepthQueries++
			}
			for _, result := range outcome.results {
				record, added := insertSource(accumulated, result)
				if !added {
					continue
				}
				levelSources++
				if record.ReliabilityScore > levelBest {
					levelBest = record.ReliabilityScore
				}
			}
		}

		if ctx.Err() != nil {
			logger.Warn("Traversal cancelled, returning partial digest", "level", level)
			break
		}
		if level+1 >= depth {
			break
		}
		// Expand only while this level made progress with at least one
		// high-quality source; otherwise further levels would just rephrase
		// queries that already came up dry.
		if levelSources == 0 || levelBest < t.config.QualityFloor {
			break
		}
		queries = t.followUpQueries(q.Topic, accumulated, breadth)
		if len(queries) == 0 {
			break
		}
	}

	return t.buildDigest(ctx, q.Topic, accumulated, metrics), nil
}

// runLevel fans the level's queries out over a bounded worker pool and
// collects every outcome. Order of outcomes is not significant.
func (t *Traverser) runLevel(ctx context.Context, q Query, queries []string) []queryOutcome {
	outcomes := make([]queryOutcome, len(queries))
	sem := make(chan struct{}, t.config.Workers)
	var wg sync.WaitGroup

	for i, query := range queries {
		wg.Add(1)
		go func(slot int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				outcomes[slot] = queryOutcome{query: query, err: err}
				return
			}
			queryCtx, cancel := context.WithTimeout(ctx, t.config.QueryTimeout)
			defer cancel()
			results, err := t.provider.Search(queryCtx, query, search.Config{
				MaxResults: t.config.ResultsPerQuery,
				Timeframe:  q.Timeframe,
			})
			outcomes[slot] = queryOutcome{query: query, results: results, err: err}
		}(i, query)
	}
	wg.Wait()

	return outcomes
}

// insertSource scores and deduplicates one search result into the
// accumulated set. A duplicate URL replaces the stored record only when its
// score is strictly higher. It returns the stored record and whether the set
// changed.
func insertSource(accumulated map[string]SourceRecord, result search.Result) (SourceRecord, bool) {
	key := NormalizeURL(result.URL)
	if key == "" {
		return SourceRecord{}, false
	}

	score, reasoning := scoreReliability(result.Domain, result.Content)
	record := SourceRecord{
		URL:                  result.URL,
		Title:                result.Title,
		Domain:               result.Domain,
		Content:              result.Content,
		ReliabilityScore:     score,
		ReliabilityReasoning: reasoning,
		ContentLength:        len(result.Content),
		FetchedAt:            time.Now().UTC(),
	}

	existing, seen := accumulated[key]
	if seen && existing.ReliabilityScore >= score {
		return existing, false
	}
	accumulated[key] = record
	return record, !seen
}

// initialQueries deterministically expands the topic into breadth distinct
// level-0 queries: the topic itself, topic plus each caller keyword, then
// topic plus generic research modifiers.
func initialQueries(q Query, breadth int) []string {
	modifiers := []string{"market size", "competitors", "recent news", "industry trends", "analysis 2025"}

	candidates := []string{q.Topic}
	for _, keyword := range q.Keywords {
		candidates = append(candidates, q.Topic+" "+keyword)
	}
	for _, modifier := range modifiers {
		candidates = append(candidates, q.Topic+" "+modifier)
	}

	seen := make(map[string]bool)
	var queries []string
	for _, candidate := range candidates {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, candidate)
		if len(queries) >= breadth {
			break
		}
	}
	return queries
}

// followUpQueries combines the topic with phrases from the highest-scoring
// accumulated snippets, at most breadth queries.
func (t *Traverser) followUpQueries(topic string, accumulated map[string]SourceRecord, breadth int) []string {
	ranked := rankedSources(accumulated)

	seen := make(map[string]bool)
	var queries []string
	for _, source := range ranked {
		if source.ReliabilityScore < t.config.QualityFloor {
			break
		}
		for _, phrase := range followUpPhrases(source.Content, breadth) {
			query := topic + " " + phrase
			key := strings.ToLower(query)
			if seen[key] {
				continue
			}
			seen[key] = true
			queries = append(queries, query)
			if len(queries) >= breadth {
				return queries
			}
		}
	}
	return queries
}

// buildDigest computes metrics over the full accumulated set, extracts key
// findings, and caps the source list.
func (t *Traverser) buildDigest(ctx context.Context, topic string, accumulated map[string]SourceRecord, metrics Metrics) *Digest {
	ranked := rankedSources(accumulated)

	metrics.TotalSources = len(ranked)
	var scoreSum float64
	for _, source := range ranked {
		scoreSum += source.ReliabilityScore
		if source.ReliabilityScore >= t.config.QualityFloor {
			metrics.HighQualitySources++
		}
	}
	if len(ranked) > 0 {
		metrics.AverageReliability = scoreSum / float64(len(ranked))
	}

	findings := t.extractFindings(ctx, topic, ranked)

	sources := ranked
	if len(sources) > t.config.MaxSources {
		sources = sources[:t.config.MaxSources]
	}

	return &Digest{
		ID:          uuid.New().String(),
		Topic:       topic,
		KeyFindings: findings,
		Sources:     sources,
		Metrics:     metrics,
		GeneratedAt: time.Now().UTC(),
	}
}

// extractFindings condenses the top sources into one finding each. When a
// summarizer is wired it gets exactly one call for the whole list; its
// failure falls back to the condensed findings unchanged.
func (t *Traverser) extractFindings(ctx context.Context, topic string, ranked []SourceRecord) []string {
	seen := make(map[string]bool)
	var findings []string
	for _, source := range ranked {
		finding := condenseFinding(source.Content, t.config.FindingCharBudget)
		if finding == "" {
			continue
		}
		key := strings.ToLower(finding)
		if seen[key] {
			continue
		}
		seen[key] = true
		findings = append(findings, finding)
		if len(findings) >= t.config.MaxFindings {
			break
		}
	}

	if t.summarizer != nil && len(findings) > 0 {
		summarized, err := t.summarizer.SummarizeFindings(ctx, topic, findings)
		if err != nil {
			logger.Warn("Digest summarization failed, keeping condensed findings", "error", err.Error())
		} else if len(summarized) > 0 {
			findings = summarized
			if len(findings) > t.config.MaxFindings {
				findings = findings[:t.config.MaxFindings]
			}
		}
	}

	return findings
}

// rankedSources returns the accumulated records ordered by reliability
// descending, breaking ties by URL for deterministic output.
func rankedSources(accumulated map[string]SourceRecord) []SourceRecord {
	sources := make([]SourceRecord, 0, len(accumulated))
	for _, source := range accumulated {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ReliabilityScore != sources[j].ReliabilityScore {
			return sources[i].ReliabilityScore > sources[j].ReliabilityScore
		}
		return sources[i].URL < sources[j].URL
	})
	return sources
}
