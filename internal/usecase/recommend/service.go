// Package recommend turns a user's watch history into a ranked,
// deduplicated, region-prioritized catalog page against the loaded
// similarity index.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/index"
	"github.com/kinocloud/cinedex/internal/metrics"
)

// Params holds the catalog policy knobs.
type Params struct {
	// SeedCount is how many recent history entries seed the query vector.
	SeedCount int
	// PageSize is the catalog page length and the caller's pagination step.
	PageSize int
	// MaxExclusions bounds the exclusion set read from long histories.
	MaxExclusions int
	// PriorityRegions orders region preference, first = highest.
	PriorityRegions []string
	// RecencyDecay in (0,1] weights seeds toward the most recent; 0 = plain centroid.
	RecencyDecay float64
}

// Service serves recommendation pages. The index is loaded once at
// process start and shared read-only across concurrent requests.
type Service struct {
	index   *index.Index
	history HistoryReader
	params  Params
}

// New creates a recommendation service. Params are deployment
// configuration: invalid values fail fast here rather than defaulting.
func New(ix *index.Index, history HistoryReader, params Params) (*Service, error) {
	if ix == nil {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidConfig)
	}
	if params.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidConfig, params.PageSize)
	}
	if params.SeedCount <= 0 {
		return nil, fmt.Errorf("%w: seed count must be positive, got %d", domain.ErrInvalidConfig, params.SeedCount)
	}
	if params.RecencyDecay < 0 || params.RecencyDecay > 1 {
		return nil, fmt.Errorf("%w: recency decay %f outside [0,1]", domain.ErrInvalidConfig, params.RecencyDecay)
	}
	return &Service{index: ix, history: history, params: params}, nil
}

// ForUser returns one catalog page for the media type, ranked against
// the user's recent history. An empty history yields an empty page and
// no error: that is the cold-start steady state, not a failure.
func (s *Service) ForUser(ctx context.Context, mediaType domain.MediaType, skip int) ([]domain.Title, error) {
	if _, err := domain.ParseMediaType(mediaType.String()); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	start := time.Now()

	seeds, err := s.history.RecentIDs(ctx, mediaType, s.params.SeedCount)
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}
	if len(seeds) == 0 {
		return []domain.Title{}, nil
	}

	scores := s.index.Score(seeds, mediaType, index.ScoreOptions{RecencyDecay: s.params.RecencyDecay})

	exclude, err := s.history.WatchedSet(ctx, mediaType, s.params.MaxExclusions)
	if err != nil {
		return nil, fmt.Errorf("read exclusions: %w", err)
	}

	page := Assemble(scores, s.index.Titles(), exclude, s.params.PriorityRegions, skip, s.params.PageSize)

	metrics.RecommendDuration.WithLabelValues(mediaType.String()).Observe(time.Since(start).Seconds())
	metrics.RecommendationsServed.WithLabelValues(mediaType.String()).Inc()
	return page, nil
}
