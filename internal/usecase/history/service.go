// Package history exposes the two operations the recommendation core
// requires from its environment: read recent watched IDs per media
// type, and append new watched IDs. The serving boundary and the sync
// worker both write through here and never share in-process state.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/metrics"
)

// Service wraps the watch-log repository with validation and metrics.
type Service struct {
	repo Repository
}

// New creates a history service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and records one watch event.
func (s *Service) Append(ctx context.Context, titleID string, mediaType domain.MediaType, watchedAt time.Time) error {
	entry, err := domain.NewWatchEntry(titleID, mediaType, watchedAt)
	if err != nil {
		return fmt.Errorf("invalid watch entry: %w", err)
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return err
	}
	metrics.HistoryAppendsTotal.WithLabelValues(mediaType.String()).Inc()
	return nil
}

// RecentIDs returns up to limit watched title IDs, most recent first.
func (s *Service) RecentIDs(ctx context.Context, mediaType domain.MediaType, limit int) ([]string, error) {
	entries, err := s.repo.Recent(ctx, mediaType, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].TitleID()
	}
	return ids, nil
}

// WatchedSet returns up to max watched IDs as a set, for exclusion.
func (s *Service) WatchedSet(ctx context.Context, mediaType domain.MediaType, max int) (map[string]struct{}, error) {
	ids, err := s.repo.WatchedIDs(ctx, mediaType, max)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
