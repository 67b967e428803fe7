// Package history stores the append-only watch log in a sorted set per
// media type, scored by watch timestamp. ZADD on an existing member
// refreshes its recency; nothing is ever deleted.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kinocloud/cinedex/internal/db"
	"github.com/kinocloud/cinedex/internal/domain"
)

// store is the consumer interface for the watch log (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, members []db.ScoredMember) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]db.ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo implements usecase/history.Repository.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a history repository. keyPrefix namespaces all keys
// (for example "cinedex:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Append records one watch entry. The store serializes concurrent
// appends; callers need no locking.
func (r *Repo) Append(ctx context.Context, entry domain.WatchEntry) error {
	key := r.key(entry.MediaType())
	member := db.ScoredMember{
		Member: entry.TitleID(),
		Score:  float64(entry.WatchedAt().UnixMilli()),
	}
	if err := r.store.ZAdd(ctx, key, []db.ScoredMember{member}); err != nil {
		return fmt.Errorf("append watch entry %s: %w", entry.TitleID(), err)
	}
	return nil
}

// Recent returns up to limit entries for a media type, most recent first.
func (r *Repo) Recent(ctx context.Context, mediaType domain.MediaType, limit int) ([]domain.WatchEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := r.store.ZRevRange(ctx, r.key(mediaType), 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("read recent %s history: %w", mediaType, err)
	}
	entries := make([]domain.WatchEntry, len(members))
	for i, m := range members {
		entries[i] = domain.ReconstructWatchEntry(
			m.Member, mediaType, time.UnixMilli(int64(m.Score)),
		)
	}
	return entries, nil
}

// WatchedIDs returns up to max watched title IDs for a media type,
// most recent first. The cap bounds exclusion-set growth on very
// long histories.
func (r *Repo) WatchedIDs(ctx context.Context, mediaType domain.MediaType, max int) ([]string, error) {
	stop := int64(-1)
	if max > 0 {
		stop = int64(max) - 1
	}
	members, err := r.store.ZRevRange(ctx, r.key(mediaType), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("read %s history: %w", mediaType, err)
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member
	}
	return ids, nil
}

// Size returns the number of logged entries for a media type.
func (r *Repo) Size(ctx context.Context, mediaType domain.MediaType) (int64, error) {
	n, err := r.store.ZCard(ctx, r.key(mediaType))
	if err != nil {
		return 0, fmt.Errorf("count %s history: %w", mediaType, err)
	}
	return n, nil
}

func (r *Repo) key(mediaType domain.MediaType) string {
	return r.keyPrefix + "history:" + mediaType.String()
}
