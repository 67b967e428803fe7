package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers depend on the narrow
// sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	SortedSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScoredMember is one sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides sorted-set operations, used for the
// append-only watch-history log (score = unix timestamp).
type SortedSetStore interface {
	ZAdd(ctx context.Context, key string, members []ScoredMember) error
	// ZRevRange returns members ordered by descending score, [start, stop]
	// inclusive, stop=-1 meaning the end of the set.
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
}
