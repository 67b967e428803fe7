package redis

import (
	"context"

	"github.com/kinocloud/cinedex/internal/db"
)

// ZAdd inserts members into a sorted set. Re-adding an existing member
// updates its score, which is exactly the watch-history semantics:
// rewatching a title refreshes its recency.
func (s *Store) ZAdd(ctx context.Context, key string, members []db.ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	b := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		b = b.ScoreMember(m.Score, m.Member)
	}
	if err := s.do(ctx, b.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRevRange returns members ordered by descending score, inclusive range.
func (s *Store) ZRevRange(ctx context.Context, key string, start, stop int64) ([]db.ScoredMember, error) {
	cmd := s.b().Zrevrange().Key(key).Start(start).Stop(stop).Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRange, Err: err}
	}
	members := make([]db.ScoredMember, len(scores))
	for i, z := range scores {
		members[i] = db.ScoredMember{Member: z.Member, Score: z.Score}
	}
	return members, nil
}

// ZCard returns the sorted-set cardinality.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Zcard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}
