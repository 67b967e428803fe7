package recommend

import (
	"context"

	"github.com/kinocloud/cinedex/internal/domain"
)

// HistoryReader supplies seeds and exclusions from the watch log.
type HistoryReader interface {
	RecentIDs(ctx context.Context, mediaType domain.MediaType, limit int) ([]string, error)
	WatchedSet(ctx context.Context, mediaType domain.MediaType, max int) (map[string]struct{}, error)
}
