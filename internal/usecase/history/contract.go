package history

import (
	"context"

	"github.com/kinocloud/cinedex/internal/domain"
)

// Repository defines the storage contract for the watch log.
type Repository interface {
	Append(ctx context.Context, entry domain.WatchEntry) error
	Recent(ctx context.Context, mediaType domain.MediaType, limit int) ([]domain.WatchEntry, error)
	WatchedIDs(ctx context.Context, mediaType domain.MediaType, max int) ([]string, error)
}
