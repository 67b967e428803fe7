package trakt

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/metrics"
)

// maxPages bounds one sync cycle; deeper history is picked up by
// later cycles since ZADD keeps rewatches idempotent.
const maxPages = 10

// HistoryFetcher is the remote-history surface the worker consumes.
type HistoryFetcher interface {
	History(ctx context.Context, section Section, page int) ([]HistoryItem, error)
}

// Appender records imported watch events.
type Appender interface {
	Append(ctx context.Context, titleID string, mediaType domain.MediaType, watchedAt time.Time) error
}

// Worker periodically mirrors remote watch history into the local log.
type Worker struct {
	client   HistoryFetcher
	appender Appender
	interval time.Duration
	log      *zap.Logger
}

// NewWorker creates a Worker polling at the given interval.
func NewWorker(client HistoryFetcher, appender Appender, interval time.Duration, log *zap.Logger) *Worker {
	return &Worker{client: client, appender: appender, interval: interval, log: log}
}

// Run syncs once immediately, then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	w.cycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("sync worker stopped")
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *Worker) cycle(ctx context.Context) {
	imported, err := w.SyncOnce(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		metrics.SyncCyclesTotal.WithLabelValues("error").Inc()
		w.log.Warn("sync cycle failed", zap.Error(err))
	default:
		metrics.SyncCyclesTotal.WithLabelValues("ok").Inc()
		w.log.Info("sync cycle done", zap.Int("imported", imported))
	}
}

// SyncOnce imports both history sections and returns the number of
// entries appended.
func (w *Worker) SyncOnce(ctx context.Context) (int, error) {
	sections := []struct {
		section   Section
		mediaType domain.MediaType
	}{
		{SectionMovies, domain.Movie},
		{SectionEpisodes, domain.Series},
	}

	imported := 0
	for _, s := range sections {
		n, err := w.syncSection(ctx, s.section, s.mediaType)
		imported += n
		if err != nil {
			return imported, err
		}
	}
	return imported, nil
}

func (w *Worker) syncSection(ctx context.Context, section Section, mediaType domain.MediaType) (int, error) {
	imported := 0
	for page := 1; page <= maxPages; page++ {
		items, err := w.client.History(ctx, section, page)
		if err != nil {
			return imported, err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			id := item.IMDBID()
			if !strings.HasPrefix(id, "tt") {
				continue
			}
			if err := w.appender.Append(ctx, id, mediaType, item.WatchedAt); err != nil {
				return imported, err
			}
			imported++
			metrics.SyncEntriesTotal.Inc()
		}
	}
	return imported, nil
}
