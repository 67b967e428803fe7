package trakt

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/domain"
)

type fetchedPage struct {
	section Section
	page    int
}

type mockFetcher struct {
	pages   map[Section][][]HistoryItem
	fetched []fetchedPage
	err     error
}

func (m *mockFetcher) History(_ context.Context, section Section, page int) ([]HistoryItem, error) {
	m.fetched = append(m.fetched, fetchedPage{section, page})
	if m.err != nil {
		return nil, m.err
	}
	pages := m.pages[section]
	if page > len(pages) {
		return nil, nil
	}
	return pages[page-1], nil
}

type appendedEntry struct {
	id        string
	mediaType domain.MediaType
	watchedAt time.Time
}

type mockAppender struct {
	entries []appendedEntry
	err     error
}

func (m *mockAppender) Append(_ context.Context, id string, mt domain.MediaType, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, appendedEntry{id, mt, at})
	return nil
}

func movieItem(imdb string, at time.Time) HistoryItem {
	return HistoryItem{WatchedAt: at, Type: "movie", Movie: &itemRef{IDs: ids{IMDB: imdb}}}
}

func episodeItem(showIMDB string, at time.Time) HistoryItem {
	return HistoryItem{WatchedAt: at, Type: "episode", Show: &itemRef{IDs: ids{IMDB: showIMDB}}}
}

func TestSyncOnce_ImportsBothSections(t *testing.T) {
	now := time.Now()
	fetcher := &mockFetcher{pages: map[Section][][]HistoryItem{
		SectionMovies:   {{movieItem("tt0001", now)}},
		SectionEpisodes: {{episodeItem("tt0100", now), episodeItem("tt0100", now.Add(-time.Hour))}},
	}}
	appender := &mockAppender{}
	w := NewWorker(fetcher, appender, time.Hour, zap.NewNop())

	imported, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if imported != 3 {
		t.Errorf("imported = %d, want 3", imported)
	}
	if appender.entries[0].id != "tt0001" || appender.entries[0].mediaType != domain.Movie {
		t.Errorf("first entry = %+v", appender.entries[0])
	}
	if appender.entries[1].mediaType != domain.Series {
		t.Errorf("episode entries must map to the series media type, got %s", appender.entries[1].mediaType)
	}
}

func TestSyncOnce_PagesUntilEmpty(t *testing.T) {
	now := time.Now()
	fetcher := &mockFetcher{pages: map[Section][][]HistoryItem{
		SectionMovies: {
			{movieItem("tt0001", now)},
			{movieItem("tt0002", now)},
		},
	}}
	w := NewWorker(fetcher, &mockAppender{}, time.Hour, zap.NewNop())

	imported, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if imported != 2 {
		t.Errorf("imported = %d, want 2", imported)
	}

	moviePages := 0
	for _, f := range fetcher.fetched {
		if f.section == SectionMovies {
			moviePages++
		}
	}
	// Two data pages plus the empty page that stops the loop.
	if moviePages != 3 {
		t.Errorf("movie pages fetched = %d, want 3", moviePages)
	}
}

func TestSyncOnce_SkipsItemsWithoutIMDBID(t *testing.T) {
	now := time.Now()
	fetcher := &mockFetcher{pages: map[Section][][]HistoryItem{
		SectionMovies: {{
			movieItem("", now),
			{WatchedAt: now, Type: "movie"}, // no movie ref at all
			movieItem("tt0003", now),
		}},
	}}
	appender := &mockAppender{}
	w := NewWorker(fetcher, appender, time.Hour, zap.NewNop())

	imported, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if imported != 1 || len(appender.entries) != 1 {
		t.Fatalf("imported = %d, entries = %d, want 1", imported, len(appender.entries))
	}
	if appender.entries[0].id != "tt0003" {
		t.Errorf("entry = %s, want tt0003", appender.entries[0].id)
	}
}

func TestSyncOnce_FetchErrorStopsCycle(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("rate limited")}
	w := NewWorker(fetcher, &mockAppender{}, time.Hour, zap.NewNop())

	if _, err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSyncOnce_AppendErrorStopsCycle(t *testing.T) {
	now := time.Now()
	fetcher := &mockFetcher{pages: map[Section][][]HistoryItem{
		SectionMovies: {{movieItem("tt0001", now)}},
	}}
	w := NewWorker(fetcher, &mockAppender{err: errors.New("store down")}, time.Hour, zap.NewNop())

	if _, err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	fetcher := &mockFetcher{}
	w := NewWorker(fetcher, &mockAppender{}, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
