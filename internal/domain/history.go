package domain

import (
	"fmt"
	"time"
)

// WatchEntry is one append-only watch-history record.
// Entries are never mutated or deleted; the core only reads
// the most recent slice per media type.
type WatchEntry struct {
	titleID   string
	mediaType MediaType
	watchedAt time.Time
}

// NewWatchEntry validates and creates a WatchEntry.
func NewWatchEntry(titleID string, mediaType MediaType, watchedAt time.Time) (WatchEntry, error) {
	if titleID == "" {
		return WatchEntry{}, fmt.Errorf("title ID is required")
	}
	if _, err := ParseMediaType(string(mediaType)); err != nil {
		return WatchEntry{}, err
	}
	if watchedAt.IsZero() {
		return WatchEntry{}, fmt.Errorf("watched-at timestamp is required")
	}
	return WatchEntry{titleID: titleID, mediaType: mediaType, watchedAt: watchedAt}, nil
}

// ReconstructWatchEntry creates a WatchEntry without validation (storage hydration).
func ReconstructWatchEntry(titleID string, mediaType MediaType, watchedAt time.Time) WatchEntry {
	return WatchEntry{titleID: titleID, mediaType: mediaType, watchedAt: watchedAt}
}

// TitleID returns the watched title identifier.
func (e *WatchEntry) TitleID() string { return e.titleID }

// MediaType returns movie or series.
func (e *WatchEntry) MediaType() MediaType { return e.mediaType }

// WatchedAt returns when the title was watched.
func (e *WatchEntry) WatchedAt() time.Time { return e.watchedAt }
