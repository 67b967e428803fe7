// Package trakt imports watch history from the Trakt API into the
// local watch log, so recommendations reflect viewing that happened
// outside the addon.
package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiVersion = "2"

// Section selects a slice of the remote history endpoint.
type Section string

const (
	// SectionMovies lists watched movies.
	SectionMovies Section = "movies"
	// SectionEpisodes lists watched episodes; the owning show carries
	// the catalog-level identity.
	SectionEpisodes Section = "episodes"
)

// ids is the identifier block attached to movies and shows.
type ids struct {
	IMDB string `json:"imdb"`
}

type itemRef struct {
	IDs ids `json:"ids"`
}

// HistoryItem is one remote watch event.
type HistoryItem struct {
	WatchedAt time.Time `json:"watched_at"`
	Type      string    `json:"type"`
	Movie     *itemRef  `json:"movie"`
	Show      *itemRef  `json:"show"`
}

// IMDBID returns the catalog identifier for the item, or "" when the
// event carries no usable ID.
func (h HistoryItem) IMDBID() string {
	switch {
	case h.Movie != nil:
		return h.Movie.IDs.IMDB
	case h.Show != nil:
		return h.Show.IDs.IMDB
	default:
		return ""
	}
}

// Client is a minimal read-only Trakt API client.
type Client struct {
	baseURL  string
	clientID string
	username string
	limit    int
	http     *http.Client
}

// NewClient creates a Client for one user's public history.
func NewClient(baseURL, clientID, username string, pageLimit int) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		username: username,
		limit:    pageLimit,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// History fetches one page of the user's watch history. Pages are
// 1-based; an empty slice means the section is exhausted.
func (c *Client) History(ctx context.Context, section Section, page int) ([]HistoryItem, error) {
	u := fmt.Sprintf("%s/users/%s/history/%s?page=%d&limit=%d",
		c.baseURL, url.PathEscape(c.username), section, page, c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("history: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var items []HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return items, nil
}
