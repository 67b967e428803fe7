package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an injected rueidis client (unit tests only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
