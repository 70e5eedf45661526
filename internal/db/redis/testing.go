package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Redis-mode Store with an injected client (for tests).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

// NewValkeyStoreForTest creates a Valkey-mode Store with an injected client (for tests).
func NewValkeyStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, mode: modeValkeySearch}
}
