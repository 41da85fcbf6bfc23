// Package kvstore provides string-keyed, TTL-expiring byte storage for the
// script cache. The store offers atomic single-key get/set and no cross-key
// transactional guarantees.
package kvstore

import "time"

// Store is an expiring key/value namespace.
type Store interface {
	// Set writes value under key with the given time-to-live, overwriting
	// any previous value.
	Set(key string, value []byte, ttl time.Duration) error

	// Get returns the live value under key. The boolean is false when the
	// key is absent or its entry has expired.
	Get(key string) ([]byte, bool, error)

	// Close releases any resources held by the store.
	Close() error
}
