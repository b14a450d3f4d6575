// Package cache provides the caller-side page-result cache collaborator.
// The query core itself never caches: freshness policy lives with the
// caller, and the contract is that every repository mutation invalidates
// prior page results for that entity.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// PageCache stores serialized page results scoped per entity. Invalidation
// is entity-wide: after any create/update/delete for an entity, every page
// cached for it must miss.
type PageCache interface {
	// Get returns the cached payload for the key, or false on a miss.
	Get(ctx context.Context, entity, key string) ([]byte, bool, error)
	// Set stores a payload under the key with a time-to-live.
	Set(ctx context.Context, entity, key string, payload []byte, ttl time.Duration) error
	// Invalidate drops every page cached for the entity.
	Invalidate(ctx context.Context, entity string) error
	// Close releases any underlying connection.
	Close() error
}

// QueryKey derives a stable cache key from any query-shaped value. Two
// structurally equal specs produce the same key.
func QueryKey(query any) (string, error) {
	raw, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
