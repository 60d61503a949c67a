package reliq

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Cache is the interface for caching compiled-SQL results. Users should
// implement this with their preferred caching solution (e.g. Redis,
// Memcached, in-memory); the engine itself never requires one.
type Cache interface {
	// Get retrieves a value from the cache. Returns nil, nil if the key
	// doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL. If ttl is 0,
	// the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies one compiled statement by relation, query kind, WHERE
// fragment, and SELECT modifiers. It carries neither the bound values nor
// the FROM/join segment, so two compiles with equal keys can still differ in
// their bindings and in their joins.
type CacheKey struct {
	FQRN    string
	Kind    QueryKind
	Where   string // the compiled WHERE fragment, used as a stable fingerprint
	OrderBy string
	Limit   int
	Offset  int
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	var sb strings.Builder
	sb.WriteString(k.FQRN)
	sb.WriteByte(':')
	sb.WriteString(string(k.Kind))
	sb.WriteByte(':')
	sb.WriteString(k.Where)
	sb.WriteByte(':')
	sb.WriteString(k.OrderBy)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(k.Limit))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(k.Offset))
	return sb.String()
}
