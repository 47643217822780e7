package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers fulfilled request keys together with a short
// value (the id of what the request produced)
type IdempotencyStore interface {
	// MarkProcessed records key -> value for ttl. Returns true if the key was
	// newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Recall returns the value recorded for key, if any
	Recall(ctx context.Context, key string) (value string, found bool, err error)

	// Close closes the store and releases resources
	Close() error
}
