package repository

import (
	"context"
	"time"
)

// LiveViewCache is an optional short-TTL cache in front of the public live
// poll. Payloads are opaque serialized projections; the cache never
// interprets them. Implementations must return ErrCacheMiss on absence.
type LiveViewCache interface {
	GetLiveView(ctx context.Context, code string) ([]byte, error)
	SetLiveView(ctx context.Context, code string, payload []byte, ttl time.Duration) error
	InvalidateLiveView(ctx context.Context, code string) error
}
