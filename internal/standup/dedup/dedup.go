// Package dedup collapses duplicate webhook deliveries.
//
// The sender retries deliveries it believes failed, so the same external
// event identifier can arrive more than once, concurrently. The registry is
// a single atomic insert-if-absent per key (Redis SET NX PX); a read-then-
// write guard would reintroduce the race this package exists to close.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultWindow is how long an external event identifier is remembered.
// Slack redelivers for up to a few minutes after a failed acknowledgment;
// thirty minutes comfortably exceeds that retry span while keeping the
// registry bounded by TTL eviction rather than growing without limit.
const DefaultWindow = 30 * time.Minute

const keyPrefix = "dedup:"

type Store struct {
	rdb    *redis.Client
	window time.Duration
}

// New returns a dedup store remembering identifiers for the given window.
// A non-positive window falls back to DefaultWindow.
func New(rdb *redis.Client, window time.Duration) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{rdb: rdb, window: window}
}

// Seen atomically records the identifier and reports whether it had already
// been recorded inside the window. The first caller for a given id gets
// false; every concurrent or later caller within the window gets true.
func (s *Store) Seen(ctx context.Context, externalID string) (bool, error) {
	firstSeen := time.Now().UTC().Format(time.RFC3339Nano)

	inserted, err := s.rdb.SetNX(ctx, keyPrefix+externalID, firstSeen, s.window).Result()
	if err != nil {
		return false, err
	}
	return !inserted, nil
}

// Ping verifies the registry connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
