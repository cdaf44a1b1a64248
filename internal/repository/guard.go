package repository

import (
	"context"
	"time"
)

// LockRepository is the advisory per-username mutual-exclusion lock guarding
// the check-then-act window of room creation. The lock is not a substitute for
// the username -> room pointer; its TTL is the hard upper bound on how long a
// crashed creator can block the name.
type LockRepository interface {
	// AcquireUsernameLock atomically claims the lock for the username with
	// the given TTL. Returns false when another create attempt holds it.
	AcquireUsernameLock(ctx context.Context, username string, ttl time.Duration) (bool, error)

	// ReleaseUsernameLock frees the lock. Called on every exit path of a
	// create attempt regardless of outcome.
	ReleaseUsernameLock(ctx context.Context, username string) error
}

// QuotaRepository tracks room creations per origin address. The counter's
// window equals the requested room duration: at most one room per
// window-of-that-length from a given address.
type QuotaRepository interface {
	// BumpCreateCount atomically increments the creation counter for the
	// address and returns the new count. When the count is 1 (first increment
	// since the window last expired) the window TTL is applied.
	BumpCreateCount(ctx context.Context, address string, window time.Duration) (int64, error)
}
