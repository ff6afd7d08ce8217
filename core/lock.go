package core

import (
	"context"
	"time"
)

// Locker is a named, expiring mutual exclusion shared by every instance.
type Locker interface {
	// Acquire takes name for ttl. It reports false when another holder has an
	// unexpired claim, and false with an error when the store cannot be reached.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees name if this process holds it. Releasing a lock that is
	// not held is a no-op.
	Release(ctx context.Context, name string) error
}
