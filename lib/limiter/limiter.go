// Package limiter bounds how many transcript summarization requests a
// single installation may start within a rolling window. A single policy
// interface covers both the Redis-backed and the in-process
// implementation so call sites never depend on the storage engine.
package limiter

import (
	"context"
	"time"
)

const (
	// DefaultWindow is the rolling window requests are counted over.
	DefaultWindow = 7 * 24 * time.Hour // 604800 seconds
	// DefaultMaxRequests is the request cap per identity per window.
	DefaultMaxRequests = 5
)

// Config holds the rate limit rule applied to every identity.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		MaxRequests: DefaultMaxRequests,
		Window:      DefaultWindow,
	}
}

func (c Config) normalized() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Policy decides whether an identity may start another request. Entries
// older than the window never count; implementations purge them on every
// check.
type Policy interface {
	// IsAllowed reports whether the identity is strictly below the cap
	// after expired entries are purged.
	IsAllowed(ctx context.Context, identity string) (bool, error)
	// RecordRequest adds the current timestamp to the identity's window.
	RecordRequest(ctx context.Context, identity string) error
}
