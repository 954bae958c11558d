package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryPolicy keeps per-identity timestamp lists in process memory. It is
// the fallback when Redis is not configured. The clock is injectable so
// tests can simulate elapsed days.
type MemoryPolicy struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	records map[string][]time.Time
}

// NewMemoryPolicy creates an in-process sliding window limiter.
func NewMemoryPolicy(config Config) *MemoryPolicy {
	return &MemoryPolicy{
		config:  config.normalized(),
		now:     time.Now,
		records: make(map[string][]time.Time),
	}
}

// SetClock replaces the time source. Tests only.
func (p *MemoryPolicy) SetClock(now func() time.Time) {
	p.now = now
}

func (p *MemoryPolicy) IsAllowed(ctx context.Context, identity string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.purge(identity)
	return len(remaining) < p.config.MaxRequests, nil
}

func (p *MemoryPolicy) RecordRequest(ctx context.Context, identity string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records[identity] = append(p.purge(identity), p.now())
	return nil
}

// purge drops timestamps older than the window and returns the survivors.
// Caller must hold the lock.
func (p *MemoryPolicy) purge(identity string) []time.Time {
	cutoff := p.now().Add(-p.config.Window)
	var kept []time.Time
	for _, ts := range p.records[identity] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(p.records, identity)
	} else {
		p.records[identity] = kept
	}
	return kept
}
