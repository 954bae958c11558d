package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPolicyBlocksAtCap(t *testing.T) {
	policy := NewMemoryPolicy(Config{MaxRequests: 3, Window: DefaultWindow})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := policy.IsAllowed(ctx, "device-1")
		if err != nil {
			t.Fatalf("IsAllowed: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if err := policy.RecordRequest(ctx, "device-1"); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
	}

	allowed, err := policy.IsAllowed(ctx, "device-1")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if allowed {
		t.Fatalf("expected cap of 3 to block the 4th request")
	}
}

func TestMemoryPolicyPurgesExpiredEntries(t *testing.T) {
	policy := NewMemoryPolicy(Config{MaxRequests: 3, Window: DefaultWindow})
	ctx := context.Background()

	now := time.Now()
	policy.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if err := policy.RecordRequest(ctx, "device-1"); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
	}
	if allowed, _ := policy.IsAllowed(ctx, "device-1"); allowed {
		t.Fatalf("expected identity to be blocked inside the window")
	}

	// Eight days later the recorded requests no longer count.
	policy.SetClock(func() time.Time { return now.Add(8 * 24 * time.Hour) })

	allowed, err := policy.IsAllowed(ctx, "device-1")
	if err != nil {
		t.Fatalf("IsAllowed: %v", err)
	}
	if !allowed {
		t.Fatalf("expected requests older than the window to be purged")
	}
}

func TestMemoryPolicyIsolatesIdentities(t *testing.T) {
	policy := NewMemoryPolicy(Config{MaxRequests: 1, Window: DefaultWindow})
	ctx := context.Background()

	if err := policy.RecordRequest(ctx, "device-1"); err != nil {
		t.Fatalf("RecordRequest: %v", err)
	}

	if allowed, _ := policy.IsAllowed(ctx, "device-1"); allowed {
		t.Fatalf("device-1 should be blocked")
	}
	if allowed, _ := policy.IsAllowed(ctx, "device-2"); !allowed {
		t.Fatalf("device-2 should not share device-1's window")
	}
}

func TestConfigNormalization(t *testing.T) {
	config := Config{}.normalized()
	if config.MaxRequests != DefaultMaxRequests {
		t.Fatalf("MaxRequests = %d, want %d", config.MaxRequests, DefaultMaxRequests)
	}
	if config.Window != DefaultWindow {
		t.Fatalf("Window = %v, want %v", config.Window, DefaultWindow)
	}
}
