package network

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketBurstThenDeny(t *testing.T) {
	b := NewTokenBucket(2, 0.0001) // effectively no refill within the test
	now := time.Now()
	if !b.Allow(now) || !b.Allow(now) {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if b.Allow(now) {
		t.Fatalf("expected third immediate request to be denied")
	}
}

func TestTokenBucketWaitHonorsContext(t *testing.T) {
	b := NewTokenBucket(1, 0.0001)
	if !b.Allow(time.Now()) {
		t.Fatalf("first token should be available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := b.Wait(ctx); err == nil {
		t.Fatalf("expected Wait to give up when context expires")
	}
}
