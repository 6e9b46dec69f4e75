package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// TestForEach_RunsAll visits every index exactly once.
func TestForEach_RunsAll(t *testing.T) {
	const n = 50
	var visited [n]int32
	err := ForEach(context.Background(), 4, n, func(_ context.Context, i int) error {
		atomic.AddInt32(&visited[i], 1)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	for i, v := range visited {
		if v != 1 {
			t.Fatalf("index %d visited %d times", i, v)
		}
	}
}

// TestForEach_RespectsLimit never runs more calls at once than allowed.
func TestForEach_RespectsLimit(t *testing.T) {
	const limit = 3
	var running, peak int32
	var mu sync.Mutex
	err := ForEach(context.Background(), limit, 20, func(_ context.Context, i int) error {
		cur := atomic.AddInt32(&running, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		atomic.AddInt32(&running, -1)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if peak > limit {
		t.Fatalf("observed %d concurrent calls, limit %d", peak, limit)
	}
}

// TestForEach_FirstErrorWins returns the failing call's error and stops
// handing out new work.
func TestForEach_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	var after int32
	err := ForEach(context.Background(), 1, 100, func(ctx context.Context, i int) error {
		if i == 2 {
			return boom
		}
		if i > 2 {
			atomic.AddInt32(&after, 1)
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	// With limit 1 the calls run in submission order, and the group context
	// is cancelled before any call after the failure starts.
	if got := atomic.LoadInt32(&after); got != 0 {
		t.Fatalf("%d calls ran after the failure", got)
	}
}

// TestForEach_EmptyAndDefaults: zero work is a no-op, a non-positive limit
// falls back to the CPU count.
func TestForEach_EmptyAndDefaults(t *testing.T) {
	if err := ForEach(context.Background(), 2, 0, nil); err != nil {
		t.Fatalf("n=0: %v", err)
	}
	var count int32
	err := ForEach(context.Background(), 0, 8, func(_ context.Context, _ int) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err != nil || count != 8 {
		t.Fatalf("limit=0: err=%v count=%d", err, count)
	}
}

// TestForEach_CancelledContext refuses work when the caller's context is
// already done.
func TestForEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var count int32
	err := ForEach(ctx, 2, 10, func(_ context.Context, _ int) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if count != 0 {
		t.Fatalf("%d calls ran under a cancelled context", count)
	}
}
