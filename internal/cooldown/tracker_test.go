package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWindowBoundaries(t *testing.T) {
	tr := New(true, 4*time.Hour)
	key := Key{Symbol: "AAPL", Timeframe: "60min", Side: "LONG"}
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	if !tr.TryAcquire(key, start) {
		t.Fatalf("first emission must be allowed")
	}
	if tr.TryAcquire(key, start.Add(3*time.Hour+59*time.Minute)) {
		t.Fatalf("emission inside window must be suppressed")
	}
	later := start.Add(4*time.Hour + time.Minute)
	if !tr.TryAcquire(key, later) {
		t.Fatalf("emission after window must be allowed")
	}
	// The window restarts at the latest emission.
	if tr.TryAcquire(key, later.Add(2*time.Hour)) {
		t.Fatalf("window should reset at T+4h01m")
	}
	if got := tr.Remaining(key, later.Add(time.Hour)); got != 3*time.Hour {
		t.Fatalf("remaining %v want 3h", got)
	}
}

func TestExactWindowIsCold(t *testing.T) {
	tr := New(true, time.Hour)
	key := Key{Symbol: "0700.HK", Timeframe: "5min", Side: "SHORT"}
	now := time.Now()
	tr.TryAcquire(key, now)
	if tr.IsHot(key, now.Add(time.Hour)) {
		t.Fatalf("now-last == window must be Cold")
	}
}

func TestSidesAreIndependent(t *testing.T) {
	tr := New(true, time.Hour)
	now := time.Now()
	long := Key{Symbol: "AAPL", Timeframe: "5min", Side: "LONG"}
	short := Key{Symbol: "AAPL", Timeframe: "5min", Side: "SHORT"}
	if !tr.TryAcquire(long, now) || !tr.TryAcquire(short, now) {
		t.Fatalf("distinct sides must not share a cooldown")
	}
	if !tr.TryAcquire(Key{Symbol: "AAPL", Timeframe: "15min", Side: "LONG"}, now) {
		t.Fatalf("distinct timeframes must not share a cooldown")
	}
}

func TestDisabledAlwaysCold(t *testing.T) {
	tr := New(false, 4*time.Hour)
	key := Key{Symbol: "AAPL", Timeframe: "60min", Side: "LONG"}
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !tr.TryAcquire(key, now) {
			t.Fatalf("disabled tracker suppressed emission %d", i)
		}
	}
	if tr.IsHot(key, now) {
		t.Fatalf("disabled tracker must never be hot")
	}
}

func TestConcurrentAcquireEmitsOnce(t *testing.T) {
	tr := New(true, time.Hour)
	key := Key{Symbol: "TSLA", Timeframe: "15min", Side: "LONG"}
	now := time.Now()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.TryAcquire(key, now) {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one emission, got %d", wins)
	}
}

func TestPruneAndSnapshot(t *testing.T) {
	tr := New(true, time.Hour)
	now := time.Now()
	old := Key{Symbol: "OLD", Timeframe: "5min", Side: "LONG"}
	fresh := Key{Symbol: "NEW", Timeframe: "5min", Side: "LONG"}
	tr.TryAcquire(old, now.Add(-3*time.Hour))
	tr.TryAcquire(fresh, now)

	if n := tr.Prune(now, time.Hour); n != 1 {
		t.Fatalf("expected one pruned entry, got %d", n)
	}
	snap := tr.Snapshot()
	if len(snap) != 1 || snap[0].Key != fresh {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
