package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingFetch returns a FetchFunc that returns val and counts calls.
func countingFetch(val any, calls *atomic.Int64) FetchFunc {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return val, nil
	}
}

func TestReadFreshValueSkipsFetch(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := countingFetch("v1", &calls)

	v, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != "v1" {
		t.Fatalf("value = %v, want v1", v)
	}

	// A second read within the TTL must not fetch again.
	if _, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Minute}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch ran %d times, want 1", n)
	}
}

func TestReadStaleServesOldValueAndRefreshes(t *testing.T) {
	c := New()
	var calls atomic.Int64
	done := make(chan struct{}, 1)

	fetch := func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if n > 1 {
			defer func() { done <- struct{}{} }()
			return "v2", nil
		}
		return "v1", nil
	}

	if _, err := c.Read(context.Background(), "k", fetch, Options{TTL: 10 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond) // let the value go stale

	// The stale value comes back immediately; the refresh runs behind.
	v, err := c.Read(context.Background(), "k", fetch, Options{TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if v != "v1" {
		t.Errorf("stale read = %v, want the previous value v1", v)
	}

	<-done
	// Give the apply step a moment after the fetch returned.
	waitFor(t, func() bool {
		v, ok := c.Peek("k")
		return ok && v == "v2"
	})
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c := New()
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]any, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Read(context.Background(), "k", fetch, Options{})
			if err != nil {
				t.Errorf("reader %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	// Let every reader attach to the flight, then release it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch ran %d times for %d concurrent readers, want 1", n, readers)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("reader %d got %v, want shared", i, v)
		}
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		return fmt.Sprintf("v%d", calls.Add(1)), nil
	}

	if v, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Hour}); err != nil || v != "v1" {
		t.Fatalf("initial read = %v, %v", v, err)
	}
	c.Invalidate("k")

	// Invalidation beats the unexpired TTL: the next read blocks for a
	// re-fetch and must not hand back the pre-invalidation value.
	v, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if v != "v2" {
		t.Errorf("read after invalidate = %v, want the re-fetched v2", v)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch ran %d times, want 2", n)
	}
}

func TestInvalidatedReadFailsRatherThanServingOldValue(t *testing.T) {
	c := New()
	boom := errors.New("backend down")
	calls := 0

	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return "good", nil
	}

	if _, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Hour}); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("k")

	// With the re-fetch failing there is nothing servable: the old
	// value would predate the invalidation, so the error comes back.
	if _, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Hour}); !errors.Is(err, boom) {
		t.Fatalf("read after invalidate = %v, want %v", err, boom)
	}
}

func TestInvalidationDiscardsInFlightResponse(t *testing.T) {
	c := New()
	release := make(chan struct{})

	slowFetch := func(ctx context.Context) (any, error) {
		<-release
		return "pre-invalidation", nil
	}

	// Start a cold read that blocks in the fetch.
	got := make(chan any, 1)
	go func() {
		v, _ := c.Read(context.Background(), "k", slowFetch, Options{})
		got <- v
	}()

	// Wait until the flight is registered, then invalidate past it.
	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries["k"]
		return ok && e.inflight != nil
	})
	c.Invalidate("k")
	close(release)

	// The waiter still receives the outcome of its own request.
	if v := <-got; v != "pre-invalidation" {
		t.Errorf("waiter got %v, want its flight's result", v)
	}

	// But the cache refuses to apply a response issued before the
	// invalidation.
	time.Sleep(20 * time.Millisecond)
	if v, ok := c.Peek("k"); ok {
		t.Errorf("stale response %v was applied after invalidation", v)
	}
}

func TestLateResponseNeverClobbersNewerOne(t *testing.T) {
	c := New()
	releaseFirst := make(chan struct{})

	first := func(ctx context.Context) (any, error) {
		<-releaseFirst
		return "old", nil
	}
	second := func(ctx context.Context) (any, error) {
		return "new", nil
	}

	// First fetch hangs in flight.
	go func() { _, _ = c.Read(context.Background(), "k", first, Options{}) }()
	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries["k"]
		return ok && e.inflight != nil
	})

	// Invalidate detaches it; a second fetch is issued and applied.
	c.Invalidate("k")
	if v, err := c.Read(context.Background(), "k", second, Options{}); err != nil || v != "new" {
		t.Fatalf("second read = %v, %v", v, err)
	}

	// The slow first response finally lands and must be dropped.
	close(releaseFirst)
	time.Sleep(20 * time.Millisecond)
	if v, _ := c.Peek("k"); v != "new" {
		t.Errorf("cache holds %v, want the newer response to win", v)
	}
}

func TestRefreshForcesFetchAndSharesFlight(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := countingFetch("v", &calls)

	if _, err := c.Read(context.Background(), "k", fetch, Options{TTL: time.Hour}); err != nil {
		t.Fatal(err)
	}

	// Refresh re-fetches despite freshness.
	if _, err := c.Refresh(context.Background(), "k", fetch, Options{TTL: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch ran %d times, want 2", n)
	}
}

func TestFailedRefreshKeepsOldValue(t *testing.T) {
	c := New()
	boom := errors.New("backend down")
	calls := 0

	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return "good", nil
	}

	if _, err := c.Read(context.Background(), "k", fetch, Options{}); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Refresh(context.Background(), "k", fetch, Options{}); !errors.Is(err, boom) {
		t.Fatalf("refresh error = %v, want %v", err, boom)
	}

	if v, ok := c.Peek("k"); !ok || v != "good" {
		t.Errorf("cached value = %v (ok=%v), want the pre-failure value", v, ok)
	}
}

func TestRefreshErrorObserver(t *testing.T) {
	c := New()
	boom := errors.New("poll failed")

	var mu sync.Mutex
	var observed []string
	c.OnRefreshError(func(key string, err error) {
		mu.Lock()
		observed = append(observed, key)
		mu.Unlock()
	})

	fetch := func(ctx context.Context) (any, error) { return nil, boom }
	if _, err := c.Refresh(context.Background(), "k", fetch, Options{}); !errors.Is(err, boom) {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 1 && observed[0] == "k"
	})
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := countingFetch("v", &calls)

	keys := []string{"records?limit=10", "records?limit=20", "devices"}
	for _, k := range keys {
		if _, err := c.Read(context.Background(), k, fetch, Options{TTL: time.Hour}); err != nil {
			t.Fatal(err)
		}
	}

	c.InvalidatePrefix("records")

	// Both record listings re-fetch; the devices key stays fresh.
	for _, k := range keys {
		if _, err := c.Read(context.Background(), k, fetch, Options{TTL: time.Hour}); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() == 5 })
}

func TestWaitAbandonsOnContextCancel(t *testing.T) {
	c := New()
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := c.Read(ctx, "k", fetch, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("read error = %v, want context.Canceled", err)
	}

	// The abandoned fetch still completes into the cache.
	close(release)
	waitFor(t, func() bool {
		v, ok := c.Peek("k")
		return ok && v == "late"
	})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
