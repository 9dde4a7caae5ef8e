package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubscribePollsImmediatelyAndOnTicks(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	sub := c.Subscribe("k", fetch, 20*time.Millisecond, Options{})
	defer sub.Stop()

	// The first poll fires without waiting for the interval.
	select {
	case r := <-sub.C:
		if r.Err != nil || r.Key != "k" {
			t.Fatalf("first poll = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate first poll")
	}

	// Subsequent ticks keep delivering.
	select {
	case r := <-sub.C:
		if r.Err != nil {
			t.Fatalf("second poll: %v", r.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("no poll on tick")
	}

	if calls.Load() < 2 {
		t.Errorf("fetch ran %d times, want at least 2", calls.Load())
	}
}

func TestSubscribeDeliversErrorsAndKeepsPolling(t *testing.T) {
	c := New()
	boom := errors.New("backend down")
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	sub := c.Subscribe("k", fetch, 20*time.Millisecond, Options{})
	defer sub.Stop()

	r := <-sub.C
	if !errors.Is(r.Err, boom) {
		t.Fatalf("first poll err = %v, want %v", r.Err, boom)
	}

	// The failure does not stop the loop; a later poll recovers.
	deadline := time.After(time.Second)
	for {
		select {
		case r := <-sub.C:
			if r.Err == nil && r.Value == "recovered" {
				return
			}
		case <-deadline:
			t.Fatal("never recovered after failed poll")
		}
	}
}

func TestStopHaltsPolling(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	sub := c.Subscribe("k", fetch, 10*time.Millisecond, Options{})
	<-sub.C
	sub.Stop()

	// Drain until the channel closes; Stop is also safe to repeat.
	for range sub.C {
	}
	sub.Stop()

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != n {
		t.Errorf("fetch ran %d more times after Stop", got-n)
	}
}

func TestStopSuppressesInFlightDelivery(t *testing.T) {
	c := New()
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	sub := c.Subscribe("k", fetch, time.Minute, Options{})

	// Stop while the first poll is still blocked in the fetch.
	time.Sleep(10 * time.Millisecond)
	sub.Stop()
	close(release)

	// The channel closes without ever delivering the late result.
	select {
	case r, ok := <-sub.C:
		if ok {
			t.Fatalf("received %+v after Stop", r)
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}

	// The result still landed in the shared cache.
	waitFor(t, func() bool {
		v, ok := c.Peek("k")
		return ok && v == "late"
	})
}

func TestSubscriptionKeepsLatestResult(t *testing.T) {
	c := New()
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	sub := c.Subscribe("k", fetch, 10*time.Millisecond, Options{})
	defer sub.Stop()

	// Let several polls complete without reading; undelivered results
	// are displaced rather than blocking the loop.
	waitFor(t, func() bool { return calls.Load() >= 4 })

	r := <-sub.C
	seq, ok := r.Value.(int64)
	if !ok {
		t.Fatalf("value = %T(%v)", r.Value, r.Value)
	}
	if seq < 2 {
		t.Errorf("delivered poll #%d, want a displaced-forward recent one", seq)
	}
}
