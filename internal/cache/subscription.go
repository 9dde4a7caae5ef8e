// subscription.go implements background polling per active view.
// Each subscription owns one timer; stopping it is guaranteed to halt the
// timer so view teardown cannot leak tickers.
package cache

import (
	"context"
	"sync"
	"time"
)

// Result is one polled outcome delivered to a subscriber.
type Result struct {
	Key   string
	Value any
	Err   error
}

// Subscription is a cancellable polling loop over a single cache key.
// Two views subscribing to the same key converge on shared state because
// the underlying reads are de-duplicated by the cache.
type Subscription struct {
	// C delivers one Result per completed poll. It is closed by Stop.
	C <-chan Result

	stop chan struct{}
	once sync.Once
}

// Stop halts the polling timer. No further fetches are scheduled; a
// fetch already in flight still completes into the shared cache but is
// not delivered on C. Safe to call more than once.
func (s *Subscription) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Subscribe polls key every interval, re-fetching regardless of view
// activity or TTL, and delivers each outcome on the returned
// subscription's channel. The first poll fires immediately. A failed
// poll delivers the error and keeps polling on schedule; there is no
// backoff because failures are expected to be transient and visible
// through the UI's own error surfacing.
func (c *Cache) Subscribe(key string, fetch FetchFunc, interval time.Duration, opts Options) *Subscription {
	out := make(chan Result, 1)
	sub := &Subscription{C: out, stop: make(chan struct{})}

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		poll := func() {
			val, err := c.Refresh(context.Background(), key, fetch, opts)
			select {
			case <-sub.stop:
				// Torn down while the fetch was in flight: the cache
				// already holds the result, but nothing is rendered.
				return
			default:
			}
			deliver(out, Result{Key: key, Value: val, Err: err})
		}

		poll()
		for {
			select {
			case <-sub.stop:
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	return sub
}

// deliver pushes r, displacing an undelivered older result so the
// channel always holds the latest outcome.
func deliver(out chan Result, r Result) {
	for {
		select {
		case out <- r:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
