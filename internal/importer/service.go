// service.go drives imports through the query cache: uploads invalidate
// the job list, retries gate on the backend-reported status, and watching
// a job is a polling subscription that ends at a terminal state.
package importer

import (
	"context"
	"time"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
)

// ListKey is the cache key for the import job list.
const ListKey = "imports"

// DefaultPollInterval is the fallback cadence for job polling.
const DefaultPollInterval = 5 * time.Second

// listTTL keeps list reads snappy between polls without hammering the
// backend on every keystroke.
const listTTL = 30 * time.Second

// Service coordinates the gateway and the query cache for import jobs.
type Service struct {
	client *api.Client
	cache  *cache.Cache
}

// NewService creates an import Service.
func NewService(client *api.Client, c *cache.Cache) *Service {
	return &Service{client: client, cache: c}
}

// List returns the job history through the cache.
func (s *Service) List(ctx context.Context) ([]api.ImportJob, error) {
	v, err := s.cache.Read(ctx, ListKey, s.fetchList, cache.Options{TTL: listTTL})
	if err != nil {
		return nil, err
	}
	return v.([]api.ImportJob), nil
}

// Upload submits a spreadsheet and invalidates the job list so the next
// read shows the accepted job (status pending).
func (s *Service) Upload(ctx context.Context, path string) (*api.ImportJob, error) {
	job, err := s.client.UploadExcel(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ListKey)
	return job, nil
}

// Retry restarts a failed or partial job. Any other status is rejected
// with ErrNotRetryable before anything reaches the backend. On success
// the job list is invalidated so the next poll reflects the restart.
func (s *Service) Retry(ctx context.Context, id string) error {
	jobs, err := s.List(ctx)
	if err != nil {
		return err
	}

	var found *api.ImportJob
	for i := range jobs {
		if jobs[i].ID == id {
			found = &jobs[i]
			break
		}
	}
	if found == nil || !CanRetry(found.Status) {
		return ErrNotRetryable
	}

	if _, err := s.client.RetryImport(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ListKey)
	return nil
}

// WatchList polls the whole job list on the given interval (0 means
// DefaultPollInterval) until the subscription is stopped. The imports
// screen uses it to keep every visible job current.
func (s *Service) WatchList(interval time.Duration) *cache.Subscription {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return s.cache.Subscribe(ListKey, s.fetchList, interval, cache.Options{TTL: listTTL})
}

// Watcher follows one job through the backend's state machine.
type Watcher struct {
	// Updates delivers the job each time a poll observes it, and is
	// closed after a terminal status is delivered (or after Stop).
	Updates <-chan api.ImportJob

	sub *cache.Subscription
}

// Stop halts the watcher's polling. Idempotent.
func (w *Watcher) Stop() {
	w.sub.Stop()
}

// Watch polls the job list on the given interval (0 means
// DefaultPollInterval) until the identified job reaches a terminal
// status. Poll failures are skipped, not fatal: the next tick retries.
func (s *Service) Watch(id string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	sub := s.cache.Subscribe(ListKey, s.fetchList, interval, cache.Options{TTL: listTTL})
	out := make(chan api.ImportJob, 1)

	go func() {
		defer close(out)
		for res := range sub.C {
			if res.Err != nil {
				continue
			}
			jobs, ok := res.Value.([]api.ImportJob)
			if !ok {
				continue
			}
			for i := range jobs {
				if jobs[i].ID != id {
					continue
				}
				select {
				case out <- jobs[i]:
				default:
					// Displace the undelivered older state.
					select {
					case <-out:
					default:
					}
					out <- jobs[i]
				}
				if IsTerminal(jobs[i].Status) {
					sub.Stop()
					return
				}
				break
			}
		}
	}()

	return &Watcher{Updates: out, sub: sub}
}

func (s *Service) fetchList(ctx context.Context) (any, error) {
	jobs, err := s.client.ListImports(ctx)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
