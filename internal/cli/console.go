// console.go wires the shared plumbing every command needs: config,
// gateway client, durable session store, session manager, query cache,
// services, and the event log.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
	"github.com/pvlab-dev/pvlab/internal/config"
	"github.com/pvlab-dev/pvlab/internal/importer"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/session"
	"github.com/pvlab-dev/pvlab/internal/stats"
)

// console is the assembled application state shared by CLI commands and
// handed to the TUI.
type console struct {
	cfg      *config.Config
	client   *api.Client
	store    *session.Store
	sessions *session.Manager
	cache    *cache.Cache
	imports  *importer.Service
	stats    *stats.Service
	logger   *log.Logger
}

// newConsole builds the full wiring rooted at the user's home directory.
// A missing config file falls back to defaults; a broken credential store
// is fatal because silently dropping a persisted session would look like
// a spurious logout.
func newConsole() (*console, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	cfg, err := config.ReadConfig(home)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	logger, err := log.NewLogger(home)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.Server.BaseURL, time.Duration(cfg.Server.TimeoutSeconds)*time.Second)

	store, err := session.NewStore(config.DatabasePath(home))
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	sessions, err := session.NewManager(client, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	qc := cache.New()
	qc.OnRefreshError(func(key string, err error) {
		_ = logger.Append(log.LogEvent{
			Event: log.EventRefreshFailed,
			Key:   key,
			Error: err.Error(),
		})
	})

	return &console{
		cfg:      cfg,
		client:   client,
		store:    store,
		sessions: sessions,
		cache:    qc,
		imports:  importer.NewService(client, qc),
		stats:    stats.NewService(client, qc),
		logger:   logger,
	}, nil
}

// Close releases the durable store.
func (c *console) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// requireAuth fails fast when no session is active, so commands that hit
// protected endpoints give a clear instruction instead of a 401.
func (c *console) requireAuth() error {
	if !c.sessions.Authenticated() {
		return fmt.Errorf("not signed in; run: pvlab login")
	}
	return nil
}

// userMessage renders any error for the terminal, preferring the
// gateway's category-stable messages.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
