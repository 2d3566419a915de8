package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockforge/mockforge/pkg/logging"
)

// Recorder queues exchanges for async persistence and runs the
// background writer and retention goroutines.
type Recorder struct {
	cfg   Config
	store *Store
	log   *slog.Logger

	mu    sync.Mutex
	queue []Exchange

	notify chan struct{}
	stats  Stats

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New opens the store at cfg.DBPath and starts the background writer.
// If cfg.Enabled is false, Record is a no-op and no store is opened.
func New(cfg Config) (*Recorder, error) {
	r := &Recorder{
		cfg:    cfg,
		log:    logging.Nop(),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if !cfg.Enabled {
		close(r.done)
		return r, nil
	}
	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	r.store = store
	if r.cfg.QueueCapacity <= 0 {
		r.cfg.QueueCapacity = 1024
	}
	if len(r.cfg.FilterHeaders) == 0 {
		r.cfg.FilterHeaders = DefaultFilterHeaders
	}
	go r.writeLoop()
	go r.retentionLoop()
	return r, nil
}

// SetLogger overrides the recorder's logger.
func (r *Recorder) SetLogger(log *slog.Logger) { r.log = log }

// Record enqueues an exchange without blocking the caller. Sensitive
// headers are redacted before the exchange ever reaches the queue.
func (r *Recorder) Record(ex Exchange) {
	if !r.cfg.Enabled {
		return
	}
	redactHeaders(ex.Request.Headers, r.cfg.FilterHeaders)
	redactHeaders(ex.Response.Headers, r.cfg.FilterHeaders)

	r.mu.Lock()
	if len(r.queue) >= r.cfg.QueueCapacity {
		if r.cfg.DropOnOverflow {
			r.queue = r.queue[1:]
			atomic.AddInt64(&r.stats.Dropped, 1)
		} else {
			r.mu.Unlock()
			atomic.AddInt64(&r.stats.Dropped, 1)
			return
		}
	}
	r.queue = append(r.queue, ex)
	atomic.AddInt64(&r.stats.Queued, 1)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Stats returns a point-in-time snapshot of queue health.
func (r *Recorder) Stats() Stats {
	return Stats{
		Queued:  atomic.LoadInt64(&r.stats.Queued),
		Written: atomic.LoadInt64(&r.stats.Written),
		Dropped: atomic.LoadInt64(&r.stats.Dropped),
	}
}

// Store exposes the underlying SQLite store for read paths (replay
// lookups, stub conversion). Returns nil when the recorder is disabled.
func (r *Recorder) Store() *Store { return r.store }

func (r *Recorder) writeLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			r.drain()
			return
		case <-r.notify:
			r.drain()
		}
	}
}

func (r *Recorder) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		ex := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		if err := r.store.InsertRequest(ex.Request); err != nil {
			r.log.Warn("recorder: failed to persist request", "error", err, "id", ex.Request.ID)
			continue
		}
		if err := r.store.InsertResponse(ex.Response); err != nil {
			r.log.Warn("recorder: failed to persist response", "error", err, "id", ex.Request.ID)
			continue
		}
		atomic.AddInt64(&r.stats.Written, 1)
	}
}

func (r *Recorder) retentionLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.enforceRetention()
		}
	}
}

func (r *Recorder) enforceRetention() {
	if r.cfg.RetentionDays > 0 {
		if n, err := r.store.DeleteOlderThan(time.Duration(r.cfg.RetentionDays) * 24 * time.Hour); err != nil {
			r.log.Warn("recorder: age-based retention failed", "error", err)
		} else if n > 0 {
			r.log.Info("recorder: age-based retention removed rows", "count", n)
		}
	}
	if r.cfg.MaxRows > 0 {
		if n, err := r.store.EnforceMaxRows(r.cfg.MaxRows); err != nil {
			r.log.Warn("recorder: max-rows retention failed", "error", err)
		} else if n > 0 {
			r.log.Info("recorder: max-rows retention removed rows", "count", n)
		}
	}
}

// Close stops the background goroutines, flushes any queued exchanges,
// and closes the store.
func (r *Recorder) Close(ctx context.Context) error {
	if !r.cfg.Enabled {
		return nil
	}
	r.stopOnce.Do(func() { close(r.stop) })
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.store.Close()
}

func redactHeaders(headers map[string][]string, filtered []string) {
	for _, name := range filtered {
		for key := range headers {
			if equalFold(key, name) {
				headers[key] = []string{RedactedValue}
			}
		}
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
