package push

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

// AsyncLogOptions controls batching of notification log writes.
type AsyncLogOptions struct {
	BufferSize     int           // Entries queued before WriteLog falls back to a synchronous write
	BatchSize      int           // Entries per batch insert
	BatchTimeout   time.Duration // Max time a partial batch waits
	StorageTimeout time.Duration // Per-batch storage timeout
}

// AsyncLogWriter collects log entries from concurrent dispatches and stores
// them in batches. WriteLog blocks until the batch holding the entry is
// stored, so a returned nil still means the entry is persisted.
type AsyncLogWriter struct {
	store   BatchLogWriter
	entries chan pendingEntry
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	opts    AsyncLogOptions
	logger  *slog.Logger
}

type pendingEntry struct {
	entry  LogEntry
	result chan error
}

// NewAsyncLogWriter starts the background batching goroutine. Call Close on shutdown.
func NewAsyncLogWriter(store BatchLogWriter, opts AsyncLogOptions, log *slog.Logger) *AsyncLogWriter {
	if store == nil {
		panic("push: batch log writer cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	w := &AsyncLogWriter{
		store:   store,
		entries: make(chan pendingEntry, opts.BufferSize),
		done:    make(chan struct{}),
		opts:    opts,
		logger:  log,
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

// WriteLog implements LogWriter.
func (w *AsyncLogWriter) WriteLog(ctx context.Context, entry LogEntry) error {
	result := make(chan error, 1)

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	select {
	case w.entries <- pendingEntry{entry: entry, result: result}:
		w.mu.RUnlock()
	default:
		w.mu.RUnlock()
		// buffer full: write through rather than drop the entry
		return w.store.WriteLogs(ctx, []LogEntry{entry})
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *AsyncLogWriter) worker() {
	defer w.wg.Done()

	batch := make([]LogEntry, 0, w.opts.BatchSize)
	waiting := make([]chan error, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// detached from caller contexts so one cancelled request cannot fail a shared batch
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		defer cancel()

		err := w.store.WriteLogs(ctx, batch)
		if err != nil {
			w.logger.LogAttrs(ctx, slog.LevelError, "Failed to store notification log batch",
				logger.Count("entries", len(batch)),
				logger.Error(err),
			)
		}
		for _, ch := range waiting {
			ch <- err
		}
		clear(batch)
		clear(waiting)
		batch = batch[:0]
		waiting = waiting[:0]
	}

	for {
		select {
		case p := <-w.entries:
			batch = append(batch, p.entry)
			waiting = append(waiting, p.result)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case p := <-w.entries:
					batch = append(batch, p.entry)
					waiting = append(waiting, p.result)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting entries and flushes what is queued. It is safe to
// call more than once.
func (w *AsyncLogWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
