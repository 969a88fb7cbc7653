package store

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/observability"
	"github.com/matzehuels/gridpage/pkg/page"
)

// ErrWriterClosed is returned by Submit after Close.
var ErrWriterClosed = stderrors.New("async writer closed")

// DefaultWriteTimeout bounds a single background Put.
const DefaultWriteTimeout = 10 * time.Second

// AsyncWriter persists page snapshots in the background.
//
// Submit never blocks on the store. Snapshots are coalesced per page: if a
// page is submitted again before its previous snapshot was written, only the
// newest one is written. A single goroutine performs all writes, in the
// order pages were first submitted.
type AsyncWriter struct {
	store   Store
	logger  *log.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string]*page.Document
	order    []string
	writing  bool
	inflight *page.Document
	closed   bool
	waiters  []chan struct{}
	errs     []error

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewAsyncWriter starts a writer for s. If logger is nil, log.Default is
// used.
func NewAsyncWriter(s Store, logger *log.Logger) *AsyncWriter {
	if logger == nil {
		logger = log.Default()
	}
	w := &AsyncWriter{
		store:   s,
		logger:  logger,
		timeout: DefaultWriteTimeout,
		pending: make(map[string]*page.Document),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues a snapshot of doc for writing. doc is cloned, so the caller
// may keep modifying it.
func (w *AsyncWriter) Submit(ctx context.Context, doc *page.Document) error {
	if err := checkPut(doc); err != nil {
		return err
	}
	snap := doc.Clone()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	_, queued := w.pending[snap.ID]
	w.pending[snap.ID] = snap
	if !queued {
		w.order = append(w.order, snap.ID)
	}
	w.mu.Unlock()

	if queued {
		observability.Store().OnWriteCoalesced(ctx, snap.ID)
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of pages waiting to be written.
func (w *AsyncWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

// Latest returns the newest snapshot of page id that has been submitted but
// not yet written, if any. Readers consult it before the store to see their
// own writes.
func (w *AsyncWriter) Latest(id string) (*page.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if doc, ok := w.pending[id]; ok {
		return doc.Clone(), true
	}
	if w.inflight != nil && w.inflight.ID == id {
		return w.inflight.Clone(), true
	}
	return nil, false
}

// Flush waits until every snapshot submitted before the call has been
// written, or ctx is done.
func (w *AsyncWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.idleLocked() {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes everything still pending, stops the background goroutine and
// returns the write errors seen since the writer started.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return stderrors.Join(w.errs...)
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain writes pending snapshots until the queue is empty.
func (w *AsyncWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.writing = false
			waiters := w.waiters
			w.waiters = nil
			w.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		id := w.order[0]
		w.order = w.order[1:]
		doc := w.pending[id]
		delete(w.pending, id)
		w.writing = true
		w.inflight = doc
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.store.Put(ctx, doc)
		cancel()

		w.mu.Lock()
		w.inflight = nil
		w.mu.Unlock()
		if err != nil {
			w.logger.Error("background page write failed", "page", id, "error", err)
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
			continue
		}
		w.logger.Debug("page written", "page", id, "blocks", len(doc.Blocks))
	}
}

func (w *AsyncWriter) idleLocked() bool {
	return len(w.order) == 0 && !w.writing
}
