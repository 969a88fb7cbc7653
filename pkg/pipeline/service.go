package pipeline

import (
	"context"
	"sync"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/store"
)

// Service applies mutations to pages held in a store.
//
// Mutations of one page are serialized. Results are handed to an
// AsyncWriter, and reads consult the writer first so callers always see
// their own writes even before they reach the store.
type Service struct {
	Runner *Runner
	Store  store.Store
	Writer *store.AsyncWriter

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a service. The service owns w and stops it in Close.
// If w is nil, a new AsyncWriter on st is used.
func NewService(r *Runner, st store.Store, w *store.AsyncWriter) *Service {
	if w == nil {
		w = store.NewAsyncWriter(st, r.Logger)
	}
	return &Service{
		Runner: r,
		Store:  st,
		Writer: w,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) lock(id string) func() {
	s.mu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Load returns the newest version of a page.
func (s *Service) Load(ctx context.Context, id string) (*page.Document, error) {
	if err := errors.ValidatePageID(id); err != nil {
		return nil, err
	}
	if doc, ok := s.Writer.Latest(id); ok {
		return doc, nil
	}
	return s.Store.Get(ctx, id)
}

// List returns the ids of all pages, including pages not yet written.
func (s *Service) List(ctx context.Context) ([]string, error) {
	if err := s.Writer.Flush(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "flush pending writes")
	}
	return s.Store.List(ctx)
}

// Mutate loads page id, applies m and queues the result for writing.
func (s *Service) Mutate(ctx context.Context, id string, m Mutation) (*Result, error) {
	unlock := s.lock(id)
	defer unlock()

	doc, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.Runner.Apply(ctx, doc, m)
	if err != nil {
		return nil, err
	}
	if err := s.Writer.Submit(ctx, res.Document); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "queue page write")
	}
	return res, nil
}

// Import repairs doc and stores it, replacing any page with the same id. The
// write is flushed before Import returns.
func (s *Service) Import(ctx context.Context, doc *page.Document) (*Result, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is nil")
	}
	if err := errors.ValidatePageID(doc.ID); err != nil {
		return nil, err
	}
	unlock := s.lock(doc.ID)
	defer unlock()

	res, err := s.Runner.Apply(ctx, doc, Import{})
	if err != nil {
		return nil, err
	}
	res.Document.Touch()
	if err := s.Writer.Submit(ctx, res.Document); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "queue page write")
	}
	if err := s.Writer.Flush(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "flush page write")
	}
	return res, nil
}

// Delete removes page id. Pending writes are flushed first so a queued
// snapshot cannot recreate the page.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := errors.ValidatePageID(id); err != nil {
		return err
	}
	unlock := s.lock(id)
	defer unlock()

	if err := s.Writer.Flush(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "flush pending writes")
	}
	return s.Store.Delete(ctx, id)
}

// Flush waits for queued writes.
func (s *Service) Flush(ctx context.Context) error {
	return s.Writer.Flush(ctx)
}

// Close writes everything still queued and stops the writer.
func (s *Service) Close() error {
	return s.Writer.Close()
}
