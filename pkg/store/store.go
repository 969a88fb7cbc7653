// Package store persists page documents.
//
// Four backends implement the same Store interface:
//   - file: one JSON file per page, for the CLI and single-user setups
//   - sqlite: a single database file (modernc.org/sqlite, no cgo)
//   - redis: shared storage for multi-instance API deployments
//   - mongo: document storage for deployments that already run MongoDB
//
// Open selects a backend from configuration. Writes from interactive
// callers go through an AsyncWriter so that persistence never blocks the
// editing loop.
package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/matzehuels/gridpage/pkg/config"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/observability"
	"github.com/matzehuels/gridpage/pkg/page"
)

// ErrNotFound is returned (wrapped) when a page does not exist. The wrapping
// error carries errors.ErrCodePageNotFound.
var ErrNotFound = stderrors.New("page not found")

// Store is the interface for page storage backends.
type Store interface {
	// Get loads a page by id. Missing pages yield an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, id string) (*page.Document, error)

	// Put creates or replaces a page.
	Put(ctx context.Context, doc *page.Document) error

	// Delete removes a page. Deleting a missing page is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all page ids in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DSN)
	case config.BackendRedis:
		return DialRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB)
	case config.BackendMongo:
		return DialMongoStore(ctx, cfg.URI, cfg.Database)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
}

// IsNotFound reports whether err means the page does not exist.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodePageNotFound, ErrNotFound, "page %q", id)
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}

// checkPut validates a document before it is written.
func checkPut(doc *page.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "document is nil")
	}
	if err := errors.ValidatePageID(doc.ID); err != nil {
		return err
	}
	return page.Validate(doc)
}

// observe reports one store call to the registered hooks. It is deferred
// with a pointer to the named error result so the final error is seen.
func observe(ctx context.Context, backend, op string, start time.Time, errp *error) {
	observability.Store().OnStoreOp(ctx, backend, op, time.Since(start), *errp)
}

func decode(id string, data []byte) (*page.Document, error) {
	doc, err := page.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode page %q", id)
	}
	return doc, nil
}

func encode(doc *page.Document) ([]byte, error) {
	data, err := page.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode page %q: %w", doc.ID, err)
	}
	return data, nil
}
