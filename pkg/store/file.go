package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/page"
)

const backendFile = "file"

// FileStore is a file-based page store.
// Pages are stored as indented JSON files named <id>.json in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based page store.
// If baseDir is empty, defaults to ~/.local/share/gridpage/pages/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "gridpage", "pages")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, storeErr(err, "create page dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) pagePath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (doc *page.Document, err error) {
	defer observe(ctx, backendFile, "get", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pagePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, storeErr(err, "read page %q", id)
	}
	return decode(id, data)
}

func (s *FileStore) Put(ctx context.Context, doc *page.Document) (err error) {
	defer observe(ctx, backendFile, "put", time.Now(), &err)
	if err := checkPut(doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := page.ExportJSON(doc, s.pagePath(doc.ID)); err != nil {
		return storeErr(err, "write page %q", doc.ID)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, backendFile, "delete", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pagePath(id)); err != nil && !os.IsNotExist(err) {
		return storeErr(err, "remove page %q", id)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) (ids []string, err error) {
	defer observe(ctx, backendFile, "list", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, storeErr(err, "read page dir")
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding page files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
