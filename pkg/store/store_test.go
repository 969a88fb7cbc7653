package store

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/gridpage/pkg/config"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
)

func testPage(id string) *page.Document {
	d := page.New(id, "Page "+id)
	d.Blocks = []grid.Block{
		{ID: "a", Kind: page.KindText, Column: 1, Row: 1, ColSpan: 3, RowSpan: 2},
		{ID: "b", Kind: page.KindLink, Column: 4, Row: 1, ColSpan: 3, RowSpan: 1,
			Payload: page.Fields{"url": []byte(`"https://example.com"`)}},
	}
	return d
}

// testStore exercises the Store contract against s.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "home"); !IsNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want not found", err)
	}
	if _, err := s.Get(ctx, "home"); !errors.Is(err, errors.ErrCodePageNotFound) {
		t.Errorf("Get(missing) code = %s, want PAGE_NOT_FOUND", errors.GetCode(err))
	}

	for _, id := range []string{"home", "about"} {
		if err := s.Put(ctx, testPage(id)); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	got, err := s.Get(ctx, "home")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Page home" || len(got.Blocks) != 2 {
		t.Errorf("Get() = %+v", got)
	}
	if b, ok := got.Block("b"); !ok || string(page.BlockFields(b)["url"]) != `"https://example.com"` {
		t.Errorf("payload not preserved: %+v", b)
	}

	updated := testPage("home")
	updated.Blocks = updated.Blocks[:1]
	if err := s.Put(ctx, updated); err != nil {
		t.Fatalf("Put(update) error = %v", err)
	}
	if got, _ := s.Get(ctx, "home"); len(got.Blocks) != 1 {
		t.Errorf("after update got %d blocks, want 1", len(got.Blocks))
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !slices.Equal(ids, []string{"about", "home"}) {
		t.Errorf("List() = %v, want [about home]", ids)
	}

	if err := s.Delete(ctx, "home"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "home"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if _, err := s.Get(ctx, "home"); !IsNotFound(err) {
		t.Errorf("Get(deleted) error = %v", err)
	}

	if err := s.Put(ctx, page.New("../etc", "")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Put(bad id) error = %v, want INVALID_INPUT", err)
	}
	if err := s.Put(ctx, nil); err == nil {
		t.Error("Put(nil) succeeded")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", ".gridpage-123.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	ids, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("List() = %v, want empty", ids)
	}
}

func TestFileStoreCorruptPage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "bad"); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("Get(corrupt) error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "pages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testPage("home")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, "home"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("GRIDPAGE_TEST_REDIS")
	if addr == "" {
		t.Skip("GRIDPAGE_TEST_REDIS not set")
	}
	ctx := context.Background()
	s, err := DialRedisStore(ctx, addr, "", 15)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("GRIDPAGE_TEST_MONGO")
	if uri == "" {
		t.Skip("GRIDPAGE_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := DialMongoStore(ctx, uri, "gridpage_test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.coll.Drop(ctx); err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.Store
		wantErr bool
	}{
		{"file", config.Store{Backend: config.BackendFile, Dir: filepath.Join(dir, "pages")}, false},
		{"default backend", config.Store{Dir: filepath.Join(dir, "pages2")}, false},
		{"sqlite", config.Store{Backend: config.BackendSQLite, DSN: filepath.Join(dir, "pages.db")}, false},
		{"sqlite without dsn", config.Store{Backend: config.BackendSQLite}, true},
		{"mongo without uri", config.Store{Backend: config.BackendMongo}, true},
		{"unknown", config.Store{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
