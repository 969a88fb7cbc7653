package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

func newTestRunner() *pipeline.Runner {
	return pipeline.NewRunner(grid.Default(), nil, nil, log.New(io.Discard))
}

func TestRepairPageFile(t *testing.T) {
	env := newTestEnv(t)
	runner := newTestRunner()
	ctx := context.Background()

	path := env.writePageFile(t, "home.json", page.VersionCurrent,
		block("a", page.KindImage, 1, 1, 3, 3),
		block("b", page.KindImage, 2, 2, 3, 3),
	)

	changed, err := repairPageFile(ctx, runner, path)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !changed {
		t.Error("overlapping page should be rewritten")
	}
	assertAt(t, readPageFile(t, path), "b", 4, 2)

	changed, err = repairPageFile(ctx, runner, path)
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if changed {
		t.Error("a repaired page should be left alone")
	}
}

func TestRepairPageFileLegacy(t *testing.T) {
	env := newTestEnv(t)
	path := env.writePageFile(t, "old.json", page.VersionLegacy,
		block("l", page.KindLink, 2, 1, 1, 1),
	)

	changed, err := repairPageFile(context.Background(), newTestRunner(), path)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !changed {
		t.Error("legacy page should be migrated")
	}
	doc := readPageFile(t, path)
	if doc.GridVersion != page.VersionCurrent {
		t.Errorf("GridVersion = %d, want %d", doc.GridVersion, page.VersionCurrent)
	}
	assertAt(t, doc, "l", 4, 1)
}

func TestRepairPageFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"id": "home", "blocks": [`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := repairPageFile(context.Background(), newTestRunner(), path); err == nil {
		t.Error("expected an error for a truncated file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"id": "home", "blocks": [` {
		t.Error("unreadable file was modified")
	}
}

func TestLayoutChanged(t *testing.T) {
	base := &page.Document{GridVersion: page.VersionCurrent, Blocks: []grid.Block{
		block("a", "link", 1, 1, 3, 1),
		block("b", "link", 4, 1, 3, 1),
	}}

	tests := []struct {
		name   string
		modify func(d *page.Document)
		want   bool
	}{
		{"identical", func(d *page.Document) {}, false},
		{"title only", func(d *page.Document) { d.Title = "Home" }, false},
		{"version", func(d *page.Document) { d.GridVersion = page.VersionUnknown }, true},
		{"moved", func(d *page.Document) { d.Blocks[1].Row = 2 }, true},
		{"resized", func(d *page.Document) { d.Blocks[0].RowSpan = 2 }, true},
		{"removed", func(d *page.Document) { d.Blocks = d.Blocks[:1] }, true},
		{"reordered", func(d *page.Document) { d.Blocks[0], d.Blocks[1] = d.Blocks[1], d.Blocks[0] }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.Clone()
			tt.modify(other)
			if got := layoutChanged(base, other); got != tt.want {
				t.Errorf("layoutChanged = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageWatcherRun(t *testing.T) {
	env := newTestEnv(t)
	clean := env.writePageFile(t, "clean.json", page.VersionCurrent,
		block("a", page.KindLink, 1, 1, 3, 1),
	)
	dirty := env.writePageFile(t, "dirty.json", page.VersionCurrent,
		block("a", page.KindImage, 1, 1, 3, 3),
		block("b", page.KindImage, 1, 1, 3, 3),
	)

	w, err := newPageWatcher(newTestRunner(), log.New(io.Discard), []string{clean, dirty})
	if err != nil {
		t.Fatalf("newPageWatcher: %v", err)
	}
	w.repairs = make(chan string, 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run did not stop after cancel")
		}
	}()

	// Every file is repaired once on start.
	waitForRepair(t, w.repairs, func() bool {
		_, conflicts := conflictCount(t, dirty)
		return conflicts == 0
	})

	// A later write is picked up and repaired.
	overlapping := &page.Document{ID: "clean", GridVersion: page.VersionCurrent, Blocks: []grid.Block{
		block("a", page.KindLink, 1, 1, 3, 1),
		block("b", page.KindLink, 2, 1, 3, 1),
	}}
	if err := page.ExportJSON(overlapping, clean); err != nil {
		t.Fatal(err)
	}
	waitForRepair(t, w.repairs, func() bool {
		n, conflicts := conflictCount(t, clean)
		return n == 2 && conflicts == 0
	})
}

// waitForRepair drains repair notifications until done reports true.
func waitForRepair(t *testing.T, repairs <-chan string, done func() bool) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case <-repairs:
			if done() {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for repair")
		}
	}
}

func conflictCount(t *testing.T, path string) (blocks, conflicts int) {
	t.Helper()
	doc, err := page.ImportJSON(path)
	if err != nil {
		// Caught mid-write; report as not yet repaired.
		return 0, 1
	}
	return len(doc.Blocks), len(grid.Default().Conflicts(doc.Blocks))
}
