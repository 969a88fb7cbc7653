package cli

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/api"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
	"github.com/matzehuels/gridpage/pkg/store"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	srv := api.NewServer(api.Options{
		Runner: pipeline.NewRunner(grid.Default(), nil, nil, logger),
		Store:  st,
		Logger: logger,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts.URL
}

func TestRemoteCommands(t *testing.T) {
	env := newTestEnv(t)
	url := newTestServer(t)
	status := captureUI(t)

	path := env.writePageFile(t, "home.json", page.VersionCurrent,
		block("a", "link", 1, 1, 3, 3),
		block("b", "link", 1, 5, 3, 3),
	)

	if _, err := env.run(t, "remote", "--server", url, "push", path); err != nil {
		t.Fatalf("push: %v", err)
	}

	out, err := env.run(t, "remote", "--server", url, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "home" {
		t.Errorf("list = %q, want home", out)
	}

	if _, err := env.run(t, "remote", "--server", url, "compact", "home"); err != nil {
		t.Fatalf("compact: %v", err)
	}

	out, err = env.run(t, "remote", "--server", url, "pull", "home", "-o", "-")
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	doc, err := page.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("decode pulled page: %v", err)
	}
	assertAt(t, doc, "a", 1, 1)
	assertAt(t, doc, "b", 1, 4)

	if _, err := env.run(t, "remote", "--server", url, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(status.String(), "version") {
		t.Errorf("status output missing version:\n%s", status.String())
	}

	if _, err := env.run(t, "remote", "--server", url, "delete", "home"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.run(t, "remote", "--server", url, "pull", "home", "-o", "-"); err == nil {
		t.Error("pull of a deleted page should fail")
	}
}

func TestRemoteServerFromEnv(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("GRIDPAGE_SERVER", newTestServer(t))
	captureUI(t)

	out, err := env.run(t, "remote", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "" {
		t.Errorf("list on an empty server = %q", out)
	}
}
