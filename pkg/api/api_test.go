package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/httputil"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
	"github.com/matzehuels/gridpage/pkg/store"
)

type testEnv struct {
	srv    *Server
	store  *store.FileStore
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	srv := NewServer(Options{
		Runner: pipeline.NewRunner(grid.Default(), nil, nil, logger),
		Store:  st,
		Logger: logger,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, store: st, server: ts}
}

func (env *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, env.server.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func blockPositions(blocks []grid.Block) map[string]grid.Cell {
	out := make(map[string]grid.Cell, len(blocks))
	for _, b := range blocks {
		out[b.ID] = b.Position()
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[healthResponse](t, resp)
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("body = %+v", body)
	}
	if !strings.HasPrefix(resp.Header.Get("Server"), "gridpage/") {
		t.Errorf("Server header = %q", resp.Header.Get("Server"))
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name string
		op   string
		body string
		want map[string]grid.Cell
	}{
		{
			name: "normalize places unplaced blocks",
			op:   "normalize",
			body: `{"blocks":[{"id":"a","kind":"text","gridColumn":1,"gridRow":1,"colSpan":3,"rowSpan":3},{"id":"b","kind":"text","colSpan":3,"rowSpan":3}]}`,
			want: map[string]grid.Cell{"a": {Col: 1, Row: 1}, "b": {Col: 4, Row: 1}},
		},
		{
			name: "resolve relocates later block",
			op:   "resolve",
			body: `{"blocks":[{"id":"a","kind":"text","gridColumn":1,"gridRow":1,"colSpan":3,"rowSpan":3},{"id":"b","kind":"text","gridColumn":2,"gridRow":2,"colSpan":3,"rowSpan":3}]}`,
			want: map[string]grid.Cell{"a": {Col: 1, Row: 1}, "b": {Col: 4, Row: 2}},
		},
		{
			name: "resolve clamps out of bounds blocks",
			op:   "resolve",
			body: `{"blocks":[{"id":"a","kind":"text","gridColumn":12,"gridRow":1,"colSpan":3,"rowSpan":1},{"id":"b","kind":"text","gridColumn":1,"gridRow":1,"colSpan":3,"rowSpan":1}]}`,
			want: map[string]grid.Cell{"a": {Col: 9, Row: 1}, "b": {Col: 1, Row: 1}},
		},
		{
			name: "reflow packs",
			op:   "reflow",
			body: `{"blocks":[{"id":"a","kind":"text","gridColumn":4,"gridRow":6,"colSpan":3,"rowSpan":1}]}`,
			want: map[string]grid.Cell{"a": {Col: 1, Row: 1}},
		},
		{
			name: "migrate from legacy grid",
			op:   "migrate",
			body: `{"blocks":[{"id":"a","kind":"text","gridColumn":2,"gridRow":1,"colSpan":1,"rowSpan":1}]}`,
			want: map[string]grid.Cell{"a": {Col: 4, Row: 1}},
		},
		{
			name: "columns override",
			op:   "normalize",
			body: `{"columns":3,"blocks":[{"id":"a","kind":"text","gridColumn":1,"gridRow":1,"colSpan":3,"rowSpan":1},{"id":"b","kind":"text","colSpan":3,"rowSpan":1}]}`,
			want: map[string]grid.Cell{"a": {Col: 1, Row: 1}, "b": {Col: 1, Row: 2}},
		},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/v1/layout/"+tt.op, tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			got := blockPositions(decodeBody[LayoutResponse](t, resp).Blocks)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("block %s at %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestLayoutResize(t *testing.T) {
	env := newTestEnv(t)
	body := `{"id":"a","colSpan":9,"rowSpan":1,"blocks":[
		{"id":"a","kind":"text","gridColumn":1,"gridRow":1,"colSpan":3,"rowSpan":1},
		{"id":"b","kind":"text","gridColumn":4,"gridRow":1,"colSpan":6,"rowSpan":1}]}`
	resp := env.do(t, http.MethodPost, "/v1/layout/resize", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := blockPositions(decodeBody[LayoutResponse](t, resp).Blocks)
	if got["b"] != (grid.Cell{Col: 1, Row: 2}) {
		t.Errorf("b at %v, want (1,2)", got["b"])
	}
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown op", "/v1/layout/shuffle", `{"blocks":[]}`, 501, errors.ErrCodeUnsupported},
		{"malformed", "/v1/layout/normalize", `{"blocks":`, 400, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/layout/normalize", `{"blocks":[],"zoom":2}`, 400, errors.ErrCodeInvalidInput},
		{"duplicate ids", "/v1/layout/normalize", `{"blocks":[{"id":"a","kind":"text"},{"id":"a","kind":"text"}]}`, 400, errors.ErrCodeInvalidBlock},
		{"bad columns", "/v1/layout/reflow", `{"columns":99,"blocks":[]}`, 400, errors.ErrCodeInvalidInput},
		{"resize without id", "/v1/layout/resize", `{"blocks":[],"colSpan":1,"rowSpan":1}`, 400, errors.ErrCodeInvalidBlock},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeBody[httputil.ErrorBody](t, resp); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestPageLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/pages/home", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET missing status = %d", resp.StatusCode)
	}
	if body := decodeBody[httputil.ErrorBody](t, resp); body.Code != errors.ErrCodePageNotFound {
		t.Errorf("code = %s", body.Code)
	}

	// Legacy document with overlapping blocks is repaired on import.
	put := `{"title":"Home","gridVersion":1,"blocks":[
		{"id":"a","kind":"text","gridColumn":1,"gridRow":1,"colSpan":1,"rowSpan":1},
		{"id":"b","kind":"link","gridColumn":1,"gridRow":1,"colSpan":1,"rowSpan":1,"url":"https://example.com"}]}`
	resp = env.do(t, http.MethodPut, "/v1/pages/home", put)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	res := decodeBody[pipeline.Result](t, resp)
	if !res.Stats.Migrated || res.Document.GridVersion != page.VersionCurrent {
		t.Errorf("PUT result = %+v", res.Stats)
	}
	if got := blockPositions(res.Document.Blocks); got["b"] != (grid.Cell{Col: 4, Row: 1}) {
		t.Errorf("b at %v, want (4,1)", got["b"])
	}

	// PUT is flushed: the store has the page.
	stored, err := env.store.Get(context.Background(), "home")
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if b, _ := stored.Block("b"); string(page.BlockFields(b)["url"]) != `"https://example.com"` {
		t.Errorf("payload lost: %+v", b)
	}

	resp = env.do(t, http.MethodPost, "/v1/pages/home/mutations", `{"op":"resize","id":"a","colSpan":9,"rowSpan":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mutation status = %d", resp.StatusCode)
	}
	res = decodeBody[pipeline.Result](t, resp)
	if got := blockPositions(res.Document.Blocks); got["b"] != (grid.Cell{Col: 1, Row: 4}) {
		t.Errorf("b at %v after resize, want (1,4)", got["b"])
	}
	if res.Stats.Relocated != 1 {
		t.Errorf("Relocated = %d, want 1", res.Stats.Relocated)
	}

	// Reads see the mutation even before the background write lands.
	resp = env.do(t, http.MethodGet, "/v1/pages/home", "")
	doc := decodeBody[page.Document](t, resp)
	if a, _ := doc.Block("a"); a.ColSpan != 9 {
		t.Errorf("GET after mutation: a.ColSpan = %d, want 9", a.ColSpan)
	}

	resp = env.do(t, http.MethodGet, "/v1/pages", "")
	if list := decodeBody[PageList](t, resp); len(list.Pages) != 1 || list.Pages[0] != "home" {
		t.Errorf("list = %v", list.Pages)
	}

	resp = env.do(t, http.MethodDelete, "/v1/pages/home", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/v1/pages/home", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", resp.StatusCode)
	}
}

func TestMutationErrors(t *testing.T) {
	env := newTestEnv(t)
	doc := page.New("home", "Home")
	doc.GridVersion = page.VersionCurrent
	doc.Blocks = []grid.Block{{ID: "a", Kind: "text", Column: 1, Row: 1, ColSpan: 3, RowSpan: 3}}
	if err := env.store.Put(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"missing page", "/v1/pages/nope/mutations", `{"op":"compact"}`, 404, errors.ErrCodePageNotFound},
		{"unknown block", "/v1/pages/home/mutations", `{"op":"delete","id":"zz"}`, 404, errors.ErrCodeBlockNotFound},
		{"unknown op", "/v1/pages/home/mutations", `{"op":"spin"}`, 400, errors.ErrCodeInvalidMutation},
		{"duplicate add", "/v1/pages/home/mutations", `{"op":"add","block":{"id":"a","kind":"text"}}`, 400, errors.ErrCodeInvalidMutation},
		{"bad page id", "/v1/pages/..x/mutations", `{"op":"compact"}`, 400, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeBody[httputil.ErrorBody](t, resp); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestAddBlockWithPayload(t *testing.T) {
	env := newTestEnv(t)
	doc := page.New("home", "Home")
	doc.GridVersion = page.VersionCurrent
	doc.Blocks = []grid.Block{{ID: "a", Kind: "text", Column: 1, Row: 1, ColSpan: 3, RowSpan: 3}}
	if err := env.store.Put(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	body := `{"op":"add","block":{"id":"vid","kind":"video","gridColumn":2,"gridRow":2,"src":"clip.mp4"}}`
	resp := env.do(t, http.MethodPost, "/v1/pages/home/mutations", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	res := decodeBody[pipeline.Result](t, resp)
	b, ok := res.Document.Block("vid")
	if !ok {
		t.Fatal("added block missing")
	}
	// Video default spans are 6x3; the hint (2,2) is occupied by a.
	if b.ColSpan != 6 || b.RowSpan != 3 {
		t.Errorf("spans = (%d,%d), want (6,3)", b.ColSpan, b.RowSpan)
	}
	if b.Position() != (grid.Cell{Col: 4, Row: 2}) {
		t.Errorf("vid at %v, want (4,2)", b.Position())
	}
	if string(page.BlockFields(b)["src"]) != `"clip.mp4"` {
		t.Errorf("payload = %v", page.BlockFields(b))
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/v2/everything", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
