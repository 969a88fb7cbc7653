package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/httputil"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// PageList is the body of GET /v1/pages.
type PageList struct {
	Pages []string `json:"pages"`
}

// MutationRequest is the body of POST /v1/pages/{id}/mutations. For add, a
// full Block (with kind-specific fields) may be given instead of Kind; its
// coordinates, or Column and Row, become the placement hint.
type MutationRequest struct {
	pipeline.Args
	Block json.RawMessage `json:"block,omitempty"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	ids, err := s.pages.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, PageList{Pages: ids})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.pages.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// handlePutPage imports a full document: it is upgraded and repaired before
// it is stored, and the response carries the stored form.
func (s *Server) handlePutPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var doc page.Document
	if err := httputil.DecodeJSON(r, &doc, httputil.MaxBodyBytes); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		httputil.WriteError(w, errors.New(errors.ErrCodeInvalidInput, "document id %q does not match path id %q", doc.ID, id))
		return
	}

	res, err := s.pages.Import(r.Context(), &doc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.pages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePageID(id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req MutationRequest
	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := mutationFromRequest(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := s.pages.Mutate(r.Context(), id, m)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// mutationFromRequest builds the mutation, reading the optional full block
// of an add request.
func mutationFromRequest(req MutationRequest) (pipeline.Mutation, error) {
	if req.Op != pipeline.OpAdd || len(req.Block) == 0 {
		return pipeline.ParseMutation(req.Args)
	}

	var bs page.Blocks
	raw := bytes.Join([][]byte{[]byte("["), req.Block, []byte("]")}, nil)
	if err := json.Unmarshal(raw, &bs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBlock, err, "invalid block")
	}
	b := bs[0]

	if b.ID == "" || b.ColSpan < 1 || b.RowSpan < 1 {
		def, err := page.NewBlock(b.Kind)
		if err != nil {
			return nil, err
		}
		if b.ID == "" {
			b.ID = def.ID
		}
		if b.ColSpan < 1 {
			b.ColSpan = def.ColSpan
		}
		if b.RowSpan < 1 {
			b.RowSpan = def.RowSpan
		}
	}

	m := pipeline.AddBlock{Block: b.Unplace()}
	switch {
	case req.Column > 0 && req.Row > 0:
		m.Hint = &grid.Cell{Col: req.Column, Row: req.Row}
	case b.Placed():
		hint := b.Position()
		m.Hint = &hint
	}
	return m, nil
}
