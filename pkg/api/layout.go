package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/httputil"
	"github.com/matzehuels/gridpage/pkg/page"
)

// Stateless layout operations.
const (
	LayoutNormalize = "normalize"
	LayoutResolve   = "resolve"
	LayoutReflow    = "reflow"
	LayoutMigrate   = "migrate"
)

// LayoutRequest is the body of POST /v1/layout/{op}. Columns overrides the
// server's grid width. From and To are only read by migrate and default to
// the legacy and the current width.
type LayoutRequest struct {
	Blocks  page.Blocks `json:"blocks"`
	Columns int         `json:"columns,omitempty"`
	From    int         `json:"from,omitempty"`
	To      int         `json:"to,omitempty"`
}

// ResizeRequest is the body of POST /v1/layout/resize.
type ResizeRequest struct {
	Blocks  page.Blocks `json:"blocks"`
	ID      string      `json:"id"`
	ColSpan int         `json:"colSpan"`
	RowSpan int         `json:"rowSpan"`
	Columns int         `json:"columns,omitempty"`
}

// LayoutResponse is the result of every layout operation.
type LayoutResponse struct {
	Blocks page.Blocks `json:"blocks"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := s.layout(chi.URLParam(r, "op"), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LayoutResponse{Blocks: out})
}

func (s *Server) layout(op string, req LayoutRequest) ([]grid.Block, error) {
	if err := validateBlocks(req.Blocks); err != nil {
		return nil, err
	}
	e, err := s.engineFor(req.Columns)
	if err != nil {
		return nil, err
	}

	switch op {
	case LayoutNormalize:
		return e.Normalize(req.Blocks), nil
	case LayoutResolve:
		// Clamp first so a block out of bounds that overlaps nothing is
		// not returned as is.
		return e.ResolveOverlaps(e.Normalize(req.Blocks)), nil
	case LayoutReflow:
		return e.Reflow(req.Blocks), nil
	case LayoutMigrate:
		from, to := req.From, req.To
		if from == 0 {
			from = page.Columns(page.VersionLegacy)
		}
		if to == 0 {
			to = e.Columns
		}
		if err := errors.ValidateColumns(from); err != nil {
			return nil, err
		}
		if err := errors.ValidateColumns(to); err != nil {
			return nil, err
		}
		return e.Migrate(req.Blocks, from, to), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported,
			"unknown layout op %q (must be one of: normalize, resolve, reflow, migrate, resize)", op)
	}
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := validateBlocks(req.Blocks); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := errors.ValidateBlockID(req.ID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := s.engineFor(req.Columns)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := e.Reflow(e.Resize(req.Blocks, req.ID, req.ColSpan, req.RowSpan))
	httputil.WriteJSON(w, http.StatusOK, LayoutResponse{Blocks: out})
}

// engineFor returns the server engine, or a copy with a different width.
func (s *Server) engineFor(columns int) (*grid.Engine, error) {
	if columns == 0 {
		return s.engine(), nil
	}
	if err := errors.ValidateColumns(columns); err != nil {
		return nil, err
	}
	e := *s.engine()
	e.Columns = columns
	return &e, nil
}

func validateBlocks(blocks []grid.Block) error {
	return page.Validate(&page.Document{Blocks: blocks})
}
