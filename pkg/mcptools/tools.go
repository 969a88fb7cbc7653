package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

func boolPtr(v bool) *bool { return &v }

func (s *Server) registerPageTools() {
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the ids of all stored pages"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListPages)

	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a page with kind, grid position (1-based column and row) and spans. The grid is 9 columns wide."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListBlocks)

	s.mcp.AddTool(mcp.NewTool("compact_page",
		mcp.WithDescription("Pack all blocks of a page towards the top-left in reading order, removing gaps"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleCompactPage)
}

func (s *Server) registerBlockTools() {
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block to a page. Without column and row it takes the first free slot; with them it goes there if free, otherwise to the first free slot at or below that row."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("kind",
			mcp.Description("Block kind: "+strings.Join(page.Kinds(), ", ")),
			mcp.Required(),
			mcp.Enum(page.Kinds()...),
		),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, generated if omitted)")),
		mcp.WithNumber("column", mcp.Description("Column of the top-left cell (optional)")),
		mcp.WithNumber("row", mcp.Description("Row of the top-left cell (optional)")),
		mcp.WithNumber("colSpan", mcp.Description("Width in cells (optional, kind default)")),
		mcp.WithNumber("rowSpan", mcp.Description("Height in cells (optional, kind default)")),
	), s.handleAddBlock)

	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block so its top-left cell is at column,row. Blocks it lands on are moved to the nearest free slot."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("column", mcp.Description("Target column (1-based)"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Target row (1-based)"), mcp.Required()),
	), s.handleMoveBlock)

	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Set a block's width and height in cells, then reflow the page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("colSpan", mcp.Description("New width in cells"), mcp.Required()),
		mcp.WithNumber("rowSpan", mcp.Description("New height in cells"), mcp.Required()),
	), s.handleResizeBlock)

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block and reflow the page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

// blockView is the tool-facing form of a block.
type blockView struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Column  int    `json:"column"`
	Row     int    `json:"row"`
	ColSpan int    `json:"colSpan"`
	RowSpan int    `json:"rowSpan"`
}

type mutationView struct {
	PageID    string      `json:"pageId"`
	Op        string      `json:"op"`
	Relocated int         `json:"relocated"`
	Blocks    []blockView `json:"blocks"`
}

func viewBlocks(blocks []grid.Block) []blockView {
	out := make([]blockView, len(blocks))
	for i, b := range blocks {
		out[i] = blockView{ID: b.ID, Kind: b.Kind, Column: b.Column, Row: b.Row, ColSpan: b.ColSpan, RowSpan: b.RowSpan}
	}
	return out
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.pages.List(ctx)
	if err != nil {
		return errorResult(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(map[string][]string{"pages": ids})
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.pages.Load(ctx, stringArg(req.GetArguments(), "pageId"))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(viewBlocks(doc.Blocks))
}

func (s *Server) handleCompactPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(ctx, req, pipeline.Args{Op: pipeline.OpCompact})
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.mutate(ctx, req, pipeline.Args{
		Op:      pipeline.OpAdd,
		ID:      stringArg(args, "blockId"),
		Kind:    stringArg(args, "kind"),
		Column:  intArg(args, "column"),
		Row:     intArg(args, "row"),
		ColSpan: intArg(args, "colSpan"),
		RowSpan: intArg(args, "rowSpan"),
	})
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.mutate(ctx, req, pipeline.Args{
		Op:     pipeline.OpMove,
		ID:     stringArg(args, "blockId"),
		Column: intArg(args, "column"),
		Row:    intArg(args, "row"),
	})
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.mutate(ctx, req, pipeline.Args{
		Op:      pipeline.OpResize,
		ID:      stringArg(args, "blockId"),
		ColSpan: intArg(args, "colSpan"),
		RowSpan: intArg(args, "rowSpan"),
	})
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(ctx, req, pipeline.Args{
		Op: pipeline.OpDelete,
		ID: stringArg(req.GetArguments(), "blockId"),
	})
}

// mutate parses args, applies them to the page named by the pageId argument
// and reports the new layout.
func (s *Server) mutate(ctx context.Context, req mcp.CallToolRequest, args pipeline.Args) (*mcp.CallToolResult, error) {
	pageID := stringArg(req.GetArguments(), "pageId")
	if pageID == "" {
		return errorResult(errors.New(errors.ErrCodeInvalidInput, "pageId is required"))
	}
	m, err := pipeline.ParseMutation(args)
	if err != nil {
		return errorResult(err)
	}
	res, err := s.pages.Mutate(ctx, pageID, m)
	if err != nil {
		return errorResult(err)
	}
	s.logger.Info(fmt.Sprintf("%s via MCP", args.Op), "page", pageID, "relocated", res.Stats.Relocated)
	return jsonResult(mutationView{
		PageID:    pageID,
		Op:        args.Op,
		Relocated: res.Stats.Relocated,
		Blocks:    viewBlocks(res.Document.Blocks),
	})
}
