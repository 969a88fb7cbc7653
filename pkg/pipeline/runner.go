package pipeline

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/cache"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/observability"
	"github.com/matzehuels/gridpage/pkg/page"
)

// Runner applies mutations with a shared engine, cache and logger.
//
// The Runner holds no page state, so multiple goroutines can safely use the
// same Runner on different documents.
type Runner struct {
	Engine *grid.Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached import layouts. Zero means
	// cache.TTLLayout.
	TTL time.Duration
}

// NewRunner creates a runner.
// If engine is nil, grid.Default is used.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(engine *grid.Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if engine == nil {
		engine = grid.Default()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Engine: engine,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Apply runs m on doc and returns the resulting document. doc is not
// modified. Unknown block ids yield a BLOCK_NOT_FOUND error.
func (r *Runner) Apply(ctx context.Context, doc *page.Document, m Mutation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is nil")
	}
	if m == nil {
		return nil, errors.New(errors.ErrCodeInvalidMutation, "mutation is nil")
	}

	op := m.Op()
	start := time.Now()
	observability.Engine().OnApplyStart(ctx, op, len(doc.Blocks))

	res, err := r.apply(ctx, doc, m)

	duration := time.Since(start)
	blocks, relocated := 0, 0
	if res != nil {
		res.Stats.Duration = duration
		blocks, relocated = res.Stats.Blocks, res.Stats.Relocated
	}
	observability.Engine().OnApplyComplete(ctx, op, blocks, relocated, duration, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("applied mutation",
		"op", op,
		"page", doc.ID,
		"blocks", blocks,
		"relocated", relocated,
		"migrated", res.Stats.Migrated,
		"cache_hit", res.CacheHit,
		"duration", duration)
	return res, nil
}

func (r *Runner) apply(ctx context.Context, doc *page.Document, m Mutation) (*Result, error) {
	if imp, ok := m.(Import); ok {
		return r.importDocument(ctx, doc, imp)
	}

	work, migrated := page.Upgrade(r.Engine, doc)
	if migrated {
		r.Logger.Info("migrated page to current grid", "page", doc.ID, "blocks", len(work.Blocks))
	}

	e := r.Engine
	switch m := m.(type) {
	case AddBlock:
		b, err := r.prepareAdd(work, m)
		if err != nil {
			return nil, err
		}
		work.Blocks = e.ResolveOverlaps(e.Normalize(append(work.Blocks, b)))

	case MoveBlock:
		if err := requireBlock(work, m.ID); err != nil {
			return nil, err
		}
		work.Blocks = e.ResolveOverlaps(e.Normalize(e.Move(work.Blocks, m.ID, m.To)))

	case ResizeBlock:
		if err := requireBlock(work, m.ID); err != nil {
			return nil, err
		}
		work.Blocks = e.Reflow(e.Resize(work.Blocks, m.ID, m.ColSpan, m.RowSpan))

	case DeleteBlock:
		if err := requireBlock(work, m.ID); err != nil {
			return nil, err
		}
		work.Blocks = e.Reflow(slices.DeleteFunc(work.Blocks, func(b grid.Block) bool {
			return b.ID == m.ID
		}))

	case Compact:
		work.Blocks = e.Reflow(work.Blocks)

	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported mutation %T", m)
	}

	work.Touch()
	return &Result{
		Document: work,
		Stats: Stats{
			Blocks:    len(work.Blocks),
			Relocated: r.countRelocated(ctx, m.Op(), doc, work),
			Migrated:  migrated,
		},
	}, nil
}

// prepareAdd validates the new block and gives it its initial position.
func (r *Runner) prepareAdd(doc *page.Document, m AddBlock) (grid.Block, error) {
	b := m.Block
	if err := errors.ValidateBlockID(b.ID); err != nil {
		return b, err
	}
	if b.Kind == "" {
		return b, errors.New(errors.ErrCodeInvalidBlock, "block %q has no kind", b.ID)
	}
	if _, exists := doc.Block(b.ID); exists {
		return b, errors.New(errors.ErrCodeInvalidMutation, "block %q already exists", b.ID)
	}

	b = b.Unplace()
	if m.Hint == nil {
		return b, nil
	}

	e := r.Engine
	hinted := e.Move([]grid.Block{b}, b.ID, *m.Hint)[0]
	occ := e.OccupiedCells(e.Normalize(doc.Blocks))
	if e.Fits(occ, hinted) {
		return hinted, nil
	}
	pos := e.FindPosition(hinted, occ, hinted.Row)
	hinted.Column, hinted.Row = pos.Col, pos.Row
	return hinted, nil
}

// importDocument validates, upgrades and repairs doc, caching the result
// under the hash of the input bytes.
func (r *Runner) importDocument(ctx context.Context, doc *page.Document, _ Import) (*Result, error) {
	if err := page.Validate(doc); err != nil {
		return nil, err
	}

	data, err := page.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "encode document")
	}
	key := r.Keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{
		Op:         OpImport,
		Columns:    r.Engine.Columns,
		MaxRowSpan: r.Engine.MaxRowSpan,
		SearchRows: r.Engine.SearchRows,
	})

	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if out, err := page.Unmarshal(cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return &Result{
				Document: out,
				Stats: Stats{
					Blocks:    len(out.Blocks),
					Relocated: r.countRelocated(ctx, OpImport, doc, out),
					Migrated:  page.NeedsUpgrade(doc),
				},
				CacheHit: true,
			}, nil
		}
		// Undecodable entries fall through to recompute.
	} else if err != nil {
		r.Logger.Warn("layout cache read failed", "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	e := r.Engine
	work, migrated := page.Upgrade(e, doc)
	work.Blocks = e.ResolveOverlaps(e.Normalize(work.Blocks))

	if out, err := page.Marshal(work); err == nil {
		ttl := r.TTL
		if ttl == 0 {
			ttl = cache.TTLLayout
		}
		if err := r.Cache.Set(ctx, key, out, ttl); err != nil {
			r.Logger.Warn("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(out))
		}
	}

	return &Result{
		Document: work,
		Stats: Stats{
			Blocks:    len(work.Blocks),
			Relocated: r.countRelocated(ctx, OpImport, doc, work),
			Migrated:  migrated,
		},
	}, nil
}

// countRelocated counts blocks present in both documents whose position
// changed and reports each one to the engine hooks.
func (r *Runner) countRelocated(ctx context.Context, op string, before, after *page.Document) int {
	prev := make(map[string]grid.Cell, len(before.Blocks))
	for _, b := range before.Blocks {
		prev[b.ID] = b.Position()
	}
	n := 0
	for _, b := range after.Blocks {
		if p, ok := prev[b.ID]; ok && p != b.Position() {
			n++
			observability.Engine().OnRelocate(ctx, op, b.ID)
		}
	}
	return n
}

func requireBlock(doc *page.Document, id string) error {
	if _, ok := doc.Block(id); !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found in page %q", id, doc.ID)
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
