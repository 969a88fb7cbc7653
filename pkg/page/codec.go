package page

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/gridpage/pkg/grid"
)

// Fields holds the kind-specific fields of a block, keyed by JSON name. It is
// stored in grid.Block.Payload.
type Fields map[string]json.RawMessage

// BlockFields returns the kind-specific fields of b, or nil.
func BlockFields(b grid.Block) Fields {
	f, _ := b.Payload.(Fields)
	return f
}

// reserved lists the block keys owned by the layout.
var reserved = map[string]bool{
	"id": true, "kind": true, "gridColumn": true, "gridRow": true, "colSpan": true, "rowSpan": true,
}

type document struct {
	ID          string            `json:"id"`
	Title       string            `json:"title,omitempty"`
	GridVersion int               `json:"gridVersion,omitempty"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
	Blocks      []json.RawMessage `json:"blocks"`
}

type block struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	GridColumn *int   `json:"gridColumn,omitempty"`
	GridRow    *int   `json:"gridRow,omitempty"`
	ColSpan    int    `json:"colSpan"`
	RowSpan    int    `json:"rowSpan"`
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	out := document{
		ID:          d.ID,
		Title:       d.Title,
		GridVersion: d.GridVersion,
		Blocks:      make([]json.RawMessage, len(d.Blocks)),
	}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		out.UpdatedAt = &t
	}
	for i, b := range d.Blocks {
		raw, err := marshalBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out.Blocks[i] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in document
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*d = Document{
		ID:          in.ID,
		Title:       in.Title,
		GridVersion: in.GridVersion,
		Blocks:      make([]grid.Block, len(in.Blocks)),
	}
	if in.UpdatedAt != nil {
		d.UpdatedAt = *in.UpdatedAt
	}
	for i, raw := range in.Blocks {
		b, err := unmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		d.Blocks[i] = b
	}
	return nil
}

// Blocks is a block list with the document's JSON block encoding. It lets
// other packages exchange bare block lists in the same wire format.
type Blocks []grid.Block

// MarshalJSON implements json.Marshaler.
func (bs Blocks) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, len(bs))
	for i, b := range bs {
		raw, err := marshalBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out[i] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var in []json.RawMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Blocks, len(in))
	for i, raw := range in {
		b, err := unmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out[i] = b
	}
	*bs = out
	return nil
}

func marshalBlock(b grid.Block) (json.RawMessage, error) {
	fields := make(map[string]any, len(BlockFields(b))+6)
	for k, v := range BlockFields(b) {
		if !reserved[k] {
			fields[k] = v
		}
	}
	fields["id"] = b.ID
	fields["kind"] = b.Kind
	fields["colSpan"] = b.ColSpan
	fields["rowSpan"] = b.RowSpan
	if b.Placed() {
		fields["gridColumn"] = b.Column
		fields["gridRow"] = b.Row
	}
	return json.Marshal(fields)
}

func unmarshalBlock(raw json.RawMessage) (grid.Block, error) {
	var head block
	if err := json.Unmarshal(raw, &head); err != nil {
		return grid.Block{}, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return grid.Block{}, err
	}

	b := grid.Block{
		ID:      head.ID,
		Kind:    head.Kind,
		ColSpan: head.ColSpan,
		RowSpan: head.RowSpan,
	}
	if head.GridColumn != nil {
		b.Column = *head.GridColumn
	}
	if head.GridRow != nil {
		b.Row = *head.GridRow
	}
	// A block with only one coordinate is treated as unplaced.
	if !b.Placed() {
		b = b.Unplace()
	}

	var extra Fields
	for k, v := range all {
		if reserved[k] {
			continue
		}
		if extra == nil {
			extra = make(Fields)
		}
		extra[k] = v
	}
	if extra != nil {
		b.Payload = extra
	}
	return b, nil
}

// ReadJSON decodes a page document from r. It does not validate the result;
// call Validate. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &d, nil
}

// WriteJSON encodes d as indented JSON to w.
func WriteJSON(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the compact JSON encoding of d.
func Marshal(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal decodes a document from data.
func Unmarshal(data []byte) (*Document, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads the document stored at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ExportJSON writes d to path atomically: the document is written to a
// temporary file in the same directory and renamed over path.
func ExportJSON(d *Document, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gridpage-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := WriteJSON(tmp, d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
