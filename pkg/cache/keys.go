package cache

import "time"

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout computed from a document with
	// the given content hash under the given engine settings.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts holds every setting that changes the outcome of a layout.
type LayoutKeyOpts struct {
	Op         string `json:"op"`
	Columns    int    `json:"columns"`
	MaxRowSpan int    `json:"max_row_span"`
	SearchRows int    `json:"search_rows"`
}

// DefaultKeyer produces keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

var _ Keyer = DefaultKeyer{}

// TTLLayout is the default lifetime of a cached layout.
const TTLLayout = 7 * 24 * time.Hour
