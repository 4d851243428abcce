package report

import "github.com/matzehuels/klumpen/pkg/treemap"

// ScopeAll is the treemap scope that lays out every package.
const ScopeAll = ""

// TreemapDoc is a laid-out treemap of an analysis, either of all packages or
// of the files of one zoomed package.
type TreemapDoc struct {
	AnalysisID string         `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
	Scope      string         `json:"scope,omitempty" yaml:"scope,omitempty"`
	Width      int            `json:"width" yaml:"width"`
	Height     int            `json:"height" yaml:"height"`
	TotalBytes int64          `json:"total_bytes" yaml:"total_bytes"`
	Tiles      []treemap.Tile `json:"tiles" yaml:"tiles"`

	// Omitted counts items that carry bytes but got no tile because the
	// canvas ran out of cells.
	Omitted int `json:"omitted,omitempty" yaml:"omitted,omitempty"`
}

// ChainDoc answers why a module is part of the bundle.
//
// Chain runs from Entry to Target and is empty when Found is false.
type ChainDoc struct {
	Package string   `json:"package,omitempty" yaml:"package,omitempty"`
	Target  string   `json:"target" yaml:"target"`
	Entry   string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Bytes   int64    `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Found   bool     `json:"found" yaml:"found"`
	Chain   []string `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// Depth returns the number of import hops in the chain.
func (d ChainDoc) Depth() int {
	return max(len(d.Chain)-1, 0)
}
