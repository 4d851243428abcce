// Package pipeline runs the analysis stages shared by the CLI and the HTTP
// API: report → analysis → treemap or import chain.
//
// # Stages
//
//  1. Analyze: normalize and deduplicate the report's modules, group them
//     into packages and build the reverse import graph
//  2. Treemap: lay out either all packages or the files of one zoomed
//     package on a canvas
//  3. Why / Chains: find the shortest import chain from the entry module to
//     a module or to each package's largest file
//
// Analyze and Treemap results are cached by content hash through a
// [Runner]; chain queries are cheap and always recomputed.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	a, err := runner.Analyze(ctx, rep, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	doc, err := runner.Treemap(ctx, a, pipeline.Options{Width: 120, Height: 40})
package pipeline

import (
	"github.com/matzehuels/klumpen/pkg/cache"
	"github.com/matzehuels/klumpen/pkg/errors"
)

const (
	// DefaultWidth and DefaultHeight are a standard terminal in cells.
	DefaultWidth  = 80
	DefaultHeight = 24

	// DefaultChainLimit is how many packages get an import chain in a
	// chain overview.
	DefaultChainLimit = 30
)

// Options configures every pipeline stage. It supports JSON for API
// requests; zero values are replaced by [Options.SetDefaults].
type Options struct {
	// MonorepoDirs overrides the top-level directories that hold
	// workspace packages.
	MonorepoDirs []string `json:"monorepo_dirs,omitempty"`

	// Width and Height are the treemap canvas in abstract units.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Zoom lays out the files of one package instead of all packages.
	Zoom string `json:"zoom,omitempty"`

	// Entry overrides the entry module recorded in the report.
	Entry string `json:"entry,omitempty"`

	ChainLimit int `json:"chain_limit,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"-"`
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.ChainLimit <= 0 {
		o.ChainLimit = DefaultChainLimit
	}
}

// Validate checks the options after defaults have been applied.
func (o *Options) Validate() error {
	if err := errors.ValidateCanvas(o.Width, o.Height); err != nil {
		return err
	}
	if o.Zoom != "" {
		if err := errors.ValidateModulePath(o.Zoom); err != nil {
			return err
		}
	}
	if o.Entry != "" {
		if err := errors.ValidateModulePath(o.Entry); err != nil {
			return err
		}
	}
	for _, dir := range o.MonorepoDirs {
		if dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "monorepo directory names cannot be empty")
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults, then validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

func (o *Options) analysisKeyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{MonorepoDirs: o.MonorepoDirs}
}

func (o *Options) layoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Width: o.Width, Height: o.Height, Zoom: o.Zoom}
}
