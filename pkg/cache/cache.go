// Package cache stores analysis results and treemap layouts between runs.
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry TTL. Keys are produced by a [Keyer] from content hashes and the
// options that influence a result, so a changed report or option never hits
// a stale entry.
//
// Backends:
//
//   - [FileCache]: zstd-compressed entries under a directory, used by the CLI
//   - [MemoryCache]: bounded in-process LRU, the server default
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes of cached results.
const (
	TTLAnalysis = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
)

// AnalysisKeyOpts are the options that change an analysis.
type AnalysisKeyOpts struct {
	MonorepoDirs []string `json:"monorepo_dirs"`
}

// LayoutKeyOpts are the options that change a treemap layout.
type LayoutKeyOpts struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Zoom   string `json:"zoom,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// AnalysisKey keys the analysis of the report with the given content hash.
	AnalysisKey(reportHash string, opts AnalysisKeyOpts) string

	// LayoutKey keys a treemap of the analysis with the given content hash.
	LayoutKey(analysisHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces "analysis:<hash>" and "layout:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) AnalysisKey(reportHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", reportHash, opts)
}

func (DefaultKeyer) LayoutKey(analysisHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", analysisHash, opts)
}
