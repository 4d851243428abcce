package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/klumpen/pkg/cache"
	"github.com/matzehuels/klumpen/pkg/observability"
	"github.com/matzehuels/klumpen/pkg/report"
)

// Runner executes pipeline stages with caching. It holds no per-request
// state, so one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL replaces the per-stage cache lifetimes when positive.
	TTL time.Duration

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keys and a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// AnalyzeWithCacheInfo aggregates rep and reports whether the result came
// from the cache. Every call returns a fresh ID and timestamp, cached or not.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, rep *report.Report, opts Options) (*report.Analysis, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, rep.Target, len(rep.Modules))
	start := time.Now()

	key := ""
	if reportHash, err := cache.HashJSON(rep); err == nil {
		key = r.Keyer.AnalysisKey(reportHash, opts.analysisKeyOpts())
	}

	var a *report.Analysis
	hit := false
	if key != "" && !opts.Refresh {
		if data, ok := r.lookup(ctx, key, "analysis"); ok {
			if cached, err := report.UnmarshalAnalysis(data); err == nil {
				a, hit = cached, true
			}
		}
	}
	if a == nil {
		a = BuildAnalysis(rep, opts.MonorepoDirs)
		if key != "" {
			if data, err := report.MarshalAnalysis(a); err == nil {
				r.store(ctx, key, "analysis", data, cache.TTLAnalysis)
			}
		}
	}

	a.ID = r.newID()
	a.CreatedAt = r.now().UTC()

	elapsed := time.Since(start)
	hooks.OnAnalyzeComplete(ctx, a.Target, len(a.Packages), elapsed, nil)
	r.Logger.Info("analyzed report",
		"target", a.Target,
		"modules", a.Stats.Modules,
		"packages", a.Stats.Packages,
		"cached", hit,
		"duration", elapsed)
	return a, hit, nil
}

// Analyze is AnalyzeWithCacheInfo without the cache information.
func (r *Runner) Analyze(ctx context.Context, rep *report.Report, opts Options) (*report.Analysis, error) {
	a, _, err := r.AnalyzeWithCacheInfo(ctx, rep, opts)
	return a, err
}

// TreemapWithCacheInfo lays out the analysis for opts.Width × opts.Height,
// zoomed into opts.Zoom when set.
func (r *Runner) TreemapWithCacheInfo(ctx context.Context, a *report.Analysis, opts Options) (*report.TreemapDoc, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	start := time.Now()

	items, err := TreemapItems(a, opts.Zoom)
	if err != nil {
		hooks.OnLayoutComplete(ctx, opts.Zoom, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnLayoutStart(ctx, opts.Zoom, len(items))

	key := ""
	if itemsHash, err := cache.HashJSON(items); err == nil {
		key = r.Keyer.LayoutKey(itemsHash, opts.layoutKeyOpts())
	}

	var doc *report.TreemapDoc
	hit := false
	if key != "" && !opts.Refresh {
		if data, ok := r.lookup(ctx, key, "layout"); ok {
			var cached report.TreemapDoc
			if err := json.Unmarshal(data, &cached); err == nil {
				doc, hit = &cached, true
			}
		}
	}
	if doc == nil {
		doc = BuildTreemap(items, opts.Width, opts.Height)
		if key != "" {
			if data, err := json.Marshal(doc); err == nil {
				r.store(ctx, key, "layout", data, cache.TTLLayout)
			}
		}
	}
	doc.AnalysisID = a.ID
	doc.Scope = opts.Zoom

	elapsed := time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Zoom, len(doc.Tiles), elapsed, nil)
	r.Logger.Debug("computed treemap",
		"scope", scopeName(opts.Zoom),
		"tiles", len(doc.Tiles),
		"cached", hit,
		"duration", elapsed)
	return doc, hit, nil
}

// Treemap is TreemapWithCacheInfo without the cache information.
func (r *Runner) Treemap(ctx context.Context, a *report.Analysis, opts Options) (*report.TreemapDoc, error) {
	doc, _, err := r.TreemapWithCacheInfo(ctx, a, opts)
	return doc, err
}

// Why explains why target is in the bundle. target is a module path or a
// package name; a package resolves to its largest file.
func (r *Runner) Why(ctx context.Context, a *report.Analysis, target string, opts Options) (report.ChainDoc, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return report.ChainDoc{}, fmt.Errorf("invalid options: %w", err)
	}
	module, pkg, err := ResolveTarget(a, target)
	if err != nil {
		return report.ChainDoc{}, err
	}

	start := time.Now()
	doc := FindChain(a, module, pkg, entryOf(a, opts))
	observability.Pipeline().OnChainComplete(ctx, doc.Found, doc.Depth(), time.Since(start))
	if doc.Entry == "" {
		r.Logger.Warn("no entry module, chain queries are disabled", "target", a.Target)
	}
	return doc, nil
}

// Chains returns the chain to the largest file of each of the first
// opts.ChainLimit packages.
func (r *Runner) Chains(ctx context.Context, a *report.Analysis, opts Options) ([]report.ChainDoc, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	entry := entryOf(a, opts)
	hooks := observability.Pipeline()

	n := min(opts.ChainLimit, len(a.Packages))
	docs := make([]report.ChainDoc, 0, n)
	for _, g := range a.Packages[:n] {
		f, ok := g.Largest()
		if !ok {
			continue
		}
		start := time.Now()
		doc := FindChain(a, f.Path, g.Name, entry)
		hooks.OnChainComplete(ctx, doc.Found, doc.Depth(), time.Since(start))
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func scopeName(zoom string) string {
	if zoom == "" {
		return "packages"
	}
	return zoom
}
