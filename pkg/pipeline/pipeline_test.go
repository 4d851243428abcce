package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/klumpen/pkg/cache"
	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/importgraph"
	"github.com/matzehuels/klumpen/pkg/observability"
	"github.com/matzehuels/klumpen/pkg/report"
	"github.com/matzehuels/klumpen/pkg/treemap"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	const doc = `{
	  "target": "web",
	  "bundler": "vite",
	  "entry": "src/main.tsx",
	  "output_bytes": 7000,
	  "modules": [
	    {"path": "src/main.tsx", "bytes": 500},
	    {"path": "src/app.tsx", "bytes": 1500},
	    {"path": "src/app.tsx", "bytes": 1000},
	    {"path": "node_modules/react/index.js", "bytes": 600},
	    {"path": "node_modules/react/cjs/react.production.js", "bytes": 3400},
	    {"path": "../../packages/ui/src/button.tsx", "bytes": 900},
	    {"path": "node_modules/left-pad/index.js", "bytes": 100},
	    {"path": "src/unused.ts", "bytes": 0}
	  ],
	  "imports": {
	    "src/main.tsx": [{"path": "src/app.tsx"}],
	    "src/app.tsx": [{"path": "node_modules/react/index.js"}, {"path": "../../packages/ui/src/button.tsx"}],
	    "node_modules/react/index.js": [{"path": "node_modules/react/cjs/react.production.js"}]
	  }
	}`
	rep, err := report.ReadReport(strings.NewReader(doc), report.FormatJSON)
	if err != nil {
		t.Fatalf("ReadReport() error: %v", err)
	}
	return rep
}

func testRunner(c cache.Cache) *Runner {
	r := NewRunner(c, nil, nil)
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
	r.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.ChainLimit != DefaultChainLimit {
		t.Errorf("defaults = %+v", o)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative width", Options{Width: -1}, errors.ErrCodeInvalidCanvas},
		{"huge canvas", Options{Width: errors.MaxCanvasSide + 1}, errors.ErrCodeInvalidCanvas},
		{"bad zoom", Options{Zoom: "a\x00b"}, errors.ErrCodeInvalidPath},
		{"bad entry", Options{Entry: "\n"}, errors.ErrCodeInvalidPath},
		{"empty monorepo dir", Options{MonorepoDirs: []string{""}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildAnalysis(t *testing.T) {
	a := BuildAnalysis(sampleReport(t), nil)

	wantGroups := []struct {
		name  string
		bytes int64
		files int
	}{
		{"react", 4000, 2},
		{"src (local)", 2000, 3},
		{"ui (workspace)", 900, 1},
		{"left-pad", 100, 1},
	}
	if len(a.Packages) != len(wantGroups) {
		t.Fatalf("got %d packages, want %d: %+v", len(a.Packages), len(wantGroups), a.Packages)
	}
	for i, w := range wantGroups {
		g := a.Packages[i]
		if g.Name != w.name || g.Bytes != w.bytes || len(g.Files) != w.files {
			t.Errorf("package %d = %s %d (%d files), want %s %d (%d files)", i, g.Name, g.Bytes, len(g.Files), w.name, w.bytes, w.files)
		}
	}

	var sum int64
	for _, g := range a.Packages {
		sum += g.Bytes
	}
	if sum != a.InputBytes || a.InputBytes != 7000 {
		t.Errorf("package bytes = %d, input bytes = %d, want 7000", sum, a.InputBytes)
	}
	want := report.Stats{Modules: 7, ExternalModules: 3, LocalModules: 4, Packages: 4, ImportEdges: 4}
	if a.Stats != want {
		t.Errorf("Stats = %+v, want %+v", a.Stats, want)
	}
	if a.Modules[0].Path != "node_modules/react/cjs/react.production.js" {
		t.Errorf("modules not sorted by size: first is %s", a.Modules[0].Path)
	}
}

func TestBuildAnalysisEmptyReport(t *testing.T) {
	a := BuildAnalysis(&report.Report{Target: "empty"}, nil)
	data, err := report.MarshalAnalysis(a)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"modules", "packages"} {
		if _, ok := doc[field].([]any); !ok {
			t.Errorf("%s = %v, want an empty array", field, doc[field])
		}
	}
}

func TestBuildAnalysisCustomMonorepoDirs(t *testing.T) {
	a := BuildAnalysis(sampleReport(t), []string{"libs"})
	if _, ok := a.Package("packages (local)"); !ok {
		t.Errorf("packages/ should be local when not a monorepo dir, got %+v", a.Packages)
	}
	if len(a.MonorepoDirs) != 1 || a.MonorepoDirs[0] != "libs" {
		t.Errorf("MonorepoDirs = %v", a.MonorepoDirs)
	}
}

func TestRunnerAnalyzeCaches(t *testing.T) {
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(mem)
	ctx := context.Background()
	rep := sampleReport(t)

	first, hit, err := r.AnalyzeWithCacheInfo(ctx, rep, Options{})
	if err != nil || hit {
		t.Fatalf("first Analyze hit=%v err=%v", hit, err)
	}
	second, hit, err := r.AnalyzeWithCacheInfo(ctx, rep, Options{})
	if err != nil || !hit {
		t.Fatalf("second Analyze hit=%v err=%v", hit, err)
	}
	if first.ID == second.ID {
		t.Error("cached analysis reused the ID")
	}
	if second.Stats != first.Stats || len(second.Packages) != len(first.Packages) {
		t.Error("cached analysis differs from computed one")
	}
	if !second.CreatedAt.Equal(r.now()) {
		t.Errorf("CreatedAt = %v", second.CreatedAt)
	}

	_, hit, _ = r.AnalyzeWithCacheInfo(ctx, rep, Options{Refresh: true})
	if hit {
		t.Error("Refresh should bypass the cache")
	}
	_, hit, _ = r.AnalyzeWithCacheInfo(ctx, rep, Options{MonorepoDirs: []string{"apps"}})
	if hit {
		t.Error("different monorepo dirs must not share a cache entry")
	}
}

func TestRunnerAnalyzeInvalidOptions(t *testing.T) {
	_, err := testRunner(nil).Analyze(context.Background(), sampleReport(t), Options{Height: -3})
	if !errors.Is(err, errors.ErrCodeInvalidCanvas) {
		t.Errorf("error = %v", err)
	}
}

func TestRunnerTreemap(t *testing.T) {
	mem, _ := cache.NewMemoryCache(16)
	r := testRunner(mem)
	ctx := context.Background()
	a, err := r.Analyze(ctx, sampleReport(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	doc, hit, err := r.TreemapWithCacheInfo(ctx, a, Options{Width: 40, Height: 10})
	if err != nil || hit {
		t.Fatalf("Treemap() hit=%v err=%v", hit, err)
	}
	if doc.Width != 40 || doc.Height != 10 || doc.TotalBytes != 7000 || doc.AnalysisID != a.ID {
		t.Errorf("doc header = %+v", doc)
	}
	if len(doc.Tiles) != 4 {
		t.Fatalf("got %d tiles, want 4", len(doc.Tiles))
	}
	area, pct := 0, 0.0
	for _, tile := range doc.Tiles {
		area += tile.Area()
		pct += tile.Pct
	}
	if area != 400 || math.Abs(pct-1) > 1e-9 {
		t.Errorf("area = %d, pct = %v", area, pct)
	}
	if doc.Tiles[0].Name != "react" || doc.Tiles[0].Category != "npm" {
		t.Errorf("first tile = %+v", doc.Tiles[0])
	}

	_, hit, _ = r.TreemapWithCacheInfo(ctx, a, Options{Width: 40, Height: 10})
	if !hit {
		t.Error("second layout should be cached")
	}
}

func TestRunnerTreemapZoom(t *testing.T) {
	r := testRunner(nil)
	ctx := context.Background()
	a, _ := r.Analyze(ctx, sampleReport(t), Options{})

	doc, err := r.Treemap(ctx, a, Options{Width: 20, Height: 20, Zoom: "src (local)"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Scope != "src (local)" || doc.TotalBytes != 2000 {
		t.Errorf("zoom doc = %+v", doc)
	}
	if len(doc.Tiles) != 2 {
		t.Fatalf("zero-byte file should be dropped, got %d tiles", len(doc.Tiles))
	}
	top := doc.Tiles[0]
	if top.Name != "app.tsx" || top.Path != "src/app.tsx" || top.Pct != 0.75 || top.Category != "local" {
		t.Errorf("top tile = %+v", top)
	}

	_, err = r.Treemap(ctx, a, Options{Zoom: "vue"})
	if !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("unknown zoom error = %v", err)
	}
}

func TestRunnerTreemapEmptyAnalysis(t *testing.T) {
	r := testRunner(nil)
	rep, _ := report.ReadReport(strings.NewReader(`{"target":"empty","modules":[]}`), report.FormatJSON)
	a, err := r.Analyze(context.Background(), rep, Options{})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := r.Treemap(context.Background(), a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Tiles == nil || len(doc.Tiles) != 0 {
		t.Errorf("Tiles = %#v, want empty non-nil slice", doc.Tiles)
	}
}

func TestRunnerWhy(t *testing.T) {
	r := testRunner(nil)
	ctx := context.Background()
	a, _ := r.Analyze(ctx, sampleReport(t), Options{})

	tests := []struct {
		name      string
		target    string
		opts      Options
		wantChain []string
		wantPkg   string
	}{
		{
			name:      "module path",
			target:    "../../packages/ui/src/button.tsx",
			wantChain: []string{"src/main.tsx", "src/app.tsx", "../../packages/ui/src/button.tsx"},
			wantPkg:   "ui (workspace)",
		},
		{
			name:      "package resolves to largest file",
			target:    "react",
			wantChain: []string{"src/main.tsx", "src/app.tsx", "node_modules/react/index.js", "node_modules/react/cjs/react.production.js"},
			wantPkg:   "react",
		},
		{
			name:      "entry override",
			target:    "react",
			opts:      Options{Entry: "src/app.tsx"},
			wantChain: []string{"src/app.tsx", "node_modules/react/index.js", "node_modules/react/cjs/react.production.js"},
			wantPkg:   "react",
		},
		{
			name:      "dot-slash target",
			target:    "./src/app.tsx",
			wantChain: []string{"src/main.tsx", "src/app.tsx"},
			wantPkg:   "src (local)",
		},
		{
			name:      "backslash entry override",
			target:    "react",
			opts:      Options{Entry: ".\\src\\app.tsx"},
			wantChain: []string{"src/app.tsx", "node_modules/react/index.js", "node_modules/react/cjs/react.production.js"},
			wantPkg:   "react",
		},
		{
			name:    "unreachable",
			target:  "src/unused.ts",
			wantPkg: "src (local)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Why(ctx, a, tt.target, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if doc.Package != tt.wantPkg {
				t.Errorf("Package = %q, want %q", doc.Package, tt.wantPkg)
			}
			if doc.Found != (tt.wantChain != nil) || strings.Join(doc.Chain, ">") != strings.Join(tt.wantChain, ">") {
				t.Errorf("chain = %v (found=%v), want %v", doc.Chain, doc.Found, tt.wantChain)
			}
		})
	}

	if _, err := r.Why(ctx, a, "no-such-thing", Options{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown target error = %v", err)
	}
	if _, err := r.Why(ctx, a, "", Options{}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("empty target error = %v", err)
	}
}

func TestRunnerWhyWithoutEntry(t *testing.T) {
	r := testRunner(nil)
	rep := sampleReport(t)
	rep.Entry = ""
	a, _ := r.Analyze(context.Background(), rep, Options{})

	doc, err := r.Why(context.Background(), a, "react", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Found || doc.Chain != nil || doc.Entry != "" {
		t.Errorf("doc = %+v, want not found without entry", doc)
	}
}

func TestRunnerChains(t *testing.T) {
	r := testRunner(nil)
	ctx := context.Background()
	a, _ := r.Analyze(ctx, sampleReport(t), Options{})

	docs, err := r.Chains(ctx, a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 4 {
		t.Fatalf("got %d chains, want 4", len(docs))
	}
	if docs[0].Package != "react" || !docs[0].Found || docs[0].Depth() != 3 {
		t.Errorf("react chain = %+v", docs[0])
	}
	if docs[3].Package != "left-pad" || docs[3].Found {
		t.Errorf("left-pad is not imported, got %+v", docs[3])
	}

	limited, _ := r.Chains(ctx, a, Options{ChainLimit: 2})
	if len(limited) != 2 {
		t.Errorf("ChainLimit=2 returned %d chains", len(limited))
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnAnalyzeComplete(_ context.Context, target string, packages int, _ time.Duration, _ error) {
	h.add(fmt.Sprintf("analyze %s %d", target, packages))
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, scope string, tiles int, _ time.Duration, _ error) {
	h.add(fmt.Sprintf("layout %q %d", scope, tiles))
}

func (h *recordingHooks) OnChainComplete(_ context.Context, found bool, depth int, _ time.Duration) {
	h.add(fmt.Sprintf("chain %v %d", found, depth))
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string)  { h.add("hit " + keyType) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss " + keyType) }

func TestRunnerEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	mem, _ := cache.NewMemoryCache(4)
	r := testRunner(mem)
	ctx := context.Background()
	a, _ := r.Analyze(ctx, sampleReport(t), Options{})
	_, _ = r.Treemap(ctx, a, Options{})
	_, _ = r.Why(ctx, a, "react", Options{})

	want := []string{
		"miss analysis",
		"analyze web 4",
		"miss layout",
		`layout "" 4`,
		"chain true 3",
	}
	if strings.Join(hooks.events, "\n") != strings.Join(want, "\n") {
		t.Errorf("events =\n%s\nwant\n%s", strings.Join(hooks.events, "\n"), strings.Join(want, "\n"))
	}
}

func TestResolveTargetImportedOnly(t *testing.T) {
	a := &report.Analysis{ImportGraph: importgraph.Graph{"virtual:env": {"src/main.ts"}}}
	module, pkg, err := ResolveTarget(a, "virtual:env")
	if err != nil || module != "virtual:env" || pkg != "" {
		t.Errorf("ResolveTarget() = %q, %q, %v", module, pkg, err)
	}
}

type ttlCache struct {
	cache.NullCache
	ttls map[string]time.Duration
}

func (c *ttlCache) Set(_ context.Context, key string, _ []byte, ttl time.Duration) error {
	c.ttls[key] = ttl
	return nil
}

func TestRunnerTTLOverride(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name         string
		ttl          time.Duration
		wantAnalysis time.Duration
		wantLayout   time.Duration
	}{
		{"stage defaults", 0, cache.TTLAnalysis, cache.TTLLayout},
		{"override", time.Hour, time.Hour, time.Hour},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := &ttlCache{ttls: map[string]time.Duration{}}
			r := testRunner(c)
			r.TTL = tc.ttl
			a, err := r.Analyze(ctx, sampleReport(t), Options{})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := r.Treemap(ctx, a, Options{}); err != nil {
				t.Fatal(err)
			}
			for key, ttl := range c.ttls {
				want := tc.wantLayout
				if strings.HasPrefix(key, "analysis:") {
					want = tc.wantAnalysis
				}
				if ttl != want {
					t.Errorf("%s ttl = %v, want %v", key, ttl, want)
				}
			}
			if len(c.ttls) != 2 {
				t.Errorf("wrote %d entries, want 2", len(c.ttls))
			}
		})
	}
}

func TestBuildTreemapCountsOmitted(t *testing.T) {
	items := []treemap.Item{
		{Name: "big", Bytes: 90},
		{Name: "mid", Bytes: 8},
		{Name: "tiny", Bytes: 2},
		{Name: "empty", Bytes: 0},
	}
	tests := []struct {
		name    string
		w, h    int
		tiles   int
		omitted int
	}{
		{"roomy canvas", 40, 20, 3, 0},
		{"single cell", 1, 1, 1, 2},
		{"no canvas", 0, 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildTreemap(items, tt.w, tt.h)
			if len(doc.Tiles) != tt.tiles || doc.Omitted != tt.omitted {
				t.Errorf("tiles = %d omitted = %d, want %d and %d", len(doc.Tiles), doc.Omitted, tt.tiles, tt.omitted)
			}
			if doc.TotalBytes != 100 {
				t.Errorf("TotalBytes = %d, want 100", doc.TotalBytes)
			}
		})
	}
}
