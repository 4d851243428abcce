package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/klumpen/pkg/cache"
	"github.com/matzehuels/klumpen/pkg/observability"
	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/report"
	"github.com/matzehuels/klumpen/pkg/storage"
)

const webReport = `{
  "target": "web",
  "bundler": "vite",
  "entry": "src/main.tsx",
  "output_bytes": 6000,
  "modules": [
    {"path": "src/main.tsx", "bytes": 500},
    {"path": "src/app.tsx", "bytes": 1500},
    {"path": "node_modules/react/index.js", "bytes": 600},
    {"path": "node_modules/react/cjs/react.production.js", "bytes": 3400}
  ],
  "imports": {
    "src/main.tsx": [{"path": "src/app.tsx"}],
    "src/app.tsx": [{"path": "node_modules/react/index.js"}],
    "node_modules/react/index.js": [{"path": "node_modules/react/cjs/react.production.js"}]
  }
}`

const yamlReport = `target: admin
entry: src/index.ts
modules:
  - path: src/index.ts
    bytes: 100
  - path: node_modules/lodash/lodash.js
    bytes: 900
imports:
  src/index.ts:
    - path: node_modules/lodash/lodash.js
`

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	mc, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetHTTPHooks(hooks)
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := New(Config{
		Runner:   pipeline.NewRunner(mc, nil, nil),
		Store:    storage.NewMemoryStore(),
		Gatherer: reg,
		Defaults: pipeline.Options{Width: 40, Height: 20},
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, reg
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func create(t *testing.T, ts *httptest.Server, contentType, body string) *report.Analysis {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/v1/analyses", contentType, body)
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST status = %d: %s", resp.StatusCode, b)
	}
	return decode[*report.Analysis](t, resp)
}

func TestCreateAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	a := create(t, ts, "application/json", webReport)
	if a.ID == "" || a.Target != "web" {
		t.Fatalf("analysis = %+v", a)
	}
	if len(a.Packages) != 2 || a.Packages[0].Name != "react" || a.Packages[0].Bytes != 4000 {
		t.Errorf("packages = %+v", a.Packages)
	}

	resp := do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	got := decode[*report.Analysis](t, resp)
	if got.ID != a.ID || got.Stats.Modules != 4 {
		t.Errorf("GET = %+v", got)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestCreateCacheHeader(t *testing.T) {
	ts, _ := newTestServer(t)
	first := do(t, http.MethodPost, ts.URL+"/v1/analyses", "application/json", webReport)
	second := do(t, http.MethodPost, ts.URL+"/v1/analyses", "application/json", webReport)
	if got := first.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	if got := second.Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	a, b := decode[*report.Analysis](t, first), decode[*report.Analysis](t, second)
	if a.ID == b.ID {
		t.Error("cached analyses must get their own ID")
	}
}

func TestCreateYAML(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, tc := range []struct{ name, url, ct string }{
		{"content type", "/v1/analyses", "application/yaml"},
		{"query", "/v1/analyses?format=yaml", "text/plain"},
		{"sniffed", "/v1/analyses", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+tc.url, tc.ct, yamlReport)
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			a := decode[*report.Analysis](t, resp)
			if a.Target != "admin" || a.Stats.Modules != 2 {
				t.Errorf("analysis = %+v", a)
			}
		})
	}
}

func TestYAMLResponse(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/analyses/"+a.ID, nil)
	req.Header.Set("Accept", "application/yaml")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "target: web") {
		t.Errorf("body is not YAML:\n%s", b)
	}
}

func TestErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)
	const missing = "00000000-0000-4000-8000-000000000000"

	tests := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"bad report", http.MethodPost, "/v1/analyses", `{"modules": [{"path": ""}]}`, http.StatusBadRequest, "INVALID_REPORT"},
		{"garbage", http.MethodPost, "/v1/analyses", `{not json`, http.StatusBadRequest, "INVALID_REPORT"},
		{"bad format", http.MethodPost, "/v1/analyses?format=xml", webReport, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad id", http.MethodGet, "/v1/analyses/nope", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"missing analysis", http.MethodGet, "/v1/analyses/" + missing, "", http.StatusNotFound, "ANALYSIS_NOT_FOUND"},
		{"bad width", http.MethodGet, "/v1/analyses/" + a.ID + "/treemap?width=wide", "", http.StatusBadRequest, "INVALID_CANVAS"},
		{"negative height", http.MethodGet, "/v1/analyses/" + a.ID + "/treemap?height=-3", "", http.StatusBadRequest, "INVALID_CANVAS"},
		{"unknown zoom", http.MethodGet, "/v1/analyses/" + a.ID + "/treemap?zoom=vue", "", http.StatusNotFound, "PACKAGE_NOT_FOUND"},
		{"unknown target", http.MethodGet, "/v1/analyses/" + a.ID + "/chain?target=vue", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad limit", http.MethodGet, "/v1/analyses?limit=ten", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"no route", http.MethodGet, "/v2/things", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad method", http.MethodPut, "/v1/analyses", "", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, "", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorBody](t, resp)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.code, body.Message)
			}
			if body.RequestID == "" || body.RequestID != resp.Header.Get("X-Request-Id") {
				t.Errorf("request_id = %q, header = %q", body.RequestID, resp.Header.Get("X-Request-Id"))
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv := New(Config{
		Runner:       pipeline.NewRunner(nil, nil, nil),
		Store:        storage.NewMemoryStore(),
		MaxBodyBytes: 64,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/v1/analyses", "application/json", webReport)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestListAndDelete(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)
	create(t, ts, "application/yaml", yamlReport)

	list := decode[listResponse](t, do(t, http.MethodGet, ts.URL+"/v1/analyses", "", ""))
	if len(list.Analyses) != 2 {
		t.Fatalf("listed %d analyses, want 2", len(list.Analyses))
	}
	limited := decode[listResponse](t, do(t, http.MethodGet, ts.URL+"/v1/analyses?limit=1", "", ""))
	if len(limited.Analyses) != 1 {
		t.Errorf("limit=1 listed %d", len(limited.Analyses))
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/v1/analyses/"+a.ID, "", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID, "", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, ts.URL+"/v1/analyses/"+a.ID, "", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d", resp.StatusCode)
	}
}

func TestEmptyList(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/v1/analyses", "", "")
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), `"analyses": []`) {
		t.Errorf("empty list should be an empty array:\n%s", b)
	}
}

func TestTreemap(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)

	resp := do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/treemap", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc := decode[report.TreemapDoc](t, resp)
	if doc.Width != 40 || doc.Height != 20 {
		t.Errorf("canvas = %dx%d, want server defaults 40x20", doc.Width, doc.Height)
	}
	if doc.AnalysisID != a.ID || doc.TotalBytes != 6000 || len(doc.Tiles) != 2 {
		t.Errorf("doc = %+v", doc)
	}

	zoomed := decode[report.TreemapDoc](t, do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/treemap?zoom=react&width=10&height=10", "", ""))
	if zoomed.Scope != "react" || zoomed.Width != 10 || len(zoomed.Tiles) != 2 {
		t.Errorf("zoomed = %+v", zoomed)
	}
	area := 0
	for _, tile := range zoomed.Tiles {
		area += tile.Area()
	}
	if area != 100 {
		t.Errorf("zoomed tiles cover %d cells, want 100", area)
	}
}

func TestChain(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)

	doc := decode[report.ChainDoc](t, do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/chain?target=react", "", ""))
	want := []string{"src/main.tsx", "src/app.tsx", "node_modules/react/index.js", "node_modules/react/cjs/react.production.js"}
	if !doc.Found || strings.Join(doc.Chain, ",") != strings.Join(want, ",") {
		t.Errorf("chain = %+v", doc)
	}

	all := decode[chainsResponse](t, do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/chain", "", ""))
	if all.AnalysisID != a.ID || len(all.Chains) != 2 {
		t.Errorf("chains = %+v", all)
	}
	one := decode[chainsResponse](t, do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/chain?limit=1", "", ""))
	if len(one.Chains) != 1 || one.Chains[0].Package != "react" {
		t.Errorf("limit=1 chains = %+v", one.Chains)
	}
}

func TestGraph(t *testing.T) {
	ts, _ := newTestServer(t)
	a := create(t, ts, "application/json", webReport)

	resp := do(t, http.MethodGet, ts.URL+"/v1/analyses/"+a.ID+"/graph.dot?target=src/app.tsx", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	b, _ := io.ReadAll(resp.Body)
	dot := string(b)
	if !strings.Contains(dot, `"src/main.tsx" -> "src/app.tsx";`) || strings.Contains(dot, "react") {
		t.Errorf("unexpected chain graph:\n%s", dot)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, reg := newTestServer(t)

	health := decode[healthResponse](t, do(t, http.MethodGet, ts.URL+"/healthz", "", ""))
	if health.Status != "ok" || health.Version == "" {
		t.Errorf("health = %+v", health)
	}
	create(t, ts, "application/json", webReport)

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "klumpen_http_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", b)
	}
	n, err := testutil.GatherAndCount(reg, "klumpen_http_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	if n < 2 {
		t.Errorf("request series = %d, want one per route", n)
	}
}
