package importgraph

import (
	"reflect"
	"testing"
)

func TestBuild(t *testing.T) {
	imports := map[string][]Import{
		"src/main.ts": {{Path: "src/app.ts"}, {Path: "src/util.ts"}},
		"src/app.ts":  {{Path: "src/util.ts"}, {Path: "node_modules/react/index.js"}},
		"src/util.ts": nil,
		"chunk-b.js":  {{Path: "src/util.ts"}, {Path: ""}},
	}
	g := Build(imports)

	tests := []struct {
		module string
		want   []string
	}{
		{"src/app.ts", []string{"src/main.ts"}},
		{"src/util.ts", []string{"chunk-b.js", "src/app.ts", "src/main.ts"}},
		{"node_modules/react/index.js", []string{"src/app.ts"}},
		{"src/main.ts", nil},
	}
	for _, tt := range tests {
		if got := g.Importers(tt.module); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Importers(%q) = %v, want %v", tt.module, got, tt.want)
		}
	}
	if _, ok := g[""]; ok {
		t.Error("empty import path should be skipped")
	}
	if got := g.EdgeCount(); got != 5 {
		t.Errorf("EdgeCount() = %d, want 5", got)
	}
}

func TestBuildKeepsDuplicates(t *testing.T) {
	g := Build(map[string][]Import{
		"a.js": {{Path: "shared.js"}, {Path: "shared.js"}},
	})
	if got := g.Importers("shared.js"); len(got) != 2 {
		t.Errorf("Importers() = %v, want duplicate entries", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	if g := Build(nil); len(g) != 0 {
		t.Errorf("Build(nil) = %v", g)
	}
}

func TestModules(t *testing.T) {
	g := Graph{"B": {"A"}, "C": {"B"}, "D": {"B"}}
	want := []string{"A", "B", "C", "D"}
	if got := g.Modules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
}

func TestSubgraph(t *testing.T) {
	g := Graph{"B": {"A", "X"}, "C": {"B"}, "D": {"B"}}
	sub := Subgraph(g, []string{"A", "B", "C"})
	want := Graph{"B": {"A"}, "C": {"B"}}
	if !reflect.DeepEqual(sub, want) {
		t.Errorf("Subgraph() = %v, want %v", sub, want)
	}
	if got := Subgraph(g, []string{"A"}); len(got) != 0 {
		t.Errorf("single-element chain gave %v", got)
	}
}

func TestShortPath(t *testing.T) {
	tests := map[string]string{
		"node_modules/react/index.js":                  "react/index.js",
		"node_modules/.pnpm/a@1/node_modules/a/lib.js": "a/lib.js",
		"src/app.ts": "src/app.ts",
		"/abs/repo/node_modules/@scope/pkg/dist/index.js": "@scope/pkg/dist/index.js",
	}
	for in, want := range tests {
		if got := ShortPath(in); got != want {
			t.Errorf("ShortPath(%q) = %q, want %q", in, got, want)
		}
	}
}
