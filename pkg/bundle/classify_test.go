package bundle

import (
	"slices"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"Package", "node_modules/lodash/index.js", "lodash"},
		{"ScopedPackage", "node_modules/@scope/pkg/dist/x.js", "@scope/pkg"},
		{"WorkspaceMember", "../../packages/ui/src/index.ts", "ui (workspace)"},
		{"OutsideCwd", "../../other/file.ts", "other (local)"},
		{"LocalSource", "src/app.ts", "src (local)"},

		{"NestedInstall", "node_modules/a/node_modules/b/lib/b.js", "b"},
		{"PnpmVirtualStore", "node_modules/.pnpm/react@18.2.0/node_modules/react/index.js", "react"},
		{"SymlinkedAbsolute", "/home/me/repo/node_modules/@babel/core/lib/index.js", "@babel/core"},
		{"MidPathSegment", "../../node_modules/zod/lib/index.mjs", "zod"},
		{"ScopeWithoutName", "node_modules/@scope", "@scope"},
		{"EmptyAfterSegment", "vendor/node_modules/", LocalGroup},
		{"DotSlashLocal", "./src/main.tsx", "src (local)"},
		{"DotSlashWorkspace", "./../apps/web/main.ts", "web (workspace)"},
		{"AllWorkspaceDirs", "../libs/core/x.ts", "core (workspace)"},
		{"MonorepoDirWithoutMember", "../../packages", "packages (local)"},
		{"OnlyParents", "../..", LocalGroup},
		{"TrailingParent", "../", LocalGroup},
		{"RootFile", "index.ts", LocalGroup},
		{"DotSlashRootFile", "./index.ts", LocalGroup},
		{"Empty", "", LocalGroup},
		{"LeadingSlashLocal", "/abs.ts", LocalGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifierCustomDirs(t *testing.T) {
	c := NewClassifier("crates", "/tools/")

	if got := c.Classify("../../crates/parser/lib.ts"); got != "parser (workspace)" {
		t.Errorf("custom dir: got %q", got)
	}
	if got := c.Classify("../../tools/gen/main.ts"); got != "gen (workspace)" {
		t.Errorf("trimmed dir: got %q", got)
	}
	// Defaults no longer apply once dirs are given.
	if got := c.Classify("../../packages/ui/index.ts"); got != "packages (local)" {
		t.Errorf("default dir with custom classifier: got %q", got)
	}

	dirs := c.MonorepoDirs()
	if !slices.Equal(dirs, []string{"crates", "tools"}) {
		t.Errorf("MonorepoDirs() = %v", dirs)
	}
}

func TestNewClassifierDefaults(t *testing.T) {
	dirs := NewClassifier().MonorepoDirs()
	want := slices.Clone(DefaultMonorepoDirs)
	slices.Sort(want)
	if !slices.Equal(dirs, want) {
		t.Errorf("MonorepoDirs() = %v, want %v", dirs, want)
	}
	for i := 0; i < 20; i++ {
		if again := NewClassifier().MonorepoDirs(); !slices.Equal(again, dirs) {
			t.Fatalf("MonorepoDirs() order changed: %v then %v", dirs, again)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"lodash", CategoryNPM},
		{"@scope/pkg", CategoryNPM},
		{"ui (workspace)", CategoryWorkspace},
		{"src (local)", CategoryLocal},
		{LocalGroup, CategoryLocal},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.name); got != tt.want {
			t.Errorf("CategoryOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
