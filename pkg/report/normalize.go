package report

import (
	"path"
	"strings"

	"github.com/matzehuels/klumpen/pkg/importgraph"
)

const nodeModules = "node_modules/"

// Normalize rewrites every path in the report with [NormalizePath], clamps
// negative byte counts to zero, keeps only the largest record of duplicate
// paths and fills in missing External flags. It is idempotent.
func (r *Report) Normalize() {
	root := cleanRoot(r.Root)

	if r.OutputBytes < 0 {
		r.OutputBytes = 0
	}
	r.Entry = NormalizePath(root, r.Entry)

	modules := make([]Module, 0, len(r.Modules))
	index := make(map[string]int, len(r.Modules))
	for _, m := range r.Modules {
		m.Path = NormalizePath(root, m.Path)
		m.Bytes = max(m.Bytes, 0)
		if m.External == nil {
			ext := strings.Contains(m.Path, nodeModules)
			m.External = &ext
		}
		if i, ok := index[m.Path]; ok {
			if m.Bytes > modules[i].Bytes {
				modules[i] = m
			}
			continue
		}
		index[m.Path] = len(modules)
		modules = append(modules, m)
	}
	r.Modules = modules

	if len(r.Imports) > 0 {
		imports := make(map[string][]importgraph.Import, len(r.Imports))
		for file, imps := range r.Imports {
			file = NormalizePath(root, file)
			for _, imp := range imps {
				imp.Path = NormalizePath(root, imp.Path)
				imports[file] = append(imports[file], imp)
			}
		}
		r.Imports = imports
	}
}

// NormalizePath turns a module path as emitted by a bundler into the form
// the classifier expects:
//
//   - backslashes become forward slashes
//   - a "?query" suffix is dropped
//   - a root prefix is stripped, making the path project-relative
//   - remaining absolute paths into node_modules start at node_modules/
//
// Relative prefixes such as "./" and "../" are kept.
func NormalizePath(root, p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if root != "" && strings.HasPrefix(p, root) {
		p = p[len(root):]
	}
	if path.IsAbs(p) || hasDrive(p) {
		if i := strings.Index(p, nodeModules); i >= 0 {
			p = p[i:]
		}
	}
	return p
}

func cleanRoot(root string) string {
	if root == "" {
		return ""
	}
	root = strings.ReplaceAll(root, `\`, "/")
	return strings.TrimSuffix(root, "/") + "/"
}

// hasDrive reports whether p starts with a Windows drive letter.
func hasDrive(p string) bool {
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		(p[0] >= 'a' && p[0] <= 'z' || p[0] >= 'A' && p[0] <= 'Z')
}
