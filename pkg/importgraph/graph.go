package importgraph

import (
	"maps"
	"slices"
	"strings"
)

// Import is one import statement of a module as reported by the bundler.
type Import struct {
	Path string `json:"path" yaml:"path"`
}

// Graph maps a module path to the paths of the modules that import it.
//
// Importer lists keep insertion order and may hold duplicates when a module
// is imported from several chunks; chain queries only need reachability.
type Graph map[string][]string

// Build inverts per-module import lists into a [Graph]: for every file and
// every path it imports, file is appended to the importers of that path.
//
// Files are visited in lexical order so the importer lists do not depend on
// map iteration order.
func Build(imports map[string][]Import) Graph {
	g := make(Graph)
	for _, file := range slices.Sorted(maps.Keys(imports)) {
		for _, imp := range imports[file] {
			if imp.Path == "" {
				continue
			}
			g[imp.Path] = append(g[imp.Path], file)
		}
	}
	return g
}

// Importers returns the modules that directly import path.
func (g Graph) Importers(path string) []string {
	return g[path]
}

// Modules returns every module that appears in the graph, as importer or
// importee, sorted lexically.
func (g Graph) Modules() []string {
	seen := make(map[string]struct{}, len(g))
	for to, froms := range g {
		seen[to] = struct{}{}
		for _, from := range froms {
			seen[from] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// EdgeCount returns the number of importer entries, duplicates included.
func (g Graph) EdgeCount() int {
	n := 0
	for _, froms := range g {
		n += len(froms)
	}
	return n
}

// Subgraph returns the graph restricted to consecutive links of chain, as
// returned by [FindChain].
func Subgraph(g Graph, chain []string) Graph {
	sub := make(Graph)
	for i := 1; i < len(chain); i++ {
		from, to := chain[i-1], chain[i]
		if slices.Contains(g[to], from) && !slices.Contains(sub[to], from) {
			sub[to] = append(sub[to], from)
		}
	}
	return sub
}

// ShortPath trims everything up to the last node_modules/ segment, which is
// how dependency paths are usually displayed.
func ShortPath(path string) string {
	const seg = "node_modules/"
	if i := strings.LastIndex(path, seg); i >= 0 {
		return path[i+len(seg):]
	}
	return path
}
