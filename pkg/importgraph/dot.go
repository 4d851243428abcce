package importgraph

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Highlight marks modules that should stand out, typically a chain.
	Highlight []string

	// Short labels nodes with [ShortPath] instead of the full module path.
	Short bool
}

// ToDOT converts g to Graphviz DOT with edges pointing from importer to
// importee. Nodes and edges are emitted in lexical order so the output is
// stable across runs.
func ToDOT(g Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph imports {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	for _, m := range g.Modules() {
		label := m
		if opts.Short {
			label = ShortPath(m)
		}
		attrs := fmt.Sprintf("label=%q", label)
		if slices.Contains(opts.Highlight, m) {
			attrs += ", fillcolor=\"#73c936\""
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", m, attrs)
	}

	buf.WriteString("\n")
	for _, to := range slices.Sorted(maps.Keys(g)) {
		seen := make(map[string]struct{})
		for _, from := range g[to] {
			if _, dup := seen[from]; dup {
				continue
			}
			seen[from] = struct{}{}
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOT lays out a DOT graph with Graphviz and returns the result as DOT
// annotated with node positions and edge splines.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
