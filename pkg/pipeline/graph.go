package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/importgraph"
	"github.com/matzehuels/klumpen/pkg/report"
)

// GraphOptions selects what [Runner.Graph] exports.
type GraphOptions struct {
	// Target restricts the graph to the chain from the entry to this module
	// or package. Empty exports the whole graph.
	Target string

	// Short labels nodes with their short path.
	Short bool

	// Layout runs Graphviz and returns positioned DOT.
	Layout bool
}

// Graph exports the import graph of a as DOT.
//
// With a target, an unreachable module is a NOT_FOUND error rather than an
// empty graph.
func (r *Runner) Graph(ctx context.Context, a *report.Analysis, gopts GraphOptions, opts Options) ([]byte, error) {
	g := a.ImportGraph
	var highlight []string

	if gopts.Target != "" {
		doc, err := r.Why(ctx, a, gopts.Target, opts)
		if err != nil {
			return nil, err
		}
		if !doc.Found {
			if doc.Entry == "" {
				return nil, errors.New(errors.ErrCodeUnsupported, "report has no entry module, pass an entry to trace %q", gopts.Target)
			}
			return nil, errors.New(errors.ErrCodeNotFound, "%s is not reachable from %s", doc.Target, doc.Entry)
		}
		g = importgraph.Subgraph(g, doc.Chain)
		highlight = doc.Chain
	}

	dot := importgraph.ToDOT(g, importgraph.DOTOptions{Highlight: highlight, Short: gopts.Short})
	if !gopts.Layout {
		return []byte(dot), nil
	}

	start := time.Now()
	out, err := importgraph.RenderDOT(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz layout")
	}
	r.Logger.Debug("laid out import graph", "nodes", len(g.Modules()), "duration", time.Since(start))
	return out, nil
}
