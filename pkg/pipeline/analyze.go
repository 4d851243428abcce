package pipeline

import (
	"path"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/importgraph"
	"github.com/matzehuels/klumpen/pkg/report"
	"github.com/matzehuels/klumpen/pkg/treemap"
)

// BuildAnalysis aggregates a normalized report. The result has no ID or
// timestamp; [Runner.Analyze] assigns those.
func BuildAnalysis(rep *report.Report, monorepoDirs []string) *report.Analysis {
	c := bundle.NewClassifier(monorepoDirs...)
	modules := bundle.Dedupe(rep.Records())
	packages := c.Aggregate(modules)
	if modules == nil {
		modules = []bundle.ModuleRecord{}
	}
	if packages == nil {
		packages = []bundle.PackageGroup{}
	}
	g := importgraph.Build(rep.Imports)

	return &report.Analysis{
		Target:       rep.Target,
		Bundler:      rep.Bundler,
		Entry:        rep.Entry,
		MonorepoDirs: c.MonorepoDirs(),
		OutputBytes:  rep.OutputBytes,
		InputBytes:   bundle.TotalBytes(modules),
		Modules:      modules,
		Packages:     packages,
		ImportGraph:  g,
		Stats:        report.ComputeStats(modules, packages, g),
	}
}

// TreemapItems returns the items of a treemap: one per package, or one per
// file of the package named zoom. Zoomed items are named by file name and
// keep their full path.
func TreemapItems(a *report.Analysis, zoom string) ([]treemap.Item, error) {
	if zoom == "" {
		items := make([]treemap.Item, len(a.Packages))
		for i, g := range a.Packages {
			items[i] = treemap.Item{Name: g.Name, Bytes: g.Bytes, Category: string(g.Category())}
		}
		return items, nil
	}

	g, ok := a.Package(zoom)
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no package named %q in %s", zoom, a.Target)
	}
	category := string(g.Category())
	items := make([]treemap.Item, len(g.Files))
	for i, f := range g.Files {
		items[i] = treemap.Item{Name: path.Base(f.Path), Bytes: f.Bytes, Path: f.Path, Category: category}
	}
	return items, nil
}

// BuildTreemap lays out items on a w×h canvas.
func BuildTreemap(items []treemap.Item, w, h int) *report.TreemapDoc {
	tiles := treemap.Layout(items, 0, 0, w, h)
	doc := &report.TreemapDoc{Width: w, Height: h, Tiles: tiles}
	if doc.Tiles == nil {
		doc.Tiles = []treemap.Tile{}
	}
	visible := 0
	for _, it := range items {
		if it.Bytes > 0 {
			doc.TotalBytes += it.Bytes
			visible++
		}
	}
	doc.Omitted = visible - len(doc.Tiles)
	return doc
}
