// Package pkg provides the core libraries for klumpen bundle-size analysis.
//
// # Overview
//
// klumpen reads the module report a JavaScript bundler emits, attributes
// every byte of the output bundle to the package it came from, and answers
// two questions: where do the bytes go, and why is a package in the bundle
// at all. The pkg directory is organized into three areas:
//
//  1. Domain logic: [bundle], [importgraph], [treemap], [report]
//  2. Orchestration: [pipeline]
//  3. Infrastructure: [cache], [storage], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	bundler report (JSON or YAML)
//	         ↓
//	    [report] package (decode, normalize paths)
//	         ↓
//	    [bundle] package (classify, dedupe, aggregate)
//	         ↓
//	    [importgraph] package (import graph, chains, DOT)
//	         ↓
//	    [treemap] package (tile layout)
//
// # Quick Start
//
//	rep, _ := report.ImportReport("stats.json")
//
//	r := pipeline.NewRunner(cache.NewNullCache(), cache.DefaultKeyer{}, nil)
//	a, _ := r.Analyze(ctx, rep, pipeline.Options{})
//	doc, _ := r.Treemap(ctx, a, pipeline.Options{Width: 120, Height: 40})
//	chain, _ := r.Why(ctx, a, "lodash", pipeline.Options{})
//
// # Packages
//
// [bundle] classifies module paths into packages and aggregates sizes.
//
// [importgraph] builds the import graph, finds the shortest import chain from
// the entry to a module, and renders subgraphs as Graphviz DOT.
//
// [treemap] lays out weighted items as integer rectangles with a recursive
// binary split.
//
// [report] holds the input and output documents and their JSON/YAML codecs.
//
// [pipeline] runs the stages with caching and is shared by the CLI and the
// HTTP server.
//
// [cache] provides memory, file, Redis, and null caches keyed by input hash.
//
// [storage] persists analyses for history in memory, on disk, or in MongoDB.
//
// [observability] exposes hooks for pipeline and HTTP events with a
// Prometheus implementation.
//
// # Testing
//
//	go test ./...
//	go test -run Example ./pkg/...
//
// [bundle]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/bundle
// [importgraph]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/importgraph
// [treemap]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/treemap
// [report]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/storage
// [observability]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/klumpen/pkg/buildinfo
package pkg
