// Package importgraph answers "why is this module in my bundle?".
//
// A bundler knows, for every input file, which other files it imports. This
// package inverts that relation into a [Graph] keyed by the imported module,
// listing the modules that import it:
//
//	imports := map[string][]importgraph.Import{
//	    "src/main.ts": {{Path: "src/app.ts"}},
//	    "src/app.ts":  {{Path: "node_modules/lodash/lodash.js"}},
//	}
//	g := importgraph.Build(imports)
//	g.Importers("src/app.ts") // ["src/main.ts"]
//
// The reverse orientation is what chain queries need: they start at an
// arbitrary module deep inside the bundle and walk toward the entry point.
//
// # Chains
//
// [FindChain] runs a breadth-first search from the target over importers and
// returns the first path that reaches the entry, ordered entry first:
//
//	chain, ok := importgraph.FindChain(g, "node_modules/lodash/lodash.js", "src/main.ts")
//	// chain = [src/main.ts src/app.ts node_modules/lodash/lodash.js]
//
// Breadth-first order makes the chain a shortest one by edge count. Each module
// is expanded at most once, so circular imports cannot loop forever; the price
// is that only one shortest chain is reported, never all of them.
//
// # DOT Export
//
// [ToDOT] writes a graph (or the [Subgraph] spanned by a chain) in Graphviz DOT
// syntax with edges pointing from importer to importee. [RenderDOT] runs the
// Graphviz layout engine and returns DOT annotated with positions.
package importgraph
