// Package bundle groups bundler module records into size-ranked packages.
//
// # Overview
//
// A bundler reports every physical input file it pulled into an output, together
// with the number of bytes that file contributed. Looking at thousands of such
// files is not useful on its own; this package folds them into a small number of
// named groups so size attribution is meaningful at a glance:
//
//   - Dependencies installed by a package manager: "lodash", "@scope/pkg"
//   - Sibling packages of a monorepo reached through a workspace symlink: "ui (workspace)"
//   - The project's own source, grouped by top-level directory: "src (local)"
//
// # Classification
//
// [Classify] maps a single path to its group name. The rules are applied in order
// and the first match wins:
//
//  1. Any path containing "node_modules/" belongs to the package named after the
//     last such segment. Scoped names keep their scope: "@babel/core".
//  2. Paths leaving the working directory ("../../packages/ui/src/x.ts") are
//     workspace members when their first real segment is a known monorepo
//     directory, and local groups otherwise.
//  3. Everything else is local source, grouped by its first directory.
//
// The set of monorepo directories is configurable through [Classifier].
//
// # Aggregation
//
// [Aggregate] classifies a slice of [ModuleRecord] values and returns the groups
// sorted by total size, each with its files sorted by size:
//
//	groups := bundle.Aggregate(bundle.Dedupe(records))
//	for _, g := range groups {
//	    fmt.Println(g.Name, bundle.FormatBytes(g.Bytes))
//	}
//
// The total of all group sizes always equals the total of all record sizes.
//
// # Concurrency
//
// Every function in this package is pure. A [Classifier] is immutable after
// construction and may be shared between goroutines.
package bundle
