// Package treemap partitions a rectangle into tiles proportional to item size.
//
// # Overview
//
// [Layout] implements a binary-split variant of the squarified treemap. Items
// are sorted by size, split into two runs of roughly equal weight, and each
// run receives a share of the rectangle proportional to its weight. The cut
// runs across the longer side, which keeps tiles close to square instead of
// degenerating into the thin slivers of a slice-and-dice layout. The halves
// are laid out recursively until a single item fills its region.
//
// # Units
//
// Coordinates are integers in an abstract unit: character cells for a
// terminal grid, pixels for a canvas. Every split rounds to whole units and
// gives each side at least one unit, so items with positive weight remain
// visible even under extreme size skew. Only a region of a single cell that
// would have to hold several items drops the smaller ones.
//
// # Usage
//
//	tiles := treemap.Layout([]treemap.Item{
//	    {Name: "react", Bytes: 130_000},
//	    {Name: "src (local)", Bytes: 42_000},
//	}, 0, 0, 80, 24)
//
// Percentages in [Tile.Pct] are shares of the total of the items actually laid
// out, so a zoomed layout of one package reports shares of that package.
//
// # Guarantees
//
//   - Items with zero or negative bytes never produce a tile.
//   - Tiles do not overlap.
//   - Tiles stay inside the rectangle and, together, cover all of it.
//   - The output depends only on the input; equal-sized items keep their
//     input order.
package treemap
