package treemap

import (
	"cmp"
	"math"
	"slices"
)

// Item is one weighted entry to lay out.
type Item struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`

	// Path and Category are carried through to the tile untouched.
	Path     string `json:"path,omitempty"`
	Category string `json:"category,omitempty"`
}

// Tile is the rectangle assigned to one item.
type Tile struct {
	Name     string  `json:"name" yaml:"name"`
	Path     string  `json:"path,omitempty" yaml:"path,omitempty"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
	Bytes    int64   `json:"bytes" yaml:"bytes"`
	Pct      float64 `json:"pct" yaml:"pct"` // share of the laid-out total, 0..1
	X        int     `json:"x" yaml:"x"`
	Y        int     `json:"y" yaml:"y"`
	W        int     `json:"w" yaml:"w"`
	H        int     `json:"h" yaml:"h"`
}

// Area returns W*H.
func (t Tile) Area() int { return t.W * t.H }

// Contains reports whether the unit cell at (x, y) lies inside the tile.
func (t Tile) Contains(x, y int) bool {
	return x >= t.X && x < t.X+t.W && y >= t.Y && y < t.Y+t.H
}

// Overlaps reports whether two tiles share a region of positive area.
func (t Tile) Overlaps(o Tile) bool {
	return t.X < o.X+o.W && o.X < t.X+t.W && t.Y < o.Y+o.H && o.Y < t.Y+t.H
}

// Layout assigns a tile to every item with positive bytes inside the
// rectangle with origin (x, y) and size w×h.
//
// The result is empty when no item has positive bytes or when w or h is not
// positive. Tiles are returned largest item first in the order the recursion
// visits them. items is not modified.
func Layout(items []Item, x, y, w, h int) []Tile {
	if w <= 0 || h <= 0 {
		return nil
	}

	sorted := make([]Item, 0, len(items))
	var total int64
	for _, it := range items {
		if it.Bytes > 0 {
			sorted = append(sorted, it)
			total += it.Bytes
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return cmp.Compare(b.Bytes, a.Bytes)
	})

	l := layouter{total: total, tiles: make([]Tile, 0, len(sorted))}
	l.split(sorted, total, rect{x, y, w, h})
	return l.tiles
}

type rect struct{ x, y, w, h int }

// layouter accumulates tiles across the recursion. total is the weight of
// the whole item set and is the base of every tile's percentage.
type layouter struct {
	total int64
	tiles []Tile
}

// split lays out items, whose weights sum to sum, inside r.
func (l *layouter) split(items []Item, sum int64, r rect) {
	if len(items) == 0 || r.w <= 0 || r.h <= 0 {
		return
	}
	if len(items) == 1 {
		it := items[0]
		l.tiles = append(l.tiles, Tile{
			Name:     it.Name,
			Path:     it.Path,
			Category: it.Category,
			Bytes:    it.Bytes,
			Pct:      float64(it.Bytes) / float64(l.total),
			X:        r.x,
			Y:        r.y,
			W:        r.w,
			H:        r.h,
		})
		return
	}

	idx, firstSum := splitIndex(items, sum)
	first, second := items[:idx], items[idx:]
	ratio := float64(firstSum) / float64(sum)

	if r.w >= r.h {
		lw, rw := divide(r.w, ratio)
		l.split(first, firstSum, rect{r.x, r.y, lw, r.h})
		l.split(second, sum-firstSum, rect{r.x + lw, r.y, rw, r.h})
		return
	}
	th, bh := divide(r.h, ratio)
	l.split(first, firstSum, rect{r.x, r.y, r.w, th})
	l.split(second, sum-firstSum, rect{r.x, r.y + th, r.w, bh})
}

// splitIndex returns the length of the shortest prefix whose running sum
// reaches half of sum, together with that prefix's weight. The prefix never
// swallows the whole list: items are sorted descending, so the last item is
// at most half the total.
func splitIndex(items []Item, sum int64) (int, int64) {
	var running int64
	for i := 0; i < len(items)-1; i++ {
		running += items[i].Bytes
		if 2*running >= sum {
			return i + 1, running
		}
	}
	last := len(items) - 1
	return last, sum - items[last].Bytes
}

// divide splits length into two whole parts in the given ratio. Each part
// gets at least one unit when length allows it; a single unit goes entirely
// to the first part, leaving the second part empty.
func divide(length int, ratio float64) (int, int) {
	if length < 2 {
		return length, 0
	}
	a := min(max(1, int(math.Round(float64(length)*ratio))), length-1)
	return a, length - a
}
