package treemap

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestLayoutSingleItem(t *testing.T) {
	tiles := Layout([]Item{{Name: "only", Bytes: 100}}, 0, 0, 40, 10)
	if len(tiles) != 1 {
		t.Fatalf("got %d tiles, want 1", len(tiles))
	}
	want := Tile{Name: "only", Bytes: 100, Pct: 1, X: 0, Y: 0, W: 40, H: 10}
	if tiles[0] != want {
		t.Errorf("tile = %+v, want %+v", tiles[0], want)
	}
}

func TestLayoutDegenerate(t *testing.T) {
	items := []Item{{Name: "a", Bytes: 10}}
	tests := []struct {
		name  string
		items []Item
		w, h  int
	}{
		{"NoItems", nil, 10, 10},
		{"AllZero", []Item{{Name: "a"}, {Name: "b", Bytes: -3}}, 10, 10},
		{"ZeroWidth", items, 0, 10},
		{"ZeroHeight", items, 10, 0},
		{"NegativeWidth", items, -5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Layout(tt.items, 0, 0, tt.w, tt.h); len(got) != 0 {
				t.Errorf("Layout() = %v, want empty", got)
			}
		})
	}
}

func TestLayoutZeroWeightExcluded(t *testing.T) {
	items := []Item{
		{Name: "big", Bytes: 80},
		{Name: "zero", Bytes: 0},
		{Name: "small", Bytes: 20},
		{Name: "negative", Bytes: -1},
	}
	tiles := Layout(items, 0, 0, 20, 10)
	if len(tiles) != 2 {
		t.Fatalf("got %d tiles, want 2", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Bytes <= 0 {
			t.Errorf("tile %q has non-positive bytes", tile.Name)
		}
	}
	if tiles[0].Pct != 0.8 || tiles[1].Pct != 0.2 {
		t.Errorf("pct = %v, %v; want 0.8, 0.2", tiles[0].Pct, tiles[1].Pct)
	}
}

func TestLayoutKnownSplit(t *testing.T) {
	items := []Item{{Name: "c", Bytes: 20}, {Name: "a", Bytes: 50}, {Name: "b", Bytes: 30}}
	got := Layout(items, 0, 0, 10, 10)
	want := []Tile{
		{Name: "a", Bytes: 50, Pct: 0.5, X: 0, Y: 0, W: 5, H: 10},
		{Name: "b", Bytes: 30, Pct: 0.3, X: 5, Y: 0, W: 5, H: 6},
		{Name: "c", Bytes: 20, Pct: 0.2, X: 5, Y: 6, W: 5, H: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Layout() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestLayoutOrientation(t *testing.T) {
	items := []Item{{Name: "a", Bytes: 1}, {Name: "b", Bytes: 1}}

	wide := Layout(items, 0, 0, 20, 4)
	if wide[1].X != 10 || wide[1].Y != 0 {
		t.Errorf("wide canvas should split left/right, got %+v", wide)
	}
	tall := Layout(items, 0, 0, 4, 20)
	if tall[1].Y != 10 || tall[1].X != 0 {
		t.Errorf("tall canvas should split top/bottom, got %+v", tall)
	}
}

func TestLayoutOffsetOrigin(t *testing.T) {
	tiles := Layout([]Item{{Name: "a", Bytes: 3}, {Name: "b", Bytes: 1}}, 5, 7, 8, 2)
	assertPartition(t, tiles, rect{5, 7, 8, 2})
	if tiles[0].X != 5 || tiles[0].Y != 7 {
		t.Errorf("first tile should start at the origin, got %+v", tiles[0])
	}
}

func TestLayoutSkewKeepsSmallItemsVisible(t *testing.T) {
	items := []Item{{Name: "huge", Bytes: 1_000_000}, {Name: "tiny", Bytes: 1}}
	tiles := Layout(items, 0, 0, 10, 3)
	if len(tiles) != 2 {
		t.Fatalf("got %d tiles, want 2", len(tiles))
	}
	if tiles[1].W < 1 || tiles[1].H < 1 {
		t.Errorf("tiny item got an empty tile: %+v", tiles[1])
	}
	assertPartition(t, tiles, rect{0, 0, 10, 3})
}

func TestLayoutSingleCell(t *testing.T) {
	tiles := Layout([]Item{{Name: "a", Bytes: 2}, {Name: "b", Bytes: 1}}, 0, 0, 1, 1)
	if len(tiles) != 1 || tiles[0].Name != "a" {
		t.Errorf("1x1 canvas should hold only the largest item, got %+v", tiles)
	}
	assertPartition(t, tiles, rect{0, 0, 1, 1})
}

func TestLayoutDoesNotModifyInput(t *testing.T) {
	items := []Item{{Name: "small", Bytes: 1}, {Name: "big", Bytes: 9}}
	Layout(items, 0, 0, 10, 10)
	if items[0].Name != "small" {
		t.Error("Layout reordered its input")
	}
}

func TestLayoutStableTies(t *testing.T) {
	items := []Item{{Name: "x", Bytes: 5}, {Name: "y", Bytes: 5}, {Name: "z", Bytes: 5}}
	first := Layout(items, 0, 0, 30, 10)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(Layout(items, 0, 0, 30, 10), first) {
			t.Fatal("Layout is not deterministic")
		}
	}
	if first[0].Name != "x" {
		t.Errorf("equal items should keep input order, first tile is %q", first[0].Name)
	}
}

func TestLayoutProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	canvases := []rect{{0, 0, 80, 24}, {0, 0, 3, 50}, {0, 0, 200, 2}, {10, 5, 37, 13}, {0, 0, 1200, 800}}

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(40)
		items := make([]Item, n)
		for i := range items {
			bytes := int64(rng.Intn(5000))
			if rng.Intn(5) == 0 {
				bytes *= 1000
			}
			items[i] = Item{Name: fmt.Sprintf("item-%d", i), Bytes: bytes}
		}
		c := canvases[trial%len(canvases)]

		t.Run(fmt.Sprintf("trial-%d", trial), func(t *testing.T) {
			tiles := Layout(items, c.x, c.y, c.w, c.h)

			positive := 0
			var total int64
			for _, it := range items {
				if it.Bytes > 0 {
					positive++
					total += it.Bytes
				}
			}
			if len(tiles) > positive {
				t.Fatalf("got %d tiles for %d positive items", len(tiles), positive)
			}
			if positive > 0 && len(tiles) == 0 {
				t.Fatal("no tiles for non-empty input")
			}

			var pct float64
			for _, tile := range tiles {
				if tile.Bytes <= 0 {
					t.Errorf("zero-weight item %q produced a tile", tile.Name)
				}
				if want := float64(tile.Bytes) / float64(total); math.Abs(tile.Pct-want) > 1e-12 {
					t.Errorf("tile %q pct = %v, want %v", tile.Name, tile.Pct, want)
				}
				pct += tile.Pct
			}
			if len(tiles) == positive && math.Abs(pct-1) > 1e-9 {
				t.Errorf("percentages sum to %v, want 1", pct)
			}
			assertPartition(t, tiles, c)
		})
	}
}

func TestTileHelpers(t *testing.T) {
	a := Tile{X: 0, Y: 0, W: 4, H: 2}
	b := Tile{X: 4, Y: 0, W: 2, H: 2}
	c := Tile{X: 3, Y: 1, W: 2, H: 2}

	if a.Area() != 8 {
		t.Errorf("Area() = %d", a.Area())
	}
	if a.Overlaps(b) {
		t.Error("adjacent tiles should not overlap")
	}
	if !a.Overlaps(c) {
		t.Error("intersecting tiles should overlap")
	}
	if !a.Contains(3, 1) || a.Contains(4, 0) {
		t.Error("Contains() uses half-open bounds")
	}
}

// assertPartition checks that tiles lie inside r, do not overlap, have
// positive size and together cover r exactly.
func assertPartition(t *testing.T, tiles []Tile, r rect) {
	t.Helper()
	area := 0
	for i, a := range tiles {
		if a.W < 1 || a.H < 1 {
			t.Errorf("tile %q has empty size %dx%d", a.Name, a.W, a.H)
		}
		if a.X < r.x || a.Y < r.y || a.X+a.W > r.x+r.w || a.Y+a.H > r.y+r.h {
			t.Errorf("tile %q %+v leaves canvas %+v", a.Name, a, r)
		}
		for _, b := range tiles[i+1:] {
			if a.Overlaps(b) {
				t.Errorf("tiles %q and %q overlap", a.Name, b.Name)
			}
		}
		area += a.Area()
	}
	if len(tiles) > 0 && area != r.w*r.h {
		t.Errorf("tiles cover %d units, canvas has %d", area, r.w*r.h)
	}
}
