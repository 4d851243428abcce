package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/report"
	"github.com/matzehuels/klumpen/pkg/storage"
	"github.com/matzehuels/klumpen/pkg/treemap"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - workspace packages
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBar    = lipgloss.NewStyle().Foreground(colorCyan)

	// Package categories.
	styleNPM       = lipgloss.NewStyle().Foreground(colorRed)
	styleWorkspace = lipgloss.NewStyle().Foreground(colorBlue)
	styleLocal     = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"

	barWidth = 20
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints analysis counters on one line.
func printStats(w io.Writer, s report.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d modules", s.Modules),
		fmt.Sprintf("%d npm", s.ExternalModules),
		fmt.Sprintf("%d local", s.LocalModules),
		fmt.Sprintf("%d packages", s.Packages),
	}
	if s.ImportEdges > 0 {
		parts = append(parts, fmt.Sprintf("%d imports", s.ImportEdges))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	if cached {
		line += StyleDim.Render(" · ") + styleCached.Render(iconCached)
	} else {
		line += StyleDim.Render(" · ") + styleComputed.Render(iconFresh)
	}
	fmt.Fprintln(w, line)
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

func categoryStyle(category bundle.Category) lipgloss.Style {
	switch category {
	case bundle.CategoryWorkspace:
		return styleWorkspace
	case bundle.CategoryLocal:
		return styleLocal
	}
	return styleNPM
}

// bar renders share (0..1) as a fixed-width block bar.
func bar(share float64) string {
	n := int(share*barWidth + 0.5)
	n = min(max(n, 0), barWidth)
	return styleBar.Render(strings.Repeat("█", n)) + StyleDim.Render(strings.Repeat("░", barWidth-n))
}

// packageTable lists the first top packages (all when top <= 0). With files
// set, each package is followed by its files.
func packageTable(groups []bundle.PackageGroup, total int64, top int, files bool) string {
	if top > 0 && top < len(groups) {
		groups = groups[:top]
	}
	var rows [][]string
	var categories []bundle.Category
	for _, g := range groups {
		share := 0.0
		if total > 0 {
			share = float64(g.Bytes) / float64(total)
		}
		rows = append(rows, []string{g.Name, bundle.FormatBytes(g.Bytes), bundle.FormatPct(g.Bytes, total), bar(share)})
		categories = append(categories, g.Category())
		if !files {
			continue
		}
		for _, f := range g.Files {
			rows = append(rows, []string{"  " + f.Path, bundle.FormatBytes(f.Bytes), bundle.FormatPct(f.Bytes, total), ""})
			categories = append(categories, "")
		}
	}

	t := newTable("Package", "Size", "Share", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 || col == 2 {
				base = base.Align(lipgloss.Right)
			}
			if row < 0 || row >= len(categories) {
				return base
			}
			if categories[row] == "" {
				return base.Foreground(colorDim)
			}
			if col == 0 {
				return base.Inherit(categoryStyle(categories[row]))
			}
			return base
		})
	return t.Render()
}

// tileTable lists treemap tiles with their glyph and rectangle.
func tileTable(tiles []treemap.Tile) string {
	rows := make([][]string, len(tiles))
	for i, t := range tiles {
		rows[i] = []string{
			string(tileGlyph(i)),
			t.Name,
			bundle.FormatBytes(t.Bytes),
			fmt.Sprintf("%.1f%%", t.Pct*100),
			fmt.Sprintf("%d,%d", t.X, t.Y),
			fmt.Sprintf("%dx%d", t.W, t.H),
		}
	}
	return newTable("", "Tile", "Size", "Share", "Origin", "Size (cells)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case col <= 1 && row >= 0 && row < len(tiles):
				return base.Inherit(categoryStyle(bundle.Category(tiles[row].Category)))
			case col > 1:
				return base.Align(lipgloss.Right)
			}
			return base
		}).
		Render()
}

// historyTable lists stored analyses.
func historyTable(list []storage.Summary) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{
			s.ID,
			s.Target,
			bundle.FormatBytes(s.InputBytes),
			fmt.Sprintf("%d", s.Packages),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return newTable("ID", "Target", "Size", "Packages", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Padding(0, 1).Foreground(colorDim)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// printChain prints a chain as an indented import tree.
func printChain(w io.Writer, doc report.ChainDoc) {
	title := doc.Target
	if doc.Package != "" {
		title = doc.Package + " " + StyleDim.Render(doc.Target)
	}
	if doc.Bytes > 0 {
		title += " " + StyleNumber.Render(bundle.FormatBytes(doc.Bytes))
	}
	fmt.Fprintln(w, StyleTitle.Render(iconInfo)+" "+title)

	if !doc.Found {
		if doc.Entry == "" {
			printDetail(w, "no entry module in the report")
		} else {
			printDetail(w, "not reachable from %s", doc.Entry)
		}
		return
	}
	for i, m := range doc.Chain {
		fmt.Fprintln(w, strings.Repeat("  ", i+1)+StyleDim.Render(iconArrow)+" "+StyleValue.Render(m))
	}
}

// Canvases larger than this are not drawn, only tabulated.
const (
	maxDrawWidth  = 240
	maxDrawHeight = 120
)

const tileGlyphs = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tileGlyph is the character that fills tile i in a drawn treemap.
func tileGlyph(i int) byte {
	if i < len(tileGlyphs) {
		return tileGlyphs[i]
	}
	return '#'
}

// drawTreemap renders tiles on a w×h character grid, one glyph per tile.
// Cells not covered by any tile stay blank. ok is false when the canvas is
// too large to draw.
func drawTreemap(tiles []treemap.Tile, w, h int) (string, bool) {
	if w <= 0 || h <= 0 || w > maxDrawWidth || h > maxDrawHeight {
		return "", false
	}
	grid := make([][]byte, h)
	owner := make([][]int, h)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", w))
		owner[y] = make([]int, w)
		for x := range owner[y] {
			owner[y][x] = -1
		}
	}
	for i, t := range tiles {
		for y := max(t.Y, 0); y < min(t.Y+t.H, h); y++ {
			for x := max(t.X, 0); x < min(t.X+t.W, w); x++ {
				grid[y][x] = tileGlyph(i)
				owner[y][x] = i
			}
		}
	}

	var b strings.Builder
	for y := range grid {
		for x := 0; x < w; {
			i := owner[y][x]
			end := x
			for end < w && owner[y][end] == i {
				end++
			}
			run := string(grid[y][x:end])
			if i >= 0 {
				run = categoryStyle(bundle.Category(tiles[i].Category)).Render(run)
			}
			b.WriteString(run)
			x = end
		}
		b.WriteByte('\n')
	}
	return b.String(), true
}
