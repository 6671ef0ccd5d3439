package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

// ChipWidth is the widest a block label is drawn.
const ChipWidth = 22

// Label returns the block's label in locale, truncated to width cells.
func Label(d blocks.Descriptor, locale blocks.Locale, width int) string {
	return runewidth.Truncate(d.LabelFor(locale), width, "…")
}

// Chip draws one block.
func Chip(d blocks.Descriptor, locale blocks.Locale, selected bool) string {
	marker := "  "
	if selected {
		marker = "▸ "
	}
	return marker + BlockStyle(d.Category, selected).Render(Label(d, locale, ChipWidth))
}

// PaletteOrder flattens a catalog in the order Palette draws it, so a
// cursor index maps to a descriptor.
func PaletteOrder(c *blocks.Catalog) []blocks.Descriptor {
	var out []blocks.Descriptor
	for _, g := range c.Groups() {
		out = append(out, g.Blocks...)
	}
	return out
}

// Palette draws a catalog grouped by category. selected indexes
// PaletteOrder; -1 selects nothing.
func Palette(c *blocks.Catalog, locale blocks.Locale, selected int) string {
	var b strings.Builder
	i := 0
	for _, g := range c.Groups() {
		b.WriteString(HeadingStyle.Render(g.Category.Label(locale)))
		b.WriteByte('\n')
		for _, d := range g.Blocks {
			b.WriteString(Chip(d, locale, i == selected))
			b.WriteByte('\n')
			i++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Program draws the composition top to bottom with step numbers.
func Program(items []blocks.Instance, locale blocks.Locale, cursor int) string {
	if len(items) == 0 {
		return HelpStyle.Render("(empty program)")
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%2d %s", i+1, Chip(it.Descriptor, locale, i == cursor))
	}
	return strings.Join(lines, "\n")
}

// headings for 0,45,...,315 degrees clockwise from facing right
var headings = []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// Heading returns the arrow for a rotation.
func Heading(rotation int) rune {
	r := sprite.NormalizeRotation(rotation)
	return headings[((r+22)/45)%8]
}

// Cell returns the grid position of the sprite on a cols x rows stage,
// clamped to the grid.
func Cell(f sprite.Frame, cols, rows int) (col, row int) {
	col = int(f.LeftPct / 100 * float64(cols))
	row = int(f.TopPct / 100 * float64(rows))
	return clamp(col, 0, cols-1), clamp(row, 0, rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StageGrid draws the stage as plain text rows without border or colour.
// The sprite is an arrow showing its heading; its bubble follows it on
// the same row.
func StageGrid(st sprite.State, cols, rows int) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}

	f := sprite.FrameOf(st)
	if f.Visible && cols > 0 && rows > 0 {
		col, row := Cell(f, cols, rows)
		grid[row][col] = Heading(f.Rotation)

		if f.Bubble != "" && col+2 < cols {
			text := []rune(runewidth.Truncate("«"+f.Bubble+"»", cols-col-2, "…"))
			for i, r := range text {
				if col+2+i < cols {
					grid[row][col+2+i] = r
				}
			}
		}
	}

	out := make([]string, rows)
	for i, line := range grid {
		out[i] = string(line)
	}
	return out
}

// Stage draws the framed stage with a status line.
func Stage(st sprite.State, cols, rows int) string {
	body := StageStyle.Render(strings.Join(StageGrid(st, cols, rows), "\n"))
	status := HelpStyle.Render(fmt.Sprintf("x:%d y:%d dir:%d° size:%d%%", st.X, st.Y, sprite.NormalizeRotation(st.Rotation), st.Size))
	if !st.Visible {
		status += HelpStyle.Render(" hidden")
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// Verdict draws a puzzle check result.
func Verdict(correct, checked bool) string {
	switch {
	case !checked:
		return HelpStyle.Render("not checked")
	case correct:
		return CorrectStyle.Render("✔ correct")
	default:
		return WrongStyle.Render("✘ try again")
	}
}
