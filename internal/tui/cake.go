package tui

import (
	"math"
	"strings"

	"github.com/rbright/cakemic/internal/candles"
)

const (
	// layout units per terminal column and per candle row.
	colUnits = 5.0
	rowUnits = 25.0

	cakePadding = 2
	headerLines = 3
)

type cell struct {
	col int
	row int
}

// cakeGeometry maps candle layout positions onto terminal cells. Each candle
// row takes two lines: flame above wick.
type cakeGeometry struct {
	cells []cell
	cols  int
	rows  int
}

func layoutCake(total int) cakeGeometry {
	positions := candles.Layout(total)
	if len(positions) == 0 {
		return cakeGeometry{}
	}

	minX, minY := positions[0].X, positions[0].Y
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
	}

	g := cakeGeometry{cells: make([]cell, len(positions))}
	for i, p := range positions {
		c := cell{
			col: int(math.Round((p.X - minX) / colUnits)),
			row: int(math.Round((p.Y - minY) / rowUnits)),
		}
		g.cells[i] = c
		g.cols = max(g.cols, c.col+1)
		g.rows = max(g.rows, c.row+1)
	}
	return g
}

func (g cakeGeometry) width() int {
	return g.cols + 2*cakePadding
}

// left is the screen column of the cake's left edge.
func (g cakeGeometry) left(screenWidth int) int {
	return max(0, (screenWidth-g.width())/2)
}

// hit returns the candle under the screen cell (x, y).
func (g cakeGeometry) hit(screenWidth, x, y int) (int, bool) {
	left := g.left(screenWidth) + cakePadding
	best, bestDist := -1, 2
	for i, c := range g.cells {
		top := headerLines + 2*c.row
		if y != top && y != top+1 {
			continue
		}
		dist := x - (left + c.col)
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, best >= 0
}

func (m Model) renderCake() []string {
	g := m.geometry
	pad := strings.Repeat(" ", g.left(m.width))

	lines := make([]string, 0, 2*g.rows+3)
	for row := 0; row < g.rows; row++ {
		flames := make([]string, g.width())
		wicks := make([]string, g.width())
		for i := range flames {
			flames[i] = " "
			wicks[i] = " "
		}
		for i, c := range g.cells {
			if c.row != row {
				continue
			}
			col := c.col + cakePadding
			if i < len(m.snap.Lit) && m.snap.Lit[i] {
				flames[col] = m.styles.Flame.Render("*")
				wicks[col] = m.styles.Wick.Render("|")
				continue
			}
			flames[col] = m.styles.Smoke.Render("~")
			wicks[col] = m.styles.Smoke.Render("|")
		}
		lines = append(lines, pad+strings.Join(flames, ""), pad+strings.Join(wicks, ""))
	}

	inner := g.width() - 2
	lines = append(lines,
		pad+m.styles.Cake.Render("╭"+strings.Repeat("─", inner)+"╮"),
		pad+m.styles.Cake.Render("│"+strings.Repeat("≈", inner)+"│"),
		pad+m.styles.Cake.Render("╰"+strings.Repeat("─", inner)+"╯"),
	)
	return lines
}
