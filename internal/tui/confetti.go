package tui

import (
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	confettiCount = 50
	confettiRows  = 6
)

var confettiGlyphs = []string{"*", "•", "+", "·", "✦"}

type particle struct {
	x     float64
	row   int
	glyph string
	color lipgloss.Color
}

type confetti []particle

func newConfetti(rng *rand.Rand) confetti {
	c := make(confetti, confettiCount)
	for i := range c {
		c[i] = particle{
			x:     rng.Float64(),
			row:   rng.IntN(confettiRows),
			glyph: confettiGlyphs[rng.IntN(len(confettiGlyphs))],
			color: confettiColors[rng.IntN(len(confettiColors))],
		}
	}
	return c
}

// step drifts every particle down one row, wrapping at the bottom.
func (c confetti) step() {
	for i := range c {
		c[i].row = (c[i].row + 1) % confettiRows
	}
}

// band renders rows [from, to) of the field at the given width.
func (c confetti) band(width, from, to int) []string {
	if width <= 0 {
		return nil
	}
	lines := make([]string, 0, to-from)
	for row := from; row < to; row++ {
		cells := make([]string, width)
		for i := range cells {
			cells[i] = " "
		}
		for _, p := range c {
			if p.row != row {
				continue
			}
			col := min(width-1, int(p.x*float64(width)))
			cells[col] = lipgloss.NewStyle().Foreground(p.color).Render(p.glyph)
		}
		lines = append(lines, strings.Join(cells, ""))
	}
	return lines
}
