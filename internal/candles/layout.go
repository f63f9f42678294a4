package candles

import "math"

const (
	singleRowMax     = 6
	singleRowSpacing = 40.0
	singleRowSpan    = 200.0
	gridColSpacing   = 35.0
	gridRowSpacing   = 25.0
)

// Position is a candle offset from the cake centre, in abstract units.
type Position struct {
	X float64
	Y float64
}

// Layout places total candles around the cake centre: one row for small
// cakes, a near-square grid otherwise.
func Layout(total int) []Position {
	if total < 1 {
		return nil
	}

	positions := make([]Position, total)
	if total <= singleRowMax {
		spacing := math.Min(singleRowSpacing, singleRowSpan/float64(total))
		for i := range positions {
			positions[i] = Position{X: (float64(i) - float64(total-1)/2) * spacing}
		}
		return positions
	}

	perRow := int(math.Ceil(math.Sqrt(float64(total))))
	rows := (total + perRow - 1) / perRow
	for i := range positions {
		row := i / perRow
		col := i % perRow
		positions[i] = Position{
			X: (float64(col) - float64(perRow-1)/2) * gridColSpacing,
			Y: (float64(row) - float64(rows-1)/2) * gridRowSpacing,
		}
	}
	return positions
}
