package analysis

import (
	"strings"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds the trajectory of two state components.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait extracts components xIdx and yIdx from recorded states.
// Returns nil if either index is out of range for the first state.
func NewPhasePortrait(states [][]float64, xIdx, yIdx int) *PhasePortrait {
	if len(states) == 0 || xIdx < 0 || yIdx < 0 || xIdx >= len(states[0]) || yIdx >= len(states[0]) {
		return nil
	}

	portrait := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(states)),
	}
	for _, s := range states {
		if xIdx >= len(s) || yIdx >= len(s) {
			continue
		}
		portrait.Points = append(portrait.Points, Point{X: s[xIdx], Y: s[yIdx]})
	}
	return portrait
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b bounds) rangeX() float64 { return b.maxX - b.minX }
func (b bounds) rangeY() float64 { return b.maxY - b.minY }

// padded returns the bounding box of points grown by 10% on each side.
func padded(points []Point) bounds {
	b := bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.minX = min(b.minX, p.X)
		b.maxX = max(b.maxX, p.X)
		b.minY = min(b.minY, p.Y)
		b.maxY = max(b.maxY, p.Y)
	}

	rx, ry := b.rangeX(), b.rangeY()
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return bounds{
		minX: b.minX - rx*0.1,
		maxX: b.maxX + rx*0.1,
		minY: b.minY - ry*0.1,
		maxY: b.maxY + ry*0.1,
	}
}

// ASCII renders the portrait on a width x height character grid with axes
// drawn where they cross the visible area.
func (pp *PhasePortrait) ASCII(width, height int) string {
	if pp == nil || len(pp.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	b := padded(pp.Points)
	toCol := func(x float64) int { return int((x - b.minX) / b.rangeX() * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-b.minY)/b.rangeY()*float64(height-1)) }

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range pp.Points {
		row, col := toRow(p.Y), toCol(p.X)
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if b.minX <= 0 && b.maxX >= 0 {
		col := toCol(0)
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if b.minY <= 0 && b.maxY >= 0 {
		row := toRow(0)
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
