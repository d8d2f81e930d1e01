package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Box is an axis-aligned plotting window.
type Box struct {
	MinX, MaxX, MinY, MaxY float64
}

// Bounds returns the smallest box holding points, widened by pad times its
// extent on each side. Degenerate extents are treated as 1.
func Bounds(points []Point, pad float64) Box {
	if len(points) == 0 {
		return Box{MaxX: 1, MaxY: 1}
	}
	b := Box{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points[1:] {
		b.MinX, b.MaxX = min(b.MinX, p.X), max(b.MaxX, p.X)
		b.MinY, b.MaxY = min(b.MinY, p.Y), max(b.MaxY, p.Y)
	}
	dx, dy := b.MaxX-b.MinX, b.MaxY-b.MinY
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	return Box{b.MinX - pad*dx, b.MaxX + pad*dx, b.MinY - pad*dy, b.MaxY + pad*dy}
}

// Map sends p into a width x height raster with y growing downwards.
func (b Box) Map(p Point, width, height float64) (float64, float64) {
	x := (p.X - b.MinX) / (b.MaxX - b.MinX) * width
	y := height - (p.Y-b.MinY)/(b.MaxY-b.MinY)*height
	return x, y
}

// PhasePortrait2D is a trajectory projected onto two state components.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait projects sampled states onto components xIdx and yIdx.
func NewPhasePortrait(states []dynamo.State, xIdx, yIdx int) (*PhasePortrait2D, error) {
	if xIdx < 0 || yIdx < 0 {
		return nil, fmt.Errorf("phase indices %d,%d: %w", xIdx, yIdx, dynamo.ErrDimensionMismatch)
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(states)),
	}
	for _, x := range states {
		if xIdx >= len(x) || yIdx >= len(x) {
			return nil, fmt.Errorf("phase indices %d,%d on %d-dim state: %w", xIdx, yIdx, len(x), dynamo.ErrDimensionMismatch)
		}
		portrait.Points = append(portrait.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}
	return portrait, nil
}

// PhasePortraitToASCII rasterises the portrait onto a width x height grid of
// runes. The first sample is drawn as 'o' and the last as '*' so the
// direction of travel is visible; axes are drawn when they cross the window.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	box := Bounds(portrait.Points, 0.1)
	w, h := float64(width-1), float64(height-1)

	cell := func(p Point) (int, int) {
		x, y := box.Map(p, w, h)
		return int(y + 0.5), int(x + 0.5)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	row0, col0 := cell(Point{0, 0})
	if box.MinX <= 0 && box.MaxX >= 0 {
		for r := range canvas {
			canvas[r][col0] = '│'
		}
	}
	if box.MinY <= 0 && box.MaxY >= 0 {
		for c := range canvas[row0] {
			if canvas[row0][c] == '│' {
				canvas[row0][c] = '┼'
			} else {
				canvas[row0][c] = '─'
			}
		}
	}

	last := len(portrait.Points) - 1
	for i, p := range portrait.Points {
		r, c := cell(p)
		switch i {
		case 0:
			canvas[r][c] = 'o'
		case last:
			canvas[r][c] = '*'
		default:
			if canvas[r][c] != 'o' {
				canvas[r][c] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
