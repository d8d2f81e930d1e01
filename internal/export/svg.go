package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/fixedgrid/internal/analysis"
)

// PortraitToSVG writes a phase portrait as a single SVG path.
func PortraitToSVG(w io.Writer, p *analysis.PhasePortrait2D, width, height int, strokeColor string) error {
	if p == nil {
		return fmt.Errorf("no phase portrait")
	}
	return writeSVG(w, p.Points, width, height, strokeColor)
}

// SeriesToSVG writes values against times as a single SVG path.
func SeriesToSVG(w io.Writer, times, values []float64, width, height int, strokeColor string) error {
	if len(times) != len(values) {
		return fmt.Errorf("%d times for %d values", len(times), len(values))
	}
	points := make([]analysis.Point, len(times))
	for i := range times {
		points[i] = analysis.Point{X: times[i], Y: values[i]}
	}
	return writeSVG(w, points, width, height, strokeColor)
}

// TrajectoryToSVG renders points as one polyline on a dark background, with
// a marker on the first point.
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}
	box := analysis.Bounds(points, 0.1)
	w, h := float64(width), float64(height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x, y := box.Map(p, w, h)
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, x, y)
	}
	sb.WriteString("\"/>\n")

	x0, y0 := box.Map(points[0], w, h)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n</svg>\n", x0, y0, strokeColor)
	return sb.String()
}

func writeSVG(w io.Writer, points []analysis.Point, width, height int, strokeColor string) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least 2 points, got %d", len(points))
	}
	_, err := io.WriteString(w, TrajectoryToSVG(points, width, height, strokeColor))
	return err
}
