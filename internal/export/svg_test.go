package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/fixedgrid/internal/analysis"
	"github.com/san-kum/fixedgrid/internal/dynamo"
)

func TestTrajectoryToSVG(t *testing.T) {
	svg := TrajectoryToSVG([]analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}, 100, 50, "#00ff00")

	if !strings.HasPrefix(svg, "<?xml") || !strings.Contains(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("expected 2 line segments, got %d", got)
	}
	if !strings.Contains(svg, "<circle") {
		t.Error("expected a start marker")
	}
	if TrajectoryToSVG([]analysis.Point{{X: 0, Y: 0}}, 100, 50, "#fff") != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestPortraitToSVG(t *testing.T) {
	p, err := analysis.NewPhasePortrait([]dynamo.State{{0, 1}, {1, 0}, {0, -1}}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := PortraitToSVG(&buf, p, 200, 200, "#00ccff"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `stroke="#00ccff"`) {
		t.Errorf("stroke color missing: %q", buf.String())
	}
}

func TestSeriesToSVGMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := SeriesToSVG(&buf, []float64{0, 1}, []float64{1}, 10, 10, "#fff"); err == nil {
		t.Error("expected length mismatch to fail")
	}
	if err := SeriesToSVG(&buf, []float64{0}, []float64{1}, 10, 10, "#fff"); err == nil {
		t.Error("expected a single point to fail")
	}
}
