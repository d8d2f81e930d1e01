package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fixedgrid/internal/analysis"
	"github.com/san-kum/fixedgrid/internal/dynamo"
)

const (
	plotWidth  = 80
	plotHeight = 10
)

// StateLabels names the state components of the built-in models.
var StateLabels = map[string][]string{
	"pendulum":          {"theta (angle)", "omega (angular velocity)"},
	"spring_mass":       {"position", "velocity"},
	"double_integrator": {"position", "velocity"},
	"decay":             {"y"},
	"growth":            {"y"},
	"square_wave":       {"y"},
}

// Component extracts one state component as a series.
func Component(states []dynamo.State, idx int) []float64 {
	data := make([]float64, len(states))
	for i := range states {
		if idx < len(states[i]) {
			data[i] = states[i][idx]
		}
	}
	return data
}

// PlotStates draws one graph per state component, at most maxPlots.
func PlotStates(model string, states []dynamo.State, maxPlots int) []string {
	if len(states) == 0 {
		return nil
	}
	n := min(len(states[0]), maxPlots)
	labels := StateLabels[model]

	graphs := make([]string, 0, n)
	for idx := 0; idx < n; idx++ {
		caption := fmt.Sprintf("x%d vs time", idx)
		if idx < len(labels) {
			caption = labels[idx]
		}
		graphs = append(graphs, asciigraph.Plot(Component(states, idx),
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(caption),
		))
	}
	return graphs
}

// PlotSeries overlays several equally long series in one graph.
func PlotSeries(caption string, series [][]float64, names []string) string {
	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Green}
	used := make([]asciigraph.AnsiColor, len(series))
	for i := range series {
		used[i] = colors[i%len(colors)]
	}
	graph := asciigraph.PlotMany(series,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(used...),
	)

	legend := make([]string, 0, len(names))
	for i, name := range names {
		if i >= len(used) {
			break
		}
		legend = append(legend, used[i].String()+"■"+asciigraph.Default.String()+" "+name)
	}
	return graph + "\n" + strings.Join(legend, "   ")
}

// PlotOrder draws -log2(error) per halving level; a scheme of order p
// climbs by about p (global) or p+1 (local) per level.
func PlotOrder(caption string, study []analysis.Sample) string {
	data := make([]float64, 0, len(study))
	for _, s := range study {
		if s.Error > 0 {
			data = append(data, -math.Log2(s.Error))
		}
	}
	if len(data) == 0 {
		return Subtle.Render("no nonzero errors to plot")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(max(len(data)*8, 16)),
		asciigraph.Caption(caption),
	)
}
