package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fixedgrid/internal/experiment"
)

// Goal is the direction a metric is optimised in.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

func (g Goal) String() string {
	if g == Maximize {
		return "maximize"
	}
	return "minimize"
}

// goals lists the metrics where larger is better. Everything else is a cost.
var goals = map[string]Goal{
	"stability": Maximize,
}

// GoalFor returns the direction metricName should be optimised in.
func GoalFor(metricName string) Goal {
	return goals[metricName]
}

func (g Goal) better(a, b float64) bool {
	if g == Maximize {
		return a > b
	}
	return a < b
}

// GridSearch tries every combination of candidate values and keeps the one
// with the best run metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d value ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %q has no candidate values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// NewGridSearchMap builds a search from a name to values map, ordered by name.
func NewGridSearchMap(grid map[string][]float64) (*GridSearch, error) {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, name := range names {
		ranges[i] = grid[name]
	}
	return NewGridSearch(names, ranges)
}

// Search optimises metricName in the direction GoalFor reports.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	return g.SearchGoal(ctx, buildExperiment, metricName, GoalFor(metricName))
}

// SearchGoal runs one experiment per grid point. A point whose experiment
// cannot be built or fails to integrate is skipped; an error is returned only
// when ctx ends or no point succeeds. Ties keep the first point visited.
func (g *GridSearch) SearchGoal(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	goal Goal,
) (map[string]float64, float64, error) {
	best := math.NaN()
	var bestParams map[string]float64
	var lastErr error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(current map[string]float64) {
		exp, err := buildExperiment(current)
		if err != nil {
			lastErr = err
			return
		}
		result, err := exp.Run(ctx)
		if err != nil {
			lastErr = err
			return
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			lastErr = fmt.Errorf("run has no metric %q", metricName)
			return
		}
		if math.IsNaN(val) {
			lastErr = fmt.Errorf("metric %q is NaN", metricName)
			return
		}
		if bestParams == nil || goal.better(val, best) {
			best = val
			bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				bestParams[k] = v
			}
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("no grid point succeeded: %w", lastErr)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
