package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/experiment"
)

func TestGridSearchFindsBestGain(t *testing.T) {
	reg := experiment.NewRegistry()
	base := config.GetPreset("double_integrator", "pid")
	base.T1, base.Samples = 2, 21

	g, err := NewGridSearchMap(map[string][]float64{"kp": {0, 4}, "kd": {0, 3}})
	if err != nil {
		t.Fatal(err)
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		cfg.ControllerParams.Kp = params["kp"]
		cfg.ControllerParams.Kd = params["kd"]
		return experiment.New(reg, cfg)
	}

	best, effort, err := g.Search(context.Background(), build, "control_effort")
	if err != nil {
		t.Fatal(err)
	}
	if best["kp"] != 0 || best["kd"] != 0 || effort != 0 {
		t.Errorf("zero gains should need zero effort, got %v with %f", best, effort)
	}
}

func TestGridSearchPrefersStableRate(t *testing.T) {
	reg := experiment.NewRegistry()
	base := config.GetPreset("decay", "coarse")

	g, err := NewGridSearchMap(map[string][]float64{"rate": {5, -1}})
	if err != nil {
		t.Fatal(err)
	}
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		cfg.Params = map[string]float64{"rate": params["rate"]}
		return experiment.New(reg, cfg)
	}

	best, stability, err := g.Search(context.Background(), build, "stability")
	if err != nil {
		t.Fatal(err)
	}
	if best["rate"] != -1 || stability != 1 {
		t.Errorf("expected the decaying rate with stability 1, got %v with %f", best, stability)
	}

	worst, stability, err := g.SearchGoal(context.Background(), build, "stability", Minimize)
	if err != nil {
		t.Fatal(err)
	}
	if worst["rate"] != 5 || stability >= 1 {
		t.Errorf("expected the growing rate to score lowest, got %v with %f", worst, stability)
	}
}

func TestGoalFor(t *testing.T) {
	tests := map[string]Goal{
		"stability":      Maximize,
		"control_effort": Minimize,
		"energy_drift":   Minimize,
	}
	for name, want := range tests {
		if got := GoalFor(name); got != want {
			t.Errorf("GoalFor(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"kp"}, nil); err == nil {
		t.Error("expected mismatched ranges to fail")
	}
	if _, err := NewGridSearch([]string{"kp"}, [][]float64{{}}); err == nil {
		t.Error("expected empty range to fail")
	}

	g, _ := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	boom := errors.New("boom")
	_, _, err := g.Search(context.Background(), func(map[string]float64) (*experiment.Experiment, error) {
		return nil, boom
	}, "stability")
	if !errors.Is(err, boom) {
		t.Errorf("expected last build error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, nil, "stability"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
