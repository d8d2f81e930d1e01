package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/experiment"
	"github.com/san-kum/fixedgrid/internal/optim"
	"github.com/san-kum/fixedgrid/internal/viz"
	"github.com/spf13/cobra"
)

func newTuneCmd() *cobra.Command {
	var (
		f        runFlags
		grid     map[string]string
		metric   string
		maximize bool
		minimize bool
	)

	cmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid-search controller gains or model parameters against a run metric",
		Long: `tune runs one experiment per grid point and keeps the point with the
best metric. stability is maximized, every other metric is minimized unless
--maximize or --minimize says otherwise. Grid keys kp, ki, kd, target and limit set controller gains;
any other key is a model parameter.

  fixedgrid tune double_integrator --preset pid --grid kp=1:2:4,kd=1:3 --metric control_effort`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if len(args) > 0 {
				model = args[0]
			}
			base, err := resolveConfig(cmd, model, &f)
			if err != nil {
				return err
			}
			if err := f.parseParams(base); err != nil {
				return err
			}

			values := make(map[string][]float64, len(grid))
			for name, raw := range grid {
				vs, err := parseValues(raw)
				if err != nil {
					return fmt.Errorf("--grid %s: %w", name, err)
				}
				values[name] = vs
			}
			search, err := optim.NewGridSearchMap(values)
			if err != nil {
				return err
			}

			build := func(params map[string]float64) (*experiment.Experiment, error) {
				cfg := base.Clone()
				for name, v := range params {
					applyTuned(cfg, name, v)
				}
				return experiment.New(registry, cfg, simOptions()...)
			}

			goal := optim.GoalFor(metric)
			switch {
			case maximize && minimize:
				return fmt.Errorf("--maximize and --minimize are exclusive")
			case maximize:
				goal = optim.Maximize
			case minimize:
				goal = optim.Minimize
			}

			best, val, err := search.SearchGoal(cmd.Context(), build, metric, goal)
			if err != nil {
				return err
			}

			fmt.Println(viz.Header(fmt.Sprintf("best %s = %.6g (%s)", metric, val, goal)))
			fmt.Print(viz.Metrics(best))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringToStringVar(&grid, "grid", nil, "candidate values per name, colon separated")
	cmd.Flags().StringVar(&metric, "metric", "stability", "metric to optimize")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "keep the largest metric value")
	cmd.Flags().BoolVar(&minimize, "minimize", false, "keep the smallest metric value")
	_ = cmd.MarkFlagRequired("grid")
	return cmd
}

func parseValues(raw string) ([]float64, error) {
	parts := strings.Split(raw, ":")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func applyTuned(cfg *config.Config, name string, v float64) {
	switch name {
	case "kp":
		cfg.ControllerParams.Kp = v
	case "ki":
		cfg.ControllerParams.Ki = v
	case "kd":
		cfg.ControllerParams.Kd = v
	case "target":
		cfg.ControllerParams.Target = v
	case "limit":
		cfg.ControllerParams.Limit = v
	default:
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[name] = v
	}
}
