package main

import (
	"fmt"

	"github.com/san-kum/fixedgrid/internal/automation"
	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/viz"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := registry.ListModels()
			if len(args) == 1 {
				models = args
			}
			for _, m := range models {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", m)
					continue
				}
				fmt.Printf("presets for %s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}
}

func newScenarioCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			store := newStore()
			if noSave {
				store = nil
			}
			results, err := automation.RunScenario(cmd.Context(), scenario, registry, store, logger)
			for _, r := range results {
				line := fmt.Sprintf("step %d  %-18s steps=%-6d final=%.6g", r.Index+1, r.Model, r.Result.StepsTaken, []float64(r.Result.Final()))
				if r.RunID != "" {
					line += "  run=" + r.RunID
				}
				fmt.Println(viz.StatusOK.Render("ok") + " " + line)
			}
			if err != nil {
				fmt.Println(viz.StatusFail.Render("failed") + " " + err.Error())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "ignore save flags in the scenario")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		f           runFlags
		trials      int
		workers     int
		spread      float64
		seed        int64
		metricNames []string
	)

	cmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "integrate randomly perturbed initial states concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if len(args) > 0 {
				model = args[0]
			}
			cfg, err := resolveConfig(cmd, model, &f)
			if err != nil {
				return err
			}
			if err := f.parseParams(cfg); err != nil {
				return err
			}

			results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
				Base:         cfg,
				Perturbation: spread,
				NumTrials:    trials,
				Workers:      workers,
				Seed:         seed,
			}, registry)
			if err != nil {
				return err
			}

			stable, unstable := automation.MonteCarloStats(results)
			fmt.Println(viz.Header(fmt.Sprintf("%s: %d trials", cfg.Model, len(results))))
			fmt.Print(viz.KeyValues([][2]string{
				{"stable", fmt.Sprint(stable)},
				{"unstable", fmt.Sprint(unstable)},
			}))

			for _, name := range metricNames {
				sum, err := automation.SummarizeMetric(results, name)
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(viz.Header(fmt.Sprintf("%s over %d trials", sum.Name, sum.Trials)))
				fmt.Print(viz.KeyValues([][2]string{
					{"mean", fmt.Sprintf("%.6g", sum.Mean)},
					{"std", fmt.Sprintf("%.6g", sum.Std)},
					{"min", fmt.Sprintf("%.6g", sum.Min)},
					{"max", fmt.Sprintf("%.6g", sum.Max)},
				}))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent trajectories (0 uses GOMAXPROCS)")
	cmd.Flags().Float64Var(&spread, "spread", 0.1, "uniform perturbation half-width on each state component")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringSliceVar(&metricNames, "metric", []string{"stability"}, "metrics to summarize across trials")
	return cmd
}
