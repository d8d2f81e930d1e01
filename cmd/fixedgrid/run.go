package main

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/fixedgrid/internal/automation"
	"github.com/san-kum/fixedgrid/internal/experiment"
	"github.com/san-kum/fixedgrid/internal/viz"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var f runFlags
	var noSave bool

	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation and store the result",
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

			exp, err := experiment.New(registry, cfg, simOptions()...)
			if err != nil {
				return err
			}

			logger.Info("running simulation", "model", cfg.Model, "scheme", cfg.Scheme, "perturb", cfg.Perturb, "step_size", cfg.StepSize)
			start := time.Now()
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Println(viz.Header(fmt.Sprintf("%s / %s", cfg.Model, cfg.Scheme)))
			pairs := [][2]string{
				{"completed in", elapsed.String()},
				{"steps", fmt.Sprint(result.StepsTaken)},
				{"evaluations", fmt.Sprint(result.Evaluations)},
				{"outputs", fmt.Sprint(len(result.States))},
				{"final state", fmt.Sprintf("%.6g", []float64(result.Final()))},
			}

			if !noSave {
				runID, err := newStore().Save(automation.Metadata(cfg), result)
				if err != nil {
					return err
				}
				pairs = append(pairs, [2]string{"run id", runID})
			}
			fmt.Print(viz.KeyValues(pairs))

			if len(result.Metrics) > 0 {
				fmt.Println()
				fmt.Println(viz.Header("metrics"))
				fmt.Print(viz.Metrics(result.Metrics))
			}
			fmt.Fprintln(os.Stdout, viz.SparklineChart(viz.Component(result.States, 0), 60))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}
