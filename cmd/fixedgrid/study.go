package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/fixedgrid/internal/analysis"
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/experiment"
	"github.com/san-kum/fixedgrid/internal/integrators"
	"github.com/san-kum/fixedgrid/internal/models"
	"github.com/san-kum/fixedgrid/internal/viz"
	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "compare [model] [scheme1] [scheme2] ...",
		Short: "compare schemes on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, schemes := args[0], args[1:]

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "scheme\tevals\tfinal_x0\tmax_error\ttime_ms\t")

			var series [][]float64
			var names []string
			for _, name := range schemes {
				cfg, err := resolveConfig(cmd, model, &f)
				if err != nil {
					return err
				}
				if err := f.parseParams(cfg); err != nil {
					return err
				}
				cfg.Scheme = name

				exp, err := experiment.New(registry, cfg, simOptions()...)
				if err != nil {
					fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\n", name, err)
					continue
				}

				start := time.Now()
				result, err := exp.Run(cmd.Context())
				elapsed := time.Since(start)
				if err != nil {
					fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\n", name, err)
					continue
				}

				maxErr := "n/a"
				if exact, ok := exp.Exact(); ok {
					worst := 0.0
					for i, t := range result.Times {
						worst = math.Max(worst, result.States[i].Sub(exact(t)).Norm())
					}
					maxErr = fmt.Sprintf("%.3e", worst)
				}

				fmt.Fprintf(w, "%s\t%d\t%.6f\t%s\t%.2f\t\n",
					name, result.Evaluations, result.Final()[0], maxErr,
					float64(elapsed.Microseconds())/1000)

				series = append(series, viz.Component(result.States, 0))
				names = append(names, name)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(series) > 0 {
				fmt.Println()
				fmt.Println(viz.PlotSeries("x0 vs time", series, names))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newOrderCmd() *cobra.Command {
	var (
		dt        float64
		halvings  int
		global    bool
		perturb   bool
		initState []float64
	)

	cmd := &cobra.Command{
		Use:   "order [model] [scheme...]",
		Short: "measure observed convergence order against an exact solution",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := registry.GetModel(args[0])
			if err != nil {
				return err
			}
			sys, ok := m.(dynamo.System)
			if !ok {
				return fmt.Errorf("%s takes control input; order studies need an uncontrolled model", args[0])
			}
			solvable, ok := m.(models.Solvable)
			if !ok {
				return fmt.Errorf("%s has no exact solution", args[0])
			}

			y0 := dynamo.State(initState)
			if len(y0) == 0 {
				y0 = make(dynamo.State, sys.StateDim())
				for i := range y0 {
					y0[i] = 1
				}
			}
			exact := func(t float64) dynamo.State { return solvable.Exact(0, y0, t) }

			kind := analysis.Local
			if global {
				kind = analysis.Global
			}

			names := args[1:]
			if len(names) == 0 {
				for _, s := range integrators.Schemes() {
					names = append(names, s.String())
				}
			}

			for _, name := range names {
				st, err := integrators.NewByName(name, perturb)
				if err != nil {
					return err
				}
				study, err := analysis.ObservedOrder(st, sys.Derive, 0, y0, dt, halvings, exact, kind)
				if err != nil {
					return err
				}

				fmt.Println(viz.Header(fmt.Sprintf("%s, %s error (expected order %d)", name, kind, st.Order())))
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(w, "dt\terror\tratio\torder\t")
				for _, s := range study {
					fmt.Fprintf(w, "%g\t%.3e\t%.3f\t%.3f\t\n", s.Dt, s.Error, s.Ratio, s.Order)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Println(viz.PlotOrder("-log2(error) per halving", study))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&dt, "dt", 0.1, "initial step size (global: interval length)")
	cmd.Flags().IntVar(&halvings, "halvings", 4, fmt.Sprintf("number of step halvings (at most %d)", analysis.MaxHalvings))
	cmd.Flags().BoolVar(&global, "global", false, "measure global instead of local error")
	cmd.Flags().BoolVar(&perturb, "perturb", false, "tag step-end evaluations")
	cmd.Flags().Float64SliceVar(&initState, "init", nil, "initial state")
	return cmd
}
