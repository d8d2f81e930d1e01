package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/san-kum/fixedgrid/internal/analysis"
	"github.com/san-kum/fixedgrid/internal/export"
	"github.com/san-kum/fixedgrid/internal/viz"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := newStore().List()
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tTIME\tSPAN\tDT\tSCHEME\tPERTURB\tCTRL")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t[%g, %g]\t%g\t%s\t%t\t%s\n",
					run.ID,
					run.Model,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.T0, run.T1,
					run.StepSize,
					run.Scheme,
					run.Perturb,
					run.Controller,
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var (
		phase   []int
		svgPath string
	)

	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newStore()
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			states, times, err := st.LoadStates(args[0])
			if err != nil {
				return err
			}
			if len(states) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Println(viz.Header(fmt.Sprintf("%s (%s, %s)", meta.ID, meta.Model, meta.Scheme)))
			fmt.Println(viz.Subtle.Render(fmt.Sprintf("samples: %d", len(states))))
			fmt.Println()

			if len(phase) == 2 {
				portrait, err := analysis.NewPhasePortrait(states, phase[0], phase[1])
				if err != nil {
					return err
				}
				if svgPath != "" {
					return writeFile(svgPath, func(w io.Writer) error {
						return export.PortraitToSVG(w, portrait, 600, 600, "#00ccff")
					})
				}
				fmt.Printf("phase space: x%d vs x%d\n", phase[1], phase[0])
				fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
				return nil
			}

			if svgPath != "" {
				return writeFile(svgPath, func(w io.Writer) error {
					return export.SeriesToSVG(w, times, viz.Component(states, 0), 800, 300, "#00ff88")
				})
			}

			for _, g := range viz.PlotStates(meta.Model, states, 6) {
				fmt.Println(g)
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&phase, "phase", nil, "plot a phase portrait of two state indices, e.g. --phase 0,1")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the plot to an svg file instead")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := newStore().Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}

func newExportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().ExportCSV(os.Stdout, args[0])
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().ExportJSON(os.Stdout, args[0])
		},
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote file", "path", path)
	return nil
}
