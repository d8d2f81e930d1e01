package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/experiment"
	"github.com/san-kum/fixedgrid/internal/sim"
	"github.com/san-kum/fixedgrid/internal/storage"
	"github.com/san-kum/fixedgrid/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	logLevel    string
	metricsAddr string

	logger   *slog.Logger
	recorder *telemetry.Recorder
	registry = experiment.NewRegistry()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fixedgrid",
		Short:         "fixed-step ODE integration lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fixedgrid", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newCompareCmd(),
		newOrderCmd(),
		newPresetsCmd(),
		newScenarioCmd(),
		newMonteCarloCmd(),
		newTuneCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func setup() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if metricsAddr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	recorder = telemetry.NewRecorder(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", metricsAddr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", metricsAddr)
	return nil
}

// simOptions are passed to every simulator the CLI builds.
func simOptions() []sim.Option {
	return []sim.Option{sim.WithLogger(logger), sim.WithRecorder(recorder)}
}

func newStore() *storage.Store {
	return storage.New(dataDir)
}

// resolveConfig layers a preset, then a config file, then explicitly set
// flags over the defaults.
func resolveConfig(cmd *cobra.Command, model string, f *runFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if model != "" {
		cfg.Model = model
		cfg.InitState = nil
	}

	if f.preset != "" {
		preset := config.GetPreset(cfg.Model, f.preset)
		if preset == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(cfg.Model))
		}
		cfg = preset
	}

	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if model != "" && loaded.Model != model {
			logger.Warn("config file model overridden by argument", "file", loaded.Model, "arg", model)
			loaded.Model = model
		}
		cfg = loaded
	}

	f.apply(cmd, cfg)
	return cfg, cfg.Validate()
}

type runFlags struct {
	preset        string
	configFile    string
	scheme        string
	perturb       bool
	controller    string
	t0            float64
	t1            float64
	stepSize      float64
	samples       int
	interpolation string
	initState     []float64
	params        map[string]string
	kp, ki, kd    float64
	target        float64
	limit         float64
	value         []float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.preset, "preset", "", "use preset configuration")
	fl.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fl.StringVar(&f.scheme, "scheme", "rk4", "integration scheme (euler, midpoint, rk4)")
	fl.BoolVar(&f.perturb, "perturb", false, "tag step-end evaluations for discontinuous derivatives")
	fl.StringVar(&f.controller, "controller", "none", "controller")
	fl.Float64Var(&f.t0, "t0", config.DefaultT0, "start time")
	fl.Float64Var(&f.t1, "t1", config.DefaultT1, "end time")
	fl.Float64Var(&f.stepSize, "dt", config.DefaultStepSize, "step size (0 steps on the output times)")
	fl.IntVar(&f.samples, "samples", config.DefaultSamples, "number of output times")
	fl.StringVar(&f.interpolation, "interp", "linear", "output interpolation (linear, cubic)")
	fl.Float64SliceVar(&f.initState, "init", nil, "initial state")
	fl.StringToStringVar(&f.params, "param", nil, "model parameter name=value")
	fl.Float64Var(&f.kp, "kp", config.DefaultKp, "pid kp")
	fl.Float64Var(&f.ki, "ki", config.DefaultKi, "pid ki")
	fl.Float64Var(&f.kd, "kd", config.DefaultKd, "pid kd")
	fl.Float64Var(&f.target, "target", 0, "pid target")
	fl.Float64Var(&f.limit, "limit", 0, "pid output limit (0 is unlimited)")
	fl.Float64SliceVar(&f.value, "u", nil, "constant control input")
}

// apply copies only the flags the user actually set.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("scheme") {
		cfg.Scheme = f.scheme
	}
	if changed("perturb") {
		cfg.Perturb = f.perturb
	}
	if changed("controller") {
		cfg.Controller = f.controller
	}
	if changed("t0") {
		cfg.T0 = f.t0
	}
	if changed("t1") {
		cfg.T1 = f.t1
	}
	if changed("dt") {
		cfg.StepSize = f.stepSize
	}
	if changed("samples") {
		cfg.Samples = f.samples
	}
	if changed("interp") {
		cfg.Interpolation = f.interpolation
	}
	if changed("init") {
		cfg.InitState = f.initState
	}
	if changed("kp") {
		cfg.ControllerParams.Kp = f.kp
	}
	if changed("ki") {
		cfg.ControllerParams.Ki = f.ki
	}
	if changed("kd") {
		cfg.ControllerParams.Kd = f.kd
	}
	if changed("target") {
		cfg.ControllerParams.Target = f.target
	}
	if changed("limit") {
		cfg.ControllerParams.Limit = f.limit
	}
	if changed("u") {
		cfg.ControllerParams.Value = f.value
	}
}

func (f *runFlags) parseParams(cfg *config.Config) error {
	for name, raw := range f.params {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("--param %s=%s: %w", name, raw, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[name] = v
	}
	return nil
}
