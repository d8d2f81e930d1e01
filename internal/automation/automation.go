package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/experiment"
	"github.com/san-kum/fixedgrid/internal/sim"
	"github.com/san-kum/fixedgrid/internal/storage"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Preset, when set, is loaded first and the
// step's own fields override it.
type ScenarioStep struct {
	Preset string `yaml:"preset,omitempty"`
	Save   bool   `yaml:"save"`

	config.Config `yaml:",inline"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Index  int
	Model  string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Steps       []yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	scenario := &Scenario{Name: raw.Name, Description: raw.Description}
	for i, node := range raw.Steps {
		var head struct {
			Preset string `yaml:"preset"`
			Model  string `yaml:"model"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		step := ScenarioStep{Config: *config.DefaultConfig()}
		if head.Preset != "" {
			preset := config.GetPreset(head.Model, head.Preset)
			if preset == nil {
				return nil, fmt.Errorf("step %d: no preset %q for model %q", i+1, head.Preset, head.Model)
			}
			step.Config = *preset
		}
		if err := node.Decode(&step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		scenario.Steps = append(scenario.Steps, step)
	}
	return scenario, nil
}

// RunScenario executes all steps in order. Steps marked save are written to
// store when it is non-nil. Results gathered before a failure are returned
// with the error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		cfg := step.Config.Clone()
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "model", cfg.Model, "scheme", cfg.Scheme)

		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Index: i, Model: cfg.Model, Result: result}
		if step.Save && store != nil {
			sr.RunID, err = store.Save(Metadata(cfg), result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// Metadata fills the run description stored alongside a result.
func Metadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Model:         cfg.Model,
		Scheme:        cfg.Scheme,
		Perturb:       cfg.Perturb,
		StepSize:      cfg.StepSize,
		Interpolation: cfg.Interpolation,
		T0:            cfg.T0,
		T1:            cfg.T1,
		Controller:    cfg.Controller,
	}
}

// ParameterSweep runs one model across a range of values for one parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	MaxEnergy  float64
	MinEnergy  float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[sweep.ParamName] = paramVal

		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		sr := SweepResult{ParamValue: paramVal, FinalState: result.Final()}
		if ec, ok := exp.Model().(dynamo.Hamiltonian); ok && len(result.States) > 0 {
			sr.MinEnergy, sr.MaxEnergy = math.Inf(1), math.Inf(-1)
			for _, s := range result.States {
				e := ec.Energy(s)
				sr.MaxEnergy = math.Max(sr.MaxEnergy, e)
				sr.MinEnergy = math.Min(sr.MinEnergy, e)
			}
		}
		results = append(results, sr)

		logger.Debug("sweep point", "step", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Workers      int
	Seed         int64
	// Bound marks a trial unstable when any final component exceeds it.
	Bound float64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool
	Metrics    map[string]float64
}

// RunMonteCarlo integrates randomly perturbed copies of the base initial
// state concurrently.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	base := cfg.Base.GetInitState()
	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range inits {
		x0 := make(dynamo.State, len(base))
		for i, v := range base {
			x0[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		inits[trial] = x0
	}

	runs, err := experiment.RunEnsemble(ctx, registry, cfg.Base, inits, cfg.Workers)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for trial, res := range runs {
		final := res.Final()
		stable := final.IsValid()
		for _, v := range final {
			if math.Abs(v) > bound {
				stable = false
				break
			}
		}
		results[trial] = MonteCarloResult{
			TrialID:    trial,
			InitState:  inits[trial],
			FinalState: final,
			Stable:     stable,
			Metrics:    res.Metrics,
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// MetricSummary describes one metric across Monte Carlo trials. Std is the
// sample standard deviation, zero for a single trial.
type MetricSummary struct {
	Name   string
	Trials int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

// SummarizeMetric aggregates the named metric over every trial that reported
// it. NaN values are skipped.
func SummarizeMetric(results []MonteCarloResult, name string) (MetricSummary, error) {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r.Metrics[name]; ok && !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return MetricSummary{}, fmt.Errorf("no trial reported metric %q", name)
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return MetricSummary{
		Name:   name,
		Trials: len(values),
		Mean:   mean,
		Std:    std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}, nil
}
