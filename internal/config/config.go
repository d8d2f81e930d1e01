package config

import (
	"fmt"
	"os"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/integrators"
	"github.com/san-kum/fixedgrid/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultT0       = 0.0
	DefaultT1       = 10.0
	DefaultStepSize = 0.01
	DefaultSamples  = 201
	DefaultKp       = 10.0
	DefaultKi       = 0.1
	DefaultKd       = 5.0
)

type Config struct {
	Model            string             `yaml:"model"`
	Scheme           string             `yaml:"scheme"`
	Perturb          bool               `yaml:"perturb"`
	Controller       string             `yaml:"controller"`
	T0               float64            `yaml:"t0"`
	T1               float64            `yaml:"t1"`
	StepSize         float64            `yaml:"step_size"`
	Samples          int                `yaml:"samples"`
	Interpolation    string             `yaml:"interpolation"`
	InitState        []float64          `yaml:"init_state,omitempty"`
	Params           map[string]float64 `yaml:"params,omitempty"`
	ControllerParams ControllerConfig   `yaml:"controller_params"`
	Schedule         ScheduleConfig     `yaml:"schedule,omitempty"`
}

type ControllerConfig struct {
	Kp     float64   `yaml:"kp"`
	Ki     float64   `yaml:"ki"`
	Kd     float64   `yaml:"kd"`
	Target float64   `yaml:"target"`
	Limit  float64   `yaml:"limit,omitempty"`
	Value  []float64 `yaml:"value,omitempty"`
}

// ScheduleConfig is a sampled control input, one row of Values per time.
type ScheduleConfig struct {
	Times  []float64   `yaml:"times,omitempty"`
	Values [][]float64 `yaml:"values,omitempty"`
}

var defaultInit = map[string][]float64{
	"decay":             {1},
	"growth":            {1},
	"pendulum":          {0.5, 0},
	"spring_mass":       {1, 0},
	"spring_chain":      {1, 0, 0, 0, 0, 0},
	"double_integrator": {1, 0},
	"square_wave":       {0},
}

func DefaultConfig() *Config {
	return &Config{
		Model:         "pendulum",
		Scheme:        "rk4",
		Controller:    "none",
		T0:            DefaultT0,
		T1:            DefaultT1,
		StepSize:      DefaultStepSize,
		Samples:       DefaultSamples,
		Interpolation: "linear",
		ControllerParams: ControllerConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the model registry.
func (c *Config) Validate() error {
	if _, err := integrators.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if _, err := sim.ParseInterpolation(c.Interpolation); err != nil {
		return err
	}
	if !(c.T1 > c.T0) {
		return fmt.Errorf("t1 (%g) must be after t0 (%g): %w", c.T1, c.T0, dynamo.ErrInvalidGrid)
	}
	if c.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d: %w", c.Samples, dynamo.ErrInvalidGrid)
	}
	if c.StepSize < 0 {
		return fmt.Errorf("step_size must be non-negative, got %g: %w", c.StepSize, dynamo.ErrInvalidGrid)
	}
	if len(c.Schedule.Times) != len(c.Schedule.Values) {
		return fmt.Errorf("schedule has %d times and %d values: %w", len(c.Schedule.Times), len(c.Schedule.Values), dynamo.ErrDimensionMismatch)
	}
	return nil
}

// OutputTimes returns Samples evenly spaced times over [T0, T1].
func (c *Config) OutputTimes() []float64 {
	return sim.Linspace(c.T0, c.T1, c.Samples)
}

// SimConfig translates the file settings into a driver configuration.
func (c *Config) SimConfig() (sim.Config, error) {
	if err := c.Validate(); err != nil {
		return sim.Config{}, err
	}
	interp, err := sim.ParseInterpolation(c.Interpolation)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Times:         c.OutputTimes(),
		StepSize:      c.StepSize,
		Interpolation: interp,
		ValidateState: true,
	}, nil
}

// GetInitState returns InitState, or the model's default when it is empty.
func (c *Config) GetInitState() []float64 {
	src := c.InitState
	if len(src) == 0 {
		src = defaultInit[c.Model]
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func (c *Config) GetControllerParams(controlDim int) map[string]float64 {
	return map[string]float64{
		"dim":    float64(controlDim),
		"kp":     c.ControllerParams.Kp,
		"ki":     c.ControllerParams.Ki,
		"kd":     c.ControllerParams.Kd,
		"target": c.ControllerParams.Target,
		"limit":  c.ControllerParams.Limit,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = append([]float64(nil), c.InitState...)
	out.ControllerParams.Value = append([]float64(nil), c.ControllerParams.Value...)
	out.Schedule.Times = append([]float64(nil), c.Schedule.Times...)
	out.Schedule.Values = make([][]float64, len(c.Schedule.Values))
	for i, v := range c.Schedule.Values {
		out.Schedule.Values[i] = append([]float64(nil), v...)
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}
