package config

import "sort"

var Presets = map[string]map[string]*Config{
	"decay": {
		"coarse": {
			Model: "decay", Scheme: "euler", T0: 0, T1: 1, StepSize: 0.1, Samples: 11,
			Interpolation: "linear", InitState: []float64{1},
		},
		"fine": {
			Model: "decay", Scheme: "rk4", T0: 0, T1: 5, StepSize: 0.01, Samples: 51,
			Interpolation: "cubic", InitState: []float64{1},
		},
	},
	"growth": {
		"unit": {
			Model: "growth", Scheme: "midpoint", T0: 0, T1: 1, StepSize: 0.05, Samples: 21,
			Interpolation: "linear", InitState: []float64{1},
		},
	},
	"pendulum": {
		"small": {
			Model: "pendulum", Scheme: "rk4", Controller: "none", T0: 0, T1: 20, StepSize: 0.01, Samples: 201,
			Interpolation: "linear", InitState: []float64{0.2, 0},
		},
		"large": {
			Model: "pendulum", Scheme: "rk4", Controller: "none", T0: 0, T1: 20, StepSize: 0.01, Samples: 201,
			Interpolation: "linear", InitState: []float64{2.5, 0},
		},
		"balance": {
			Model: "pendulum", Scheme: "rk4", Controller: "lqr", T0: 0, T1: 10, StepSize: 0.01, Samples: 101,
			Interpolation: "linear", InitState: []float64{0.5, 0},
		},
	},
	"spring_mass": {
		"bounce": {
			Model: "spring_mass", Scheme: "rk4", Controller: "none", T0: 0, T1: 20, StepSize: 0.01, Samples: 201,
			Interpolation: "cubic", InitState: []float64{2, 0},
		},
		"pushed": {
			Model: "spring_mass", Scheme: "midpoint", Controller: "constant", T0: 0, T1: 10, StepSize: 0.01, Samples: 101,
			Interpolation: "linear", InitState: []float64{0, 0},
			ControllerParams: ControllerConfig{Value: []float64{5}},
		},
	},
	"double_integrator": {
		"pid": {
			Model: "double_integrator", Scheme: "rk4", Controller: "pid", T0: 0, T1: 10, StepSize: 0.01, Samples: 101,
			Interpolation: "linear", InitState: []float64{1, 0},
			ControllerParams: ControllerConfig{Kp: 4, Ki: 0, Kd: 3, Limit: 10},
		},
		"bang": {
			Model: "double_integrator", Scheme: "rk4", Perturb: true, Controller: "schedule", T0: 0, T1: 4, StepSize: 0.5, Samples: 9,
			Interpolation: "linear", InitState: []float64{0, 0},
			Schedule: ScheduleConfig{Times: []float64{0, 2}, Values: [][]float64{{1}, {-1}}},
		},
	},
	"square_wave": {
		"aligned": {
			Model: "square_wave", Scheme: "rk4", Perturb: true, T0: 0, T1: 4, StepSize: 0.5, Samples: 9,
			Interpolation: "linear", InitState: []float64{0},
		},
		"untagged": {
			Model: "square_wave", Scheme: "rk4", Perturb: false, T0: 0, T1: 4, StepSize: 0.5, Samples: 9,
			Interpolation: "linear", InitState: []float64{0},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
