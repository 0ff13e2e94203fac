package config

import (
	"math"
	"sort"

	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
)

func preset(steps int, controller string, init InitStateConfig) Config {
	return Config{
		Params:           physics.DefaultParams(),
		Dt:               DefaultDt,
		Steps:            steps,
		Integrator:       integrators.Default,
		Controller:       controller,
		InitState:        init,
		ControllerParams: control.DefaultParams(),
	}
}

var Presets = map[string]Config{
	"upright":   preset(100, "none", InitStateConfig{}),
	"perturbed": preset(200, "none", InitStateConfig{Theta: 0.01}),
	"hanging":   preset(2048, "none", InitStateConfig{Theta: math.Pi - 0.05}),
	"balance":   preset(1000, "feedback", InitStateConfig{Theta: 0.1}),
	"recover":   preset(1000, "feedback", InitStateConfig{Theta: 0.3, Omega: 0.5}),
	"pid":       preset(1000, "pid", InitStateConfig{Theta: 0.1}),
	"push": func() Config {
		c := preset(300, "constant", InitStateConfig{})
		c.ControllerParams.Force = 1.0
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg.ControllerParams.Poles = append([]float64(nil), cfg.ControllerParams.Poles...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
