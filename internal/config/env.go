package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds settings taken from the environment.
type Env struct {
	DataDir    string   `env:"CARTPEND_DATA_DIR" envDefault:".cartpend"`
	Dt         *float64 `env:"CARTPEND_DT"`
	Integrator string   `env:"CARTPEND_INTEGRATOR"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv overrides c with the values set in e. Values are not checked
// here; Validate rejects them like any other source.
func (c *Config) ApplyEnv(e Env) {
	if e.Dt != nil {
		c.Dt = *e.Dt
	}
	if e.Integrator != "" {
		c.Integrator = e.Integrator
	}
}
