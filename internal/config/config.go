package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt    = 0.01
	DefaultSteps = 1000
)

type Config struct {
	Params           physics.Params  `yaml:"params" toml:"params"`
	ValidateParams   bool            `yaml:"validate_params" toml:"validate_params"`
	Dt               float64         `yaml:"dt" toml:"dt"`
	Steps            int             `yaml:"steps" toml:"steps"`
	Integrator       string          `yaml:"integrator" toml:"integrator"`
	Controller       string          `yaml:"controller" toml:"controller"`
	InitState        InitStateConfig `yaml:"init_state" toml:"init_state"`
	ControllerParams control.Params  `yaml:"controller_params" toml:"controller_params"`
}

type InitStateConfig struct {
	Pos   float64 `yaml:"pos" toml:"pos"`
	Theta float64 `yaml:"theta" toml:"theta"`
	Vel   float64 `yaml:"vel" toml:"vel"`
	Omega float64 `yaml:"omega" toml:"omega"`
}

func DefaultConfig() *Config {
	return &Config{
		Params:           physics.DefaultParams(),
		Dt:               DefaultDt,
		Steps:            DefaultSteps,
		Integrator:       integrators.Default,
		Controller:       "none",
		ControllerParams: control.DefaultParams(),
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or, for a .toml extension, TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings. Physical parameters are only checked
// when ValidateParams is set.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}
	if !contains(control.Names(), c.Controller) {
		return fmt.Errorf("unknown controller: %s", c.Controller)
	}
	if c.ValidateParams {
		return c.Params.Validate()
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (c *Config) GetInitState() dynamo.State {
	return dynamo.State{c.InitState.Pos, c.InitState.Theta, c.InitState.Vel, c.InitState.Omega}
}
