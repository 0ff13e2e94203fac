package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// Params carries the tunables for every controller kind.
type Params struct {
	Force  float64   `yaml:"force" toml:"force"`
	Kp     float64   `yaml:"kp" toml:"kp"`
	Ki     float64   `yaml:"ki" toml:"ki"`
	Kd     float64   `yaml:"kd" toml:"kd"`
	Target float64   `yaml:"target" toml:"target"`
	Poles  []float64 `yaml:"poles" toml:"poles"`
}

func DefaultParams() Params {
	return Params{
		Kp: 40.0,
		Ki: 0.0,
		Kd: 8.0,
	}
}

var registry = map[string]func(physics.Params, Params) (dynamo.Controller, error){
	"none": func(physics.Params, Params) (dynamo.Controller, error) {
		return NewNone(), nil
	},
	"constant": func(_ physics.Params, c Params) (dynamo.Controller, error) {
		return NewConstant(c.Force), nil
	},
	"pid": func(_ physics.Params, c Params) (dynamo.Controller, error) {
		return NewPID(c.Kp, c.Ki, c.Kd, c.Target), nil
	},
	"feedback": func(p physics.Params, c Params) (dynamo.Controller, error) {
		poles := DefaultPoles
		if len(c.Poles) > 0 {
			poles = make([]complex128, len(c.Poles))
			for i, v := range c.Poles {
				poles[i] = complex(v, 0)
			}
		}
		k, err := Place(p, poles)
		if err != nil {
			return nil, err
		}
		return NewStateFeedback(k, nil), nil
	},
}

// New builds a controller by name for a model with parameters p.
func New(name string, p physics.Params, c Params) (dynamo.Controller, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(p, c)
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
