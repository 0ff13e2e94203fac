package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartpend/internal/dynamo"
)

const Default = "rk45"

var registry = map[string]func() dynamo.Integrator{
	"rk45": func() dynamo.Integrator { return NewDormandPrince() },
	"rk4":  func() dynamo.Integrator { return NewRK4(10) },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
