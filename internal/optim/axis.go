package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAxis reads "name=v1,v2,..." or "name=start:stop:step".
func ParseAxis(s string) (Axis, error) {
	name, rng, ok := strings.Cut(s, "=")
	if !ok || name == "" || rng == "" {
		return Axis{}, fmt.Errorf("invalid sweep %q, want name=v1,v2 or name=start:stop:step", s)
	}
	axis := Axis{Name: strings.TrimSpace(name)}

	if parts := strings.Split(rng, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Axis{}, fmt.Errorf("sweep %s: %w", name, err)
			}
			bounds[i] = v
		}
		start, stop, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || stop < start {
			return Axis{}, fmt.Errorf("sweep %s: empty range %s", name, rng)
		}
		n := int((stop-start)/step+1e-9) + 1
		for i := 0; i < n; i++ {
			axis.Values = append(axis.Values, start+float64(i)*step)
		}
		return axis, nil
	}

	for _, p := range strings.Split(rng, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("sweep %s: %w", name, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}
