package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Scheme names one of the fixed-step methods. The set is closed.
type Scheme uint8

const (
	Euler Scheme = iota
	Midpoint
	RK4
)

var schemeNames = [...]string{
	Euler:    "euler",
	Midpoint: "midpoint",
	RK4:      "rk4",
}

func (s Scheme) String() string {
	if int(s) < len(schemeNames) {
		return schemeNames[s]
	}
	return fmt.Sprintf("scheme(%d)", uint8(s))
}

// Order is the global order of accuracy.
func (s Scheme) Order() int {
	switch s {
	case Euler:
		return 1
	case Midpoint:
		return 2
	case RK4:
		return 4
	}
	return 0
}

// Evaluations is the number of derivative calls per step, counting f0.
func (s Scheme) Evaluations() int {
	switch s {
	case Euler:
		return 1
	case Midpoint:
		return 2
	case RK4:
		return 4
	}
	return 0
}

func (s Scheme) valid() bool {
	return int(s) < len(schemeNames)
}

// ParseScheme maps a configuration name to its scheme.
func ParseScheme(name string) (Scheme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range schemeNames {
		if n == key {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownScheme)
}

// Schemes lists every scheme in order of increasing accuracy.
func Schemes() []Scheme {
	return []Scheme{Euler, Midpoint, RK4}
}
