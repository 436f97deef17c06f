package sim

import (
	"fmt"

	"market-sim-go/env"
)

// Policy names accepted by NewPolicy.
const (
	PolicyRandom     = "random"
	PolicyFixedDepth = "fixed_depth"
	PolicyFlat       = "flat"
)

// NewPolicy builds a named baseline policy for the given action space.
// fixedDepth only applies to the fixed_depth policy and seed only to
// the random one.
func NewPolicy(name string, space env.Space, fixedDepth float64, seed int64) (Policy, error) {
	switch name {
	case PolicyRandom:
		return NewRandomPolicy(space, seed), nil
	case PolicyFixedDepth:
		if fixedDepth < 0 {
			return nil, fmt.Errorf("fixed depth must be non-negative, got %v", fixedDepth)
		}
		return NewFixedDepthPolicy(space, fixedDepth), nil
	case PolicyFlat:
		return NewFlatPolicy(space), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}
