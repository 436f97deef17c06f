package env

// SpaceKind distinguishes continuous boxes from independent binary
// choices.
type SpaceKind int

const (
	// SpaceBox is a continuous space bounded per dimension.
	SpaceBox SpaceKind = iota
	// SpaceMultiBinary is N independent binary choices.
	SpaceMultiBinary
)

// Space describes the numeric bounds of an observation or action
// vector. Spaces are derived once at construction and immutable for the
// life of an environment instance.
type Space struct {
	Kind SpaceKind
	// Low and High bound each dimension for SpaceBox.
	Low  []float64
	High []float64
	// N is the number of choices for SpaceMultiBinary.
	N int
}

// Width is the per-trajectory vector width of the space.
func (s Space) Width() int {
	if s.Kind == SpaceMultiBinary {
		return s.N
	}
	return len(s.Low)
}

// Contains reports whether a single vector lies within the space.
func (s Space) Contains(v []float64) bool {
	if len(v) != s.Width() {
		return false
	}
	if s.Kind == SpaceMultiBinary {
		for _, x := range v {
			if x != 0 && x != 1 {
				return false
			}
		}
		return true
	}
	for i, x := range v {
		if x < s.Low[i] || x > s.High[i] {
			return false
		}
	}
	return true
}

func newBox(low, high []float64) Space {
	return Space{Kind: SpaceBox, Low: low, High: high}
}

func newMultiBinary(n int) Space {
	return Space{Kind: SpaceMultiBinary, N: n}
}

// observationSpace concatenates the agent-state bounds with each
// configured process's bounds in registry order. It tracks the state
// vector column layout exactly.
func (e *Environment) observationSpace() Space {
	low := []float64{-e.maxCash, -e.maxInventory, 0}
	high := []float64{e.maxCash, e.maxInventory, e.terminalTime}
	for _, entry := range e.processes {
		low = append(low, entry.model.MinValue()...)
		high = append(high, entry.model.MaxValue()...)
	}
	return newBox(low, high)
}

// actionSpace derives the regime-specific action bounds.
func (e *Environment) actionSpace() Space {
	switch e.actionType {
	case ActionTouch:
		return newMultiBinary(2)
	case ActionLimit:
		return newBox([]float64{0, 0}, []float64{e.maxDepth, e.maxDepth})
	case ActionLimitAndMarket:
		return newBox([]float64{0, 0, 0, 0}, []float64{e.maxDepth, e.maxDepth, 1, 1})
	default: // ActionSpeed, validated at construction
		return newBox([]float64{-e.maxSpeed}, []float64{e.maxSpeed})
	}
}
