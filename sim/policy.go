package sim

import (
	"math/rand"

	"market-sim-go/env"
)

// Policy maps the batched environment state to a batched action, one
// row per trajectory.
type Policy interface {
	Act(state [][]float64) ([][]float64, error)
}

// RandomPolicy samples every action uniformly from the action space.
// Useful as a smoke-test baseline and for exercising an environment
// end to end.
type RandomPolicy struct {
	space env.Space
	rng   *rand.Rand
}

// NewRandomPolicy builds a uniform sampler over the given action space.
func NewRandomPolicy(space env.Space, seed int64) *RandomPolicy {
	return &RandomPolicy{space: space, rng: rand.New(rand.NewSource(seed))}
}

// Act draws one uniform sample per trajectory.
func (p *RandomPolicy) Act(state [][]float64) ([][]float64, error) {
	width := p.space.Width()
	action := make([][]float64, len(state))
	for i := range action {
		row := make([]float64, width)
		for j := range row {
			if p.space.Kind == env.SpaceMultiBinary {
				row[j] = float64(p.rng.Intn(2))
			} else {
				low, high := p.space.Low[j], p.space.High[j]
				row[j] = low + p.rng.Float64()*(high-low)
			}
		}
		action[i] = row
	}
	return action, nil
}

// FixedDepthPolicy posts the same bid and ask depth every step. With a
// touch action space it quotes both sides instead.
type FixedDepthPolicy struct {
	space env.Space
	depth float64
}

// NewFixedDepthPolicy builds a constant two-sided quoting policy.
func NewFixedDepthPolicy(space env.Space, depth float64) *FixedDepthPolicy {
	return &FixedDepthPolicy{space: space, depth: depth}
}

// Act emits the configured depth on the bid and ask columns, clamped to
// the space bounds. Any further action columns stay zero.
func (p *FixedDepthPolicy) Act(state [][]float64) ([][]float64, error) {
	width := p.space.Width()
	action := make([][]float64, len(state))
	for i := range action {
		row := make([]float64, width)
		for j := 0; j < width && j < 2; j++ {
			if p.space.Kind == env.SpaceMultiBinary {
				row[j] = 1
				continue
			}
			d := p.depth
			if d > p.space.High[j] {
				d = p.space.High[j]
			}
			if d < p.space.Low[j] {
				d = p.space.Low[j]
			}
			row[j] = d
		}
		action[i] = row
	}
	return action, nil
}

// FlatPolicy emits the all-zero action. For a touch space that means
// no quotes, for a speed space no trading.
type FlatPolicy struct {
	space env.Space
}

// NewFlatPolicy builds the do-nothing policy for the given space.
func NewFlatPolicy(space env.Space) *FlatPolicy {
	return &FlatPolicy{space: space}
}

// Act returns all-zero action rows.
func (p *FlatPolicy) Act(state [][]float64) ([][]float64, error) {
	width := p.space.Width()
	action := make([][]float64, len(state))
	for i := range action {
		action[i] = make([]float64, width)
	}
	return action, nil
}
