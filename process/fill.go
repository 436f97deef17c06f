package process

import "math"

// minFillProbability caps the usable depth range: depths beyond the
// point where the fill probability drops under 1% are outside the
// action space.
const minFillProbability = 0.01

// ExponentialFill fills a posted limit order with probability
// exp(-fillExponent*depth). It carries no observable state.
type ExponentialFill struct {
	base
	fillExponent float64
}

// ExponentialFillConfig configures an exponential fill model.
type ExponentialFillConfig struct {
	FillExponent    float64
	StepSize        float64
	NumTrajectories int
}

func NewExponentialFill(cfg ExponentialFillConfig) *ExponentialFill {
	m := &ExponentialFill{fillExponent: cfg.FillExponent}
	m.base = newBase(0, cfg.NumTrajectories, cfg.StepSize, nil, nil)
	return m
}

// Fills samples one fill indicator per side given the posted depths
// (numTrajectories x 2, bid first).
func (m *ExponentialFill) Fills(depths [][]float64) [][]float64 {
	out := zeros(m.numTrajectories, 2)
	for i := range out {
		for side := 0; side < 2; side++ {
			if m.rng.Float64() < math.Exp(-m.fillExponent*depths[i][side]) {
				out[i][side] = 1
			}
		}
	}
	return out
}

func (m *ExponentialFill) MaxDepth() float64 {
	return -math.Log(minFillProbability) / m.fillExponent
}

// Update is a no-op: the fill function is memoryless.
func (m *ExponentialFill) Update(arrivals, fills, action [][]float64) {}
