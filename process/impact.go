package process

// TemporaryPriceImpact displaces the execution price linearly in the
// trading rate: impact = coefficient*rate. The displacement is
// temporary, so the model carries no observable state.
type TemporaryPriceImpact struct {
	base
	coefficient float64
	maxSpeed    float64
}

// TemporaryPriceImpactConfig configures a linear temporary impact model.
type TemporaryPriceImpactConfig struct {
	Coefficient     float64
	MaxSpeed        float64
	StepSize        float64
	NumTrajectories int
}

func NewTemporaryPriceImpact(cfg TemporaryPriceImpactConfig) *TemporaryPriceImpact {
	m := &TemporaryPriceImpact{
		coefficient: cfg.Coefficient,
		maxSpeed:    cfg.MaxSpeed,
	}
	m.base = newBase(0, cfg.NumTrajectories, cfg.StepSize, nil, nil)
	return m
}

// Impact maps the trading-rate action (numTrajectories x 1) to a price
// displacement per trajectory.
func (m *TemporaryPriceImpact) Impact(action [][]float64) [][]float64 {
	out := zeros(m.numTrajectories, 1)
	for i := range out {
		out[i][0] = m.coefficient * action[i][0]
	}
	return out
}

func (m *TemporaryPriceImpact) MaxSpeed() float64 { return m.maxSpeed }

// Update is a no-op: the impact is instantaneous and stateless.
func (m *TemporaryPriceImpact) Update(arrivals, fills, action [][]float64) {}
