package process

// PoissonArrival draws independent bid/ask arrivals with a constant
// intensity per side. Its state is the (constant) intensity pair, so
// agents observing it see the arrival rates they face.
type PoissonArrival struct {
	base
	bidIntensity float64
	askIntensity float64
}

// PoissonArrivalConfig configures a constant-intensity arrival model.
type PoissonArrivalConfig struct {
	BidIntensity    float64
	AskIntensity    float64
	StepSize        float64
	NumTrajectories int
}

func NewPoissonArrival(cfg PoissonArrivalConfig) *PoissonArrival {
	m := &PoissonArrival{
		bidIntensity: cfg.BidIntensity,
		askIntensity: cfg.AskIntensity,
	}
	m.base = newBase(2, cfg.NumTrajectories, cfg.StepSize,
		[]float64{cfg.BidIntensity, cfg.AskIntensity},
		[]float64{cfg.BidIntensity, cfg.AskIntensity},
	)
	m.setInitialRow([]float64{cfg.BidIntensity, cfg.AskIntensity})
	return m
}

// Arrivals samples one arrival indicator per side with probability
// intensity*stepSize.
func (m *PoissonArrival) Arrivals() [][]float64 {
	out := zeros(m.numTrajectories, 2)
	for i := range out {
		for side := 0; side < 2; side++ {
			if m.rng.Float64() < m.state[i][side]*m.stepSize {
				out[i][side] = 1
			}
		}
	}
	return out
}

// Update is a no-op: the intensity never moves.
func (m *PoissonArrival) Update(arrivals, fills, action [][]float64) {}

// HawkesArrival is a self-exciting arrival model: each arrival bumps
// that side's intensity by jumpSize, and intensities mean-revert to the
// baseline at rate decay.
type HawkesArrival struct {
	base
	baseline float64
	jumpSize float64
	decay    float64
}

// HawkesArrivalConfig configures a self-exciting arrival model.
type HawkesArrivalConfig struct {
	Baseline        float64
	JumpSize        float64
	Decay           float64
	StepSize        float64
	NumTrajectories int
}

func NewHawkesArrival(cfg HawkesArrivalConfig) *HawkesArrival {
	m := &HawkesArrival{
		baseline: cfg.Baseline,
		jumpSize: cfg.JumpSize,
		decay:    cfg.Decay,
	}
	// Stationary upper bound on the intensity when every step arrives.
	ceiling := cfg.Baseline + cfg.JumpSize/maxFloat(cfg.Decay*cfg.StepSize, 1e-12)
	m.base = newBase(2, cfg.NumTrajectories, cfg.StepSize,
		[]float64{0, 0},
		[]float64{ceiling, ceiling},
	)
	m.setInitialRow([]float64{cfg.Baseline, cfg.Baseline})
	return m
}

func (m *HawkesArrival) Arrivals() [][]float64 {
	out := zeros(m.numTrajectories, 2)
	for i := range out {
		for side := 0; side < 2; side++ {
			if m.rng.Float64() < m.state[i][side]*m.stepSize {
				out[i][side] = 1
			}
		}
	}
	return out
}

func (m *HawkesArrival) Update(arrivals, fills, action [][]float64) {
	for i := range m.state {
		for side := 0; side < 2; side++ {
			intensity := m.state[i][side]
			intensity += m.decay * (m.baseline - intensity) * m.stepSize
			if arrivals != nil {
				intensity += m.jumpSize * arrivals[i][side]
			}
			m.state[i][side] = intensity
		}
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
