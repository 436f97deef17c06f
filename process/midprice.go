package process

import "math"

// BrownianMotionMidprice models the midprice as an arithmetic Brownian
// motion: dS = drift*dt + volatility*sqrt(dt)*Z.
type BrownianMotionMidprice struct {
	base
	drift        float64
	volatility   float64
	initialPrice float64
	terminalTime float64
}

// BrownianMotionConfig configures either Brownian midprice model.
type BrownianMotionConfig struct {
	Drift           float64
	Volatility      float64
	InitialPrice    float64
	TerminalTime    float64
	StepSize        float64
	NumTrajectories int
}

// NewBrownianMotionMidprice builds a Brownian motion midprice model.
// Bounds are a four-sigma envelope around the initial price over the
// whole horizon.
func NewBrownianMotionMidprice(cfg BrownianMotionConfig) *BrownianMotionMidprice {
	envelope := 4 * cfg.Volatility * math.Sqrt(cfg.TerminalTime)
	m := &BrownianMotionMidprice{
		drift:        cfg.Drift,
		volatility:   cfg.Volatility,
		initialPrice: cfg.InitialPrice,
		terminalTime: cfg.TerminalTime,
	}
	m.base = newBase(1, cfg.NumTrajectories, cfg.StepSize,
		[]float64{cfg.InitialPrice - envelope},
		[]float64{cfg.InitialPrice + envelope},
	)
	m.setInitialRow([]float64{cfg.InitialPrice})
	return m
}

func (m *BrownianMotionMidprice) MaxStockPrice() float64 { return m.maxValue[0] }

func (m *BrownianMotionMidprice) Update(arrivals, fills, action [][]float64) {
	scale := m.volatility * math.Sqrt(m.stepSize)
	for i := range m.state {
		m.state[i][0] += m.drift*m.stepSize + scale*m.rng.NormFloat64()
	}
}

// GeometricBrownianMidprice models the midprice as a geometric Brownian
// motion: S ← S*exp((drift - vol²/2)*dt + vol*sqrt(dt)*Z).
type GeometricBrownianMidprice struct {
	base
	drift        float64
	volatility   float64
	initialPrice float64
	terminalTime float64
}

// NewGeometricBrownianMidprice builds a geometric Brownian motion
// midprice model from the same parameter set as the arithmetic one,
// with volatility interpreted as a relative rate.
func NewGeometricBrownianMidprice(cfg BrownianMotionConfig) *GeometricBrownianMidprice {
	envelope := math.Exp(4 * cfg.Volatility * math.Sqrt(cfg.TerminalTime))
	m := &GeometricBrownianMidprice{
		drift:        cfg.Drift,
		volatility:   cfg.Volatility,
		initialPrice: cfg.InitialPrice,
		terminalTime: cfg.TerminalTime,
	}
	m.base = newBase(1, cfg.NumTrajectories, cfg.StepSize,
		[]float64{cfg.InitialPrice / envelope},
		[]float64{cfg.InitialPrice * envelope},
	)
	m.setInitialRow([]float64{cfg.InitialPrice})
	return m
}

func (m *GeometricBrownianMidprice) MaxStockPrice() float64 { return m.maxValue[0] }

func (m *GeometricBrownianMidprice) Update(arrivals, fills, action [][]float64) {
	halfVar := 0.5 * m.volatility * m.volatility
	scale := m.volatility * math.Sqrt(m.stepSize)
	for i := range m.state {
		m.state[i][0] *= math.Exp((m.drift-halfVar)*m.stepSize + scale*m.rng.NormFloat64())
	}
}
