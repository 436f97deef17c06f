// Package process defines the stochastic sub-models a simulation is
// composed of: midprice dynamics, counterparty order arrivals, limit
// order fill probabilities and price impact. Every model carries a
// batched state vector with one row per trajectory and is advanced in
// lockstep by the owning environment.
package process

import "math/rand"

// Model is the contract every stochastic sub-model satisfies. State is
// a batched matrix (numTrajectories x StateWidth); the environment
// copies it into its own state vector after each update, so models may
// return live references.
type Model interface {
	// CurrentState returns the model's state after the latest update.
	CurrentState() [][]float64
	// InitialState returns the state a fresh episode starts from.
	InitialState() [][]float64
	// StateWidth is the per-trajectory width of the state vector.
	StateWidth() int
	// MinValue and MaxValue bound each state column.
	MinValue() []float64
	MaxValue() []float64
	// Reset re-draws the model state from scratch for a new episode.
	Reset()
	// Seed replaces the model's random source.
	Seed(seed int64)

	StepSize() float64
	SetStepSize(stepSize float64)
	NumTrajectories() int
	SetNumTrajectories(n int)

	// Update advances the state by one step given the shared per-step
	// signals. Models ignore arguments that are not relevant to them.
	Update(arrivals, fills, action [][]float64)
}

// MidpriceModel generates the reference asset price path. Column 0 of
// its state is the midprice.
type MidpriceModel interface {
	Model
	MaxStockPrice() float64
}

// ArrivalModel generates counterparty order arrivals. Arrivals returns
// a (numTrajectories x 2) indicator matrix, bid side first.
type ArrivalModel interface {
	Model
	Arrivals() [][]float64
}

// FillProbabilityModel maps posted depths to realized fills. Fills
// returns a (numTrajectories x 2) indicator matrix, bid side first.
type FillProbabilityModel interface {
	Model
	Fills(depths [][]float64) [][]float64
	MaxDepth() float64
}

// PriceImpactModel maps a trading rate to a price displacement.
type PriceImpactModel interface {
	Model
	Impact(action [][]float64) [][]float64
	MaxSpeed() float64
}

// base carries the vectorized state bookkeeping shared by all models.
type base struct {
	stepSize        float64
	numTrajectories int
	width           int
	rng             *rand.Rand
	state           [][]float64
	initial         [][]float64
	minValue        []float64
	maxValue        []float64
}

func newBase(width, numTrajectories int, stepSize float64, minValue, maxValue []float64) base {
	b := base{
		stepSize:        stepSize,
		numTrajectories: numTrajectories,
		width:           width,
		rng:             rand.New(rand.NewSource(rand.Int63())),
		minValue:        minValue,
		maxValue:        maxValue,
	}
	b.state = zeros(numTrajectories, width)
	b.initial = zeros(numTrajectories, width)
	return b
}

func (b *base) CurrentState() [][]float64 { return b.state }
func (b *base) InitialState() [][]float64 { return b.initial }
func (b *base) StateWidth() int           { return b.width }
func (b *base) MinValue() []float64       { return b.minValue }
func (b *base) MaxValue() []float64       { return b.maxValue }
func (b *base) StepSize() float64         { return b.stepSize }
func (b *base) SetStepSize(s float64)     { b.stepSize = s }
func (b *base) NumTrajectories() int      { return b.numTrajectories }

func (b *base) SetNumTrajectories(n int) {
	b.numTrajectories = n
	b.initial = repeatRow(b.initialRow(), n)
	b.state = repeatRow(b.initialRow(), n)
}

func (b *base) Seed(seed int64) {
	b.rng = rand.New(rand.NewSource(seed))
}

// Reset restores the initial state. Models with randomized initial
// conditions shadow this.
func (b *base) Reset() {
	for i := range b.state {
		copy(b.state[i], b.initial[i])
	}
}

// setInitialRow fills both the initial and current state with the same
// per-trajectory row.
func (b *base) setInitialRow(row []float64) {
	b.initial = repeatRow(row, b.numTrajectories)
	b.state = repeatRow(row, b.numTrajectories)
}

func (b *base) initialRow() []float64 {
	if len(b.initial) == 0 {
		return make([]float64, b.width)
	}
	row := make([]float64, b.width)
	copy(row, b.initial[0])
	return row
}

func zeros(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func repeatRow(row []float64, rows int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, len(row))
		copy(m[i], row)
	}
	return m
}
