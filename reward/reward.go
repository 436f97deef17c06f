// Package reward defines the per-step reward contract consumed by the
// simulation engine, together with the standard market-making reward
// functions.
package reward

// State column layout shared with the env package. The midprice model
// is always the first configured process, so the asset price sits in
// column 3.
const (
	cashIndex      = 0
	inventoryIndex = 1
	priceIndex     = 3
)

// Function computes a batched reward from the transition
// (current, action, next, done). Implementations may carry episode
// state and are reset with the fresh initial state between episodes.
type Function interface {
	Calculate(current, action, next [][]float64, done bool) []float64
	Reset(initial [][]float64)
}

// StepSizer is implemented by reward functions whose parameters depend
// on the environment step size. The engine keeps it synchronized.
type StepSizer interface {
	SetStepSize(stepSize float64)
}

// PnL rewards the change in mark-to-market wealth
// (cash + inventory*midprice) over one step.
type PnL struct{}

func NewPnL() *PnL { return &PnL{} }

func (p *PnL) Calculate(current, action, next [][]float64, done bool) []float64 {
	out := make([]float64, len(current))
	for i := range current {
		out[i] = markToMarket(next[i]) - markToMarket(current[i])
	}
	return out
}

func (p *PnL) Reset(initial [][]float64) {}

// RunningInventoryPenalty is the Cartea–Jaimungal style criterion:
// mark-to-market PnL minus a running quadratic inventory penalty and,
// on the terminal step, a quadratic liquidation penalty.
type RunningInventoryPenalty struct {
	perStepAversion  float64
	terminalAversion float64
	stepSize         float64
}

// NewRunningInventoryPenalty builds the criterion with a running
// aversion (phi) and a terminal aversion (alpha). The step size is
// supplied by the environment via SetStepSize.
func NewRunningInventoryPenalty(phi, alpha float64) *RunningInventoryPenalty {
	return &RunningInventoryPenalty{perStepAversion: phi, terminalAversion: alpha}
}

func (r *RunningInventoryPenalty) SetStepSize(stepSize float64) { r.stepSize = stepSize }

func (r *RunningInventoryPenalty) Calculate(current, action, next [][]float64, done bool) []float64 {
	out := make([]float64, len(current))
	for i := range current {
		q := next[i][inventoryIndex]
		reward := markToMarket(next[i]) - markToMarket(current[i])
		reward -= r.perStepAversion * q * q * r.stepSize
		if done {
			reward -= r.terminalAversion * q * q
		}
		out[i] = reward
	}
	return out
}

func (r *RunningInventoryPenalty) Reset(initial [][]float64) {}

// RealizedPnL rewards cash changes only, ignoring inventory valuation.
// Useful for execution agents that must end an episode flat.
type RealizedPnL struct{}

func NewRealizedPnL() *RealizedPnL { return &RealizedPnL{} }

func (r *RealizedPnL) Calculate(current, action, next [][]float64, done bool) []float64 {
	out := make([]float64, len(current))
	for i := range current {
		out[i] = next[i][cashIndex] - current[i][cashIndex]
	}
	return out
}

func (r *RealizedPnL) Reset(initial [][]float64) {}

func markToMarket(row []float64) float64 {
	return row[cashIndex] + row[inventoryIndex]*row[priceIndex]
}
