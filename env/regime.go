package env

import "fmt"

// ActionType fixes how the action vector is interpreted. It is chosen
// at construction and never changes for the life of an instance.
type ActionType string

const (
	// ActionTouch posts at the best bid/ask: two binary flags.
	ActionTouch ActionType = "touch"
	// ActionLimit posts limit orders at continuous depths: a 2-vector.
	ActionLimit ActionType = "limit"
	// ActionLimitAndMarket adds binary market-order flags to the limit
	// depths: a 4-vector (bid depth, ask depth, MO buy, MO sell).
	ActionLimitAndMarket ActionType = "limit_and_market"
	// ActionSpeed trades at a continuous signed rate: a 1-vector.
	ActionSpeed ActionType = "speed"
)

// ParseActionType maps a config string onto the closed regime set.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionTouch, ActionLimit, ActionLimitAndMarket, ActionSpeed:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("unsupported action type %q", s)
}

// Width is the per-trajectory action vector width for the regime.
func (a ActionType) Width() int {
	switch a {
	case ActionTouch, ActionLimit:
		return 2
	case ActionLimitAndMarket:
		return 4
	case ActionSpeed:
		return 1
	}
	return 0
}

// isMarketMaking reports whether fills are arrival-driven.
func (a ActionType) isMarketMaking() bool {
	return a == ActionTouch || a == ActionLimit || a == ActionLimitAndMarket
}

// requiredProcesses names the process slots a regime cannot run without.
func (a ActionType) requiredProcesses() []string {
	switch a {
	case ActionTouch:
		return []string{processArrival}
	case ActionLimit, ActionLimitAndMarket:
		return []string{processArrival, processFillProbability}
	case ActionSpeed:
		return []string{processPriceImpact}
	}
	return nil
}

// limitDepths returns action columns 0-1 (bid depth, ask depth).
// Calling it under a regime without depth columns is component misuse.
func (e *Environment) limitDepths(action [][]float64) ([][]float64, error) {
	if e.actionType != ActionLimit && e.actionType != ActionLimitAndMarket {
		return nil, fmt.Errorf("limit depths are not defined for action type %q", e.actionType)
	}
	out := make([][]float64, len(action))
	for i, row := range action {
		out[i] = row[0:2]
	}
	return out, nil
}

// touchFlags returns action columns 0-1 (post at bid, post at ask).
func (e *Environment) touchFlags(action [][]float64) ([][]float64, error) {
	if e.actionType != ActionTouch {
		return nil, fmt.Errorf("touch flags are not defined for action type %q", e.actionType)
	}
	out := make([][]float64, len(action))
	for i, row := range action {
		out[i] = row[0:2]
	}
	return out, nil
}

// marketOrderFlags returns action columns 2-3 (MO buy, MO sell).
func (e *Environment) marketOrderFlags(action [][]float64) ([][]float64, error) {
	if e.actionType != ActionLimitAndMarket {
		return nil, fmt.Errorf("market order flags are not defined for action type %q", e.actionType)
	}
	out := make([][]float64, len(action))
	for i, row := range action {
		out[i] = row[2:4]
	}
	return out, nil
}

// agentUpdater applies one regime's cash/inventory update. The concrete
// updater is selected once at construction; Step never re-inspects the
// regime tag.
type agentUpdater interface {
	update(e *Environment, arrivals, fills, action [][]float64) error
}

func newAgentUpdater(a ActionType) (agentUpdater, error) {
	switch a {
	case ActionTouch:
		return touchUpdater{}, nil
	case ActionLimit:
		return limitUpdater{}, nil
	case ActionLimitAndMarket:
		return limitAndMarketUpdater{}, nil
	case ActionSpeed:
		return speedUpdater{}, nil
	}
	return nil, fmt.Errorf("unsupported action type %q", a)
}

// touchUpdater executes arrival-driven fills at midprice +/- half
// spread, one unit per side.
type touchUpdater struct{}

func (touchUpdater) update(e *Environment, arrivals, fills, action [][]float64) error {
	mid := e.midprices()
	for i := range e.state {
		for side := 0; side < 2; side++ {
			mult := sideMultiplier(side)
			traded := arrivals[i][side] * fills[i][side]
			e.state[i][CashIndex] += mult * traded * (mid[i] + e.halfSpread*mult)
			e.state[i][InventoryIndex] += traded * -mult
		}
	}
	return nil
}

// limitUpdater executes arrival-driven probabilistic fills at midprice
// +/- the posted depth.
type limitUpdater struct{}

func (limitUpdater) update(e *Environment, arrivals, fills, action [][]float64) error {
	depths, err := e.limitDepths(action)
	if err != nil {
		return err
	}
	mid := e.midprices()
	for i := range e.state {
		for side := 0; side < 2; side++ {
			mult := sideMultiplier(side)
			traded := arrivals[i][side] * fills[i][side]
			e.state[i][InventoryIndex] += traded * -mult
			e.state[i][CashIndex] += mult * traded * (mid[i] + depths[i][side]*mult)
		}
	}
	return nil
}

// limitAndMarketUpdater executes thresholded market orders at the best
// bid/ask and then the limit fills from the same action vector.
type limitAndMarketUpdater struct{}

func (limitAndMarketUpdater) update(e *Environment, arrivals, fills, action [][]float64) error {
	flags, err := e.marketOrderFlags(action)
	if err != nil {
		return err
	}
	mid := e.midprices()
	for i := range e.state {
		var moBuy, moSell float64
		if flags[i][0] > 0.5 {
			moBuy = 1
		}
		if flags[i][1] > 0.5 {
			moSell = 1
		}
		bestBid := mid[i] - e.halfSpread
		bestAsk := mid[i] + e.halfSpread
		e.state[i][CashIndex] += moSell*bestBid - moBuy*bestAsk
		e.state[i][InventoryIndex] += moBuy - moSell
	}
	return limitUpdater{}.update(e, arrivals, fills, action)
}

// speedUpdater executes a deterministic volume (rate * step size) at
// the impacted price.
type speedUpdater struct{}

func (speedUpdater) update(e *Environment, arrivals, fills, action [][]float64) error {
	impact := e.priceImpact.Impact(action)
	mid := e.midprices()
	for i := range e.state {
		executionPrice := mid[i] + impact[i][0]
		volume := action[i][0] * e.stepSize
		e.state[i][CashIndex] -= volume * executionPrice
		e.state[i][InventoryIndex] += volume
	}
	return nil
}

// sideMultiplier is -1 for the bid side and +1 for the ask side, so a
// bid fill pays cash out and a filled ask brings cash in.
func sideMultiplier(side int) float64 {
	if side == bidIndex {
		return -1
	}
	return 1
}
