package env

import (
	"fmt"

	"go.uber.org/zap"

	"market-sim-go/info"
)

// StepResult is one batched transition. All slices are defensive
// copies; callers may keep them across steps.
type StepResult struct {
	State   [][]float64
	Rewards []float64
	Dones   []bool
	Infos   []info.Values
}

// Step advances every trajectory by one step. The agent-state update
// runs first against the pre-step midprice, then every configured
// process advances, consuming the same per-step arrival/fill/action
// signals. Bounds breaches on cash or inventory are clipped and logged,
// never fatal.
func (e *Environment) Step(action [][]float64) (StepResult, error) {
	action, err := e.reshapeAction(action)
	if err != nil {
		return StepResult{}, err
	}

	// Last read of currentState happens in the reward call below.
	currentState := cloneMatrix(e.state)

	var arrivals, fills [][]float64
	if e.actionType.isMarketMaking() {
		arrivals, fills, err = e.arrivalsAndFills(action)
		if err != nil {
			return StepResult{}, err
		}
	}

	if err := e.updater.update(e, arrivals, fills, action); err != nil {
		return StepResult{}, err
	}
	e.clipInventoryAndCash()
	for i := range e.state {
		e.state[i][TimeIndex] += e.stepSize
	}
	e.updateMarketState(arrivals, fills, action)

	// All trajectories advance in lockstep, so row 0 decides done for
	// the whole batch. The half-step tolerance absorbs float drift.
	done := e.state[0][TimeIndex] >= e.terminalTime-e.stepSize/2
	dones := make([]bool, e.numTrajectories)
	for i := range dones {
		dones[i] = done
	}

	rewards := e.rewardFn.Calculate(currentState, action, e.state, done)

	var infos []info.Values
	if e.infoCalc != nil {
		infos = e.infoCalc.Calculate(currentState, action, rewards)
	} else {
		infos = make([]info.Values, e.numTrajectories)
	}

	return StepResult{
		State:   cloneMatrix(e.state),
		Rewards: rewards,
		Dones:   dones,
		Infos:   infos,
	}, nil
}

// reshapeAction coerces the action into (numTrajectories x actionWidth)
// rows. A mismatched element count is a fatal step error.
func (e *Environment) reshapeAction(action [][]float64) ([][]float64, error) {
	width := e.actSpace.Width()
	if len(action) == e.numTrajectories {
		ok := true
		for _, row := range action {
			if len(row) != width {
				ok = false
				break
			}
		}
		if ok {
			return action, nil
		}
	}
	var flat []float64
	for _, row := range action {
		flat = append(flat, row...)
	}
	if len(flat) != e.numTrajectories*width {
		return nil, fmt.Errorf("cannot reshape action with %d elements to (%d, %d)",
			len(flat), e.numTrajectories, width)
	}
	out := make([][]float64, e.numTrajectories)
	for i := range out {
		out[i] = flat[i*width : (i+1)*width]
	}
	return out, nil
}

// arrivalsAndFills samples this step's arrival and fill indicators for
// the arrival-driven regimes, then suppresses fills on any side where
// the trajectory already sits at its inventory bound.
func (e *Environment) arrivalsAndFills(action [][]float64) (arrivals, fills [][]float64, err error) {
	arrivals = e.arrival.Arrivals()
	switch e.actionType {
	case ActionLimit, ActionLimitAndMarket:
		depths, derr := e.limitDepths(action)
		if derr != nil {
			return nil, nil, derr
		}
		fills = e.fillProb.Fills(depths)
	case ActionTouch:
		flags, ferr := e.touchFlags(action)
		if ferr != nil {
			return nil, nil, ferr
		}
		// Copy: suppression must not write through into the caller's
		// action rows.
		fills = cloneMatrix(flags)
	default:
		return nil, nil, fmt.Errorf("action type %q has no arrival-driven fills", e.actionType)
	}
	e.suppressBoundFills(fills)
	return arrivals, fills, nil
}

// suppressBoundFills zeroes the fill indicator on the side that would
// push a trajectory past its inventory bound. This is a fill
// suppression policy applied before fills execute, not a post-hoc clip.
func (e *Environment) suppressBoundFills(fills [][]float64) {
	for i := range fills {
		inventory := e.state[i][InventoryIndex]
		if inventory >= e.maxInventory {
			fills[i][bidIndex] = 0
		}
		if inventory <= -e.maxInventory {
			fills[i][askIndex] = 0
		}
	}
}

// updateMarketState advances every configured process one step and
// overwrites its slice of the state vector with the new current state.
func (e *Environment) updateMarketState(arrivals, fills, action [][]float64) {
	for _, entry := range e.processes {
		entry.model.Update(arrivals, fills, action)
		current := entry.model.CurrentState()
		for i := range e.state {
			copy(e.state[i][entry.low:entry.high], current[i])
		}
	}
}

// clipInventoryAndCash clamps both columns to their configured bounds.
// Clipping is observable but non-fatal: the episode continues with the
// clipped values.
func (e *Environment) clipInventoryAndCash() {
	invClipped := e.clipColumn(InventoryIndex, e.maxInventory)
	if invClipped > 0 {
		e.logger.Warn("clipping agent inventory",
			zap.Int("trajectories", invClipped),
			zap.Float64("bound", e.maxInventory))
	}
	cashClipped := e.clipColumn(CashIndex, e.maxCash)
	if cashClipped > 0 {
		e.logger.Warn("clipping agent cash",
			zap.Int("trajectories", cashClipped),
			zap.Float64("bound", e.maxCash))
	}
}

func (e *Environment) clipColumn(col int, bound float64) int {
	clipped := 0
	for i := range e.state {
		v := e.state[i][col]
		switch {
		case v > bound:
			e.state[i][col] = bound
			clipped++
		case v < -bound:
			e.state[i][col] = -bound
			clipped++
		}
	}
	return clipped
}
