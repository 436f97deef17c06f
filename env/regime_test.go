package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-go/process"
)

func TestParseActionType(t *testing.T) {
	for _, s := range []string{"touch", "limit", "limit_and_market", "speed"} {
		got, err := ParseActionType(s)
		require.NoError(t, err)
		assert.Equal(t, ActionType(s), got)
	}
	_, err := ParseActionType("market")
	assert.Error(t, err)
}

func TestActionWidths(t *testing.T) {
	assert.Equal(t, 2, ActionTouch.Width())
	assert.Equal(t, 2, ActionLimit.Width())
	assert.Equal(t, 4, ActionLimitAndMarket.Width())
	assert.Equal(t, 1, ActionSpeed.Width())
}

func TestActionSliceAccessorsRejectWrongRegime(t *testing.T) {
	stepSize := 0.1
	e, err := New(Params{
		ActionType: ActionTouch,
		Midprice: process.NewBrownianMotionMidprice(process.BrownianMotionConfig{
			InitialPrice: 100, TerminalTime: 1, StepSize: stepSize, NumTrajectories: 1,
		}),
		Arrival: process.NewPoissonArrival(process.PoissonArrivalConfig{
			BidIntensity: 1, AskIntensity: 1, StepSize: stepSize, NumTrajectories: 1,
		}),
	})
	require.NoError(t, err)

	action := [][]float64{{1, 1}}
	_, err = e.limitDepths(action)
	assert.Error(t, err, "touch regime carries no depth columns")
	_, err = e.marketOrderFlags(action)
	assert.Error(t, err, "touch regime carries no market order flags")
	_, err = e.touchFlags(action)
	assert.NoError(t, err)
}

func TestRegistrySliceBounds(t *testing.T) {
	stepSize := 0.05
	e, err := New(Params{
		TerminalTime: 1,
		NSteps:       20,
		ActionType:   ActionLimit,
		Midprice: process.NewBrownianMotionMidprice(process.BrownianMotionConfig{
			InitialPrice: 100, TerminalTime: 1, StepSize: stepSize, NumTrajectories: 2,
		}),
		Arrival: process.NewPoissonArrival(process.PoissonArrivalConfig{
			BidIntensity: 1, AskIntensity: 1, StepSize: stepSize, NumTrajectories: 2,
		}),
		FillProbability: process.NewExponentialFill(process.ExponentialFillConfig{
			FillExponent: 1, StepSize: stepSize, NumTrajectories: 2,
		}),
		NumTrajectories: 2,
	})
	require.NoError(t, err)

	require.Len(t, e.processes, 3)
	assert.Equal(t, processMidprice, e.processes[0].name)
	assert.Equal(t, 3, e.processes[0].low)
	assert.Equal(t, 4, e.processes[0].high)
	assert.Equal(t, processArrival, e.processes[1].name)
	assert.Equal(t, 4, e.processes[1].low)
	assert.Equal(t, 6, e.processes[1].high)
	assert.Equal(t, processFillProbability, e.processes[2].name)
	assert.Equal(t, 6, e.processes[2].low)
	assert.Equal(t, 6, e.processes[2].high)
	assert.Equal(t, 6, e.stateWidth())
}

func TestSpaceContains(t *testing.T) {
	box := newBox([]float64{0, -1}, []float64{1, 1})
	assert.True(t, box.Contains([]float64{0.5, 0}))
	assert.False(t, box.Contains([]float64{1.5, 0}))
	assert.False(t, box.Contains([]float64{0.5}))

	mb := newMultiBinary(2)
	assert.True(t, mb.Contains([]float64{0, 1}))
	assert.False(t, mb.Contains([]float64{0.5, 1}))
}
