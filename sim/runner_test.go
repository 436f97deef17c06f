package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-go/env"
	"market-sim-go/process"
)

func newTestEnv(t *testing.T, numTrajectories int) *env.Environment {
	t.Helper()
	const (
		terminal = 1.0
		nSteps   = 20
	)
	stepSize := terminal / nSteps
	e, err := env.New(env.Params{
		TerminalTime: terminal,
		NSteps:       nSteps,
		ActionType:   env.ActionLimit,
		Midprice: process.NewBrownianMotionMidprice(process.BrownianMotionConfig{
			InitialPrice:    100,
			TerminalTime:    terminal,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		}),
		Arrival: process.NewPoissonArrival(process.PoissonArrivalConfig{
			BidIntensity:    1,
			AskIntensity:    1,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		}),
		FillProbability: process.NewExponentialFill(process.ExponentialFillConfig{
			FillExponent:    1,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		}),
		InitialInventory: env.FixedInventory(0),
		NumTrajectories:  numTrajectories,
		Seed:             7,
	})
	require.NoError(t, err)
	return e
}

func TestRunnerCompletesEpisodes(t *testing.T) {
	e := newTestEnv(t, 4)
	r := &Runner{
		Env:      e,
		Policy:   NewRandomPolicy(e.ActionSpace(), 11),
		Episodes: 3,
	}

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, i, res.Episode)
		assert.Equal(t, e.NSteps(), res.Steps)
	}
}

func TestRunnerFlatPolicyZeroMarkToMarket(t *testing.T) {
	e := newTestEnv(t, 8)
	r := &Runner{
		Env:    e,
		Policy: NewFlatPolicy(e.ActionSpace()),
	}

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	// Zero depth quotes fill at the midprice, so realized cash moves
	// but mark-to-market reward nets out against inventory value.
	assert.InDelta(t, 0, results[0].MeanReward, 1e-9)
}

func TestRunnerRequiresCollaborators(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background())
	require.Error(t, err)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	e := newTestEnv(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{
		Env:      e,
		Policy:   NewFlatPolicy(e.ActionSpace()),
		Episodes: 5,
	}
	results, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunnerAppliesPendingBatchSize(t *testing.T) {
	e := newTestEnv(t, 2)
	r := &Runner{
		Env:      e,
		Policy:   NewFlatPolicy(e.ActionSpace()),
		Episodes: 2,
	}
	r.SetBatchSize(6)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 6, e.NumTrajectories())
}

type failingPolicy struct{}

func (failingPolicy) Act(state [][]float64) ([][]float64, error) {
	return nil, errors.New("boom")
}

func TestRunnerSurfacesPolicyError(t *testing.T) {
	e := newTestEnv(t, 2)
	r := &Runner{Env: e, Policy: failingPolicy{}}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy")
}
