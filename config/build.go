package config

import (
	"fmt"

	"go.uber.org/zap"

	"market-sim-go/env"
	"market-sim-go/process"
	"market-sim-go/reward"
)

// BuildEnvironment constructs the simulation environment a config
// describes. Defaults follow env.New: a missing midprice section yields
// the default Brownian model, a missing reward section yields PnL.
func BuildEnvironment(cfg AppConfig, logger *zap.Logger) (*env.Environment, error) {
	terminalTime := cfg.Env.TerminalTime
	if terminalTime == 0 {
		terminalTime = 1
	}
	nSteps := cfg.Env.NSteps
	if nSteps == 0 {
		nSteps = 200
	}
	numTrajectories := cfg.Env.NumTrajectories
	if numTrajectories == 0 {
		numTrajectories = 1
	}
	stepSize := terminalTime / float64(nSteps)

	params := env.Params{
		TerminalTime:    terminalTime,
		NSteps:          nSteps,
		InitialCash:     cfg.Env.InitialCash,
		MaxInventory:    cfg.Env.MaxInventory,
		MaxCash:         cfg.Env.MaxCash,
		MaxDepth:        cfg.Env.MaxDepth,
		MaxSpeed:        cfg.Env.MaxSpeed,
		HalfSpread:      cfg.Env.HalfSpread,
		StartTime:       cfg.Env.StartTime,
		Seed:            cfg.Env.Seed,
		NumTrajectories: numTrajectories,
		Logger:          logger,
	}

	if cfg.Env.ActionType != "" {
		actionType, err := env.ParseActionType(cfg.Env.ActionType)
		if err != nil {
			return nil, err
		}
		params.ActionType = actionType
	}

	if inv := cfg.Env.InitialInventory; inv.Random {
		params.InitialInventory = env.UniformInventory(inv.Low, inv.High)
	} else {
		params.InitialInventory = env.FixedInventory(inv.Fixed)
	}

	if m := cfg.Midprice; m != nil {
		mc := process.BrownianMotionConfig{
			Drift:           m.Drift,
			Volatility:      m.Volatility,
			InitialPrice:    m.InitialPrice,
			TerminalTime:    terminalTime,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		}
		switch m.Model {
		case "", "brownian":
			params.Midprice = process.NewBrownianMotionMidprice(mc)
		case "geometric":
			params.Midprice = process.NewGeometricBrownianMidprice(mc)
		default:
			return nil, fmt.Errorf("unknown midprice model %q", m.Model)
		}
	}

	if a := cfg.Arrival; a != nil {
		switch a.Model {
		case "", "poisson":
			params.Arrival = process.NewPoissonArrival(process.PoissonArrivalConfig{
				BidIntensity:    a.BidIntensity,
				AskIntensity:    a.AskIntensity,
				StepSize:        stepSize,
				NumTrajectories: numTrajectories,
			})
		case "hawkes":
			params.Arrival = process.NewHawkesArrival(process.HawkesArrivalConfig{
				Baseline:        a.Baseline,
				JumpSize:        a.JumpSize,
				Decay:           a.Decay,
				StepSize:        stepSize,
				NumTrajectories: numTrajectories,
			})
		default:
			return nil, fmt.Errorf("unknown arrival model %q", a.Model)
		}
	}

	if f := cfg.Fill; f != nil {
		params.FillProbability = process.NewExponentialFill(process.ExponentialFillConfig{
			FillExponent:    f.FillExponent,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		})
	}

	if im := cfg.Impact; im != nil {
		params.PriceImpact = process.NewTemporaryPriceImpact(process.TemporaryPriceImpactConfig{
			Coefficient:     im.Coefficient,
			MaxSpeed:        im.MaxSpeed,
			StepSize:        stepSize,
			NumTrajectories: numTrajectories,
		})
	}

	switch cfg.Reward.Model {
	case "", "pnl":
		params.Reward = reward.NewPnL()
	case "inventory_penalty":
		params.Reward = reward.NewRunningInventoryPenalty(cfg.Reward.Phi, cfg.Reward.Alpha)
	case "realized_pnl":
		params.Reward = reward.NewRealizedPnL()
	default:
		return nil, fmt.Errorf("unknown reward model %q", cfg.Reward.Model)
	}

	return env.New(params)
}
