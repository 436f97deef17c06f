package config

import (
	"errors"
	"fmt"
)

// Validate ensures a loaded config describes a runnable simulation.
// Cross-model requirements (which processes an action type needs) are
// checked again by env.New; this catches file-level mistakes early with
// friendlier messages.
func Validate(cfg AppConfig) error {
	if cfg.Env.TerminalTime < 0 {
		return errors.New("env.terminalTime must be > 0")
	}
	if cfg.Env.NSteps < 0 {
		return errors.New("env.nSteps must be > 0")
	}
	if cfg.Env.NumTrajectories < 0 {
		return errors.New("env.numTrajectories must be >= 1")
	}
	if cfg.Env.MaxInventory < 0 {
		return errors.New("env.maxInventory must be >= 0")
	}
	if cfg.Env.ActionType != "" {
		switch cfg.Env.ActionType {
		case "touch", "limit", "limit_and_market", "speed":
		default:
			return fmt.Errorf("env.actionType %q is not one of touch/limit/limit_and_market/speed", cfg.Env.ActionType)
		}
	}
	if inv := cfg.Env.InitialInventory; inv.Random && inv.Low >= inv.High {
		return fmt.Errorf("env.initialInventory range [%d, %d) is empty", inv.Low, inv.High)
	}

	if m := cfg.Midprice; m != nil {
		switch m.Model {
		case "", "brownian", "geometric":
		default:
			return fmt.Errorf("midprice.model %q is not one of brownian/geometric", m.Model)
		}
		if m.Volatility < 0 {
			return errors.New("midprice.volatility must be >= 0")
		}
		if m.InitialPrice <= 0 {
			return errors.New("midprice.initialPrice must be > 0")
		}
	}
	if a := cfg.Arrival; a != nil {
		switch a.Model {
		case "", "poisson":
			if a.BidIntensity <= 0 || a.AskIntensity <= 0 {
				return errors.New("arrival intensities must be > 0")
			}
		case "hawkes":
			if a.Baseline <= 0 {
				return errors.New("arrival.baseline must be > 0")
			}
			if a.Decay <= 0 {
				return errors.New("arrival.decay must be > 0")
			}
		default:
			return fmt.Errorf("arrival.model %q is not one of poisson/hawkes", a.Model)
		}
	}
	if f := cfg.Fill; f != nil {
		if f.Model != "" && f.Model != "exponential" {
			return fmt.Errorf("fill.model %q is not supported", f.Model)
		}
		if f.FillExponent < 0 {
			return errors.New("fill.fillExponent must be >= 0")
		}
	}
	if im := cfg.Impact; im != nil {
		if im.Model != "" && im.Model != "temporary" {
			return fmt.Errorf("impact.model %q is not supported", im.Model)
		}
		if im.MaxSpeed <= 0 {
			return errors.New("impact.maxSpeed must be > 0")
		}
	}

	switch cfg.Reward.Model {
	case "", "pnl", "inventory_penalty", "realized_pnl":
	default:
		return fmt.Errorf("reward.model %q is not one of pnl/inventory_penalty/realized_pnl", cfg.Reward.Model)
	}

	if cfg.Run.Episodes < 0 {
		return errors.New("run.episodes must be >= 0")
	}
	switch cfg.Run.Policy {
	case "", "random", "fixed_depth", "flat":
	default:
		return fmt.Errorf("run.policy %q is not one of random/fixed_depth/flat", cfg.Run.Policy)
	}
	if cfg.Run.Store.Enabled {
		if cfg.Run.Store.Database == "" {
			return errors.New("run.store.database is required when the store is enabled")
		}
		if cfg.Run.Store.User == "" {
			return errors.New("run.store.user is required when the store is enabled (or MKTSIM_STORE_USER)")
		}
	}
	return nil
}
