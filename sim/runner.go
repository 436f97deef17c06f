// Package sim runs batched simulation episodes end to end: policy to
// environment to per-episode aggregates, with optional metrics,
// telemetry and persistence fan-out.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"market-sim-go/env"
	"market-sim-go/monitor"
	"market-sim-go/store"
	"market-sim-go/telemetry"
)

// EpisodeResult aggregates one finished episode across trajectories.
type EpisodeResult struct {
	Episode               int
	Steps                 int
	MeanReward            float64
	MeanTerminalCash      float64
	MeanTerminalInventory float64
	Duration              time.Duration
}

// Runner drives policy rollouts against an environment. Monitor,
// Broadcaster and Store are optional; any of them may be nil.
type Runner struct {
	Env         *env.Environment
	Policy      Policy
	Episodes    int
	Logger      *zap.Logger
	Monitor     *monitor.Monitor
	Broadcaster *telemetry.Broadcaster
	Store       *store.Store

	mu           sync.Mutex
	pendingBatch int
}

// SetBatchSize requests a new trajectory count. The change is applied
// at the next episode boundary, so it is safe to call while Run is in
// flight.
func (r *Runner) SetBatchSize(n int) {
	r.mu.Lock()
	r.pendingBatch = n
	r.mu.Unlock()
}

func (r *Runner) takePendingBatch() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.pendingBatch
	r.pendingBatch = 0
	return n
}

// Run executes the configured number of episodes sequentially and
// returns their aggregates. A context cancellation stops between
// episodes and returns the results collected so far along with the
// context error.
func (r *Runner) Run(ctx context.Context) ([]EpisodeResult, error) {
	if r.Env == nil || r.Policy == nil {
		return nil, errors.New("runner needs an environment and a policy")
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	episodes := r.Episodes
	if episodes <= 0 {
		episodes = 1
	}

	runID := uuid.NewString()
	logger.Info("run starting",
		zap.String("runId", runID),
		zap.Int("episodes", episodes),
		zap.Int("numTrajectories", r.Env.NumTrajectories()),
	)
	if r.Monitor != nil {
		r.Monitor.RunStarted()
		defer r.Monitor.RunFinished()
	}

	results := make([]EpisodeResult, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if n := r.takePendingBatch(); n > 0 && n != r.Env.NumTrajectories() {
			logger.Info("resizing batch", zap.Int("numTrajectories", n))
			r.Env.SetNumTrajectories(n)
		}
		res, err := r.runEpisode(ep)
		if err != nil {
			return results, fmt.Errorf("episode %d: %w", ep, err)
		}
		results = append(results, res)
		r.fanOut(logger, runID, res)
	}
	logger.Info("run finished", zap.String("runId", runID), zap.Int("episodes", len(results)))
	return results, nil
}

func (r *Runner) runEpisode(episode int) (EpisodeResult, error) {
	start := time.Now()
	state, err := r.Env.Reset()
	if err != nil {
		return EpisodeResult{}, err
	}

	n := r.Env.NumTrajectories()
	cumulative := make([]float64, n)
	steps := 0
	// The step loop is bounded so a broken terminal condition cannot
	// spin forever.
	maxSteps := 2 * r.Env.NSteps()
	for steps < maxSteps {
		action, err := r.Policy.Act(state)
		if err != nil {
			return EpisodeResult{}, fmt.Errorf("policy: %w", err)
		}
		result, err := r.Env.Step(action)
		if err != nil {
			return EpisodeResult{}, err
		}
		for i, rew := range result.Rewards {
			cumulative[i] += rew
		}
		state = result.State
		steps++
		if result.Dones[0] {
			break
		}
	}
	if steps == maxSteps {
		return EpisodeResult{}, fmt.Errorf("episode did not terminate within %d steps", maxSteps)
	}

	res := EpisodeResult{
		Episode:               episode,
		Steps:                 steps,
		MeanReward:            mean(cumulative),
		MeanTerminalCash:      columnMean(state, env.CashIndex),
		MeanTerminalInventory: columnMean(state, env.InventoryIndex),
		Duration:              time.Since(start),
	}
	return res, nil
}

// fanOut pushes one finished episode to every configured sink. Sink
// failures are logged and never abort the run.
func (r *Runner) fanOut(logger *zap.Logger, runID string, res EpisodeResult) {
	logger.Info("episode finished",
		zap.String("runId", runID),
		zap.Int("episode", res.Episode),
		zap.Int("steps", res.Steps),
		zap.Float64("meanReward", res.MeanReward),
		zap.Float64("meanTerminalInventory", res.MeanTerminalInventory),
		zap.Duration("duration", res.Duration),
	)
	if r.Monitor != nil {
		r.Monitor.ObserveSteps(res.Steps)
		r.Monitor.ObserveEpisode(res.MeanReward, absFloat(res.MeanTerminalInventory), res.Duration.Seconds())
	}
	if r.Broadcaster != nil {
		r.Broadcaster.Publish(telemetry.EpisodeSummary{
			RunID:                 runID,
			Episode:               res.Episode,
			Steps:                 res.Steps,
			NumTrajectories:       r.Env.NumTrajectories(),
			MeanReward:            res.MeanReward,
			MeanTerminalCash:      res.MeanTerminalCash,
			MeanTerminalInventory: res.MeanTerminalInventory,
			CompletedAt:           time.Now().UTC(),
		})
	}
	if r.Store != nil {
		rec := &store.EpisodeRecord{
			RunID:                 runID,
			Episode:               res.Episode,
			Steps:                 res.Steps,
			NumTrajectories:       r.Env.NumTrajectories(),
			MeanReward:            res.MeanReward,
			MeanTerminalCash:      res.MeanTerminalCash,
			MeanTerminalInventory: res.MeanTerminalInventory,
		}
		if err := r.Store.SaveEpisode(rec); err != nil {
			logger.Warn("episode persistence failed", zap.Int("episode", res.Episode), zap.Error(err))
		}
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func columnMean(rows [][]float64, col int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row[col]
	}
	return sum / float64(len(rows))
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
