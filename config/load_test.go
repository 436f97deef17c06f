package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-go/env"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const limitConfig = `
env:
  terminalTime: 1.0
  nSteps: 50
  actionType: limit
  initialInventory:
    random: true
    low: -4
    high: 5
  maxInventory: 100
  seed: 42
  numTrajectories: 10
midprice:
  model: brownian
  volatility: 0.1
  initialPrice: 100
arrival:
  model: poisson
  bidIntensity: 10
  askIntensity: 10
fill:
  model: exponential
  fillExponent: 1.5
reward:
  model: inventory_penalty
  phi: 0.5
  alpha: 0.001
run:
  episodes: 3
  policy: random
  metricsAddr: ":9100"
`

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, limitConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env.ActionType != "limit" || cfg.Env.NSteps != 50 {
		t.Fatalf("unexpected cfg values: %+v", cfg.Env)
	}
	if cfg.Arrival == nil || cfg.Arrival.BidIntensity != 10 {
		t.Fatalf("arrival section not parsed: %+v", cfg.Arrival)
	}
	if cfg.Impact != nil {
		t.Fatalf("absent impact section should stay nil")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "bad action type",
			mutate:  func(c *AppConfig) { c.Env.ActionType = "market" },
			wantErr: "actionType",
		},
		{
			name:    "empty inventory range",
			mutate:  func(c *AppConfig) { c.Env.InitialInventory = InventoryConfig{Random: true, Low: 2, High: 2} },
			wantErr: "initialInventory",
		},
		{
			name:    "bad reward model",
			mutate:  func(c *AppConfig) { c.Reward.Model = "sharpe" },
			wantErr: "reward.model",
		},
		{
			name:    "store without database",
			mutate:  func(c *AppConfig) { c.Run.Store = StoreConfig{Enabled: true, User: "sim"} },
			wantErr: "store.database",
		},
		{
			name:    "hawkes without decay",
			mutate:  func(c *AppConfig) { c.Arrival = &ArrivalConfig{Model: "hawkes", Baseline: 5} },
			wantErr: "decay",
		},
	}
	base, err := Load(writeTempConfig(t, limitConfig))
	require.NoError(t, err)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, limitConfig+`
  store:
    enabled: false
    database: sim
`)
	t.Setenv("MKTSIM_STORE_USER", "runner")
	t.Setenv("MKTSIM_STORE_PASSWORD", "secret")
	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "runner", cfg.Run.Store.User)
	assert.Equal(t, "secret", cfg.Run.Store.Password)
}

func TestBuildEnvironment(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, limitConfig))
	require.NoError(t, err)

	e, err := BuildEnvironment(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, env.ActionLimit, e.ActionType())
	assert.Equal(t, 10, e.NumTrajectories())
	assert.Equal(t, 50, e.NSteps())
	// midprice(1) + arrival(2) + fill(0)
	assert.Equal(t, 6, e.ObservationSpace().Width())
}

func TestBuildEnvironmentMissingProcess(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, limitConfig))
	require.NoError(t, err)
	cfg.Fill = nil

	_, err = BuildEnvironment(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill_probability")
}
