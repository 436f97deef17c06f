// Package config loads and validates simulation run configuration and
// builds the environment it describes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-sim-go/logging"
)

// AppConfig is the root of a simulation run configuration file.
type AppConfig struct {
	Logging   logging.Config  `yaml:"logging"`
	Env       EnvConfig       `yaml:"env"`
	Midprice  *MidpriceConfig `yaml:"midprice"`
	Arrival   *ArrivalConfig  `yaml:"arrival"`
	Fill      *FillConfig     `yaml:"fill"`
	Impact    *ImpactConfig   `yaml:"impact"`
	Reward    RewardConfig    `yaml:"reward"`
	Run       RunConfig       `yaml:"run"`
	Profiling ProfilingConfig `yaml:"profiling"`
}

// EnvConfig mirrors env.Params for the file format.
type EnvConfig struct {
	TerminalTime     float64         `yaml:"terminalTime"`
	NSteps           int             `yaml:"nSteps"`
	ActionType       string          `yaml:"actionType"`
	InitialCash      float64         `yaml:"initialCash"`
	InitialInventory InventoryConfig `yaml:"initialInventory"`
	MaxInventory     float64         `yaml:"maxInventory"`
	MaxCash          float64         `yaml:"maxCash"`
	MaxDepth         float64         `yaml:"maxDepth"`
	MaxSpeed         float64         `yaml:"maxSpeed"`
	HalfSpread       float64         `yaml:"halfSpread"`
	StartTime        float64         `yaml:"startTime"`
	Seed             int64           `yaml:"seed"`
	NumTrajectories  int             `yaml:"numTrajectories"`
}

// InventoryConfig is either a fixed initial inventory or, when Random
// is set, a uniform integer draw from [Low, High).
type InventoryConfig struct {
	Fixed  int  `yaml:"fixed"`
	Low    int  `yaml:"low"`
	High   int  `yaml:"high"`
	Random bool `yaml:"random"`
}

type MidpriceConfig struct {
	Model        string  `yaml:"model"` // brownian or geometric
	Drift        float64 `yaml:"drift"`
	Volatility   float64 `yaml:"volatility"`
	InitialPrice float64 `yaml:"initialPrice"`
}

type ArrivalConfig struct {
	Model        string  `yaml:"model"` // poisson or hawkes
	BidIntensity float64 `yaml:"bidIntensity"`
	AskIntensity float64 `yaml:"askIntensity"`
	Baseline     float64 `yaml:"baseline"`
	JumpSize     float64 `yaml:"jumpSize"`
	Decay        float64 `yaml:"decay"`
}

type FillConfig struct {
	Model        string  `yaml:"model"` // exponential
	FillExponent float64 `yaml:"fillExponent"`
}

type ImpactConfig struct {
	Model       string  `yaml:"model"` // temporary
	Coefficient float64 `yaml:"coefficient"`
	MaxSpeed    float64 `yaml:"maxSpeed"`
}

type RewardConfig struct {
	Model string  `yaml:"model"` // pnl, inventory_penalty or realized_pnl
	Phi   float64 `yaml:"phi"`
	Alpha float64 `yaml:"alpha"`
}

// RunConfig drives the episode runner and the serving side-cars.
type RunConfig struct {
	Episodes      int         `yaml:"episodes"`
	Policy        string      `yaml:"policy"` // random, fixed_depth or flat
	FixedDepth    float64     `yaml:"fixedDepth"`
	MetricsAddr   string      `yaml:"metricsAddr"`
	TelemetryAddr string      `yaml:"telemetryAddr"`
	Store         StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode"`
}

type ProfilingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ServerAddress string `yaml:"serverAddress"`
}

// Load reads a YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields
// from environment variables if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MKTSIM_STORE_USER"); v != "" {
		cfg.Run.Store.User = v
	}
	if v := os.Getenv("MKTSIM_STORE_PASSWORD"); v != "" {
		cfg.Run.Store.Password = v
	}
	return cfg, Validate(cfg)
}
