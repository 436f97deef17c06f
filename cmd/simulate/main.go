package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-sim-go/config"
	"market-sim-go/logging"
	"market-sim-go/monitor"
	"market-sim-go/sim"
	"market-sim-go/store"
	"market-sim-go/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Batched limit order book simulation for market making and execution agents",
	}

	var cfgPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation campaign from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	runCmd.Flags().StringVar(&cfgPath, "config", "configs/simulate.yaml", "config file path")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a config file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadWithEnvOverrides(cfgPath); err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	}
	checkCmd.Flags().StringVar(&cfgPath, "config", "configs/simulate.yaml", "config file path")

	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd, checkCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "market-sim",
			ServerAddress:   cfg.Profiling.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return fmt.Errorf("start profiler: %w", err)
		}
		defer profiler.Stop()
	}

	environment, err := config.BuildEnvironment(cfg, logger)
	if err != nil {
		return err
	}

	runner := &sim.Runner{
		Env:      environment,
		Episodes: cfg.Run.Episodes,
		Logger:   logger,
	}
	policyName := cfg.Run.Policy
	if policyName == "" {
		policyName = sim.PolicyRandom
	}
	runner.Policy, err = sim.NewPolicy(policyName, environment.ActionSpace(), cfg.Run.FixedDepth, cfg.Env.Seed)
	if err != nil {
		return err
	}

	if cfg.Run.MetricsAddr != "" {
		runner.Monitor = monitor.New(monitor.DefaultConfig())
		runner.Monitor.Serve(cfg.Run.MetricsAddr)
		logger.Info("metrics listening", zap.String("addr", cfg.Run.MetricsAddr))
	}
	if cfg.Run.TelemetryAddr != "" {
		runner.Broadcaster = telemetry.NewBroadcaster(logger)
		defer runner.Broadcaster.Close()
		runner.Broadcaster.Serve(cfg.Run.TelemetryAddr)
		logger.Info("telemetry listening", zap.String("addr", cfg.Run.TelemetryAddr))
	}
	if cfg.Run.Store.Enabled {
		st, err := store.Open(store.Option{
			Host:     cfg.Run.Store.Host,
			Port:     cfg.Run.Store.Port,
			User:     cfg.Run.Store.User,
			Password: cfg.Run.Store.Password,
			Database: cfg.Run.Store.Database,
			SSLMode:  cfg.Run.Store.SSLMode,
		})
		if err != nil {
			return err
		}
		defer st.Close()
		runner.Store = st
	}

	// Config writes during a campaign retune the batch size for later
	// episodes. Everything else requires a restart.
	watcher := config.Watcher{Path: cfgPath}
	go func() {
		err := watcher.Start(ctx,
			func(updated config.AppConfig) {
				if updated.Env.NumTrajectories > 0 {
					runner.SetBatchSize(updated.Env.NumTrajectories)
				}
			},
			func(err error) {
				logger.Warn("config reload failed", zap.Error(err))
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	daemon.SdNotify(false, daemon.SdNotifyReady)

	results, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	var total float64
	for _, res := range results {
		total += res.MeanReward
	}
	if len(results) > 0 {
		logger.Info("campaign summary",
			zap.Int("episodes", len(results)),
			zap.Float64("meanEpisodeReward", total/float64(len(results))),
		)
	}
	daemon.SdNotify(false, daemon.SdNotifyStopping)
	return nil
}
