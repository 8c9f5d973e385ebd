// Smarthouse simdevice - simulated device process
//
// Plays the role of physical hardware during development: posts
// random-walk sensor readings to a running Smarthouse Core instance
// and polls its actuator state, all over the public REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nordbohus/smarthouse-core/internal/infrastructure/config"
	"github.com/nordbohus/smarthouse-core/internal/infrastructure/logging"
	"github.com/nordbohus/smarthouse-core/internal/simulator"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logging.Default()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting simulated device",
		"server", cfg.Simulator.ServerURL,
		"interval", cfg.Simulator.Interval,
		"sensor", cfg.Simulator.Sensor.Enabled,
		"actuator", cfg.Simulator.Actuator.Enabled,
	)

	sim, err := simulator.New(cfg.Simulator, log)
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	if err := sim.Start(ctx); err != nil {
		return fmt.Errorf("starting simulator: %w", err)
	}

	<-ctx.Done()

	log.Info("shutdown signal received")
	if err := sim.Close(); err != nil {
		return fmt.Errorf("stopping simulator: %w", err)
	}
	log.Info("simulated device stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTHOUSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTHOUSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
