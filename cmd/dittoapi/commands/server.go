package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/internal/telemetry"
	"github.com/marmos91/dittoapi/pkg/api"
	"github.com/marmos91/dittoapi/pkg/config"
	"github.com/marmos91/dittoapi/pkg/lifecycle"
	"github.com/marmos91/dittoapi/pkg/metrics"
	promMetrics "github.com/marmos91/dittoapi/pkg/metrics/prometheus"
	"github.com/marmos91/dittoapi/pkg/models"
	"github.com/marmos91/dittoapi/pkg/store"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the API server",
		Long: `Start the API server in the foreground.

This is the same as running dittoapi without a subcommand. The process
exits with status 0 after a graceful shutdown on SIGINT or SIGTERM and
with status 1 when startup fails or a fault occurs.

Examples:
  # Start with the default config location
  dittoapi start

  # Start on port 8080 in production mode
  dittoapi start --port 8080 --env production

  # Start with environment variable overrides
  DITTOAPI_SERVER_APIPREFIX=/api/v2 dittoapi start`,
		Args: cobra.NoArgs,
		RunE: runServer,
	}
	addServerFlags(cmd)
	return cmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	// Signals received before the coordinator runs stay queued and abort
	// startup gracefully.
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}
	provider := config.NewProvider(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    api.ServiceName,
		ServiceVersion: Version,
		Environment:    provider.Environment(),
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingStop, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    api.ServiceName,
		ServiceVersion: Version,
		Environment:    provider.Environment(),
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingStop(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Configuration loaded",
		"source", getConfigSource(GetConfigFile()),
		"environment", provider.Environment(),
		"log_level", cfg.Logging.Level)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	var (
		services    []lifecycle.Service
		httpMetrics metrics.HTTPMetrics
		lcMetrics   metrics.LifecycleMetrics
	)
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		httpMetrics = promMetrics.NewHTTPMetrics()
		lcMetrics = promMetrics.NewLifecycleMetrics(lifecycle.StateNames()...)
		services = append(services, metrics.NewServer(cfg.Metrics.Port, reg))
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	st, err := store.Open(cfg.Database, models.AllModels()...)
	if err != nil {
		return &lifecycle.FatalError{Step: "open store", Err: err}
	}

	apiCfg := api.ConfigFrom(provider, Version)
	var coord *lifecycle.Coordinator
	handler, err := api.NewRouter(apiCfg, api.Deps{
		Store:   st,
		State:   func() string { return coord.State().String() },
		Metrics: httpMetrics,
		Started: time.Now(),
	})
	if err != nil {
		_ = st.Close()
		return &lifecycle.FatalError{Step: "build router", Err: err}
	}
	server := api.NewServer(apiCfg, handler)

	coord, err = lifecycle.New(lifecycle.Options{
		Store:           st,
		Listener:        server,
		Mode:            provider.Mode(),
		Signals:         sigChan,
		APIPrefix:       provider.GetString("server.apiPrefix"),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Services:        services,
		Metrics:         lcMetrics,
	})
	if err != nil {
		_ = st.Close()
		return err
	}

	watchLogLevel(ctx, coord.Faults())

	return coord.Run(ctx)
}

// watchLogLevel applies logging.level changes from the config file
// without a restart. Only an existing file is watched.
func watchLogLevel(ctx context.Context, faults *lifecycle.Faults) {
	path := GetConfigFile()
	if path == "" {
		if !config.DefaultConfigExists() {
			return
		}
		path = config.GetDefaultConfigPath()
	}

	err := config.Watch(ctx, path, faults.Go, func(c *config.Config) {
		if c.Logging.Level != logger.GetLevel().String() {
			logger.SetLevel(c.Logging.Level)
			logger.Info("Log level changed", "level", c.Logging.Level)
		}
	})
	if err != nil {
		logger.Warn("Config hot reload disabled", logger.KeyError, err)
	}
}
