package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	casimirserver "github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/server"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/config"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/statusapi"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the casimir NFCC emulator",
	Long: `Start the casimir NFCC emulator: an NCI listener and, if enabled,
a read-only status/health/metrics HTTP server.

Examples:
  casimir start
  casimir start --config /etc/casimir/config.yaml
  NCI_LOGGING_LEVEL=DEBUG casimir start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "casimir",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "casimir",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("Casimir - an emulated NFC Controller")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		metrics.Init(reg)
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	sc := scene.New()
	nciServer := casimirserver.New(cfg.Listen, sc)

	serverDone := make(chan error, 1)
	go func() { serverDone <- nciServer.Serve(ctx) }()

	var statusDone chan error
	if cfg.StatusAPI.Enabled {
		statusServer := statusapi.NewServer(cfg.StatusAPI.Listen, sc, reg)
		statusDone = make(chan error, 1)
		go func() { statusDone <- statusServer.Serve(ctx) }()
		logger.Info("Status API enabled", "listen", cfg.StatusAPI.Listen)
	} else {
		logger.Info("Status API disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Casimir is running. Press Ctrl+C to stop.", "listen", cfg.Listen, "transport", cfg.Transport, "max_devices", cfg.MaxDevices)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("NCI server shutdown error", "error", err)
			return err
		}
		if statusDone != nil {
			if err := <-statusDone; err != nil {
				logger.Error("Status API shutdown error", "error", err)
				return err
			}
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("NCI server error", "error", err)
			return err
		}
	}
	logger.Info("Casimir stopped gracefully")
	return nil
}
