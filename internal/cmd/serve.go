package cmd

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namelens/adlens/internal/config"
	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search page and its JSON API",
	Long: `Start the web UI server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read and validate the config file`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("metrics-port", 9090, "Prometheus exporter port")
	serveCmd.Flags().Bool("no-metrics", false, "disable the Prometheus exporter")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("metrics.port", serveCmd.Flags().Lookup("metrics-port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{}
	if noMetrics, _ := cmd.Flags().GetBool("no-metrics"); noMetrics {
		overrides["metrics.enabled"] = false
	}
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	observability.InitServerLogger(config.AppName, observability.ServerLogOptions{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Namespace: config.AppName,
	})
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return apperrors.Wrap(cmd.Context(), apperrors.CodeInternal, err, "metrics initialization failed")
		}
	}

	backend := newBackend(cfg)
	controller := newController(cfg, backend, logger)

	srv := server.New(server.Options{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Legacy:          isLegacy(cfg),
		Version:         versionInfo.Version,
		MetricsFallback: cfg.Metrics.Port,
	}, controller, backend)

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("backend", backend.ResolvedBaseURL()),
		zap.String("contract", cfg.Backend.Contract),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics", cfg.Metrics.Enabled))

	probeCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	status := controller.Probe(probeCtx)
	cancel()
	logger.Info("Backend status", zap.String("status", string(status)))

	registerShutdown(srv, cfg.Server.ShutdownTimeout)
	registerReload()

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := srv.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return signals.Listen(ctx)
	})

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return apperrors.Wrap(cmd.Context(), apperrors.CodeInternal, err, "server error")
	}
	return nil
}

// registerShutdown registers the graceful shutdown handlers; they run last
// registered first, so the server stops before the logger flushes.
func registerShutdown(srv *server.Server, timeout time.Duration) {
	logger := observability.ServerLogger
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	signals.OnShutdown(func(ctx context.Context) error {
		if err := observability.ShutdownMetrics(); err != nil {
			logger.Warn("Metrics exporter shutdown failed", zap.Error(err))
		}
		if err := logger.Sync(); err != nil {
			// stdout/stderr may already be closed.
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperrors.Wrap(ctx, apperrors.CodeInternal, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})
}

// registerReload validates the config file again on SIGHUP. Running
// components keep their settings until restart.
func registerReload() {
	logger := observability.ServerLogger
	signals.OnReload(func(ctx context.Context) error {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				logger.Info("No config file found - using defaults and environment variables")
				return nil
			}
			logger.Error("Failed to reload config file",
				zap.String("file", viper.ConfigFileUsed()),
				zap.Error(err))
			return apperrors.Wrap(ctx, apperrors.CodeConfigInvalid, err, "config reload failed")
		}
		if _, err := config.Load(viper.GetViper()); err != nil {
			logger.Error("Reloaded config is invalid", zap.Error(err))
			return apperrors.Wrap(ctx, apperrors.CodeConfigInvalid, err, "config reload failed")
		}
		logger.Info("Configuration reloaded; restart to apply server settings",
			zap.String("file", viper.ConfigFileUsed()))
		return nil
	})
}
