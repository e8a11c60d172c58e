package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"timeclock/internal/api"
	"timeclock/internal/config"
	"timeclock/internal/database"
	"timeclock/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the terminal services: admin API, sync, backups and monitoring",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withApp(serve)
	},
}

func serve(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		metrics.SetQueuePending(a.queue.Len())
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, a, logger)

	if err := config.Watch(ctx, configPath, 30*time.Second, func(next *config.Config) {
		rules, err := next.Rules()
		if err != nil {
			logger.Error().Err(err).Msg("reloaded config rejected")
			return
		}
		a.submitter.ApplyRules(rules)
		logger.Info().Msg("accounting rules reloaded")
	}); err != nil {
		logger.Warn().Err(err).Msg("config watcher not started")
	}

	a.sweeper.Subscribe(ctx, a.bus)
	go a.monitor.Start(ctx, cfg.ProbeInterval())
	go a.sweeper.Start(ctx, cfg.SyncInterval())

	if cfg.Sync.OnStart {
		go func() {
			if _, err := a.sweeper.Sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("sync on start failed")
			}
		}()
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(a.history, cfg.Backup, logger)
		go backups.Start(ctx)
	}

	if cfg.API.Enabled {
		h := api.NewHandler(a.submitter, a.sweeper, a.queue, a.directory, logger)
		go api.Serve(ctx, cfg.API.Port, api.NewRouter(h, cfg.API.AllowedOrigins), logger)
	}

	logger.Info().Str("ledger", cfg.Ledger.Backend).Msg("timeclock started")
	<-ctx.Done()
	logger.Info().Msg("timeclock stopping")
	return nil
}

func startHealthServer(ctx context.Context, port int, a *app, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := a.history.PingContext(ctxPing); err != nil {
			http.Error(w, "history not ready", http.StatusServiceUnavailable)
			return
		}
		if a.redis != nil {
			if err := a.redis.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ready (ledger circuit %s, %d queued)", a.breaker.State(), a.queue.Len())
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
