package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/loan-engine/internal/config"
	"github.com/segyhp/loan-engine/internal/lock"
	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/internal/repository"
	"github.com/segyhp/loan-engine/internal/scheduler"
	"github.com/segyhp/loan-engine/internal/service"
	"github.com/segyhp/loan-engine/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL, repository.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	cancel()
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	// The scheduler only reads loans, so payments are never locked from here.
	loanService := service.NewLoanService(
		repository.NewCustomerRepository(db),
		repository.NewLoanRepository(db),
		repository.NewTransactor(db),
		lock.NewLocalLocker(cfg.Lock.Wait),
		zapLogger,
		service.WithMetrics(appMetrics),
	)

	c := scheduler.New(cfg.Location(), zapLogger)
	monitor := scheduler.NewOverdueMonitor(loanService, appMetrics, zapLogger)
	if _, err := scheduler.Register(c, cfg.Scheduler.OverdueSpec, monitor); err != nil {
		zapLogger.Fatal("failed to schedule overdue monitor", zap.Error(err))
	}

	// Expose the overdue gauge for scraping
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Scheduler.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("metrics server failed", zap.Error(err))
		}
	}()

	c.Start()
	zapLogger.Info("scheduler started",
		zap.String("overdue_spec", cfg.Scheduler.OverdueSpec),
		zap.String("timezone", cfg.Scheduler.Timezone),
		zap.String("metrics_addr", cfg.Scheduler.MetricsAddr),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down scheduler")
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("metrics server shutdown failed", zap.Error(err))
	}
	zapLogger.Info("scheduler stopped")
}
