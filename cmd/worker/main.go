package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reportaway/reportaway/internal/bootstrap"
	"github.com/reportaway/reportaway/internal/config"
	"github.com/reportaway/reportaway/internal/observability/logging"
	"github.com/reportaway/reportaway/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	analysisTimeout := time.Duration(cfg.AnalysisTimeoutSec) * time.Second

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalysisRequested(ctx, func(handlerCtx context.Context, caseID string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, analysisTimeout)
		defer cancel()

		workerMetrics.StartAnalysis()
		start := time.Now()
		runErr := app.AnalyzeUC.RunByID(runCtx, caseID)
		workerMetrics.FinishAnalysis("worker", time.Since(start), runErr)
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
