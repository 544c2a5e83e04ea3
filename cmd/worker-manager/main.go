// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nlq-workers/internal/app"
	"nlq-workers/internal/common/camunda"
	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/common/observability"

	qp "nlq-workers/internal/workers/data-access/query-postgresql"
	gs "nlq-workers/internal/workers/nl-query/generate-sql"
	is "nlq-workers/internal/workers/nl-query/introspect-schema"
	tq "nlq-workers/internal/workers/nl-query/translate-query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.Observability, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, app.Options{MaxRetries: 15, InitialDelay: 2 * time.Second})
	if err != nil {
		zapLog.Fatal("backend initialization failed", zap.Error(err))
	}
	defer a.Close()

	zb, err := camunda.NewClient(ctx, cfg.Camunda)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	workers := camunda.NewWorkerSet(zb.GetClient(), log)
	workers.SetRecorder(obs)
	if err := registerWorkers(workers, a, log); err != nil {
		zapLog.Fatal("worker registration failed", zap.Error(err))
	}
	zapLog.Info("workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           healthMux(a, zb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zb.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func registerWorkers(workers *camunda.WorkerSet, a *app.App, log logger.Logger) error {
	cfg := a.Config

	// typed nil must not reach the interface
	var journal tq.Journal
	if a.Journal != nil {
		journal = a.Journal
	}
	translate, err := tq.NewHandler(tq.HandlerOptions{
		Config:     tq.LoadConfig(cfg),
		Translator: a.Translator,
		Journal:    journal,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	workers.Start(tq.TaskType, config.GetWorkerConfig(cfg, tq.TaskType), translate)

	generate, err := gs.NewHandler(gs.LoadConfig(cfg), a.Translator, log)
	if err != nil {
		return err
	}
	workers.Start(gs.TaskType, config.GetWorkerConfig(cfg, gs.TaskType), generate)

	introspect := is.NewHandler(is.LoadConfig(cfg), a.Translator.Introspector(), a.Library, log)
	workers.Start(is.TaskType, config.GetWorkerConfig(cfg, is.TaskType), introspect)

	query := qp.NewHandler(qp.LoadConfig(cfg), a.Store, a.Translator, log)
	workers.Start(qp.TaskType, config.GetWorkerConfig(cfg, qp.TaskType), query)

	return nil
}

func healthMux(a *app.App, zb *camunda.Client) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zb.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
