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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"insight-workers/internal/common/camunda"
	"insight-workers/internal/common/config"
	apphttp "insight-workers/internal/common/http"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/observability"
	"insight-workers/internal/execution"

	// Dataset workers
	ud "insight-workers/internal/workers/dataset/upload-dataset"

	// Ruleset workers
	lr "insight-workers/internal/workers/ruleset/list-rulesets"
	pr "insight-workers/internal/workers/ruleset/publish-ruleset"
	vc "insight-workers/internal/workers/ruleset/validate-configuration"

	// Execution workers
	ber "insight-workers/internal/workers/execution/build-execution-request"
	er "insight-workers/internal/workers/execution/execute-ruleset"
	rec "insight-workers/internal/workers/execution/record-execution"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.FromConfig(cfg.Logging)
	if err != nil {
		bootLog.Fatal("logger setup failed", zap.Error(err), zap.String("output", cfg.Logging.Output))
	}
	defer zapLog.Sync() //nolint:errcheck
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	deps, err := buildDependencies(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("dependency wiring failed", zap.Error(err))
	}
	defer deps.Close()

	creatorShare := cfg.Marketplace.CreatorShareDecimal()
	listingShare := cfg.Marketplace.ListingShareDecimal()
	if !creatorShare.Equal(listingShare) {
		zapLog.Warn("creator share differs between publishing and listing; rulesets without their own share use the listing value",
			zap.String("creatorShare", creatorShare.String()),
			zap.String("listingShare", listingShare.String()),
		)
	}

	// policy returns the timeout and retry settings configured for taskType.
	policy := func(taskType string) (time.Duration, int, time.Duration) {
		w := config.GetWorkerConfig(cfg, taskType)
		return config.GetDuration(w.Timeout), w.MaxRetries, config.GetDuration(w.RetryBackoff)
	}

	// --- Workers ---
	zbClient := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.HandlerFunc) {
		if w := camunda.StartWorker(zbClient, cfg, taskType, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	uploadCfg := ud.LoadConfig()
	uploadCfg.Timeout, uploadCfg.MaxRetries, uploadCfg.RetryBackoff = policy(ud.TaskType)
	start(ud.TaskType, ud.NewHandler(uploadCfg, deps.contentStore, log).Handle)

	validateCfg := vc.LoadConfig()
	validateCfg.Timeout, validateCfg.MaxRetries, validateCfg.RetryBackoff = policy(vc.TaskType)
	validateCfg.CreatorShare = creatorShare
	start(vc.TaskType, vc.NewHandler(validateCfg, deps.registry, deps.contentStore, log).Handle)

	publishCfg := pr.LoadConfig()
	publishCfg.Timeout, publishCfg.MaxRetries, publishCfg.RetryBackoff = policy(pr.TaskType)
	publishCfg.CreatorShare = creatorShare
	start(pr.TaskType, pr.NewHandler(publishCfg, deps.registry, deps.contentStore, deps.catalog, deps.notifier, log).Handle)

	listCfg := lr.LoadConfig()
	listCfg.Timeout, listCfg.MaxRetries, listCfg.RetryBackoff = policy(lr.TaskType)
	listCfg.ListingShare = listingShare
	start(lr.TaskType, lr.NewHandler(listCfg, deps.catalog, log).Handle)

	buildCfg := ber.LoadConfig()
	buildCfg.Timeout, buildCfg.MaxRetries, buildCfg.RetryBackoff = policy(ber.TaskType)
	buildCfg.ListingShare = listingShare
	start(ber.TaskType, ber.NewHandler(buildCfg, deps.catalog, deps.contentStore, log).Handle)

	execService := execution.NewHTTPService(apphttp.NewClient(config.GetDuration(cfg.Execution.Timeout)), cfg.Execution.ServiceURL)
	executeCfg := er.LoadConfig()
	executeCfg.Timeout, executeCfg.MaxRetries, executeCfg.RetryBackoff = policy(er.TaskType)
	start(er.TaskType, er.NewHandler(executeCfg, execService, log).Handle)

	recordCfg := rec.LoadConfig()
	recordCfg.Timeout, recordCfg.MaxRetries, recordCfg.RetryBackoff = policy(rec.TaskType)
	start(rec.TaskType, rec.NewHandler(recordCfg, deps.catalog, deps.notifier, log).Handle)

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unreachable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")
		for _, w := range workers {
			w.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("worker manager stopped with error", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
