// cmd/biashara-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/bootstrap"
	"biashara-bot/internal/common/camunda"
	"biashara-bot/internal/common/config"
	"biashara-bot/internal/common/database"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/common/observability"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/transport/httpapi"
	handlemessage "biashara-bot/internal/workers/messaging/handle-message"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting biashara server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("driver", cfg.Database.Driver),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()
	checks := map[string]httpapi.Pinger{}

	// --- Ledger database ---
	var (
		l      *ledger.SQLLedger
		client *database.SQLClient
	)
	err = retryWithBackoff(func() error {
		var err error
		l, client, err = bootstrap.OpenLedger(ctx, cfg.Database)
		return err
	}, 15, 2*time.Second, zapLog, "Ledger database connection")
	if err != nil {
		zapLog.Fatal("ledger database failed after retries", zap.Error(err))
	}
	defer client.Close()
	checks["database"] = client
	zapLog.Info("Ledger database ready", zap.String("driver", client.Driver))

	// --- Reply cache (optional) ---
	var cache httpapi.ReplyCache
	if cfg.Database.Redis.Address != "" {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		cache = rc
		checks["redis"] = rc
		zapLog.Info("Redis connected successfully")
	}

	// --- Assistant ---
	notifiers, err := bootstrap.NewNotifiers(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("notifications init failed", zap.Error(err))
	}
	d, err := bootstrap.NewDispatcher(cfg, l, notifiers, log, dispatcher.WithRecorder(obs))
	if err != nil {
		zapLog.Fatal("assistant init failed", zap.Error(err))
	}

	// --- Workflow worker (optional) ---
	var (
		zeebe     *camunda.Client
		jobWorker worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe

		wcfg := config.GetWorkerConfig(cfg, handlemessage.TaskType)
		handler := handlemessage.NewHandler(
			&handlemessage.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			d, log,
		)
		jobWorker = camunda.StartWorker(zeebe.GetClient(), handlemessage.TaskType, wcfg, handler.Handle, log)
	}

	// --- HTTP ---
	app := httpapi.NewApp(d, cache, checks, httpapi.Options{
		LowStockThreshold: cfg.Assistant.LowStockThreshold,
		RecentSalesLimit:  cfg.Assistant.RecentSalesLimit,
		DedupeTTL:         cfg.Database.Redis.DedupeWindow(),
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      httpapi.NewRouter(app),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Close()
		jobWorker.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Biashara server stopped gracefully")
}
