// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"deal-compass-workers/internal/common/aws"
	"deal-compass-workers/internal/common/camunda"
	"deal-compass-workers/internal/common/config"
	"deal-compass-workers/internal/common/database"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/store"

	cdc "deal-compass-workers/internal/workers/feasibility/check-data-completeness"
	cf "deal-compass-workers/internal/workers/feasibility/compute-feasibility"
	eid "deal-compass-workers/internal/workers/feasibility/evaluate-ic-decision"
	gsh "deal-compass-workers/internal/workers/feasibility/generate-sensitivity-heatmap"
	iid "deal-compass-workers/internal/workers/feasibility/index-ic-decision"
	nid "deal-compass-workers/internal/workers/feasibility/notify-ic-decision"
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	topology, err := zeebe.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return zeebe.GetClient().NewTopologyCommand().Send(ctx)
	}, "topology")
	if err != nil {
		zapLog.Warn("zeebe topology unavailable", zap.Error(err))
	} else if topo, ok := topology.(*pb.TopologyResponse); ok {
		zapLog.Info("Zeebe topology",
			zap.Int("brokers", len(topo.Brokers)),
			zap.Int32("partitions", topo.PartitionsCount),
			zap.String("gatewayVersion", topo.GatewayVersion),
		)
	}

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	created, err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.DecisionIndex, database.DecisionIndexMapping)
	if err != nil {
		zapLog.Fatal("decision index setup failed", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully",
		zap.String("index", cfg.Database.Elasticsearch.DecisionIndex),
		zap.Bool("indexCreated", created),
	)

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- AWS ---
	awsClients, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws clients failed", zap.Error(err))
	}

	// --- Engine & stores ---
	rubric := cfg.Engine.Rubric()
	runner := pipeline.NewRunner(rubric)
	deals := store.NewDealRepository(pg.DB, redis.Client, time.Duration(cfg.Engine.DealCacheTTL)*time.Second, log)
	decisions := store.NewDecisionRepository(pg.DB, redis.Client, time.Duration(cfg.Engine.DecisionCacheTTL)*time.Second, log)

	// --- Workers ---
	fleet := camunda.NewFleet(zeebe.GetClient(), log)

	fleet.Start(cf.TaskType, config.GetWorkerConfig(cfg, cf.TaskType),
		cf.NewHandler(cf.LoadConfig(), runner, obs, log).Handle)

	fleet.Start(cdc.TaskType, config.GetWorkerConfig(cfg, cdc.TaskType),
		cdc.NewHandler(cdc.LoadConfig(), rubric, obs, log).Handle)

	fleet.Start(eid.TaskType, config.GetWorkerConfig(cfg, eid.TaskType),
		eid.NewHandler(eid.LoadConfig(), runner, deals, decisions, obs, log).Handle)

	fleet.Start(gsh.TaskType, config.GetWorkerConfig(cfg, gsh.TaskType),
		gsh.NewHandler(gsh.LoadConfig(), rubric, obs, log).Handle)

	fleet.Start(iid.TaskType, config.GetWorkerConfig(cfg, iid.TaskType),
		iid.NewHandler(iid.LoadConfig(cfg.Database.Elasticsearch.DecisionIndex), esClient.Client, obs, log).Handle)

	fleet.Start(nid.TaskType, config.GetWorkerConfig(cfg, nid.TaskType),
		nid.NewHandler(nid.LoadConfig(cfg.Notifications), awsClients.SES, awsClients.SNS, obs, log).Handle)

	zapLog.Info("Workers registered", zap.Strings("taskTypes", fleet.TaskTypes()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		if err := pg.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fleet.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
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
