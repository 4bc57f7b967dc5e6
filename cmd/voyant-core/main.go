// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AMD-AGI/voyant/pkg/activity"
	"github.com/AMD-AGI/voyant/pkg/analytical"
	"github.com/AMD-AGI/voyant/pkg/artifact"
	"github.com/AMD-AGI/voyant/pkg/breaker"
	"github.com/AMD-AGI/voyant/pkg/config"
	"github.com/AMD-AGI/voyant/pkg/core"
	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/drift"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/pipeline"
	"github.com/AMD-AGI/voyant/pkg/plugin"
	"github.com/AMD-AGI/voyant/pkg/queue"
	"github.com/AMD-AGI/voyant/pkg/quota"
	"github.com/AMD-AGI/voyant/pkg/scheduler"
	"github.com/AMD-AGI/voyant/pkg/server"
	"github.com/AMD-AGI/voyant/pkg/sql"
	"github.com/AMD-AGI/voyant/pkg/worker"
	"github.com/AMD-AGI/voyant/pkg/workflow"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal, stopping voyant-core...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Errorf("voyant-core failed: %v", err)
		os.Exit(1)
	}
}

type facades struct {
	jobs      database.JobFacadeInterface
	artifacts database.ArtifactFacadeInterface
	events    database.EventFacadeInterface
	schemas   database.SchemaVersionFacadeInterface
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.InitGlobalLogger(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	if err := config.LoadSettings(cfg.SettingsPath); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	metrics.SetMode(metrics.ParseMode(config.GetMetricsMode()))

	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	schemas := eventschema.NewRegistry()
	if err := eventschema.RegisterCanonical(schemas); err != nil {
		return fmt.Errorf("failed to register event schemas: %w", err)
	}
	bus := eventbus.New(schemas, eventbus.NewDatabasePublisher(db.events),
		eventbus.WithRingSize(config.GetEventRingSize()),
		eventbus.WithPublishAttempts(config.GetEventPublishAttempts()))

	q := queue.New(queue.NewFacadeStore(db.jobs), config.GetLeaseTTL(), nil)
	if err := q.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover queue: %w", err)
	}
	quotas := quota.NewManager(nil)

	activities := activity.NewRegistry()
	breakers := breaker.NewRegistry(breaker.DefaultConfig(), nil)
	executor := activity.NewExecutor(activities, breakers, config.GetHeartbeatTimeout())
	runner := pipeline.NewRunner(plugin.Default())

	scratch, err := analytical.Open(cfg.Analytical.Path)
	if err != nil {
		return err
	}
	defer scratch.Close()

	tracker := drift.NewTracker(db.schemas, bus, nil)
	if err := activities.Register(trackSchemaActivity(tracker)); err != nil {
		return fmt.Errorf("failed to register track_schema activity: %w", err)
	}
	for _, def := range []*activity.Definition{runIngestionActivity(scratch), fetchSampleActivity(scratch)} {
		if err := activities.Register(def); err != nil {
			return fmt.Errorf("failed to register %s activity: %w", def.Name, err)
		}
	}

	engine := workflow.NewEngine(executor, runner, bus, q, runtimeSettings)
	workflow.RegisterBuiltins(engine)

	store, err := initArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	artifacts := artifact.NewManager(store, db.artifacts, quotas, bus, nil)

	pool := startWorkers(ctx, q, engine, quotas, bus)
	defer pool.Stop()

	sched, err := startScheduler(ctx, q, db.jobs, artifacts)
	if err != nil {
		return err
	}
	defer sched.Stop()

	c := core.New(q, quotas, engine, bus, artifacts)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HttpPort),
		Handler: server.InitServer(c),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("voyant-core listening on :%d", cfg.HttpPort)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	log.Info("voyant-core stopped")
	return nil
}

// initDatabase connects postgres when configured and falls back to the
// in-memory facades for single-node and development runs.
func initDatabase(cfg *config.Config) (*facades, error) {
	if cfg.Database.Host == "" {
		log.Info("no database configured, using in-memory persistence")
		return &facades{
			jobs:      database.NewMemoryJobFacade(),
			artifacts: database.NewMemoryArtifactFacade(),
			events:    database.NewMemoryEventFacade(),
			schemas:   database.NewMemorySchemaVersionFacade(),
		}, nil
	}
	db, err := sql.InitDefault(sql.DatabaseConfig{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		UserName:    cfg.Database.UserName,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		LogMode:     cfg.Database.LogMode,
		MaxIdleConn: cfg.Database.MaxIdleConn,
		MaxOpenConn: cfg.Database.MaxOpenConn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &facades{
		jobs:      database.NewJobFacadeWithDB(db),
		artifacts: database.NewArtifactFacadeWithDB(db),
		events:    database.NewEventFacadeWithDB(db),
		schemas:   database.NewSchemaVersionFacadeWithDB(db),
	}, nil
}

func initArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifact.Backend == "s3" {
		store, err := artifact.NewS3Store(ctx, cfg.Artifact.Bucket, cfg.Artifact.Region, cfg.Artifact.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 artifact store: %w", err)
		}
		return store, nil
	}
	store, err := artifact.NewLocalStore(cfg.Artifact.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init local artifact store: %w", err)
	}
	return store, nil
}

// trackSchemaActivity adapts the drift tracker for workflow use. The
// profile workflow invokes it with the schema the profiler observed.
func trackSchemaActivity(tracker *drift.Tracker) *activity.Definition {
	return &activity.Definition{
		Name: "track_schema",
		Fn: func(ctx context.Context, inv *activity.Invocation) (map[string]interface{}, error) {
			tenantID, _ := inv.Input["tenant_id"].(string)
			sourceID, _ := inv.Input["source_id"].(string)
			raw, _ := inv.Input["schema"].(map[string]interface{})
			schema := make(map[string]string, len(raw))
			for column, columnType := range raw {
				typeName, ok := columnType.(string)
				if !ok {
					return nil, errors.NewValidationError("schema values must be type names")
				}
				schema[column] = typeName
			}
			record, drifted, err := tracker.Record(ctx, tenantID, sourceID, "", schema)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"version": record.Version, "drifted": drifted}, nil
		},
	}
}

// runIngestionActivity stages inline rows into the tenant's analytical
// scratch table so later analyze runs can sample them.
func runIngestionActivity(scratch *analytical.Store) *activity.Definition {
	return &activity.Definition{
		Name: "run_ingestion",
		Fn: func(ctx context.Context, inv *activity.Invocation) (map[string]interface{}, error) {
			tenantID, _ := inv.Input["tenant_id"].(string)
			table, _ := inv.Input["table"].(string)
			cols, err := ingestColumns(inv.Input["columns"])
			if err != nil {
				return nil, err
			}
			if len(cols) > 0 {
				if err := scratch.CreateTable(ctx, tenantID, table, cols); err != nil {
					return nil, err
				}
			}
			rows := ingestRows(inv.Input["rows"])
			n, err := scratch.Insert(ctx, tenantID, table, rows)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"table": table, "rows_ingested": n}, nil
		},
	}
}

func ingestColumns(raw interface{}) ([]analytical.Column, error) {
	defs, _ := raw.([]interface{})
	cols := make([]analytical.Column, 0, len(defs))
	for _, d := range defs {
		m, ok := d.(map[string]interface{})
		if !ok {
			return nil, errors.NewValidationError("columns must be {name, type} objects")
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		cols = append(cols, analytical.Column{Name: name, Type: typ})
	}
	return cols, nil
}

func ingestRows(raw interface{}) []map[string]interface{} {
	items, _ := raw.([]interface{})
	rows := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		if row, ok := it.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// fetchSampleActivity reads staged rows back for the analyze workflow.
// The result is pivoted to column order because analyzers consume
// columns, not rows.
func fetchSampleActivity(scratch *analytical.Store) *activity.Definition {
	return &activity.Definition{
		Name: "fetch_sample",
		Fn: func(ctx context.Context, inv *activity.Invocation) (map[string]interface{}, error) {
			tenantID, _ := inv.Input["tenant_id"].(string)
			table, _ := inv.Input["table"].(string)
			if table == "" {
				// Nothing staged for this source; analyzers skip on an
				// empty sample.
				return map[string]interface{}{"sample": map[string]interface{}{}}, nil
			}
			limit := uint64(1000)
			switch v := inv.Input["sample_limit"].(type) {
			case int:
				if v > 0 {
					limit = uint64(v)
				}
			case float64:
				if v > 0 {
					limit = uint64(v)
				}
			}
			rows, err := scratch.Select(ctx, tenantID, table, nil, nil, limit)
			if err != nil {
				return nil, err
			}
			sample := map[string]interface{}{}
			for _, row := range rows {
				for col, v := range row {
					vals, _ := sample[col].([]interface{})
					sample[col] = append(vals, v)
				}
			}
			return map[string]interface{}{"sample": sample, "rows_sampled": len(rows)}, nil
		},
	}
}

// runtimeSettings snapshots the viper-backed feature flags for each
// workflow run.
func runtimeSettings() map[string]interface{} {
	return map[string]interface{}{
		"enable_quality":   config.IsQualityEnabled(),
		"enable_charts":    config.IsChartsEnabled(),
		"enable_narrative": config.IsNarrativeEnabled(),
	}
}

func startWorkers(ctx context.Context, q *queue.Queue, engine *workflow.Engine, quotas *quota.Manager, bus *eventbus.Bus) *worker.Pool {
	workerCfg := worker.DefaultConfig(config.GetLeaseTTL())
	workerCfg.Workers = config.GetWorkerCount()
	workerCfg.MaxConcurrent = config.GetMaxConcurrentJobs()
	pool := worker.NewPool(workerCfg, q, engine, quotas, bus)
	pool.Start(ctx)
	return pool
}

func startScheduler(ctx context.Context, q *queue.Queue, jobs database.JobFacadeInterface, artifacts *artifact.Manager) (*scheduler.Scheduler, error) {
	janitor := queue.NewJanitor(q, jobs, 0)
	retention := time.Duration(config.GetArtifactRetentionDays()) * 24 * time.Hour

	sched := scheduler.New()
	if err := sched.AddEvery("lease_sweep", config.GetPruneInterval(), func(ctx context.Context) {
		janitor.SweepLeases(ctx)
	}); err != nil {
		return nil, err
	}
	if err := sched.AddEvery("job_prune", time.Hour, func(ctx context.Context) {
		if _, err := janitor.PruneTerminal(ctx); err != nil {
			log.Errorf("terminal job prune: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	if err := sched.AddEvery("artifact_prune", time.Hour, func(ctx context.Context) {
		pruned, err := artifacts.PruneOlderThan(ctx, retention)
		if err != nil {
			log.Errorf("artifact prune: %v", err)
			return
		}
		if pruned == 0 {
			return
		}
		for _, tenant := range q.Tenants() {
			if err := artifacts.SyncTenantUsage(ctx, tenant); err != nil {
				log.Errorf("sync artifact usage for %s: %v", tenant, err)
			}
		}
	}); err != nil {
		return nil, err
	}
	sched.Start(ctx)
	return sched, nil
}
