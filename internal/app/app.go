package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.uber.org/multierr"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	apphttp "github.com/yungbote/uniprot-graph/internal/http"
	httpH "github.com/yungbote/uniprot-graph/internal/http/handlers"
	"github.com/yungbote/uniprot-graph/internal/ingestion/source"
	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
	"github.com/yungbote/uniprot-graph/internal/observability"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
	"github.com/yungbote/uniprot-graph/internal/temporalx"
	"github.com/yungbote/uniprot-graph/internal/temporalx/ingestrun"
	"github.com/yungbote/uniprot-graph/internal/temporalx/temporalworker"
)

type Options struct {
	ConfigPath string
	// Graph connects to Neo4j (local runs and workers).
	Graph bool
	// Temporal dials the Temporal frontend (submit and worker).
	Temporal bool
}

// App owns every process-wide dependency. Each one is created once in New
// and released once in Close.
type App struct {
	Log         *logger.Logger
	Cfg         Config
	TemporalCfg temporalx.Config
	Metrics     *observability.Metrics

	Neo4j     *neo4jdb.Client
	Projector *graph.Projector
	Opener    *source.Opener
	Steps     *uniprot_ingest.Steps
	Pipeline  *uniprot_ingest.Pipeline

	Temporal temporalsdkclient.Client

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log, opts.ConfigPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{
		Log:         log,
		Cfg:         cfg,
		TemporalCfg: temporalx.LoadConfig(log),
		Metrics:     observability.Init(log),
	}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.LoadOtelConfig(log))

	if opts.Graph {
		client, err := neo4jdb.New(log, cfg.Neo4j.driverConfig())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		a.Neo4j = client
		a.Opener = source.NewOpener(log, cfg.Storage.sourceConfig())
		a.wireIngestion(neo4jdb.NewExecutor(client, log, a.Metrics), a.Opener)
		a.Projector.EnsureSchema(ctx)
	}

	if opts.Temporal {
		if !a.TemporalCfg.Enabled() {
			a.Close()
			return nil, fmt.Errorf("TEMPORAL_ADDRESS is required")
		}
		tc, err := temporalx.NewClient(ctx, log, a.TemporalCfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init temporal: %w", err)
		}
		a.Temporal = tc
	}
	return a, nil
}

// wireIngestion builds the projector, steps and in-process pipeline around
// one writer.
func (a *App) wireIngestion(w graph.Writer, opener uniprot_ingest.DocumentOpener) {
	a.Projector = graph.NewProjector(w, a.Log, a.Cfg.Mode())
	a.Steps = uniprot_ingest.NewSteps(a.Log, opener, a.Projector)

	engine := orchestrator.NewEngine(a.Log)
	engine.MaxParallel = a.Cfg.MaxParallel
	if a.Metrics != nil {
		engine.Observer = a.Metrics
	}
	a.Pipeline = uniprot_ingest.NewPipeline(a.Log, a.Steps, engine)
	a.Pipeline.StageTimeout = a.Cfg.StageTimeout
}

func (a *App) source(src string) (string, error) {
	if s := strings.TrimSpace(src); s != "" {
		return s, nil
	}
	if s := strings.TrimSpace(a.Cfg.Source); s != "" {
		return s, nil
	}
	return "", fmt.Errorf("no source given (use -source or INGEST_SOURCE)")
}

// RunLocal ingests one entry in this process.
func (a *App) RunLocal(ctx context.Context, src string) (*uniprot_ingest.IngestResult, error) {
	if a == nil || a.Pipeline == nil {
		return nil, fmt.Errorf("app not initialized for local runs")
	}
	src, err := a.source(src)
	if err != nil {
		return nil, err
	}
	res, runErr := a.Pipeline.Run(ctx, uniprot_ingest.Input{RunID: uuid.NewString(), Source: src})
	status := "succeeded"
	if runErr != nil {
		status = "failed"
	}
	a.Metrics.ObserveRun(status, res.Totals.NodesCreated, res.Totals.RelationshipsCreated)
	return res, runErr
}

// Submit starts the ingestion workflow and waits for its result.
func (a *App) Submit(ctx context.Context, src string) (*uniprot_ingest.IngestResult, error) {
	if a == nil || a.Temporal == nil {
		return nil, fmt.Errorf("app not initialized for submit")
	}
	src, err := a.source(src)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	run, err := a.Temporal.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        "uniprot-ingest-" + runID,
		TaskQueue: a.TemporalCfg.TaskQueue,
	}, ingestrun.WorkflowName, ingestrun.Params{
		Input:           uniprot_ingest.Input{RunID: runID, Source: src},
		ActivityTimeout: a.TemporalCfg.ActivityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("start workflow: %w", err)
	}
	a.Log.Info("Submitted ingestion workflow", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "source", src)

	var res uniprot_ingest.IngestResult
	if err := run.Get(ctx, &res); err != nil {
		return nil, fmt.Errorf("workflow %s: %w", run.GetID(), err)
	}
	return &res, nil
}

// RunWorker starts the Temporal worker and serves the ops endpoints until
// ctx is done.
func (a *App) RunWorker(ctx context.Context) error {
	if a == nil || a.Steps == nil || a.Temporal == nil {
		return fmt.Errorf("app not initialized for worker mode")
	}
	runner, err := temporalworker.NewRunner(a.Log, a.TemporalCfg, a.Temporal, a.Steps, a.Metrics)
	if err != nil {
		return err
	}
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}

	tc := a.Temporal
	srv := apphttp.NewServer(apphttp.RouterConfig{
		Log:         a.Log,
		ServiceName: "uniprot-graph",
		CORSOrigins: a.Cfg.Ops.CORSOrigins,
		Metrics:     a.Metrics,
		HealthHandler: httpH.NewHealthHandler(map[string]httpH.Pinger{
			"neo4j": a.Neo4j,
			"temporal": httpH.PingFunc(func(ctx context.Context) error {
				_, err := tc.CheckHealth(ctx, &temporalsdkclient.CheckHealthRequest{})
				return err
			}),
		}),
	})
	return srv.Run(ctx, a.Cfg.Ops.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	var errs error
	if a.Temporal != nil {
		a.Temporal.Close()
		a.Temporal = nil
	}
	if a.Opener != nil {
		errs = multierr.Append(errs, a.Opener.Close())
	}
	if a.Neo4j != nil {
		errs = multierr.Append(errs, a.Neo4j.Close(context.Background()))
	}
	if a.otelShutdown != nil {
		errs = multierr.Append(errs, a.otelShutdown(context.Background()))
	}
	if errs != nil && a.Log != nil {
		a.Log.Warn("shutdown errors", "error", errs)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
