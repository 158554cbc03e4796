package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
	"github.com/yungbote/uniprot-graph/internal/temporalx"
	"github.com/yungbote/uniprot-graph/internal/temporalx/ingestrun"

	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type Runner struct {
	log *logger.Logger
	cfg temporalx.Config

	tc       temporalsdkclient.Client
	steps    *uniprot_ingest.Steps
	observer orchestrator.StageObserver
}

func NewRunner(log *logger.Logger, cfg temporalx.Config, tc temporalsdkclient.Client, steps *uniprot_ingest.Steps, observer orchestrator.StageObserver) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if steps == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{log: log.With("component", "TemporalWorker"), cfg: cfg, tc: tc, steps: steps, observer: observer}, nil
}

// Start polls the task queue until ctx is done. Start failures are retried
// with backoff up to WorkerStartMaxWait.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	cfg := r.cfg
	r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	// Local/self-hosted convenience: ensure namespace exists before polling.
	if cfg.AutoRegisterNamespace {
		if err := temporalx.EnsureNamespace(ctx, cfg, r.log); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	deadline := time.Now().Add(cfg.WorkerStartMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}

		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && cfg.AutoRegisterNamespace {
			_ = temporalx.EnsureNamespace(ctx, cfg, r.log)
		}

		if cfg.WorkerStartMaxWait <= 0 || time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}

		r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)

		if sleep := temporalx.ClampBackoff(cfg.DialBackoff, cfg.DialBackoffMax, attempt); sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		// The four projections of one run fan out together.
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	ingestrun.Register(w, &ingestrun.Activities{
		Log:            r.log,
		Steps:          r.steps,
		Observer:       r.observer,
		HeartbeatEvery: 10 * time.Second,
	})
	return w
}
