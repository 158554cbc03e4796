package ingestrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
	"github.com/yungbote/uniprot-graph/internal/platform/ctxutil"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

// Activities adapts the ingestion steps to Temporal. Each activity is one
// stage; none of them retries.
type Activities struct {
	Log   *logger.Logger
	Steps *uniprot_ingest.Steps

	// Observer, when set, sees every stage the worker executes.
	Observer orchestrator.StageObserver

	// HeartbeatEvery is the heartbeat period for projections; zero disables.
	HeartbeatEvery time.Duration
}

func (a *Activities) ParseXML(ctx context.Context, in uniprot_ingest.Input) (ParseOutput, error) {
	if err := a.ready(); err != nil {
		return ParseOutput{}, err
	}
	ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: in.RunID, Entry: in.Source})
	start := time.Now()
	rec, err := a.Steps.Parse(ctx, in.Source)
	a.observe(uniprot_ingest.StageParseXML, start, err)
	if err != nil {
		return ParseOutput{}, toApplicationError(err)
	}
	return ParseOutput{Record: rec}, nil
}

func (a *Activities) CreateProtein(ctx context.Context, in ProteinInput) (ProteinOutput, error) {
	if err := a.ready(); err != nil {
		return ProteinOutput{}, err
	}
	ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: in.RunID, Entry: nameOf(in.Record)})
	start := time.Now()
	ref, stats, err := a.Steps.CreateProtein(ctx, in.Record)
	a.observe(uniprot_ingest.StageCreateProtein, start, err)
	if err != nil {
		return ProteinOutput{}, toApplicationError(err)
	}
	return ProteinOutput{Protein: ref, Stats: stats}, nil
}

func (a *Activities) Project(ctx context.Context, in ProjectInput) (ProjectOutput, error) {
	if err := a.ready(); err != nil {
		return ProjectOutput{}, err
	}
	ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: in.RunID, Entry: nameOf(in.Record)})
	stop := a.startHeartbeat(ctx, in.Stage)
	defer stop()

	start := time.Now()
	stats, err := a.Steps.Project(ctx, in.Stage, in.Record)
	a.observe(in.Stage, start, err)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("Projection failed", "stage", in.Stage, "run_id", in.RunID, "failed", stats.Failed, "error", err)
		}
		return ProjectOutput{}, toApplicationError(err)
	}
	return ProjectOutput{Stage: in.Stage, Stats: stats}, nil
}

func (a *Activities) ready() error {
	if a == nil || a.Steps == nil {
		return fmt.Errorf("ingestrun: activity not configured")
	}
	return nil
}

func (a *Activities) observe(stage string, start time.Time, err error) {
	if a.Observer == nil {
		return
	}
	status := orchestrator.StageSucceeded
	if err != nil {
		status = orchestrator.StageFailed
	}
	a.Observer.ObserveStage(stage, status, time.Since(start))
}

func (a *Activities) startHeartbeat(ctx context.Context, stage string) func() {
	if a.HeartbeatEvery <= 0 || !activity.IsActivity(ctx) {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(a.HeartbeatEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx, stage)
			}
		}
	}()
	return func() { close(done) }
}

// toApplicationError tags the failure with its class so callers can tell a
// bad entry from a store outage without parsing messages.
func toApplicationError(err error) error {
	errType := ""
	switch {
	case errors.Is(err, ingesterr.ErrMalformedEntry):
		errType = ErrTypeMalformedEntry
	case errors.Is(err, ingesterr.ErrSchemaAssumption):
		errType = ErrTypeSchemaAssumption
	case errors.Is(err, ingesterr.ErrStoreUnavailable):
		errType = ErrTypeStoreUnavailable
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}

func nameOf(rec *uniprot.Record) string {
	if rec == nil {
		return ""
	}
	return rec.Name
}
