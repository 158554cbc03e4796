package ingestrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/multierr"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
)

const defaultActivityTimeout = 10 * time.Minute

// Params is the workflow input.
type Params struct {
	uniprot_ingest.Input
	ActivityTimeout time.Duration `json:"activity_timeout,omitempty"`
}

// Workflow sequences one ingestion: parse, then the Protein, then the four
// projections in parallel. A failed stage fails the workflow; its siblings
// still run, its dependents do not.
func Workflow(ctx workflow.Context, p Params) (*uniprot_ingest.IngestResult, error) {
	in := p.Input
	if strings.TrimSpace(in.RunID) == "" {
		in.RunID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	if strings.TrimSpace(in.Source) == "" {
		return nil, fmt.Errorf("ingestrun: missing source")
	}
	timeout := p.ActivityTimeout
	if timeout <= 0 {
		timeout = defaultActivityTimeout
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	log := workflow.GetLogger(ctx)
	res := uniprot_ingest.NewIngestResult(in)

	start := workflow.Now(ctx)
	var parsed ParseOutput
	if err := workflow.ExecuteActivity(ctx, ActivityParseXML, in).Get(ctx, &parsed); err != nil {
		res.Record(uniprot_ingest.StageParseXML, graph.Stats{}, workflow.Now(ctx).Sub(start), err)
		skipAfter(res, uniprot_ingest.StageParseXML)
		return res, err
	}
	res.Record(uniprot_ingest.StageParseXML, graph.Stats{}, workflow.Now(ctx).Sub(start), nil)
	if parsed.Record != nil {
		res.Name = parsed.Record.Name
	}

	start = workflow.Now(ctx)
	var prot ProteinOutput
	err := workflow.ExecuteActivity(ctx, ActivityCreateProtein, ProteinInput{RunID: in.RunID, Record: parsed.Record}).Get(ctx, &prot)
	res.Record(uniprot_ingest.StageCreateProtein, prot.Stats, workflow.Now(ctx).Sub(start), err)
	if err != nil {
		skipAfter(res, uniprot_ingest.StageCreateProtein)
		return res, err
	}
	res.Protein = prot.Protein

	stages := uniprot_ingest.FanOutStages()
	futures := make([]workflow.Future, len(stages))
	start = workflow.Now(ctx)
	for i, stage := range stages {
		futures[i] = workflow.ExecuteActivity(ctx, ActivityProject, ProjectInput{RunID: in.RunID, Stage: stage, Record: parsed.Record})
	}
	var errs error
	for i, f := range futures {
		var out ProjectOutput
		err := f.Get(ctx, &out)
		res.Record(stages[i], out.Stats, workflow.Now(ctx).Sub(start), err)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("stage %s: %w", stages[i], err))
		}
	}

	log.Info("Ingestion workflow finished",
		"run_id", in.RunID,
		"name", res.Name,
		"nodes_created", res.Totals.NodesCreated,
		"failed_stages", res.Failed(),
	)
	return res, errs
}

func skipAfter(res *uniprot_ingest.IngestResult, failed string) {
	for _, name := range uniprot_ingest.StageOrder() {
		for _, dep := range uniprot_ingest.StageDeps(name) {
			if dep == failed || res.Stages[dep].Status == string(orchestrator.StageSkipped) {
				res.Skip(name, "dependency failed")
				break
			}
		}
	}
}
