package uniprot_ingest

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	"github.com/yungbote/uniprot-graph/internal/platform/ctxutil"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

type Input struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
}

type StageSummary struct {
	Status     string      `json:"status"`
	Error      string      `json:"error,omitempty"`
	DurationMS int64       `json:"duration_ms"`
	Stats      graph.Stats `json:"stats"`
}

// IngestResult summarizes one run, whichever sequencer executed it.
type IngestResult struct {
	RunID   string                  `json:"run_id"`
	Source  string                  `json:"source"`
	Name    string                  `json:"name,omitempty"`
	Protein graph.ProteinRef        `json:"protein"`
	Stages  map[string]StageSummary `json:"stages"`
	Totals  graph.Stats             `json:"totals"`
}

func NewIngestResult(in Input) *IngestResult {
	return &IngestResult{RunID: in.RunID, Source: in.Source, Stages: map[string]StageSummary{}}
}

// Record stores a stage outcome and folds its stats into the totals.
func (r *IngestResult) Record(stage string, stats graph.Stats, dur time.Duration, err error) {
	s := StageSummary{Status: string(orchestrator.StageSucceeded), DurationMS: dur.Milliseconds(), Stats: stats}
	if err != nil {
		s.Status = string(orchestrator.StageFailed)
		s.Error = err.Error()
	}
	r.Stages[stage] = s
	r.Totals.Merge(stats)
}

func (r *IngestResult) Skip(stage, reason string) {
	r.Stages[stage] = StageSummary{Status: string(orchestrator.StageSkipped), Error: reason}
}

// Failed lists stages that ran and failed.
func (r *IngestResult) Failed() []string {
	var out []string
	for _, name := range stageOrder {
		if s, ok := r.Stages[name]; ok && s.Status == string(orchestrator.StageFailed) {
			out = append(out, name)
		}
	}
	return out
}

// Pipeline runs the ingestion DAG in-process.
type Pipeline struct {
	Log          *logger.Logger
	Steps        *Steps
	Engine       *orchestrator.Engine
	StageTimeout time.Duration
}

func NewPipeline(log *logger.Logger, steps *Steps, engine *orchestrator.Engine) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	if engine == nil {
		engine = orchestrator.NewEngine(log)
	}
	return &Pipeline{Log: log.With("component", "UniProtIngestPipeline"), Steps: steps, Engine: engine}
}

// Run parses the source and projects it. The result is always returned; the
// error combines every failed stage.
func (p *Pipeline) Run(ctx context.Context, in Input) (*IngestResult, error) {
	ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: in.RunID, Entry: in.Source})
	res := NewIngestResult(in)

	var rec *uniprot.Record
	runners := map[string]func(context.Context, *orchestrator.RunState) (map[string]any, error){
		StageParseXML: func(ctx context.Context, st *orchestrator.RunState) (map[string]any, error) {
			r, err := p.Steps.Parse(ctx, in.Source)
			if err != nil {
				return nil, err
			}
			rec = r
			st.SetMeta("name", r.Name)
			return map[string]any{"name": r.Name}, nil
		},
		StageCreateProtein: func(ctx context.Context, _ *orchestrator.RunState) (map[string]any, error) {
			ref, stats, err := p.Steps.CreateProtein(ctx, rec)
			return map[string]any{"stats": stats, "protein": ref}, err
		},
	}
	for _, name := range FanOutStages() {
		stage := name
		runners[stage] = func(ctx context.Context, _ *orchestrator.RunState) (map[string]any, error) {
			stats, err := p.Steps.Project(ctx, stage, rec)
			return map[string]any{"stats": stats}, err
		}
	}

	stages, err := orchestrator.BuildStages(stageOrder, stageDeps, runners)
	if err != nil {
		return res, err
	}
	for i := range stages {
		stages[i].Timeout = p.StageTimeout
	}

	st, runErr := p.Engine.Run(ctx, stages)
	if rec != nil {
		res.Name = rec.Name
	}
	for _, name := range stageOrder {
		ss := st.Stages[name]
		if ss == nil {
			continue
		}
		stats, _ := ss.Outputs["stats"].(graph.Stats)
		switch ss.Status {
		case orchestrator.StageSkipped:
			res.Skip(name, ss.LastError)
		case orchestrator.StageSucceeded:
			res.Record(name, stats, ss.Duration(), nil)
		default:
			res.Record(name, stats, ss.Duration(), errors.New(ss.LastError))
		}
		if ref, ok := ss.Outputs["protein"].(graph.ProteinRef); ok {
			res.Protein = ref
		}
	}

	p.Log.Info("Ingestion finished",
		"run_id", in.RunID,
		"name", res.Name,
		"nodes_created", res.Totals.NodesCreated,
		"relationships_created", res.Totals.RelationshipsCreated,
		"failed_stages", res.Failed(),
	)
	return res, runErr
}
