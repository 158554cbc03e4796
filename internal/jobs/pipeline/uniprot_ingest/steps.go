package uniprot_ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/ingestion/xmldoc"
	"github.com/yungbote/uniprot-graph/internal/normalization"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

// DocumentOpener resolves a source URI; *source.Opener is the production
// implementation.
type DocumentOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Steps holds the work behind each stage. Both the in-process run and the
// Temporal activities call into it, so the two paths cannot drift.
type Steps struct {
	Log        *logger.Logger
	Opener     DocumentOpener
	Normalizer *normalization.Normalizer
	Projector  *graph.Projector
}

func NewSteps(log *logger.Logger, opener DocumentOpener, projector *graph.Projector) *Steps {
	if log == nil {
		log = logger.Nop()
	}
	return &Steps{
		Log:        log.With("component", "UniProtIngest"),
		Opener:     opener,
		Normalizer: normalization.New(log),
		Projector:  projector,
	}
}

// Parse reads the source document and returns its normalized Record.
func (s *Steps) Parse(ctx context.Context, uri string) (*uniprot.Record, error) {
	if s.Opener == nil {
		return nil, fmt.Errorf("%s: no source opener configured", StageParseXML)
	}
	rc, err := s.Opener.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%s: open %q: %w", StageParseXML, uri, err)
	}
	defer rc.Close()

	entry, err := xmldoc.ReadEntry(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageParseXML, err)
	}
	rec, err := s.Normalizer.Normalize(entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageParseXML, err)
	}
	s.Log.Info("Parsed entry",
		"name", rec.Name,
		"genes", len(rec.Genes),
		"references", len(rec.References),
		"features", len(rec.Features),
	)
	return rec, nil
}

func (s *Steps) CreateProtein(ctx context.Context, rec *uniprot.Record) (graph.ProteinRef, graph.Stats, error) {
	if err := rec.Validate(); err != nil {
		return graph.ProteinRef{}, graph.Stats{}, err
	}
	return s.Projector.ProjectProtein(ctx, rec.Name, rec.Protein, graph.MetaOf(rec))
}

// Project runs one of the fan-out projections by stage name.
func (s *Steps) Project(ctx context.Context, stage string, rec *uniprot.Record) (graph.Stats, error) {
	if err := rec.Validate(); err != nil {
		return graph.Stats{}, err
	}
	switch stage {
	case StageCreateGene:
		return s.Projector.ProjectGenes(ctx, rec.Name, rec.Genes)
	case StageCreateOrganism:
		return s.Projector.ProjectOrganism(ctx, rec.Name, rec.Organism)
	case StageCreateReference:
		return s.Projector.ProjectReferences(ctx, rec.Name, rec.References)
	case StageCreateFeature:
		return s.Projector.ProjectFeatures(ctx, rec.Name, rec.Features)
	default:
		return graph.Stats{}, fmt.Errorf("unknown projection stage %q", stage)
	}
}
