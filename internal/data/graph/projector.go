package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

// Writer executes statements as one write transaction. *neo4jdb.Executor is
// the production implementation.
type Writer interface {
	Write(ctx context.Context, stmts ...neo4jdb.Statement) (*neo4jdb.WriteResult, error)
}

// SchemaRunner is implemented by writers that can apply schema statements.
type SchemaRunner interface {
	RunSchema(ctx context.Context, cypher string) error
}

// Mode selects the write semantics for every projection.
type Mode string

const (
	// ModeCreate creates nodes unconditionally; re-running duplicates them.
	ModeCreate Mode = "create"
	// ModeMerge matches existing nodes by their natural keys before creating.
	ModeMerge Mode = "merge"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCreate:
		return ModeCreate, nil
	case ModeMerge:
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("graph: unknown write mode %q", s)
	}
}

// Stats summarizes what one projection call wrote.
type Stats struct {
	Transactions         int `json:"transactions"`
	Failed               int `json:"failed"`
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
}

func (s *Stats) add(res *neo4jdb.WriteResult) {
	s.Transactions++
	if res == nil {
		return
	}
	s.NodesCreated += res.Counters.NodesCreated
	s.RelationshipsCreated += res.Counters.RelationshipsCreated
}

func (s *Stats) Merge(o Stats) {
	s.Transactions += o.Transactions
	s.Failed += o.Failed
	s.NodesCreated += o.NodesCreated
	s.RelationshipsCreated += o.RelationshipsCreated
}

// Projector maps normalized sub-records onto graph writes. It holds the one
// Writer shared by every projection of a run.
type Projector struct {
	w    Writer
	log  *logger.Logger
	mode Mode
}

func NewProjector(w Writer, log *logger.Logger, mode Mode) *Projector {
	if log == nil {
		log = logger.Nop()
	}
	if mode == "" {
		mode = ModeCreate
	}
	return &Projector{w: w, log: log.With("component", "Projector", "mode", string(mode)), mode: mode}
}

func (p *Projector) Mode() Mode { return p.mode }

func (p *Projector) pick(create, merge string) string {
	if p.mode == ModeMerge {
		return merge
	}
	return create
}

func requireName(projection, name string) error {
	if strings.TrimSpace(name) == "" {
		return ingesterr.SchemaAssumption(projection, "main protein name is empty")
	}
	return nil
}

// anchorMissing is returned when a MATCH on the Protein (or Reference)
// anchor found nothing, so nothing was written.
func anchorMissing(projection, label, key string) error {
	return ingesterr.SchemaAssumption(projection, "%s %q not found; it must be created first", label, key)
}
