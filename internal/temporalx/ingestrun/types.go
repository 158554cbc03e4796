package ingestrun

import (
	"github.com/yungbote/uniprot-graph/internal/data/graph"
	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
)

const (
	WorkflowName          = "uniprot_ingest"
	ActivityParseXML      = "uniprot_ingest_parse_xml"
	ActivityCreateProtein = "uniprot_ingest_create_protein"
	ActivityProject       = "uniprot_ingest_project"
)

// Application error types carried by failed activities, one per error class.
const (
	ErrTypeMalformedEntry   = "MalformedEntryError"
	ErrTypeSchemaAssumption = "SchemaAssumptionError"
	ErrTypeStoreUnavailable = "StoreUnavailableError"
)

type ParseOutput struct {
	Record *uniprot.Record `json:"record"`
}

type ProteinInput struct {
	RunID  string          `json:"run_id"`
	Record *uniprot.Record `json:"record"`
}

type ProteinOutput struct {
	Protein graph.ProteinRef `json:"protein"`
	Stats   graph.Stats      `json:"stats"`
}

type ProjectInput struct {
	RunID  string          `json:"run_id"`
	Stage  string          `json:"stage"`
	Record *uniprot.Record `json:"record"`
}

type ProjectOutput struct {
	Stage string      `json:"stage"`
	Stats graph.Stats `json:"stats"`
}
