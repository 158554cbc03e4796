package graph

import (
	"context"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const createProteinCypher = `
CREATE (p:Protein {name: $name})
SET p += $meta
CREATE (p)-[:HAD_RECOMMENDED_NAME]->(:RecommendedName {fullName: $recommended.fullName, shortName: $recommended.shortName})
FOREACH (alt IN $alternatives |
  CREATE (p)-[:HAD_ALTERNATIVE_NAME]->(a:AlternativeName)
  SET a = alt
)
RETURN p.name AS name, elementId(p) AS element_id
`

const mergeProteinCypher = `
MERGE (p:Protein {name: $name})
SET p += $meta
MERGE (p)-[:HAD_RECOMMENDED_NAME]->(r:RecommendedName {fullName: $recommended.fullName})
SET r.shortName = $recommended.shortName
FOREACH (alt IN $alternatives |
  MERGE (p)-[:HAD_ALTERNATIVE_NAME]->(a:AlternativeName {fullName: alt.fullName})
  SET a += alt
)
RETURN p.name AS name, elementId(p) AS element_id
`

// EntryMeta is the entry-level metadata stored on the Protein node.
type EntryMeta struct {
	Created  string
	Modified string
	Version  string
	Dataset  string
}

func MetaOf(rec *uniprot.Record) EntryMeta {
	if rec == nil {
		return EntryMeta{}
	}
	return EntryMeta{Created: rec.CreatedAt, Modified: rec.Modified, Version: rec.Version, Dataset: rec.Dataset}
}

func (m EntryMeta) params() map[string]any {
	out := map[string]any{}
	for k, v := range map[string]string{"created": m.Created, "modified": m.Modified, "version": m.Version, "dataset": m.Dataset} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ProteinRef identifies the Protein node a projection created.
type ProteinRef struct {
	Name      string `json:"name"`
	ElementID string `json:"element_id,omitempty"`
}

// ProjectProtein writes the Protein node, its RecommendedName and every
// AlternativeName in one transaction.
func (p *Projector) ProjectProtein(ctx context.Context, name string, protein uniprot.Protein, meta EntryMeta) (ProteinRef, Stats, error) {
	var stats Stats
	if err := requireName("protein", name); err != nil {
		return ProteinRef{}, stats, err
	}
	if protein.RecommendedName == nil {
		return ProteinRef{}, stats, ingesterr.SchemaAssumption("protein", "entry %q has no recommended name", name)
	}

	alternatives := make([]map[string]any, 0, len(protein.AlternativeNames))
	for _, alt := range protein.AlternativeNames {
		alternatives = append(alternatives, nameParams(alt))
	}
	st := neo4jdb.Statement{
		Name:   "create_protein",
		Cypher: p.pick(createProteinCypher, mergeProteinCypher),
		Params: map[string]any{
			"name":         name,
			"meta":         meta.params(),
			"recommended":  map[string]any{"fullName": protein.RecommendedName.FullName, "shortName": protein.RecommendedName.ShortName},
			"alternatives": alternatives,
		},
	}
	res, err := p.w.Write(ctx, st)
	if err != nil {
		stats.Failed++
		return ProteinRef{}, stats, err
	}
	stats.add(res)

	ref := ProteinRef{Name: name}
	if len(res.Rows) > 0 {
		if s, ok := res.Rows[0]["name"].(string); ok {
			ref.Name = s
		}
		if s, ok := res.Rows[0]["element_id"].(string); ok {
			ref.ElementID = s
		}
	}
	p.log.Info("Created protein", "name", ref.Name, "alternative_names", len(alternatives), "nodes_created", stats.NodesCreated)
	return ref, stats, nil
}

// nameParams keeps ShortName out of the map when absent so the node gets no
// property, and passes it through untouched otherwise: numbers stay numbers.
func nameParams(n uniprot.ProteinName) map[string]any {
	m := map[string]any{"fullName": n.FullName}
	if n.ShortName != nil {
		m["shortName"] = n.ShortName
	}
	return m
}
