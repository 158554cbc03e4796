package graph

import (
	"context"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const createOrganismCypher = `
MATCH (p:Protein {name: $main_name})
CREATE (o:Organism {name: $name, taxonomy_id: $taxonomy_id, common_name: $common_name, taxon: $taxon})
CREATE (p)-[:IN_ORGANISM]->(o)
RETURN o.name AS name
`

const mergeOrganismCypher = `
MATCH (p:Protein {name: $main_name})
MERGE (o:Organism {taxonomy_id: $taxonomy_id, name: $name})
SET o.common_name = $common_name, o.taxon = $taxon
MERGE (p)-[:IN_ORGANISM]->(o)
RETURN o.name AS name
`

// ProjectOrganism writes the Organism node and its edge in one transaction.
// The name list must hold exactly one "scientific" and one "common" entry.
func (p *Projector) ProjectOrganism(ctx context.Context, name string, org uniprot.Organism) (Stats, error) {
	var stats Stats
	if err := requireName("organism", name); err != nil {
		return stats, err
	}
	scientific, err := exactlyOne(org, "scientific")
	if err != nil {
		return stats, err
	}
	common, err := exactlyOne(org, "common")
	if err != nil {
		return stats, err
	}
	taxon := org.Lineage
	if taxon == nil {
		taxon = []string{}
	}

	res, err := p.w.Write(ctx, neo4jdb.Statement{
		Name:   "create_organism",
		Cypher: p.pick(createOrganismCypher, mergeOrganismCypher),
		Params: map[string]any{
			"main_name":   name,
			"name":        scientific,
			"taxonomy_id": org.TaxonomyID,
			"common_name": common,
			"taxon":       taxon,
		},
	})
	if err == nil && len(res.Rows) == 0 {
		err = anchorMissing("organism", "Protein", name)
	}
	if err != nil {
		stats.Failed++
		return stats, err
	}
	stats.add(res)
	p.log.Info("Created organism", "protein", name, "organism", scientific, "taxonomy_id", org.TaxonomyID)
	return stats, nil
}

func exactlyOne(org uniprot.Organism, typ string) (string, error) {
	names := org.NameOfType(typ)
	switch len(names) {
	case 1:
		return names[0], nil
	case 0:
		return "", ingesterr.SchemaAssumption("organism", "no name tagged %q", typ)
	default:
		return "", ingesterr.SchemaAssumption("organism", "%d names tagged %q, expected exactly one", len(names), typ)
	}
}
