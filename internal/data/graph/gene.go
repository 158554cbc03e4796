package graph

import (
	"context"

	"go.uber.org/multierr"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const createGeneCypher = `
MATCH (p:Protein {name: $main_name})
CREATE (g:Gene {name: $name, status: $status})
CREATE (p)-[:FROM_GENE]->(g)
RETURN g.name AS name
`

const mergeGeneCypher = `
MATCH (p:Protein {name: $main_name})
MERGE (p)-[:FROM_GENE]->(g:Gene {name: $name, status: $status})
RETURN g.name AS name
`

// ProjectGenes writes one Gene per name, each in its own transaction. A
// failed gene does not stop or undo the others; all failures are returned
// together.
func (p *Projector) ProjectGenes(ctx context.Context, name string, genes []uniprot.NamePair) (Stats, error) {
	var stats Stats
	if err := requireName("gene", name); err != nil {
		return stats, err
	}
	var errs error
	for _, g := range genes {
		res, err := p.w.Write(ctx, neo4jdb.Statement{
			Name:   "create_gene",
			Cypher: p.pick(createGeneCypher, mergeGeneCypher),
			Params: map[string]any{"main_name": name, "name": g.Text, "status": g.Type},
		})
		if err == nil && len(res.Rows) == 0 {
			err = anchorMissing("gene", "Protein", name)
		}
		if err != nil {
			stats.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		stats.add(res)
		p.log.Debug("Created gene", "protein", name, "gene", g.Text, "status", g.Type)
	}
	p.log.Info("Projected genes", "protein", name, "genes", len(genes), "failed", stats.Failed)
	return stats, errs
}
