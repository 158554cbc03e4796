package graph

import (
	"context"

	"go.uber.org/multierr"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const createFeatureCypher = `
MATCH (p:Protein {name: $main_name})
CREATE (f:Feature {type: $type, name: $name})
CREATE (p)-[:HAS_FEATURE]->(f)
RETURN f.type AS type
`

// Features repeat type and description freely, so in merge mode the edge
// carries the feature's position in the entry as its key.
const mergeFeatureCypher = `
MATCH (p:Protein {name: $main_name})
MERGE (p)-[:HAS_FEATURE {ordinal: $ordinal}]->(f:Feature)
SET f.type = $type, f.name = $name
RETURN f.type AS type
`

// ProjectFeatures writes one Feature per entry feature, each in its own
// transaction.
func (p *Projector) ProjectFeatures(ctx context.Context, name string, features []uniprot.Feature) (Stats, error) {
	var stats Stats
	if err := requireName("feature", name); err != nil {
		return stats, err
	}
	var errs error
	for i, f := range features {
		res, err := p.w.Write(ctx, neo4jdb.Statement{
			Name:   "create_feature",
			Cypher: p.pick(createFeatureCypher, mergeFeatureCypher),
			Params: map[string]any{
				"main_name": name,
				"type":      f.Type,
				"name":      nullable(f.Description),
				"ordinal":   int64(i),
			},
		})
		if err == nil && len(res.Rows) == 0 {
			err = anchorMissing("feature", "Protein", name)
		}
		if err != nil {
			stats.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		stats.add(res)
	}
	p.log.Info("Projected features", "protein", name, "features", len(features), "failed", stats.Failed)
	return stats, errs
}
