package graph

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const createReferenceCypher = `
MATCH (p:Protein {name: $main_name})
CREATE (r:Reference {id: $id, title: $title, date: $date, volume: $volume, first: $first, last: $last, source: $source, scope: $scope})
CREATE (p)-[:HAS_REFERENCE]->(r)
RETURN r.id AS id
`

const mergeReferenceCypher = `
MATCH (p:Protein {name: $main_name})
MERGE (p)-[:HAS_REFERENCE]->(r:Reference {id: $id})
SET r.title = $title, r.date = $date, r.volume = $volume, r.first = $first, r.last = $last,
    r.source = $source, r.scope = $scope
RETURN r.id AS id
`

// Reference keys are only unique within one entry, so authors anchor on the
// reference through its protein.
const createAuthorCypher = `
MATCH (:Protein {name: $main_name})-[:HAS_REFERENCE]->(r:Reference {id: $reference_id})
CREATE (a:Author {name: $name})
CREATE (r)-[:HAS_AUTHOR]->(a)
RETURN a.name AS name
`

const mergeAuthorCypher = `
MATCH (:Protein {name: $main_name})-[:HAS_REFERENCE]->(r:Reference {id: $reference_id})
MERGE (a:Author {name: $name})
MERGE (r)-[:HAS_AUTHOR]->(a)
RETURN a.name AS name
`

// ProjectReferences writes references in order. Each Reference is its own
// transaction; only after it commits and returns its id are that reference's
// authors written, one transaction per author. A failed reference skips its
// authors but not the following references.
func (p *Projector) ProjectReferences(ctx context.Context, name string, refs []uniprot.Reference) (Stats, error) {
	var stats Stats
	if err := requireName("reference", name); err != nil {
		return stats, err
	}
	var errs error
	for _, ref := range refs {
		id, err := p.createReference(ctx, name, ref, &stats)
		if err != nil {
			stats.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		for _, author := range ref.Authors {
			if err := p.createAuthor(ctx, name, id, author, &stats); err != nil {
				stats.Failed++
				errs = multierr.Append(errs, err)
			}
		}
	}
	p.log.Info("Projected references", "protein", name, "references", len(refs), "failed", stats.Failed)
	return stats, errs
}

func (p *Projector) createReference(ctx context.Context, name string, ref uniprot.Reference, stats *Stats) (string, error) {
	c := ref.Citation
	res, err := p.w.Write(ctx, neo4jdb.Statement{
		Name:   "create_reference",
		Cypher: p.pick(createReferenceCypher, mergeReferenceCypher),
		Params: map[string]any{
			"main_name": name,
			"id":        ref.Key,
			"title":     c.Title,
			"date":      c.Date,
			"volume":    numberOrZero(c.Volume),
			"first":     numberOrZero(c.First),
			"last":      numberOrZero(c.Last),
			"source":    nullable(ref.Source),
			"scope":     nullable(ref.Scope),
		},
	})
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", anchorMissing("reference", "Protein", name)
	}
	stats.add(res)
	id, _ := res.Rows[0]["id"].(string)
	if id == "" {
		id = ref.Key
	}
	p.log.Debug("Created reference", "protein", name, "reference_id", id, "authors", len(ref.Authors))
	return id, nil
}

func (p *Projector) createAuthor(ctx context.Context, name, referenceID string, author uniprot.Author, stats *Stats) error {
	res, err := p.w.Write(ctx, neo4jdb.Statement{
		Name:   "create_author",
		Cypher: p.pick(createAuthorCypher, mergeAuthorCypher),
		Params: map[string]any{"main_name": name, "reference_id": referenceID, "name": author.Name},
	})
	if err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		return anchorMissing("reference", "Reference", referenceID)
	}
	stats.add(res)
	return nil
}

// numberOrZero maps an absent citation attribute to 0 and keeps integer
// attributes numeric. Page designators like "e1234" stay strings.
func numberOrZero(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return int64(0)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
