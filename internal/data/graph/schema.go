package graph

import "context"

var mergeConstraints = []string{
	`CREATE CONSTRAINT protein_name_unique IF NOT EXISTS FOR (p:Protein) REQUIRE p.name IS UNIQUE`,
	`CREATE INDEX reference_id_idx IF NOT EXISTS FOR (r:Reference) ON (r.id)`,
	`CREATE INDEX author_name_idx IF NOT EXISTS FOR (a:Author) ON (a.name)`,
}

// EnsureSchema applies the uniqueness constraint and lookup indexes merge
// mode relies on. Failures are logged and ignored (restricted users may not
// manage schema). Create mode leaves the schema untouched.
func (p *Projector) EnsureSchema(ctx context.Context) {
	if p.mode != ModeMerge {
		return
	}
	sr, ok := p.w.(SchemaRunner)
	if !ok {
		return
	}
	for _, stmt := range mergeConstraints {
		if err := sr.RunSchema(ctx, stmt); err != nil {
			p.log.Warn("neo4j schema init failed (continuing)", "statement", stmt, "error", err)
		}
	}
}
