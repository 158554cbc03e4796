package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

// memGraph is an in-memory Writer that understands the projection statements
// by name. It applies each Write atomically, so a failed call leaves no trace.
type memGraph struct {
	mu     sync.Mutex
	nodes  []*memNode
	edges  []memEdge
	calls  []neo4jdb.Statement
	schema []string

	// fail returns a non-nil error to abort the n-th (1-based) call of a
	// statement name before anything is applied.
	fail func(name string, n int) error
	seen map[string]int
}

type memNode struct {
	id    int
	label string
	props map[string]any
}

type memEdge struct {
	from, to int
	typ      string
	props    map[string]any
}

func newMemGraph() *memGraph { return &memGraph{seen: map[string]int{}} }

func (g *memGraph) failNth(name string, n int) *memGraph {
	g.fail = func(got string, i int) error {
		if got == name && i == n {
			return &ingesterr.StoreUnavailableError{Statement: got, Err: errors.New("connection reset")}
		}
		return nil
	}
	return g
}

func (g *memGraph) RunSchema(_ context.Context, cypher string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.schema = append(g.schema, cypher)
	return nil
}

func (g *memGraph) Write(_ context.Context, stmts ...neo4jdb.Statement) (*neo4jdb.WriteResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res := &neo4jdb.WriteResult{}
	for _, st := range stmts {
		g.calls = append(g.calls, st)
		g.seen[st.Name]++
		if g.fail != nil {
			if err := g.fail(st.Name, g.seen[st.Name]); err != nil {
				return nil, err
			}
		}
		// Stage on a copy so a failure mid-statement commits nothing.
		stage := &memGraph{nodes: append([]*memNode(nil), g.nodes...), edges: append([]memEdge(nil), g.edges...)}
		rows, c, err := stage.apply(st)
		if err != nil {
			return nil, err
		}
		g.nodes, g.edges = stage.nodes, stage.edges
		res.Rows = rows
		res.Counters.Add(c)
	}
	return res, nil
}

func (g *memGraph) apply(st neo4jdb.Statement) ([]map[string]any, neo4jdb.Counters, error) {
	var c neo4jdb.Counters
	p := st.Params
	merge := strings.Contains(st.Cypher, "MERGE")
	str := func(k string) string { s, _ := p[k].(string); return s }

	switch st.Name {
	case "create_protein":
		var prot *memNode
		if merge {
			prot = g.find("Protein", map[string]any{"name": p["name"]})
		}
		if prot == nil {
			prot = g.node("Protein", map[string]any{"name": p["name"]}, &c)
		}
		if meta, ok := p["meta"].(map[string]any); ok {
			for k, v := range meta {
				prot.props[k] = v
			}
		}
		rec, _ := p["recommended"].(map[string]any)
		g.child(prot, "HAD_RECOMMENDED_NAME", "RecommendedName", compact(rec), merge, "fullName", &c)
		alts, _ := p["alternatives"].([]map[string]any)
		for _, alt := range alts {
			g.child(prot, "HAD_ALTERNATIVE_NAME", "AlternativeName", compact(alt), merge, "fullName", &c)
		}
		return []map[string]any{{"name": p["name"], "element_id": fmt.Sprintf("4:mem:%d", prot.id)}}, c, nil

	case "create_gene":
		prot := g.find("Protein", map[string]any{"name": p["main_name"]})
		if prot == nil {
			return nil, c, nil
		}
		g.child(prot, "FROM_GENE", "Gene", map[string]any{"name": p["name"], "status": p["status"]}, merge, "", &c)
		return []map[string]any{{"name": p["name"]}}, c, nil

	case "create_organism":
		prot := g.find("Protein", map[string]any{"name": p["main_name"]})
		if prot == nil {
			return nil, c, nil
		}
		props := map[string]any{"name": p["name"], "taxonomy_id": p["taxonomy_id"], "common_name": p["common_name"], "taxon": p["taxon"]}
		var org *memNode
		if merge {
			org = g.find("Organism", map[string]any{"taxonomy_id": p["taxonomy_id"], "name": p["name"]})
		}
		if org == nil {
			org = g.node("Organism", props, &c)
		}
		if !merge || !g.hasEdge(prot.id, org.id, "IN_ORGANISM") {
			g.edge(prot.id, org.id, "IN_ORGANISM", nil, &c)
		}
		return []map[string]any{{"name": p["name"]}}, c, nil

	case "create_reference":
		prot := g.find("Protein", map[string]any{"name": p["main_name"]})
		if prot == nil {
			return nil, c, nil
		}
		props := map[string]any{}
		for _, k := range []string{"id", "title", "date", "volume", "first", "last", "source", "scope"} {
			if v := p[k]; v != nil {
				props[k] = v
			}
		}
		g.child(prot, "HAS_REFERENCE", "Reference", props, merge, "id", &c)
		return []map[string]any{{"id": p["id"]}}, c, nil

	case "create_author":
		ref := g.referenceOf(str("main_name"), str("reference_id"))
		if ref == nil {
			return nil, c, nil
		}
		var a *memNode
		if merge {
			a = g.find("Author", map[string]any{"name": p["name"]})
		}
		if a == nil {
			a = g.node("Author", map[string]any{"name": p["name"]}, &c)
		}
		if !merge || !g.hasEdge(ref.id, a.id, "HAS_AUTHOR") {
			g.edge(ref.id, a.id, "HAS_AUTHOR", nil, &c)
		}
		return []map[string]any{{"name": p["name"]}}, c, nil

	case "create_feature":
		prot := g.find("Protein", map[string]any{"name": p["main_name"]})
		if prot == nil {
			return nil, c, nil
		}
		props := map[string]any{"type": p["type"]}
		if p["name"] != nil {
			props["name"] = p["name"]
		}
		if merge {
			for _, e := range g.edges {
				if e.from == prot.id && e.typ == "HAS_FEATURE" && e.props["ordinal"] == p["ordinal"] {
					g.byID(e.to).props = props
					return []map[string]any{{"type": p["type"]}}, c, nil
				}
			}
			f := g.node("Feature", props, &c)
			g.edge(prot.id, f.id, "HAS_FEATURE", map[string]any{"ordinal": p["ordinal"]}, &c)
		} else {
			f := g.node("Feature", props, &c)
			g.edge(prot.id, f.id, "HAS_FEATURE", nil, &c)
		}
		return []map[string]any{{"type": p["type"]}}, c, nil
	}
	return nil, c, fmt.Errorf("memgraph: unknown statement %q", st.Name)
}

func (g *memGraph) node(label string, props map[string]any, c *neo4jdb.Counters) *memNode {
	cp := map[string]any{}
	for k, v := range props {
		cp[k] = v
	}
	n := &memNode{id: len(g.nodes) + 1, label: label, props: cp}
	g.nodes = append(g.nodes, n)
	c.NodesCreated++
	return n
}

func (g *memGraph) edge(from, to int, typ string, props map[string]any, c *neo4jdb.Counters) {
	g.edges = append(g.edges, memEdge{from: from, to: to, typ: typ, props: props})
	c.RelationshipsCreated++
}

// child creates (parent)-[typ]->(label props). With merge set it reuses an
// existing child whose key property (or every property when key is empty)
// matches.
func (g *memGraph) child(parent *memNode, typ, label string, props map[string]any, merge bool, key string, c *neo4jdb.Counters) *memNode {
	if merge {
		match := props
		if key != "" {
			match = map[string]any{key: props[key]}
		}
		for _, e := range g.edges {
			if e.from != parent.id || e.typ != typ {
				continue
			}
			if n := g.byID(e.to); n.label == label && sameProps(n.props, match) {
				for k, v := range props {
					n.props[k] = v
				}
				return n
			}
		}
	}
	n := g.node(label, props, c)
	g.edge(parent.id, n.id, typ, nil, c)
	return n
}

func (g *memGraph) find(label string, match map[string]any) *memNode {
	for _, n := range g.nodes {
		if n.label == label && sameProps(n.props, match) {
			return n
		}
	}
	return nil
}

func (g *memGraph) byID(id int) *memNode { return g.nodes[id-1] }

func (g *memGraph) hasEdge(from, to int, typ string) bool {
	for _, e := range g.edges {
		if e.from == from && e.to == to && e.typ == typ {
			return true
		}
	}
	return false
}

func (g *memGraph) referenceOf(protein, id string) *memNode {
	prot := g.find("Protein", map[string]any{"name": protein})
	if prot == nil {
		return nil
	}
	for _, e := range g.edges {
		if e.from == prot.id && e.typ == "HAS_REFERENCE" {
			if n := g.byID(e.to); n.props["id"] == id {
				return n
			}
		}
	}
	return nil
}

// nodes returns every node with the label.
func (g *memGraph) labeled(label string) []*memNode {
	var out []*memNode
	for _, n := range g.nodes {
		if n.label == label {
			out = append(out, n)
		}
	}
	return out
}

// targets returns the nodes reached from n over typ edges.
func (g *memGraph) targets(n *memNode, typ string) []*memNode {
	var out []*memNode
	for _, e := range g.edges {
		if e.from == n.id && e.typ == typ {
			out = append(out, g.byID(e.to))
		}
	}
	return out
}

func (g *memGraph) callCount(name string) int {
	n := 0
	for _, st := range g.calls {
		if st.Name == name {
			n++
		}
	}
	return n
}

func sameProps(have, want map[string]any) bool {
	for k, v := range want {
		if fmt.Sprint(have[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func compact(m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
