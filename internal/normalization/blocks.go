package normalization

import (
	"strings"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
)

const taxonomyDB = "NCBI Taxonomy"

func decodeProtein(m map[string]any) (uniprot.Protein, error) {
	p := uniprot.Protein{AlternativeNames: []uniprot.ProteinName{}}
	if raw, ok := m["recommendedName"]; ok && raw != nil {
		rm, ok := asMapping(raw)
		if !ok {
			return p, ingesterr.Malformed("protein.recommendedName", "expected mapping, got %s", shapeOf(raw))
		}
		name := decodeProteinName(rm)
		p.RecommendedName = &name
	}
	for i, item := range asSequence(m["alternativeName"]) {
		am, ok := asMapping(item)
		if !ok {
			if item == nil {
				continue
			}
			return p, ingesterr.Malformed("protein.alternativeName", "item %d: expected mapping, got %s", i, shapeOf(item))
		}
		p.AlternativeNames = append(p.AlternativeNames, decodeProteinName(am))
	}
	return p, nil
}

func decodeProteinName(m map[string]any) uniprot.ProteinName {
	full, _ := text(firstOf(m["fullName"]))
	name := uniprot.ProteinName{FullName: full}
	if raw, ok := m["shortName"]; ok {
		name.ShortName = scalarValue(firstOf(raw))
	}
	return name
}

// firstOf picks the first occurrence where the schema allows repeats but the
// graph keeps one value.
func firstOf(v any) any {
	seq := asSequence(v)
	if len(seq) == 0 {
		return nil
	}
	return seq[0]
}

func decodeGenes(m map[string]any) ([]uniprot.NamePair, error) {
	names, err := decodeNamePairs("gene.name", m["name"])
	if err != nil {
		return nil, err
	}
	return names, nil
}

func decodeNamePairs(field string, raw any) ([]uniprot.NamePair, error) {
	out := []uniprot.NamePair{}
	for i, item := range asSequence(raw) {
		switch shapeOf(item) {
		case shapeMapping:
			im := item.(map[string]any)
			t, _ := text(im)
			out = append(out, uniprot.NamePair{Text: t, Type: attr(im, "type")})
		case shapeScalar:
			if item == nil {
				continue
			}
			t, _ := text(item)
			out = append(out, uniprot.NamePair{Text: t})
		default:
			return nil, ingesterr.Malformed(field, "item %d: expected mapping or text, got %s", i, shapeOf(item))
		}
	}
	return out, nil
}

func decodeOrganism(m map[string]any) (uniprot.Organism, error) {
	o := uniprot.Organism{Lineage: []string{}}
	names, err := decodeNamePairs("organism.name", m["name"])
	if err != nil {
		return o, err
	}
	o.Names = names

	// Prefer the NCBI Taxonomy cross-reference; fall back to the first one.
	for i, item := range asSequence(m["dbReference"]) {
		ref, ok := asMapping(item)
		if !ok {
			continue
		}
		if i == 0 || attr(ref, "type") == taxonomyDB {
			o.TaxonomyID = attr(ref, "id")
		}
		if attr(ref, "type") == taxonomyDB {
			break
		}
	}

	if raw, ok := m["lineage"]; ok && raw != nil {
		lm, ok := asMapping(raw)
		if !ok {
			return o, ingesterr.Malformed("organism.lineage", "expected mapping, got %s", shapeOf(raw))
		}
		for _, item := range asSequence(lm["taxon"]) {
			if s, ok := text(item); ok && s != "" {
				o.Lineage = append(o.Lineage, s)
			}
		}
	}
	return o, nil
}

func decodeReferences(items []any) ([]uniprot.Reference, error) {
	out := make([]uniprot.Reference, 0, len(items))
	for i, item := range items {
		m, ok := asMapping(item)
		if !ok {
			return nil, ingesterr.Malformed("reference", "item %d: expected mapping, got %s", i, shapeOf(item))
		}
		ref := uniprot.Reference{
			Key:   attr(m, "key"),
			Scope: joinTexts(m["scope"], "; "),
		}
		if src, ok := asMapping(m["source"]); ok {
			ref.Source = joinTexts(src["tissue"], "; ")
		}
		if raw, ok := m["citation"]; ok && raw != nil {
			cm, ok := asMapping(raw)
			if !ok {
				return nil, ingesterr.Malformed("reference.citation", "item %d: expected mapping, got %s", i, shapeOf(raw))
			}
			ref.Citation = uniprot.Citation{
				Type:   attr(cm, "type"),
				Title:  child(cm, "title"),
				Date:   attr(cm, "date"),
				Volume: attr(cm, "volume"),
				First:  attr(cm, "first"),
				Last:   attr(cm, "last"),
			}
			ref.Authors = decodeAuthors(cm["authorList"])
		}
		if strings.TrimSpace(ref.Key) == "" {
			return nil, ingesterr.Malformed("reference", "item %d: missing @key", i)
		}
		out = append(out, ref)
	}
	return out, nil
}

// decodeAuthors reads persons then consortia; both become Author nodes.
func decodeAuthors(raw any) []uniprot.Author {
	al, ok := asMapping(raw)
	if !ok {
		return nil
	}
	var out []uniprot.Author
	for _, kind := range []string{"person", "consortium"} {
		for _, item := range asSequence(al[kind]) {
			am, ok := asMapping(item)
			if !ok {
				continue
			}
			if name := attr(am, "name"); name != "" {
				out = append(out, uniprot.Author{Name: name})
			}
		}
	}
	return out
}

func decodeFeatures(items []any) ([]uniprot.Feature, error) {
	out := make([]uniprot.Feature, 0, len(items))
	for i, item := range items {
		m, ok := asMapping(item)
		if !ok {
			return nil, ingesterr.Malformed("feature", "item %d: expected mapping, got %s", i, shapeOf(item))
		}
		out = append(out, uniprot.Feature{
			Type:        attr(m, "type"),
			Description: attr(m, "description"),
		})
	}
	return out, nil
}
