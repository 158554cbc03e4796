package normalization

import (
	"fmt"
	"sort"

	"github.com/yungbote/uniprot-graph/internal/domain/uniprot"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

// Normalizer turns one raw entry mapping into a uniprot.Record. It performs
// no graph writes.
type Normalizer struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{log: log.With("component", "Normalizer")}
}

// Normalize routes each top-level key by its shape: mappings to the protein,
// gene and organism blocks, sequences to references and features, scalars to
// the metadata fields. Unknown keys and known keys in an unexpected shape are
// logged and skipped. A value of unrecognized shape, or an empty name, fails
// the whole entry.
func (n *Normalizer) Normalize(entry map[string]any) (*uniprot.Record, error) {
	if entry == nil {
		return nil, ingesterr.Malformed("", "entry is empty")
	}
	rec := &uniprot.Record{
		Genes:      []uniprot.NamePair{},
		References: []uniprot.Reference{},
		Features:   []uniprot.Feature{},
	}

	// Map iteration order is random; sort so logs and "gene" merging are stable.
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := entry[key]
		var err error
		switch s := shapeOf(value); s {
		case shapeMapping:
			err = n.routeMapping(rec, key, value.(map[string]any))
		case shapeSequence:
			err = n.routeSequence(rec, key, asSequence(value))
		case shapeScalar:
			err = n.routeScalar(rec, key, value)
		default:
			return nil, ingesterr.Malformed(key, "unrecognized value shape %T", value)
		}
		if err != nil {
			n.log.Warn("Skipping malformed entry field", "field", key, "error", err)
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	n.log.Debug("Normalized entry",
		"name", rec.Name,
		"genes", len(rec.Genes),
		"alternative_names", len(rec.Protein.AlternativeNames),
		"references", len(rec.References),
		"features", len(rec.Features),
	)
	return rec, nil
}

func (n *Normalizer) routeMapping(rec *uniprot.Record, key string, m map[string]any) error {
	switch key {
	case "protein":
		p, err := decodeProtein(m)
		if err != nil {
			return err
		}
		rec.Protein = p
	case "gene":
		genes, err := decodeGenes(m)
		if err != nil {
			return err
		}
		rec.Genes = append(rec.Genes, genes...)
	case "organism":
		o, err := decodeOrganism(m)
		if err != nil {
			return err
		}
		rec.Organism = o
	case "reference":
		return n.routeSequence(rec, key, []any{m})
	case "feature":
		return n.routeSequence(rec, key, []any{m})
	default:
		n.unknown(key, m)
	}
	return nil
}

func (n *Normalizer) routeSequence(rec *uniprot.Record, key string, items []any) error {
	switch key {
	case "reference":
		refs, err := decodeReferences(items)
		if err != nil {
			return err
		}
		rec.References = refs
	case "feature":
		feats, err := decodeFeatures(items)
		if err != nil {
			return err
		}
		rec.Features = feats
	case "gene":
		// Several <gene> elements: concatenate their names in document order.
		for i, item := range items {
			m, ok := asMapping(item)
			if !ok {
				return ingesterr.Malformed(key, "item %d: expected mapping, got %s", i, shapeOf(item))
			}
			genes, err := decodeGenes(m)
			if err != nil {
				return err
			}
			rec.Genes = append(rec.Genes, genes...)
		}
	case "protein", "organism":
		return ingesterr.Malformed(key, "expected mapping, got sequence of %d", len(items))
	default:
		n.unknown(key, items)
	}
	return nil
}

func (n *Normalizer) routeScalar(rec *uniprot.Record, key string, value any) error {
	s, _ := text(value)
	switch key {
	case "name":
		rec.Name = s
	case "@created":
		rec.CreatedAt = s
	case "@modified":
		rec.Modified = s
	case "@version":
		rec.Version = s
	case "@dataset":
		rec.Dataset = s
	case "protein", "organism", "gene", "reference", "feature":
		if value == nil {
			return nil
		}
		return ingesterr.Malformed(key, "expected structured value, got scalar")
	default:
		n.unknown(key, value)
	}
	return nil
}

func (n *Normalizer) unknown(key string, value any) {
	n.log.Warn("Ignoring unrecognized entry key", "key", key, "type", fmt.Sprintf("%T", value))
}
