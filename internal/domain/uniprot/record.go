package uniprot

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
)

// Record is the canonical form of one UniProt entry. It is built once by the
// normalizer and then only read; every projection stage receives the same
// value. JSON tags matter: the record crosses Temporal activity boundaries.
type Record struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	Modified  string `json:"modified,omitempty"`
	Version   string `json:"version,omitempty"`
	Dataset   string `json:"dataset,omitempty"`

	Protein    Protein     `json:"protein"`
	Genes      []NamePair  `json:"genes"`
	Organism   Organism    `json:"organism"`
	References []Reference `json:"references"`
	Features   []Feature   `json:"features"`
}

// Validate checks the invariants every projection relies on.
func (r *Record) Validate() error {
	if r == nil {
		return ingesterr.Malformed("", "nil record")
	}
	if strings.TrimSpace(r.Name) == "" {
		return ingesterr.Malformed("name", "entry name is required as the graph join key")
	}
	return nil
}

type Protein struct {
	RecommendedName  *ProteinName  `json:"recommended_name,omitempty"`
	AlternativeNames []ProteinName `json:"alternative_names"`
}

// ProteinName is one recommended or alternative name. ShortName keeps the
// source type (string or number); nil means absent.
type ProteinName struct {
	FullName  string `json:"full_name"`
	ShortName any    `json:"short_name,omitempty"`
}

// UnmarshalJSON keeps a numeric ShortName numeric across a JSON round trip:
// integers come back as int64 rather than float64.
func (n *ProteinName) UnmarshalJSON(b []byte) error {
	var raw struct {
		FullName  string          `json:"full_name"`
		ShortName json.RawMessage `json:"short_name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.FullName = raw.FullName
	n.ShortName = nil
	if len(raw.ShortName) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw.ShortName))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if num, ok := v.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			v = i
		} else if f, err := num.Float64(); err == nil {
			v = f
		}
	}
	n.ShortName = v
	return nil
}

// NamePair is a {text, type} name as found on genes and organisms.
type NamePair struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type Organism struct {
	Names      []NamePair `json:"names"`
	TaxonomyID string     `json:"taxonomy_id,omitempty"`
	Lineage    []string   `json:"lineage"`
}

// NameOfType returns the text of every name tagged typ.
func (o Organism) NameOfType(typ string) []string {
	var out []string
	for _, n := range o.Names {
		if n.Type == typ {
			out = append(out, n.Text)
		}
	}
	return out
}

type Reference struct {
	Key      string   `json:"key"`
	Citation Citation `json:"citation"`
	Source   string   `json:"source,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
}

// Citation fields hold the raw attribute text; "" means absent.
type Citation struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Date   string `json:"date,omitempty"`
	Volume string `json:"volume,omitempty"`
	First  string `json:"first,omitempty"`
	Last   string `json:"last,omitempty"`
}

type Author struct {
	Name string `json:"name"`
}

type Feature struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}
