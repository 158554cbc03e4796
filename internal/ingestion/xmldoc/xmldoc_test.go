package xmldoc

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
)

const sampleEntry = `<?xml version="1.0" encoding="UTF-8"?>
<uniprot xmlns="http://uniprot.org/uniprot">
<entry dataset="Swiss-Prot" created="1999-07-15" modified="2023-05-03" version="204">
  <accession>O14646</accession>
  <name>CHD1_HUMAN</name>
  <gene>
    <name type="primary">CHD1</name>
  </gene>
  <feature type="chain" description="Chromodomain-helicase-DNA-binding protein 1"/>
  <feature type="domain"/>
</entry>
</uniprot>`

func TestReadEntryUsesAttributeAndTextConventions(t *testing.T) {
	entry, err := ReadEntry(strings.NewReader(sampleEntry))
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if entry["name"] != "CHD1_HUMAN" {
		t.Fatalf("name = %#v", entry["name"])
	}
	if entry["@dataset"] != "Swiss-Prot" {
		t.Fatalf("@dataset = %#v", entry["@dataset"])
	}
	gene, ok := entry["gene"].(map[string]any)
	if !ok {
		t.Fatalf("gene = %#v", entry["gene"])
	}
	gname, ok := gene["name"].(map[string]any)
	if !ok || gname["#text"] != "CHD1" || gname["@type"] != "primary" {
		t.Fatalf("gene name = %#v", gene["name"])
	}
	feats, ok := entry["feature"].([]any)
	if !ok || len(feats) != 2 {
		t.Fatalf("feature = %#v", entry["feature"])
	}
}

func TestEntryRejectsMultipleEntries(t *testing.T) {
	doc := `<uniprot><entry><name>A</name></entry><entry><name>B</name></entry></uniprot>`
	_, err := ReadEntry(strings.NewReader(doc))
	if !errors.Is(err, ingesterr.ErrMalformedEntry) {
		t.Fatalf("expected malformed entry, got %v", err)
	}
}

func TestEntryRequiresUniprotRoot(t *testing.T) {
	_, err := ReadEntry(strings.NewReader(`<other><entry/></other>`))
	if !errors.Is(err, ingesterr.ErrMalformedEntry) {
		t.Fatalf("expected malformed entry, got %v", err)
	}
}
