package xmldoc

import (
	"fmt"
	"io"
	"sync"

	"github.com/clbanning/mxj/v2"

	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
)

var prefixOnce sync.Once

// Decode parses XML into a nested mapping: attributes under "@name", element
// text under "#text", repeated elements as []any. Values stay strings.
func Decode(r io.Reader) (map[string]any, error) {
	prefixOnce.Do(func() { mxj.SetAttrPrefix("@") })
	m, err := mxj.NewMapXmlReader(r)
	if err != nil {
		return nil, fmt.Errorf("xmldoc: decode: %w", err)
	}
	return map[string]any(m), nil
}

// Entry returns the single uniprot/entry mapping of a decoded document.
func Entry(doc map[string]any) (map[string]any, error) {
	root, ok := doc["uniprot"].(map[string]any)
	if !ok {
		return nil, ingesterr.Malformed("uniprot", "document has no <uniprot> root element")
	}
	switch e := root["entry"].(type) {
	case map[string]any:
		return e, nil
	case []any:
		return nil, ingesterr.Malformed("entry", "expected exactly one entry, found %d", len(e))
	case nil:
		return nil, ingesterr.Malformed("entry", "document has no <entry>")
	default:
		return nil, ingesterr.Malformed("entry", "unexpected entry shape %T", e)
	}
}

// ReadEntry decodes r and returns its single entry.
func ReadEntry(r io.Reader) (map[string]any, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Entry(doc)
}
