package uniprot_ingest

const (
	StageParseXML        = "parse_xml"
	StageCreateProtein   = "create_protein"
	StageCreateGene      = "create_gene"
	StageCreateOrganism  = "create_organism"
	StageCreateReference = "create_reference"
	StageCreateFeature   = "create_feature"
)

var stageOrder = []string{
	StageParseXML,
	StageCreateProtein,
	StageCreateGene,
	StageCreateOrganism,
	StageCreateReference,
	StageCreateFeature,
}

// Every projection anchors on the Protein node, so they all wait for it and
// are otherwise independent of each other.
var stageDeps = map[string][]string{
	StageCreateProtein: {StageParseXML},

	StageCreateGene:      {StageCreateProtein},
	StageCreateOrganism:  {StageCreateProtein},
	StageCreateReference: {StageCreateProtein},
	StageCreateFeature:   {StageCreateProtein},
}

// FanOutStages are the projections that run concurrently once the Protein
// exists.
func FanOutStages() []string {
	var out []string
	for _, name := range stageOrder {
		deps := stageDeps[name]
		if len(deps) == 1 && deps[0] == StageCreateProtein {
			out = append(out, name)
		}
	}
	return out
}

func StageOrder() []string { return append([]string(nil), stageOrder...) }

func StageDeps(name string) []string { return append([]string(nil), stageDeps[name]...) }
