package archive

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCorpus reads archive documents from a YAML file. An empty path yields
// the built-in sample corpus so the in-memory backend is usable without any
// setup.
func LoadCorpus(path string) ([]Document, error) {
	if strings.TrimSpace(path) == "" {
		return sampleCorpus(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var doc struct {
		Documents []Document `yaml:"documents"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return doc.Documents, nil
}

func sampleCorpus() []Document {
	return []Document{
		{
			Title: "Sydney Gazette notice",
			Date:  "1825",
			Content: "Dr. Laurence Halloran opened Sydney Grammar School in 1825, " +
				"offering instruction in the classics, mathematics and English " +
				"composition to the sons of the colony.",
		},
		{
			Title: "School register",
			Date:  "1835",
			Content: "William Timothy Cape assumed charge of the school in 1835 and " +
				"reorganised the curriculum along practical lines, admitting boys " +
				"of the merchant and settler families alike.",
		},
		{
			Title: "Founding charter notes",
			Date:  "1857",
			Content: "Upon its re-establishment by Act of Parliament, the school " +
				"adopted the motto Laus Deo, and William John Stephens was appointed " +
				"headmaster in 1857.",
		},
		{
			Title: "Trustees' minute book",
			Date:  "1867",
			Content: "Albert Bythesea Weigall was appointed headmaster in 1867 and " +
				"served until 1912, during which time enrolments grew tenfold and " +
				"the great hall was erected.",
		},
		{
			Title: "Speech day address",
			Date:  "1890",
			Content: "Mr. Weigall reminded the assembled boys that the good name of " +
				"the school rested upon their conduct beyond its gates as much as " +
				"their scholarship within them.",
		},
	}
}
