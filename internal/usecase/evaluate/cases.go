package evaluate

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Case is a labelled evaluation query.
type Case struct {
	Query            string `yaml:"query"`
	ExpectedCategory string `yaml:"expected_category"`
}

// LoadCases reads evaluation cases from a YAML file.
func LoadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open eval file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeCases(f)
}

// DecodeCases parses a YAML document with a top-level "queries" list.
func DecodeCases(r io.Reader) ([]Case, error) {
	var doc struct {
		Queries []Case `yaml:"queries"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse eval file: %w", err)
	}
	for i, c := range doc.Queries {
		if c.Query == "" || c.ExpectedCategory == "" {
			return nil, fmt.Errorf("eval case %d: query and expected_category are required", i)
		}
	}
	return doc.Queries, nil
}
