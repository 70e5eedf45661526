package ingest

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Record is one FAQ entry as it appears in a seed file.
type Record struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category"`
	Source   string `yaml:"source"`
}

type seedFile struct {
	Source  string   `yaml:"source"`
	Entries []Record `yaml:"entries"`
}

// LoadFile reads seed records from a YAML file.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses seed records. A file-level source applies to records without one.
func Decode(r io.Reader) ([]Record, error) {
	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i := range sf.Entries {
		if sf.Entries[i].Source == "" {
			sf.Entries[i].Source = sf.Source
		}
	}
	return sf.Entries, nil
}
