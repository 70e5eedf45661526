package db

import (
	"errors"
	"fmt"
	"regexp"
)

// DistanceMetric used by vector similarity queries.
type DistanceMetric string

const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the vector indexing algorithm.
type VectorAlgorithm string

const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldTag is an exact-match, case-sensitive tag.
	IndexFieldTag IndexFieldType = iota
	IndexFieldVector
)

// VectorSpec configures a vector field. A positive M selects HNSW,
// otherwise the index is FLAT.
type VectorSpec struct {
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// Algorithm returns HNSW or FLAT.
func (v VectorSpec) Algorithm() VectorAlgorithm {
	if v.M > 0 {
		return VectorHNSW
	}
	return VectorFlat
}

// Metric returns the distance metric, cosine when unset.
func (v VectorSpec) Metric() DistanceMetric {
	if v.Distance == "" {
		return DistanceCosine
	}
	return v.Distance
}

// IndexField is one schema field. Vector is only read for vector fields.
type IndexField struct {
	Name   string
	Alias  string
	Type   IndexFieldType
	Vector VectorSpec
}

// queryName is the name KNN clauses and filters refer to.
func (f IndexField) queryName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a complete index definition. Documents live under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

var identifierRE = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// IsValidIdentifier reports whether s is usable as an index or collection name.
func IsValidIdentifier(s string) bool { return identifierRE.MatchString(s) }

// Validate checks the index name, field name uniqueness and that there is
// at most one vector field.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	var vectors int
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		name := f.queryName()
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name: %s", name)
		}
		seen[name] = struct{}{}

		if f.Type != IndexFieldVector {
			continue
		}
		if vectors++; vectors > 1 {
			return errors.New("at most one vector field is supported")
		}
		if f.Vector.Dim <= 0 {
			return fmt.Errorf("vector field %s: dimensions must be positive", f.Name)
		}
	}
	return nil
}

// VectorField returns the vector field of the definition, if any.
func (idx *IndexDefinition) VectorField() (IndexField, bool) {
	for _, f := range idx.Fields {
		if f.Type == IndexFieldVector {
			return f, true
		}
	}
	return IndexField{}, false
}

// TagFields returns the names of all tag fields in schema order.
func (idx *IndexDefinition) TagFields() []string {
	var names []string
	for _, f := range idx.Fields {
		if f.Type == IndexFieldTag {
			names = append(names, f.Name)
		}
	}
	return names
}
