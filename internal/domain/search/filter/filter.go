package filter

import (
	"fmt"
	"strings"
	"unicode"
)

// Filterable metadata fields.
const (
	FieldCategory = "category"
	FieldSource   = "source"
)

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 8

// MaxValueLength bounds a single match value.
const MaxValueLength = 128

// Expression is a conjunction of exact match conditions.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// Build translates optional category and source constraints into a single
// expression. Blank values impose no constraint; when neither is set Build
// returns nil. Both set means both must match.
func Build(category, source string) (*Expression, error) {
	var must []Condition
	for _, kv := range [][2]string{{FieldCategory, category}, {FieldSource, source}} {
		value := strings.TrimSpace(kv[1])
		if value == "" {
			continue
		}
		c, err := NewMatch(kv[0], value)
		if err != nil {
			return nil, err
		}
		must = append(must, c)
	}
	if len(must) == 0 {
		return nil, nil
	}
	return &Expression{must: must}, nil
}

// Must returns the conditions that all have to hold.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Matches evaluates the expression against a metadata map.
func (e Expression) Matches(fields map[string]string) bool {
	for _, c := range e.must {
		if fields[c.key] != c.match {
			return false
		}
	}
	return true
}

// Condition is a single exact match clause.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	if len(match) > MaxValueLength {
		return Condition{}, fmt.Errorf("match value for key %q too long (max %d)", key, MaxValueLength)
	}
	if strings.IndexFunc(match, unicode.IsControl) >= 0 {
		return Condition{}, fmt.Errorf("match value for key %q contains control characters", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }
