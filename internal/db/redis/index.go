package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// EnsureIndex issues FT.CREATE unless FT.INFO already knows the index.
// Losing a creation race to another process counts as "not created".
func (s *Store) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	args, err := createArgs(def)
	if err != nil {
		return false, err
	}

	exists, err := s.IndexExists(ctx, def.Name)
	if err != nil || exists {
		return false, err
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case serverErrorContains(err, "index already exists"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isUnknownIndex(err):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// isUnknownIndex matches both the RediSearch and valkey-search wording.
func isUnknownIndex(err error) bool {
	return serverErrorContains(err, "unknown index name", "not found")
}

// createArgs renders the FT.CREATE arguments following the command name.
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for _, f := range def.Fields {
		args = append(args, f.Name)
		if f.Alias != "" {
			args = append(args, "AS", f.Alias)
		}
		switch f.Type {
		case db.IndexFieldTag:
			args = append(args, "TAG", "CASESENSITIVE")
		case db.IndexFieldVector:
			args = append(args, vectorArgs(f.Vector)...)
		default:
			return nil, fmt.Errorf("field %s: unsupported type %d", f.Name, f.Type)
		}
	}
	return args, nil
}

// vectorArgs renders "VECTOR <algo> <nattrs> <attrs...>".
func vectorArgs(spec db.VectorSpec) []string {
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(spec.Dim),
		"DISTANCE_METRIC", string(spec.Metric()),
	}
	if spec.Algorithm() == db.VectorHNSW {
		attrs = append(attrs, "M", strconv.Itoa(spec.M))
		if spec.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(spec.EFConstruct))
		}
	}
	return append([]string{"VECTOR", string(spec.Algorithm()), strconv.Itoa(len(attrs))}, attrs...)
}
