package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/faqdex/internal/db"
)

var distances = map[db.DistanceMetric]qdrant.Distance{
	db.DistanceCosine: qdrant.Distance_Cosine,
	db.DistanceIP:     qdrant.Distance_Dot,
	db.DistanceL2:     qdrant.Distance_Euclid,
}

// EnsureIndex creates the collection and a keyword payload index per tag field.
func (s *Store) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	if err := def.Validate(); err != nil {
		return false, err
	}
	vf, ok := def.VectorField()
	if !ok {
		return false, errors.New("vector field is required")
	}

	exists, err := s.IndexExists(ctx, def.Name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	distance, ok := distances[vf.Vector.Metric()]
	if !ok {
		distance = qdrant.Distance_Cosine
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: def.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vf.Vector.Dim),
			Distance: distance,
		}),
	})
	if err != nil {
		return false, &db.Error{Op: db.OpCreate, Err: err}
	}

	for _, field := range def.TagFields() {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: def.Name,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return true, &db.Error{Op: db.OpFieldIx, Err: fmt.Errorf("field %s: %w", field, err)}
		}
	}
	return true, nil
}

// IndexExists reports whether the collection exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return exists, nil
}
