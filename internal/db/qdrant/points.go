package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
)

// UpsertPoints writes points in one request; the key is kept in the payload.
func (s *Store) UpsertPoints(ctx context.Context, index string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for i, p := range points {
		if p.Key == "" {
			return fmt.Errorf("point %d: key is required", i)
		}
		if len(p.Vector) == 0 {
			return fmt.Errorf("point %s: vector is required", p.Key)
		}
		payload := make(map[string]any, len(p.Fields)+1)
		for k, v := range p.Fields {
			payload[k] = v
		}
		payload[KeyField] = p.Key

		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      pointID(p.Key),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: index,
		Wait:           &wait,
		Points:         qpoints,
	})
	if err != nil {
		return wrap(db.OpUpsert, err)
	}
	return nil
}

// SearchKNN queries nearest neighbours. Qdrant reports cosine similarity;
// RawScores converts it back to cosine distance.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if q.K <= 0 {
		return nil, errors.New("k must be positive")
	}

	limit := uint64(q.K)
	req := &qdrant.QueryPoints{
		CollectionName: q.IndexName,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          &limit,
		Filter:         buildFilter(q.Filters),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(q.ReturnFields) > 0 {
		include := append(append([]string{}, q.ReturnFields...), KeyField)
		req.WithPayload = qdrant.NewWithPayloadInclude(include...)
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, wrap(db.OpQuery, err)
	}

	entries := make([]db.SearchEntry, 0, len(points))
	for _, p := range points {
		fields := payloadToFields(p.GetPayload())
		key := fields[KeyField]
		delete(fields, KeyField)
		if key == "" {
			key = p.GetId().GetUuid()
		}

		score := float64(p.GetScore())
		if q.RawScores {
			score = 1 - score
		}
		entries = append(entries, db.SearchEntry{Key: key, Score: score, Fields: fields})
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context, index, _ string) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: index,
		Exact:          &exact,
	})
	if err != nil {
		return 0, wrap(db.OpCount, err)
	}
	return int(n), nil
}

// TagValues scrolls the collection reading only field and returns its sorted distinct values.
func (s *Store) TagValues(ctx context.Context, index, _, field string) ([]string, error) {
	limit := uint32(scrollLimit)
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: index,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayloadInclude(field),
	})
	if err != nil {
		return nil, wrap(db.OpScroll, err)
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, p := range points {
		v := payloadToFields(p.GetPayload())[field]
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func buildFilter(expr *filter.Expression) *qdrant.Filter {
	if expr == nil || expr.IsEmpty() {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		must = append(must, qdrant.NewMatch(c.Key(), c.Match()))
	}
	return &qdrant.Filter{Must: must}
}

// payloadToFields flattens scalar payload values to strings; other kinds are dropped.
func payloadToFields(payload map[string]*qdrant.Value) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = fmt.Sprint(kind.IntegerValue)
		case *qdrant.Value_DoubleValue:
			out[k] = fmt.Sprint(kind.DoubleValue)
		case *qdrant.Value_BoolValue:
			out[k] = fmt.Sprint(kind.BoolValue)
		}
	}
	return out
}
