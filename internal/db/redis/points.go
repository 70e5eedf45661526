package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/faqdex/internal/db"
)

const scanBatch = 100

// UpsertPoints writes each point as one HSET, pipelined in a single round-trip.
// The index picks the hashes up by key prefix, so index is unused here.
func (s *Store) UpsertPoints(ctx context.Context, _ string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(points))
	for i, p := range points {
		if p.Key == "" {
			return fmt.Errorf("point %d: key is required", i)
		}
		hset := s.b().Hset().Key(p.Key).FieldValue()
		for field, value := range p.Fields {
			hset = hset.FieldValue(field, value)
		}
		if len(p.Vector) > 0 {
			hset = hset.FieldValue(db.VectorField, vectorToBytes(p.Vector))
		}
		cmds = append(cmds, hset.Build())
	}

	var errs []error
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			errs = append(errs, fmt.Errorf("key %s: %w", points[i].Key, err))
		}
	}
	if len(errs) > 0 {
		return &db.Error{Op: db.OpHSet, Err: errors.Join(errs...)}
	}
	return nil
}

// scan collects every key matching pattern.
func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	cursor := uint64(0)
	for {
		entry, err := s.do(ctx, s.b().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Build()).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, entry.Elements...)
		if cursor = entry.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}

// hashField reads one field from each hash, pipelined. Missing values are "".
func (s *Store) hashField(ctx context.Context, keys []string, field string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, s.b().Hmget().Key(key).Field(field).Build())
	}

	values := make([]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		reply, err := res.ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpHMGet, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		if len(reply) > 0 && !reply[0].IsNil() {
			values[i], _ = reply[0].ToString()
		}
	}
	return values, nil
}
