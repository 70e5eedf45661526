package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
)

// SearchKNN runs FT.SEARCH with a KNN clause, pre-filtered by the query's tags.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	args, err := knnArgs(q)
	if err != nil {
		return nil, err
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNReply(raw, q.RawScores)
}

func knnArgs(q *db.KNNQuery) ([]string, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("knn: index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("knn: vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("knn: k must be positive, got %d", q.K)
	}

	prefilter := "*"
	if f := buildFilter(q.Filters); f != "" {
		prefilter = "(" + f + ")"
	}
	k := strconv.Itoa(q.K)
	args := []string{q.IndexName, prefilter + "=>[KNN " + k + " @" + db.VectorAlias + " $BLOB]"}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, db.VectorScoreField)
	}

	return append(args,
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	), nil
}

// Count returns the number of indexed entries.
func (s *Store) Count(ctx context.Context, index, prefix string) (int, error) {
	if s.mode == modeValkeySearch {
		keys, err := s.scan(ctx, prefix+"*")
		return len(keys), err
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(index, "*", "LIMIT", "0", "0").Build()).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("count reply: %w", err)
	}
	return int(total), nil
}

// TagValues returns the sorted distinct non-empty values of a tag field.
func (s *Store) TagValues(ctx context.Context, index, prefix, field string) ([]string, error) {
	var (
		values []string
		err    error
	)
	if s.mode == modeValkeySearch {
		values, err = s.scanTagValues(ctx, prefix, field)
	} else {
		values, err = s.do(ctx, s.b().Arbitrary("FT.TAGVALS").Args(index, field).Build()).AsStrSlice()
		if err != nil && isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		if err != nil {
			err = &db.Error{Op: db.OpTagVals, Err: err}
		}
	}
	if err != nil {
		return nil, err
	}

	values = slices.DeleteFunc(values, func(v string) bool { return v == "" })
	slices.Sort(values)
	return slices.Compact(values), nil
}

func (s *Store) scanTagValues(ctx context.Context, prefix, field string) ([]string, error) {
	keys, err := s.scan(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	return s.hashField(ctx, keys, field)
}

// parseKNNReply decodes [total, key1, fields1, key2, fields2, ...].
// Score is the cosine distance when rawScores is set, else 1-distance floored at 0.
// An entry without a parseable score keeps Score NaN so callers can skip it.
func parseKNNReply(raw []rueidis.RedisMessage, rawScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("knn reply total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Score: math.NaN(), Fields: fieldMap(pairs)}
		if score, ok := entry.Fields[db.VectorScoreField]; ok {
			delete(entry.Fields, db.VectorScoreField)
			if d, err := strconv.ParseFloat(score, 64); err == nil {
				entry.Score = d
				if !rawScores {
					entry.Score = max(0, 1-d)
				}
			}
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// buildFilter renders the tag conditions as an FT.SEARCH pre-filter.
// Juxtaposed clauses are ANDed.
func buildFilter(expr *filter.Expression) string {
	if expr == nil || expr.IsEmpty() {
		return ""
	}
	clauses := make([]string, len(expr.Must()))
	for i, cond := range expr.Must() {
		clauses[i] = buildTagFilter(cond.Key(), cond.Match())
	}
	return strings.Join(clauses, " ")
}

func buildTagFilter(field, value string) string {
	return "@" + field + ":{" + escapeTag(value) + "}"
}

// tagSpecials are the characters the query tokenizer treats as separators.
const tagSpecials = `\,.<>{}[]"':;!@#$%^&*()-+=~|/? `

func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if strings.ContainsRune(tagSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
