package redis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
)

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		reply   rueidis.RedisResult
		wantErr bool
	}{
		{"pong", mock.Result(mock.RedisString("PONG")), false},
		{"deadline", mock.ErrorResult(context.DeadlineExceeded), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockClient(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(tt.reply)

			err := NewStoreForTest(c).Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("cause lost: %v", err)
			}
		})
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	c := newMockClient(t)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("connection refused"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 120*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected timeout carrying the last ping error, got %v", err)
	}
}

func TestServerErrorContains(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.Result(mock.RedisError("Unknown Index name")))
	err := NewStoreForTest(c).do(context.Background(), c.B().Arbitrary("FT.INFO").Build()).Error()

	if !serverErrorContains(err, "unknown index name") {
		t.Error("expected case-insensitive match")
	}
	if !serverErrorContains(err, "no such index", "unknown index") {
		t.Error("expected match on any fragment")
	}
	if serverErrorContains(err, "already exists") {
		t.Error("unexpected match")
	}
	if serverErrorContains(context.DeadlineExceeded, "deadline") {
		t.Error("client-side errors are not server errors")
	}
}

func TestModeString(t *testing.T) {
	if modeRediSearch.String() != "redisearch" || modeValkeySearch.String() != "valkey-search" {
		t.Errorf("got %s/%s", modeRediSearch, modeValkeySearch)
	}
}

func TestUpsertPoints_Success(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(5)),
			mock.Result(mock.RedisInt64(5)),
		})

	s := NewStoreForTest(c)
	err := s.UpsertPoints(context.Background(), "faq:idx", []db.Point{
		{Key: "faq:doc:1", Vector: []float32{0.1, 0.2}, Fields: map[string]string{"question": "q1"}},
		{Key: "faq:doc:2", Vector: []float32{0.3, 0.4}, Fields: map[string]string{"question": "q2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertPoints_ItemError(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(5)),
			mock.Result(mock.RedisError("OOM command not allowed")),
		})

	s := NewStoreForTest(c)
	err := s.UpsertPoints(context.Background(), "faq:idx", []db.Point{
		{Key: "faq:doc:1", Fields: map[string]string{"question": "q1"}},
		{Key: "faq:doc:2", Fields: map[string]string{"question": "q2"}},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "faq:doc:2") {
		t.Errorf("error should name the failing key: %v", err)
	}
}

func TestUpsertPoints_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.UpsertPoints(context.Background(), "faq:idx", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertPoints_MissingKey(t *testing.T) {
	s := NewStoreForTest(nil)
	err := s.UpsertPoints(context.Background(), "faq:idx", []db.Point{{Fields: map[string]string{"a": "b"}}})
	if err == nil {
		t.Fatal("expected error")
	}
}

const cacheKey = "emb:text-embedding-3-small:9f86d081"

func TestGet_CachedVector(t *testing.T) {
	c := newMockClient(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", cacheKey)).
		Return(mock.Result(mock.RedisBlobString("\x00\x00\x80\x3f")))

	data, err := NewStoreForTest(c).Get(context.Background(), cacheKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("got %d bytes, want 4", len(data))
	}
}

func TestGet_Miss(t *testing.T) {
	c := newMockClient(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", cacheKey)).
		Return(mock.Result(mock.RedisNil()))

	if _, err := NewStoreForTest(c).Get(context.Background(), cacheKey); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		cmd  []string
	}{
		{"expiring", time.Minute, []string{"SET", cacheKey, "vec", "EX", "60"}},
		{"persistent", 0, []string{"SET", cacheKey, "vec"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockClient(t)
			c.EXPECT().
				Do(gomock.Any(), mock.Match(tt.cmd...)).
				Return(mock.Result(mock.RedisString("OK")))

			if err := NewStoreForTest(c).SetWithTTL(context.Background(), cacheKey, []byte("vec"), tt.ttl); err != nil {
				t.Fatalf("SetWithTTL: %v", err)
			}
		})
	}
}

func TestSet_StoreError(t *testing.T) {
	c := newMockClient(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", cacheKey, "vec")).
		Return(mock.Result(mock.RedisError("READONLY You can't write against a read only replica")))

	if err := NewStoreForTest(c).Set(context.Background(), cacheKey, []byte("vec")); !isDBError(err) {
		t.Errorf("Set() error = %v, want db.Error", err)
	}
}

func faqIndex() *db.IndexDefinition {
	def, err := db.NewIndex("faq:idx").
		Prefix("faq:doc:").
		Tags("category", "source").
		Vector(db.VectorField, db.VectorAlias, db.VectorSpec{Dim: 4, M: 16, EFConstruct: 200}).
		Build()
	if err != nil {
		panic(err)
	}
	return def
}

func TestEnsureIndex_Creates(t *testing.T) {
	c := newMockClient(t)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "faq:idx")).
			Return(mock.Result(mock.RedisError("Unknown Index name"))),
		c.EXPECT().
			Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
				return cmd[0] == "FT.CREATE" && cmd[1] == "faq:idx"
			})).
			Return(mock.Result(mock.RedisString("OK"))),
	)

	s := NewStoreForTest(c)
	created, err := s.EnsureIndex(context.Background(), faqIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
}

func TestEnsureIndex_AlreadyPresent(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "faq:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("faq:idx"))))

	s := NewStoreForTest(c)
	created, err := s.EnsureIndex(context.Background(), faqIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
}

func TestEnsureIndex_LostRace(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "faq:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	created, err := s.EnsureIndex(context.Background(), faqIndex())
	if err != nil || created {
		t.Fatalf("got created=%v err=%v", created, err)
	}
}

func TestEnsureIndex_InfoError(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "faq:idx")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if _, err := s.EnsureIndex(context.Background(), faqIndex()); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestCreateArgs_FAQSchema(t *testing.T) {
	args, err := createArgs(faqIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(args, " ")
	want := "faq:idx ON HASH PREFIX 1 faq:doc: SCHEMA " +
		"category TAG CASESENSITIVE source TAG CASESENSITIVE " +
		"__vector AS vector VECTOR HNSW 10 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200"
	if got != want {
		t.Errorf("args:\n got %q\nwant %q", got, want)
	}
}

func TestCreateArgs_Validation(t *testing.T) {
	_, err := createArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = createArgs(&db.IndexDefinition{Name: "test"})
	if err == nil {
		t.Error("expected error for empty fields")
	}
}

func TestSearchKNN_Success(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*=>[KNN 3 @vector $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1), // total
			mock.RedisString("faq:doc:1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"),
				mock.RedisString("question"),
				mock.RedisString("How do I cancel?"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "faq:idx",
		Vector:       []float32{0.1, 0.2},
		K:            3,
		ReturnFields: []string{"question"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	e := result.Entries[0]
	if e.Key != "faq:doc:1" || e.Fields["question"] != "How do I cancel?" {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, ok := e.Fields[db.VectorScoreField]; ok {
		t.Error("score pseudo-field should be stripped")
	}
	// cosine distance 0.1 maps to similarity 0.9
	if e.Score < 0.89 || e.Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", e.Score)
	}
}

func TestSearchKNN_RawScoresWithFilter(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" &&
				cmd[2] == `(@category:{Konto} @source:{help\ center})=>[KNN 2 @vector $BLOB]`
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("faq:doc:1"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.25")),
		)))

	expr, err := filter.Build("Konto", "help center")
	if err != nil {
		t.Fatal(err)
	}

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "faq:idx",
		Filters:   expr,
		Vector:    []float32{1},
		K:         2,
		RawScores: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].Score != 0.25 {
		t.Errorf("expected raw distance 0.25, got %f", result.Entries[0].Score)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestParseKNNReply_MissingScoreIsNaN(t *testing.T) {
	tests := []struct {
		name   string
		fields []rueidis.RedisMessage
	}{
		{"absent", []rueidis.RedisMessage{
			mock.RedisString("question"), mock.RedisString("q"),
			mock.RedisString("answer"), mock.RedisString("a"),
		}},
		{"unparseable", []rueidis.RedisMessage{
			mock.RedisString("question"), mock.RedisString("q"),
			mock.RedisString("__vector_score"), mock.RedisString("n/a"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := []rueidis.RedisMessage{
				mock.RedisInt64(1),
				mock.RedisString("faq:doc:1"),
				mock.RedisArray(tt.fields...),
			}
			for _, raw := range []bool{true, false} {
				res, err := parseKNNReply(reply, raw)
				if err != nil {
					t.Fatalf("parseKNNReply: %v", err)
				}
				if len(res.Entries) != 1 {
					t.Fatalf("got %d entries, want 1", len(res.Entries))
				}
				if !math.IsNaN(res.Entries[0].Score) {
					t.Errorf("rawScores=%v: Score = %v, want NaN", raw, res.Entries[0].Score)
				}
				if _, ok := res.Entries[0].Fields["__vector_score"]; ok {
					t.Error("score pseudo-field must not leak into fields")
				}
			}
		})
	}
}

func TestSearchKNN_UnknownIndex(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("faq:idx: no such index")))
	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c)
	q := &db.KNNQuery{IndexName: "faq:idx", Vector: []float32{1}, K: 1}

	if _, err := s.SearchKNN(context.Background(), q); !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
	if _, err := s.SearchKNN(context.Background(), q); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	tests := []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{IndexName: "idx", K: 1},
		{IndexName: "idx", Vector: []float32{1}},
	}
	for _, q := range tests {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("expected error for %+v", q)
		}
	}
}

func TestCount_Redis(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "faq:idx", "*", "LIMIT", "0", "0")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(29))))

	s := NewStoreForTest(c)
	count, err := s.Count(context.Background(), "faq:idx", "faq:doc:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 29 {
		t.Errorf("expected 29, got %d", count)
	}
}

func TestCount_ValkeyScans(t *testing.T) {
	c := newMockClient(t)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && cmd[3] == "faq:doc:*"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("faq:doc:1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("faq:doc:2"), mock.RedisString("faq:doc:3")),
			))
		}).Times(2)

	s := NewValkeyStoreForTest(c)
	count, err := s.Count(context.Background(), "faq:idx", "faq:doc:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}

func TestTagValues_Redis(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.TAGVALS", "faq:idx", "category")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("Versand"),
			mock.RedisString("Konto"),
			mock.RedisString("Konto"),
		)))

	s := NewStoreForTest(c)
	values, err := s.TagValues(context.Background(), "faq:idx", "faq:doc:", "category")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(values, ",") != "Konto,Versand" {
		t.Errorf("unexpected values %v", values)
	}
}

func TestTagValues_ValkeyReadsHashes(t *testing.T) {
	c := newMockClient(t)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("faq:doc:1"), mock.RedisString("faq:doc:2"), mock.RedisString("faq:doc:3")),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisString("Zahlung"))),
			mock.Result(mock.RedisArray(mock.RedisNil())),
			mock.Result(mock.RedisArray(mock.RedisString("Konto"))),
		})

	s := NewValkeyStoreForTest(c)
	values, err := s.TagValues(context.Background(), "faq:idx", "faq:doc:", "category")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(values, ",") != "Konto,Zahlung" {
		t.Errorf("unexpected values %v", values)
	}
}

func TestBuildFilter_Nil(t *testing.T) {
	if got := buildFilter(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := buildFilter(&filter.Expression{}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestBuildFilter_SingleTag(t *testing.T) {
	expr, _ := filter.Build("billing", "")
	if got := buildFilter(expr); got != `@category:{billing}` {
		t.Errorf("unexpected filter: %q", got)
	}
}

func TestBuildTagFilter_Escapes(t *testing.T) {
	got := buildTagFilter("source", "faq-v2.0 (de)")
	want := `@source:{faq\-v2\.0\ \(de\)}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestVectorToBytes(t *testing.T) {
	v := []float32{1.0, 2.0}
	b := vectorToBytes(v)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	// 1.0f little-endian is 00 00 80 3f
	if b[0] != 0x00 || b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("unexpected encoding % x", b[:4])
	}
}

func newMockClient(t *testing.T) *mock.Client {
	t.Helper()
	return mock.NewClient(gomock.NewController(t))
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
