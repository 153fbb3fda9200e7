package index

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/propdex/internal/db"
	dbredis "github.com/kailas-cloud/propdex/internal/db/redis"
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/engine"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

func TestIndex_StoresJSONDocument(t *testing.T) {
	repo, ms, tree := newTestRepo(t)
	doc := testDocument(t, tree, "/docs/report")

	var gotKey string
	var gotData []byte
	ms.putDocumentFn = func(_ context.Context, d db.Document) error {
		gotKey, gotData = d.Key, d.Data
		return nil
	}

	if err := repo.Index(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "propdex:res:/docs/report" {
		t.Errorf("key = %q", gotKey)
	}

	var jd jsonDoc
	if err := json.Unmarshal(gotData, &jd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if jd.URI != "/docs/report" {
		t.Errorf("uri = %q", jd.URI)
	}
	if len(jd.Stored) != len(doc.Stored()) {
		t.Fatalf("stored entries = %d, want %d", len(jd.Stored), len(doc.Stored()))
	}
	for i, f := range doc.Stored() {
		if jd.Stored[i].Name != f.Name {
			t.Errorf("stored[%d] = %q, want %q", i, jd.Stored[i].Name, f.Name)
		}
	}

	s := repo.Schema()
	if got := jd.Tags[s.attrs[fields.URIField].tag]; len(got) != 1 || got[0] != "/docs/report" {
		t.Errorf("uri tag = %v", got)
	}
	if got := jd.Nums[s.attrs[fields.URIDepthField].numeric]; len(got) != 1 || got[0] != 2 {
		t.Errorf("uriDepth numeric = %v", got)
	}
	if got := jd.Tags[s.attrs[fields.URIDepthField].tag]; len(got) != 1 || got[0] != fields.EncodeNumeric(2) {
		t.Errorf("uriDepth tag = %v", got)
	}
}

func TestIndex_RequiresURI(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	doc := document.New(document.Field{Name: "x", Kind: document.Stored, Text: "y"})
	if err := repo.Index(context.Background(), doc); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndex_StoreError(t *testing.T) {
	repo, ms, tree := newTestRepo(t)
	ms.putDocumentFn = func(context.Context, db.Document) error {
		return &db.Error{Op: db.OpJSONSet, Err: context.DeadlineExceeded}
	}
	err := repo.Index(context.Background(), testDocument(t, tree, "/a"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

func TestIndexAll_Pipelines(t *testing.T) {
	repo, ms, tree := newTestRepo(t)
	var keys []string
	ms.putDocumentsFn = func(_ context.Context, items []db.Document) error {
		for _, it := range items {
			keys = append(keys, it.Key)
		}
		return nil
	}

	docs := []*document.Document{testDocument(t, tree, "/a"), testDocument(t, tree, "/b")}
	if err := repo.IndexAll(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "propdex:res:/a" || keys[1] != "propdex:res:/b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestDelete(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.deleteDocumentFn = func(_ context.Context, key string) (bool, error) {
		return key == "propdex:res:/a", nil
	}

	existed, err := repo.Delete(context.Background(), "/a")
	if err != nil || !existed {
		t.Errorf("Delete(/a) = %v, %v", existed, err)
	}
	existed, err = repo.Delete(context.Background(), "/b")
	if err != nil || existed {
		t.Errorf("Delete(/b) = %v, %v", existed, err)
	}
}

func TestGet(t *testing.T) {
	repo, ms, tree := newTestRepo(t)
	doc := testDocument(t, tree, "/a")
	jd, _ := buildJSONDoc(repo.Schema(), "/a", doc)
	data, err := json.Marshal(jd)
	if err != nil {
		t.Fatal(err)
	}
	ms.getDocumentFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "propdex:res:/a" {
			return nil, db.ErrKeyNotFound
		}
		return data, nil
	}

	stored, ok, err := repo.Get(context.Background(), "/a")
	if err != nil || !ok {
		t.Fatalf("Get(/a) = %v, %v", ok, err)
	}
	want := doc.Stored()
	if len(stored) != len(want) {
		t.Fatalf("stored = %d entries, want %d", len(stored), len(want))
	}
	for i := range want {
		if stored[i].Name != want[i].Name || stored[i].StoredValue() != want[i].StoredValue() ||
			stored[i].Numeric != want[i].Numeric {
			t.Errorf("stored[%d] = %v, want %v", i, stored[i], want[i])
		}
	}

	_, ok, err = repo.Get(context.Background(), "/missing")
	if err != nil || ok {
		t.Errorf("Get(/missing) = %v, %v", ok, err)
	}
}

func TestSearch_RendersAndDecodes(t *testing.T) {
	repo, ms, tree := newTestRepo(t)
	jd, _ := buildJSONDoc(repo.Schema(), "/a", testDocument(t, tree, "/a"))
	data, err := json.Marshal(jd)
	if err != nil {
		t.Fatal(err)
	}

	var got *db.SearchQuery
	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{Total: 3, Hits: []db.Document{
			{Key: "propdex:res:/a", Data: data},
			{Key: "propdex:res:/broken", Data: []byte("{")},
		}}, nil
	}

	res, err := repo.Search(context.Background(), engine.Request{
		Clause:  clause.Term{Field: fields.TypeField, Text: "file"},
		Offset:  2,
		Visitor: identityVisitor{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Index != "propdex-idx" || got.Offset != 2 || got.Limit != 50 || got.Timeout != 0 {
		t.Errorf("search query = %+v", got)
	}
	if got.Query != "@"+repo.Schema().attrs[fields.TypeField].tag+":{file}" {
		t.Errorf("query = %q", got.Query)
	}
	if res.Total != 3 || len(res.Hits) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Hits[0].URI != "/a" {
		t.Errorf("uri = %q", res.Hits[0].URI)
	}
	for _, f := range res.Hits[0].Stored {
		if f.Name != fields.URIField && f.Name != fields.TypeField {
			t.Errorf("visitor let %q through", f.Name)
		}
	}
}

// identityVisitor keeps the uri and type entries.
type identityVisitor struct{}

func (identityVisitor) NeedsField(name string) document.Status {
	if name == fields.URIField || name == fields.TypeField {
		return document.Yes
	}
	return document.No
}

func TestSearch_MatchNoneSkipsRedis(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.searchFn = func(context.Context, *db.SearchQuery) (*db.SearchResult, error) {
		t.Fatal("store must not be called")
		return nil, nil
	}
	res, err := repo.Search(context.Background(), engine.Request{Clause: clause.MatchNone{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Hits) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSearch_RejectsSort(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	_, err := repo.Search(context.Background(), engine.Request{
		Clause: clause.MatchAll{},
		Sort:   []clause.SortKey{{Field: fields.URIField}},
	})
	if !errors.Is(err, domain.ErrUnsupportedClause) {
		t.Errorf("expected ErrUnsupportedClause, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != "propdex-idx" || query != "*" {
			t.Errorf("count(%q, %q)", index, query)
		}
		return 7, nil
	}
	n, err := repo.Count(context.Background(), clause.MatchAll{})
	if err != nil || n != 7 {
		t.Errorf("Count = %d, %v", n, err)
	}
	n, err = repo.Count(context.Background(), clause.MatchNone{})
	if err != nil || n != 0 {
		t.Errorf("Count(none) = %d, %v", n, err)
	}
}

func TestEnsureIndex(t *testing.T) {
	tests := []struct {
		name        string
		exists      bool
		fingerprint func(s *Schema) string
		wantCreated bool
		wantDrop    bool
	}{
		{"missing index", false, nil, true, false},
		{"same schema", true, func(s *Schema) string { return s.Fingerprint() }, false, false},
		{"changed schema", true, func(*Schema) string { return "stale" }, true, true},
		{"no fingerprint", true, nil, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, ms, _ := newTestRepo(t)
			var created, dropped bool
			var stored string
			ms.indexExistsFn = func(context.Context, string) (bool, error) { return tc.exists, nil }
			ms.getMetaFn = func(_ context.Context, key, field string) (string, error) {
				if key != "propdex:res:_meta" || field != "fingerprint:propdex-idx" || tc.fingerprint == nil {
					return "", db.ErrKeyNotFound
				}
				return tc.fingerprint(repo.Schema()), nil
			}
			ms.dropIndexFn = func(context.Context, string) error { dropped = true; return nil }
			ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
				created = true
				if def.Name != "propdex-idx" {
					t.Errorf("index name = %q", def.Name)
				}
				return nil
			}
			ms.setMetaFn = func(_ context.Context, _, _, v string) error { stored = v; return nil }

			got, err := repo.EnsureIndex(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantCreated || created != tc.wantCreated || dropped != tc.wantDrop {
				t.Errorf("created=%v (ran %v) dropped=%v", got, created, dropped)
			}
			if tc.wantCreated && stored != repo.Schema().Fingerprint() {
				t.Errorf("stored fingerprint = %q", stored)
			}
		})
	}
}

func TestEnsureIndex_Errors(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) {
		return false, &db.Error{Op: db.OpIndexInfo, Err: context.DeadlineExceeded}
	}
	if _, err := repo.EnsureIndex(context.Background()); err == nil {
		t.Error("expected error from FT.INFO")
	}

	ms.indexExistsFn = nil
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }
	if _, err := repo.EnsureIndex(context.Background()); err != nil {
		t.Errorf("concurrent creation should be tolerated, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	if err := repo.HealthCheck(context.Background()); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) { return name == "propdex-idx", nil }
	if err := repo.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSearch_OverRueidis(t *testing.T) {
	tree := testTree(t)
	s := testSchema(t, tree)
	uriTag := s.attrs[fields.URIField].tag

	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "propdex-idx", "-@"+uriTag+`:{\/a}`, "LIMIT", "0", "10", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("propdex:res:/b"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(
				`{"uri":"/b","s":[{"k":"uri","v":"/b"},{"k":"resourceType","v":"file"},{"k":"aclInheritedFrom","i":-1}]}`,
			)),
		)))

	repo := New(dbredis.NewStoreForTest(c), s)
	res, err := repo.Search(context.Background(), engine.Request{
		Clause: clause.Not(clause.Term{Field: fields.URIField, Text: "/a"}),
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Hits) != 1 || res.Hits[0].URI != "/b" {
		t.Fatalf("result = %+v", res)
	}
	last := res.Hits[0].Stored[2]
	if !last.Numeric || last.Num != -1 {
		t.Errorf("numeric stored entry = %v", last)
	}
}

func TestSearch_QueryTimeout(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, testSchema(t, testTree(t)), WithQueryTimeout(2*time.Second))
	var got *db.SearchQuery
	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}
	if _, err := repo.Search(context.Background(), engine.Request{Clause: clause.MatchAll{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Timeout != 2*time.Second || got.Query != "*" || got.Limit != defaultMaxResults {
		t.Errorf("search query = %+v", got)
	}
}
