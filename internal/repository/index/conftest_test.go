package index

import (
	"context"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/propdex/internal/db"
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/resourcetype"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	putDocumentFn    func(ctx context.Context, doc db.Document) error
	putDocumentsFn   func(ctx context.Context, docs []db.Document) error
	getDocumentFn    func(ctx context.Context, key string) ([]byte, error)
	deleteDocumentFn func(ctx context.Context, key string) (bool, error)
	getMetaFn        func(ctx context.Context, key, field string) (string, error)
	setMetaFn        func(ctx context.Context, key, field, value string) error
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn      func(ctx context.Context, name string) error
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	searchFn         func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	searchCountFn    func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) PutDocument(ctx context.Context, doc db.Document) error {
	if m.putDocumentFn != nil {
		return m.putDocumentFn(ctx, doc)
	}
	return nil
}

func (m *mockStore) PutDocuments(ctx context.Context, docs []db.Document) error {
	if m.putDocumentsFn != nil {
		return m.putDocumentsFn(ctx, docs)
	}
	return nil
}

func (m *mockStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	if m.getDocumentFn != nil {
		return m.getDocumentFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) DeleteDocument(ctx context.Context, key string) (bool, error) {
	if m.deleteDocumentFn != nil {
		return m.deleteDocumentFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) GetMeta(ctx context.Context, key, field string) (string, error) {
	if m.getMetaFn != nil {
		return m.getMetaFn(ctx, key, field)
	}
	return "", db.ErrKeyNotFound
}

func (m *mockStore) SetMeta(ctx context.Context, key, field, value string) error {
	if m.setMetaFn != nil {
		return m.setMetaFn(ctx, key, field, value)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

const testTypes = `
namespaces:
  - prefix: dc
    uri: http://purl.org/dc/elements/1.1/
types:
  - name: resource
    properties:
      - name: title
      - name: size
        type: long
      - name: content
        type: binary
      - name: meta
        type: json
        json_attributes:
          pages: long
          author: string
  - name: file
    parent: resource
    properties:
      - namespace: dc
        name: creator
        type: principal
        multiple: true
`

func testTree(t *testing.T) *resourcetype.Tree {
	t.Helper()
	types, namespaces, err := resourcetype.Parse([]byte(testTypes))
	if err != nil {
		t.Fatalf("parse types: %v", err)
	}
	tree, err := resourcetype.NewTree(types, namespaces)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	return tree
}

func testSchema(t *testing.T, tree *resourcetype.Tree) *Schema {
	t.Helper()
	s, err := BuildSchema("propdex-idx", "propdex:res:", tree.Definitions())
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return s
}

func newTestRepo(t *testing.T) (*Repo, *mockStore, *resourcetype.Tree) {
	t.Helper()
	tree := testTree(t)
	ms := &mockStore{}
	return New(ms, testSchema(t, tree), WithMaxResults(50)), ms, tree
}

func testDocument(t *testing.T, tree *resourcetype.Tree, uri string) *document.Document {
	t.Helper()
	m := mapper.New(tree, fields.NewCodec(language.English, time.UTC))
	title, _ := tree.Definition("", "title")
	size, _ := tree.Definition("", "size")
	ps := property.NewResource(uri, "file").Add(
		property.Must(title, value.NewString("Quarterly Report")),
		property.Must(size, value.NewLong(42)),
	)
	doc, err := m.GetDocument(ps, acl.New().Grant(acl.Read, acl.NewUser("alice")))
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	return doc
}
