package search

import (
	"context"

	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/engine"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
)

// Engine stores index documents and executes compiled searches.
type Engine interface {
	Index(ctx context.Context, doc *document.Document) error
	IndexAll(ctx context.Context, docs []*document.Document) error
	Delete(ctx context.Context, uri string) (bool, error)
	Get(ctx context.Context, uri string) ([]document.Field, bool, error)
	Search(ctx context.Context, req engine.Request) (*engine.Result, error)
	Count(ctx context.Context, c clause.Clause) (int, error)
}

// Mapper converts property sets into index documents and stored entries back.
type Mapper interface {
	GetDocument(ps property.Set, entries *acl.Acl) (*document.Document, error)
	GetPropertySet(stored []document.Field) (*mapper.LazyMappedPropertySet, error)
	NewStoredFieldVisitor(sel property.Select) document.StoredFieldVisitor
}

// Compiler compiles query trees and sort fields.
type Compiler interface {
	Compile(q query.Query) (clause.Clause, error)
	Sort(sfs []query.SortField) ([]clause.SortKey, error)
}
