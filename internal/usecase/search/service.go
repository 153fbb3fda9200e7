// Package search indexes property sets and answers search requests over an index engine.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/engine"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
	"github.com/kailas-cloud/propdex/internal/metrics"
)

const (
	defaultLimit = 100
	defaultMax   = 1000
)

// Item is one resource to index.
type Item struct {
	Set property.Set
	Acl *acl.Acl
}

// Result is one page of a search.
type Result struct {
	// Total counts every match, not only the returned page.
	Total int
	Items []*mapper.LazyMappedPropertySet
}

// Service builds documents, compiles queries and loads hits.
type Service struct {
	engine       Engine
	mapper       Mapper
	compiler     Compiler
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLimits sets the page size used when a search names none, and the largest
// accepted page size.
func WithLimits(def, maxLimit int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultLimit = def
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// New creates a search service.
func New(e Engine, m Mapper, c Compiler, opts ...Option) *Service {
	s := &Service{
		engine: e, mapper: m, compiler: c,
		defaultLimit: defaultLimit, maxLimit: defaultMax,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) build(ps property.Set, entries *acl.Acl) (*document.Document, error) {
	doc, err := s.mapper.GetDocument(ps, entries)
	if err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build document %s: %w", ps.URI(), err)
	}
	return doc, nil
}

// Index maps ps and its acl into a document and stores it, replacing any
// document with the same uri.
func (s *Service) Index(ctx context.Context, ps property.Set, entries *acl.Acl) error {
	doc, err := s.build(ps, entries)
	if err != nil {
		return err
	}
	if err := s.engine.Index(ctx, doc); err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("index %s: %w", ps.URI(), err)
	}
	metrics.DocumentsIndexedTotal.WithLabelValues("ok").Inc()
	s.logger.Debug("resource indexed", zap.String("uri", ps.URI()), zap.Int("fields", doc.Len()))
	return nil
}

// IndexAll maps every item first and stores the documents in one engine call.
// Nothing is stored when any item fails to map.
func (s *Service) IndexAll(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]*document.Document, 0, len(items))
	for _, it := range items {
		doc, err := s.build(it.Set, it.Acl)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if err := s.engine.IndexAll(ctx, docs); err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Add(float64(len(docs)))
		return fmt.Errorf("index %d resources: %w", len(docs), err)
	}
	metrics.DocumentsIndexedTotal.WithLabelValues("ok").Add(float64(len(docs)))
	s.logger.Debug("resources indexed", zap.Int("count", len(docs)))
	return nil
}

// Delete removes the document of uri and reports whether it existed.
func (s *Service) Delete(ctx context.Context, uri string) (bool, error) {
	existed, err := s.engine.Delete(ctx, uri)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", uri, err)
	}
	return existed, nil
}

// Get loads the indexed property set of uri restricted to sel. A nil sel loads everything.
func (s *Service) Get(ctx context.Context, uri string, sel property.Select) (*mapper.LazyMappedPropertySet, bool, error) {
	stored, ok, err := s.engine.Get(ctx, uri)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", uri, err)
	}
	if !ok {
		return nil, false, nil
	}
	stored = document.VisitStored(stored, s.mapper.NewStoredFieldVisitor(sel))
	ps, err := s.mapper.GetPropertySet(stored)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", uri, err)
	}
	return ps, true, nil
}

// Search compiles req, runs it and wraps every hit in a lazily decoded property set.
func (s *Service) Search(ctx context.Context, req *query.Search) (*Result, error) {
	if err := req.Validate(s.maxLimit); err != nil {
		return nil, err
	}
	c, err := s.compiler.Compile(req.Query)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	keys, err := s.compiler.Sort(req.Sort)
	if err != nil {
		return nil, fmt.Errorf("compile sort: %w", err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	res, err := s.engine.Search(ctx, engine.Request{
		Clause:  c,
		Sort:    keys,
		Visitor: s.mapper.NewStoredFieldVisitor(req.Select),
		Offset:  req.Offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := &Result{Total: res.Total, Items: make([]*mapper.LazyMappedPropertySet, 0, len(res.Hits))}
	for _, h := range res.Hits {
		ps, err := s.mapper.GetPropertySet(h.Stored)
		if err != nil {
			s.logger.Warn("skipping unloadable hit", zap.String("uri", h.URI), zap.Error(err))
			continue
		}
		out.Items = append(out.Items, ps)
	}
	s.logger.Debug("search completed",
		zap.Stringer("clause", c), zap.Int("total", out.Total), zap.Int("returned", len(out.Items)))
	return out, nil
}

// Count returns the number of resources matching q.
func (s *Service) Count(ctx context.Context, q query.Query) (int, error) {
	c, err := s.compiler.Compile(q)
	if err != nil {
		return 0, fmt.Errorf("compile query: %w", err)
	}
	n, err := s.engine.Count(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
