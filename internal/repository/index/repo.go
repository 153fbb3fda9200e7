// Package index stores index documents in Redis as JSON and searches them
// through a RediSearch index.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/db"
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/engine"
	"github.com/kailas-cloud/propdex/internal/metrics"
)

// store is the consumer interface for the Redis index (ISP).
//
//nolint:interfacebloat // documents, schema fingerprint and index lifecycle live in one store
type store interface {
	PutDocument(ctx context.Context, doc db.Document) error
	PutDocuments(ctx context.Context, docs []db.Document) error
	GetDocument(ctx context.Context, key string) ([]byte, error)
	DeleteDocument(ctx context.Context, key string) (bool, error)
	GetMeta(ctx context.Context, key, field string) (string, error)
	SetMeta(ctx context.Context, key, field, value string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

const defaultMaxResults = 10000

// Repo is an index engine over Redis. It is safe for concurrent use.
type Repo struct {
	store        store
	schema       atomic.Pointer[Schema]
	maxResults   int
	queryTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// WithMaxResults caps the page size of searches that request no limit.
func WithMaxResults(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithQueryTimeout bounds server-side search execution.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Repo) { r.queryTimeout = d }
}

// New creates a Redis index repository over schema.
func New(s store, schema *Schema, opts ...Option) *Repo {
	r := &Repo{store: s, maxResults: defaultMaxResults, logger: zap.NewNop()}
	r.schema.Store(schema)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schema returns the current schema.
func (r *Repo) Schema() *Schema { return r.schema.Load() }

// SetSchema replaces the schema. Call EnsureIndex to apply it to Redis.
func (r *Repo) SetSchema(s *Schema) { r.schema.Store(s) }

func (r *Repo) key(uri string) string {
	return r.schema.Load().Prefix() + uri
}

// metaKey is the hash holding schema fingerprints. Hashes are invisible to
// the JSON index even though the key shares its prefix.
func metaKey(s *Schema) string { return s.Prefix() + "_meta" }

func fingerprintField(s *Schema) string { return "fingerprint:" + s.Name() }

// EnsureIndex creates the FT index, or recreates it when the stored fingerprint
// differs from the current schema. It reports whether FT.CREATE ran.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	s := r.schema.Load()
	fp := s.Fingerprint()

	exists, err := r.store.IndexExists(ctx, s.Name())
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", s.Name(), err)
	}
	if exists {
		cur, err := r.store.GetMeta(ctx, metaKey(s), fingerprintField(s))
		switch {
		case err == nil && cur == fp:
			return false, nil
		case err != nil && !errors.Is(err, db.ErrKeyNotFound):
			return false, fmt.Errorf("get schema fingerprint: %w", err)
		}
		r.logger.Info("index schema changed, recreating",
			zap.String("index", s.Name()), zap.String("fingerprint", fp))
		if err := r.store.DropIndex(ctx, s.Name()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return false, fmt.Errorf("drop index %s: %w", s.Name(), err)
		}
	}

	if err := r.store.CreateIndex(ctx, s.Definition()); err != nil {
		if !errors.Is(err, db.ErrIndexExists) {
			return false, fmt.Errorf("create index %s: %w", s.Name(), err)
		}
		r.logger.Warn("index created concurrently", zap.String("index", s.Name()))
	}
	if err := r.store.SetMeta(ctx, metaKey(s), fingerprintField(s), fp); err != nil {
		return false, fmt.Errorf("set schema fingerprint: %w", err)
	}
	return true, nil
}

// HealthCheck fails when the FT index of the current schema is missing.
func (r *Repo) HealthCheck(ctx context.Context) error {
	s := r.schema.Load()
	ok, err := r.store.IndexExists(ctx, s.Name())
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.Name(), err)
	}
	if !ok {
		return fmt.Errorf("index %s: %w", s.Name(), db.ErrIndexNotFound)
	}
	return nil
}

func (r *Repo) marshal(doc *document.Document) (string, []byte, error) {
	uri := engine.StoredURI(doc.Stored())
	if uri == "" {
		return "", nil, fmt.Errorf("document has no stored uri")
	}
	jd, skipped := buildJSONDoc(r.schema.Load(), uri, doc)
	if skipped > 0 {
		r.logger.Debug("indexed terms outside the schema dropped",
			zap.String("uri", uri), zap.Int("terms", skipped))
	}
	data, err := json.Marshal(jd)
	if err != nil {
		return "", nil, fmt.Errorf("marshal document %s: %w", uri, err)
	}
	return uri, data, nil
}

// Index stores doc, replacing the document with the same uri.
func (r *Repo) Index(ctx context.Context, doc *document.Document) error {
	uri, data, err := r.marshal(doc)
	if err != nil {
		return err
	}
	if err := r.store.PutDocument(ctx, db.Document{Key: r.key(uri), Data: data}); err != nil {
		return fmt.Errorf("json.set %s: %w", uri, err)
	}
	return nil
}

// IndexAll stores docs in one pipeline.
func (r *Repo) IndexAll(ctx context.Context, docs []*document.Document) error {
	items := make([]db.Document, 0, len(docs))
	for _, doc := range docs {
		uri, data, err := r.marshal(doc)
		if err != nil {
			return err
		}
		items = append(items, db.Document{Key: r.key(uri), Data: data})
	}
	if err := r.store.PutDocuments(ctx, items); err != nil {
		return fmt.Errorf("json.set %d documents: %w", len(items), err)
	}
	return nil
}

// Delete removes the document of uri. It reports whether one existed.
func (r *Repo) Delete(ctx context.Context, uri string) (bool, error) {
	existed, err := r.store.DeleteDocument(ctx, r.key(uri))
	if err != nil {
		return false, fmt.Errorf("del %s: %w", uri, err)
	}
	return existed, nil
}

// Get returns the stored entries of uri.
func (r *Repo) Get(ctx context.Context, uri string) ([]document.Field, bool, error) {
	raw, err := r.store.GetDocument(ctx, r.key(uri))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("json.get %s: %w", uri, err)
	}
	var jd jsonDoc
	if err := json.Unmarshal(raw, &jd); err != nil {
		return nil, false, fmt.Errorf("unmarshal document %s: %w", uri, err)
	}
	return jd.storedFields(), true, nil
}

// Count returns the number of documents matched by c.
func (r *Repo) Count(ctx context.Context, c clause.Clause) (int, error) {
	s := r.schema.Load()
	q, ok, err := s.Query(c)
	if err != nil || !ok {
		return 0, err
	}
	n, err := r.store.SearchCount(ctx, s.Name(), q)
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// Search runs a compiled request. Hits come back in RediSearch order; sort keys
// are rejected.
func (r *Repo) Search(ctx context.Context, req engine.Request) (*engine.Result, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues("redis").Observe(time.Since(start).Seconds()) }()

	if len(req.Sort) > 0 {
		return nil, fmt.Errorf("%w: sorting", domain.ErrUnsupportedClause)
	}

	s := r.schema.Load()
	q, ok, err := s.Query(req.Clause)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &engine.Result{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = r.maxResults
	}
	res, err := r.store.Search(ctx, &db.SearchQuery{
		Index: s.Name(), Query: q, Offset: req.Offset, Limit: limit, Timeout: r.queryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	out := &engine.Result{Total: res.Total, Hits: make([]engine.Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		var jd jsonDoc
		if err := json.Unmarshal(h.Data, &jd); err != nil {
			r.logger.Warn("skipping undecodable document", zap.String("key", h.Key), zap.Error(err))
			continue
		}
		stored := jd.storedFields()
		if req.Visitor != nil {
			stored = document.VisitStored(stored, req.Visitor)
		}
		out.Hits = append(out.Hits, engine.Hit{URI: jd.URI, Stored: stored})
	}
	return out, nil
}
