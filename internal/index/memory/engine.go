// Package memory is an in-process index engine over roaring posting lists.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/engine"
	"github.com/kailas-cloud/propdex/internal/metrics"
)

type entry struct {
	uri    string
	stored []document.Field
	terms  [][2]string
}

// Engine indexes documents in memory. Stored entries are returned in insertion order.
// It is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	docs     map[uint32]*entry
	byURI    map[string]uint32
	nextID   uint32
	live     *roaring.Bitmap
	postings map[string]map[string]*roaring.Bitmap
	sorted   map[string]map[uint32][]byte
	numeric  map[string]map[uint32]int64
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		docs:     make(map[uint32]*entry),
		byURI:    make(map[string]uint32),
		live:     roaring.New(),
		postings: make(map[string]map[string]*roaring.Bitmap),
		sorted:   make(map[string]map[uint32][]byte),
		numeric:  make(map[string]map[uint32]int64),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index adds doc, replacing the document with the same uri.
func (e *Engine) Index(_ context.Context, doc *document.Document) error {
	uri := engine.StoredURI(doc.Stored())
	if uri == "" {
		return fmt.Errorf("document has no stored uri")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.add(uri, doc)
	return nil
}

// IndexAll adds docs under one lock. Nothing is added when a document has no uri.
func (e *Engine) IndexAll(_ context.Context, docs []*document.Document) error {
	uris := make([]string, len(docs))
	for i, doc := range docs {
		if uris[i] = engine.StoredURI(doc.Stored()); uris[i] == "" {
			return fmt.Errorf("document %d has no stored uri", i)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, doc := range docs {
		e.add(uris[i], doc)
	}
	return nil
}

func (e *Engine) add(uri string, doc *document.Document) {
	if old, ok := e.byURI[uri]; ok {
		e.remove(old)
	}
	id := e.nextID
	e.nextID++

	ent := &entry{uri: uri}
	for _, f := range doc.Fields() {
		switch f.Kind {
		case document.Indexed:
			terms, ok := e.postings[f.Name]
			if !ok {
				terms = make(map[string]*roaring.Bitmap)
				e.postings[f.Name] = terms
			}
			bm, ok := terms[f.Text]
			if !ok {
				bm = roaring.New()
				terms[f.Text] = bm
			}
			bm.Add(id)
			ent.terms = append(ent.terms, [2]string{f.Name, f.Text})
		case document.Stored:
			ent.stored = append(ent.stored, f)
		case document.SortedDocValue:
			dv, ok := e.sorted[f.Name]
			if !ok {
				dv = make(map[uint32][]byte)
				e.sorted[f.Name] = dv
			}
			dv[id] = f.Bytes
		case document.NumericDocValue:
			dv, ok := e.numeric[f.Name]
			if !ok {
				dv = make(map[uint32]int64)
				e.numeric[f.Name] = dv
			}
			dv[id] = f.Num
		}
	}

	e.docs[id] = ent
	e.byURI[uri] = id
	e.live.Add(id)
}

// Delete removes the document of uri. It reports whether one existed.
func (e *Engine) Delete(_ context.Context, uri string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.byURI[uri]
	if !ok {
		return false, nil
	}
	e.remove(id)
	return true, nil
}

func (e *Engine) remove(id uint32) {
	ent := e.docs[id]
	for _, ft := range ent.terms {
		terms := e.postings[ft[0]]
		bm, ok := terms[ft[1]]
		if !ok {
			continue
		}
		bm.Remove(id)
		if bm.IsEmpty() {
			delete(terms, ft[1])
		}
	}
	for _, dv := range e.sorted {
		delete(dv, id)
	}
	for _, dv := range e.numeric {
		delete(dv, id)
	}
	delete(e.docs, id)
	delete(e.byURI, ent.uri)
	e.live.Remove(id)
}

// Len returns the number of documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return int(e.live.GetCardinality())
}

// Get returns the stored entries of uri.
func (e *Engine) Get(_ context.Context, uri string) ([]document.Field, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.byURI[uri]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(e.docs[id].stored), true, nil
}

// Count returns the number of documents matched by c.
func (e *Engine) Count(_ context.Context, c clause.Clause) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bm, err := e.eval(c)
	if err != nil {
		return 0, err
	}
	return int(bm.GetCardinality()), nil
}

// Match returns the uris matched by c in index order.
func (e *Engine) Match(c clause.Clause) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bm, err := e.eval(c)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, e.docs[it.Next()].uri)
	}
	return out, nil
}

// Search runs a compiled request.
func (e *Engine) Search(ctx context.Context, req engine.Request) (*engine.Result, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues("memory").Observe(time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	bm, err := e.eval(req.Clause)
	if err != nil {
		return nil, err
	}
	ids := bm.ToArray()
	e.sortIDs(ids, req.Sort)

	res := &engine.Result{Total: len(ids)}
	if req.Offset >= len(ids) {
		return res, nil
	}
	ids = ids[req.Offset:]
	if req.Limit > 0 && len(ids) > req.Limit {
		ids = ids[:req.Limit]
	}
	res.Hits = make([]engine.Hit, 0, len(ids))
	for _, id := range ids {
		ent := e.docs[id]
		stored := ent.stored
		if req.Visitor != nil {
			stored = document.VisitStored(stored, req.Visitor)
		} else {
			stored = slices.Clone(stored)
		}
		res.Hits = append(res.Hits, engine.Hit{URI: ent.uri, Stored: stored})
	}
	return res, nil
}

// sortIDs orders ids by keys, then by uri. Missing values sort last.
func (e *Engine) sortIDs(ids []uint32, keys []clause.SortKey) {
	slices.SortStableFunc(ids, func(a, b uint32) int {
		for _, k := range keys {
			if c := e.compareKey(k, a, b); c != 0 {
				return c
			}
		}
		return cmp.Compare(e.docs[a].uri, e.docs[b].uri)
	})
}

func (e *Engine) compareKey(k clause.SortKey, a, b uint32) int {
	var c int
	if k.Numeric {
		va, okA := e.numeric[k.Field][a]
		vb, okB := e.numeric[k.Field][b]
		if r, decided := missingLast(okA, okB); decided {
			return r
		}
		c = cmp.Compare(va, vb)
	} else {
		va, okA := e.sorted[k.Field][a]
		vb, okB := e.sorted[k.Field][b]
		if r, decided := missingLast(okA, okB); decided {
			return r
		}
		c = bytes.Compare(va, vb)
	}
	if k.Descending {
		return -c
	}
	return c
}

func missingLast(okA, okB bool) (int, bool) {
	switch {
	case okA && okB:
		return 0, false
	case okA:
		return -1, true
	case okB:
		return 1, true
	default:
		return 0, true
	}
}
