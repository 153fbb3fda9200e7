package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propdex/internal/db"
)

const rootPath = "$"

func (s *Store) jsonSet(doc db.Document) rueidis.Completed {
	return s.b().JsonSet().Key(doc.Key).Path(rootPath).Value(string(doc.Data)).Build()
}

// PutDocument stores doc as the whole JSON value of its key.
func (s *Store) PutDocument(ctx context.Context, doc db.Document) error {
	if err := s.do(ctx, s.jsonSet(doc)).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", doc.Key, err)}
	}
	return nil
}

// PutDocuments pipelines JSON.SET for all docs in one round trip.
// Documents before a failing one may already be written.
func (s *Store) PutDocuments(ctx context.Context, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, len(docs))
	for i, doc := range docs {
		cmds[i] = s.jsonSet(doc)
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", docs[i].Key, err)}
		}
	}
	return nil
}

// GetDocument returns the JSON value stored at key.
func (s *Store) GetDocument(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().JsonGet().Key(key).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// DeleteDocument deletes key and reports whether it existed.
func (s *Store) DeleteDocument(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Del().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Err: err}
	}
	return n > 0, nil
}
