package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propdex/internal/db"
)

const dialect = "2"

func searchArgs(q *db.SearchQuery) ([]string, error) {
	switch {
	case q.Index == "":
		return nil, errors.New("index name is required")
	case q.Query == "":
		return nil, errors.New("query is required")
	case q.Offset < 0 || q.Limit < 0:
		return nil, errors.New("offset and limit must not be negative")
	}

	args := []string{q.Index, q.Query}
	if q.Timeout > 0 {
		args = append(args, "TIMEOUT", strconv.FormatInt(q.Timeout.Milliseconds(), 10))
	}
	return append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", dialect,
	), nil
}

// Search performs a paginated FT.SEARCH and returns the matched JSON documents.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	args, err := searchArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseSearchReply(raw)
}

// SearchCount returns the number of matches via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	args, err := searchArgs(&db.SearchQuery{Index: index, Query: query})
	if err != nil {
		return 0, err
	}
	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseSearchReply reads the RESP2 reply [total, key1, ["$", json1], key2, ...].
// Entries without a root document are skipped.
func parseSearchReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	hits := make([]db.Document, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		data, ok := rootDocument(raw[i+1])
		if !ok {
			continue
		}
		hits = append(hits, db.Document{Key: key, Data: data})
	}
	return &db.SearchResult{Total: int(total), Hits: hits}, nil
}

func rootDocument(msg rueidis.RedisMessage) ([]byte, bool) {
	fields, err := msg.ToArray()
	if err != nil {
		return nil, false
	}
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil || name != rootPath {
			continue
		}
		v, err := fields[j+1].ToString()
		if err != nil {
			return nil, false
		}
		return []byte(v), true
	}
	return nil, false
}
