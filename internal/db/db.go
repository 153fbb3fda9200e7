// Package db defines the storage contract of the Redis index: JSON documents
// addressed by key, schema metadata and the FT index over them.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers use the narrow sub-interfaces
type Store interface {
	Pinger
	DocumentStore
	MetaStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a JSON document and the key it is stored under.
type Document struct {
	Key  string
	Data []byte
}

// DocumentStore keeps whole JSON documents at the root path.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc Document) error
	// PutDocuments writes all docs in one round trip.
	PutDocuments(ctx context.Context, docs []Document) error
	// GetDocument returns ErrKeyNotFound when key holds no document.
	GetDocument(ctx context.Context, key string) ([]byte, error)
	// DeleteDocument removes key and reports whether it existed.
	DeleteDocument(ctx context.Context, key string) (bool, error)
}

// MetaStore keeps string metadata in hash fields.
type MetaStore interface {
	// GetMeta returns ErrKeyNotFound when the field is unset.
	GetMeta(ctx context.Context, key, field string) (string, error)
	SetMeta(ctx context.Context, key, field, value string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
