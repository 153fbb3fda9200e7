// Package engine holds the request and result types shared by index engines.
package engine

import (
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// Request is a compiled search.
type Request struct {
	Clause clause.Clause
	Sort   []clause.SortKey
	// Visitor selects the stored entries returned per hit. Nil returns all of them.
	Visitor document.StoredFieldVisitor
	Offset  int
	Limit   int
}

// Hit is one matched document.
type Hit struct {
	URI string
	// Stored holds the selected stored entries in insertion order.
	Stored []document.Field
}

// Result is one page of hits.
type Result struct {
	Total int
	Hits  []Hit
}

// StoredURI returns the uri entry of stored, or "".
func StoredURI(stored []document.Field) string {
	for _, f := range stored {
		if f.Name == fields.URIField && f.Kind == document.Stored {
			return f.Text
		}
	}
	return ""
}
