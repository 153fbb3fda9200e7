package propdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/propdex/internal/domain/search/query"
)

// SearchBuilder is a fluent builder for one search request.
type SearchBuilder struct {
	client *Client
	q      Query
	sort   []SortField
	sel    Select
	offset int
	limit  int
}

// SortBy appends sort keys. Earlier keys take precedence.
func (b *SearchBuilder) SortBy(fields ...SortField) *SearchBuilder {
	b.sort = append(b.sort, fields...)
	return b
}

// Select restricts the properties loaded for every hit.
func (b *SearchBuilder) Select(sel Select) *SearchBuilder {
	b.sel = sel
	return b
}

// Offset skips the first n hits.
func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.offset = n
	return b
}

// Limit sets the page size. Zero uses the client default.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*Result, error) {
	res, err := b.client.svc.Search(ctx, &query.Search{
		Query:  b.q,
		Sort:   b.sort,
		Select: b.sel,
		Offset: b.offset,
		Limit:  b.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// URIs executes the search and returns only the matching uris.
func (b *SearchBuilder) URIs(ctx context.Context) ([]string, error) {
	res, err := b.Select(SelectNone).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(res.Items))
	for i, ps := range res.Items {
		out[i] = ps.URI()
	}
	return out, nil
}
