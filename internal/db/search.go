package db

import "time"

// SearchQuery is a paginated FT.SEARCH request over JSON documents.
// Query uses the FT query syntax of DIALECT 2.
type SearchQuery struct {
	Index  string
	Query  string
	Offset int
	Limit  int
	// Timeout bounds the server-side execution; zero keeps the server default.
	Timeout time.Duration
}

// SearchResult holds FT.SEARCH output.
type SearchResult struct {
	// Total counts all matches, not only the returned page.
	Total int
	Hits  []Document
}
