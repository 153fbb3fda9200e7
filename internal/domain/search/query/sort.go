package query

import (
	"fmt"

	"github.com/kailas-cloud/propdex/internal/domain/property"
)

// SortKind selects what a SortField orders by.
type SortKind uint8

// Sort kinds.
const (
	SortURI SortKind = iota
	SortName
	SortType
	SortProperty
)

// SortField orders results by one key. Definition and Attribute apply to SortProperty.
type SortField struct {
	Kind       SortKind
	Definition *property.Definition
	Attribute  string
	Descending bool
}

// Search is a complete search request.
type Search struct {
	Query  Query
	Sort   []SortField
	Select property.Select
	Offset int
	Limit  int
}

// Validate checks the request bounds.
func (s *Search) Validate(maxLimit int) error {
	if s.Query == nil {
		return fmt.Errorf("query is required")
	}
	if s.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	if s.Limit < 0 || (maxLimit > 0 && s.Limit > maxLimit) {
		return fmt.Errorf("limit must be between 0 and %d", maxLimit)
	}
	for i, sf := range s.Sort {
		if sf.Kind == SortProperty && sf.Definition == nil {
			return fmt.Errorf("sort field %d: property definition is required", i)
		}
	}
	return nil
}
