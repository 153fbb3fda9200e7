package querybuild

import (
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// Sort resolves sort fields to doc-value keys. Only single-valued properties are sortable.
func (b *Builder) Sort(sfs []query.SortField) ([]clause.SortKey, error) {
	keys := make([]clause.SortKey, 0, len(sfs))
	for _, sf := range sfs {
		k, err := b.sortKey(sf)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (b *Builder) sortKey(sf query.SortField) (clause.SortKey, error) {
	switch sf.Kind {
	case query.SortURI:
		return clause.SortKey{Field: fields.URIField, Descending: sf.Descending}, nil
	case query.SortName:
		return clause.SortKey{Field: fields.NameSortField, Descending: sf.Descending}, nil
	case query.SortType:
		return clause.SortKey{Field: fields.TypeField, Descending: sf.Descending}, nil
	case query.SortProperty:
	default:
		return clause.SortKey{}, &domain.QueryBuildError{Reason: "unknown sort kind"}
	}

	t, err := b.resolve(sf.Definition, sf.Attribute, query.EQ)
	if err != nil {
		return clause.SortKey{}, err
	}
	if sf.Definition.IsMultiple() {
		return clause.SortKey{}, &domain.QueryBuildError{
			Field: t.field, Type: t.typ.String(), Reason: "multi-valued properties are not sortable",
		}
	}
	if t.typ == value.TypeString {
		return clause.SortKey{Field: b.props.SortFieldName(t.def, t.attr), Descending: sf.Descending}, nil
	}
	return clause.SortKey{
		Field:      t.field,
		Numeric:    t.typ.IsNumeric() || t.typ.IsTemporal(),
		Descending: sf.Descending,
	}, nil
}
