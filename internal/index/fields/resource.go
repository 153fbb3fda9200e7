package fields

import (
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/document"
)

// Reserved resource field names.
const (
	IDField            = "id"
	URIField           = "uri"
	URIAncestorsField  = "uriAncestors"
	URIDepthField      = "uriDepth"
	NameField          = "name"
	NameLowercaseField = "l_name"
	NameSortField      = "s_name"
	TypeField          = "resourceType"
	TypesField         = "resourceTypes"
	// FieldNamesField indexes the names of the property and ACL fields present in a document.
	FieldNamesField = "_fields"
)

var reserved = map[string]bool{
	IDField: true, URIField: true, URIAncestorsField: true, URIDepthField: true,
	NameField: true, NameLowercaseField: true, NameSortField: true,
	TypeField: true, TypesField: true, FieldNamesField: true,
	AclInheritedFromField: true,
}

// IsReserved reports whether name is a resource or acl inheritance field.
func IsReserved(name string) bool { return reserved[name] }

// ResourceFields encodes resource metadata.
type ResourceFields struct {
	codec *Codec
}

// NewResourceFields creates ResourceFields over codec.
func NewResourceFields(codec *Codec) *ResourceFields {
	return &ResourceFields{codec: codec}
}

// Fields returns the resource entries of ps. typePath is the type hierarchy, root first.
// Stored entries come first in the order id, uri, resourceType.
func (r *ResourceFields) Fields(ps property.Set, typePath []string) []document.Field {
	var out []document.Field
	if id := ps.ID(); id != property.NoID {
		out = append(out, r.codec.LongFields(IDField, id, document.IndexedStored)...)
	}

	uri := ps.URI()
	out = append(out, r.codec.StringFields(URIField, uri, document.IndexedStoredWithDocValue)...)
	out = append(out, r.codec.StringFields(TypeField, ps.ResourceType(), document.IndexedStoredWithDocValue)...)

	for _, anc := range property.Ancestors(uri) {
		out = append(out, r.codec.StringFields(URIAncestorsField, anc, document.IndexedOnly)...)
	}
	out = append(out, r.codec.LongFields(URIDepthField, int64(property.Depth(uri)), document.IndexedWithDocValue)...)

	name := property.NameOf(uri)
	out = append(out, r.codec.StringFields(NameField, name, document.IndexedOnly)...)
	out = append(out, r.codec.StringFields(NameLowercaseField, name, document.IndexedLowercase)...)
	out = append(out, r.codec.StringSortField(NameSortField, name))

	if len(typePath) == 0 {
		typePath = []string{ps.ResourceType()}
	}
	for _, t := range typePath {
		out = append(out, r.codec.StringFields(TypesField, t, document.IndexedOnly)...)
	}
	return out
}

// TypedFieldQuery builds an exact or negated term clause on a resource field.
// Range operators delegate to TypedFieldRangeQuery.
func (r *ResourceFields) TypedFieldQuery(
	field string, term string, t value.Type, op query.Operator,
) (clause.Clause, error) {
	switch op {
	case query.EQ, query.NE:
		enc, err := r.codec.QueryTerm(term, t, false)
		if err != nil {
			return nil, err
		}
		var c clause.Clause = clause.Term{Field: field, Text: enc}
		if op == query.NE {
			c = clause.Not(c)
		}
		return c, nil
	case query.GE, query.GT:
		return r.TypedFieldRangeQuery(field, term, "", op == query.GE, false, t)
	case query.LE, query.LT:
		return r.TypedFieldRangeQuery(field, "", term, false, op == query.LE, t)
	default:
		return nil, &domain.QueryBuildError{
			Field: field, Operator: op.String(), Type: t.String(), Reason: "operator not supported",
		}
	}
}

// TypedFieldRangeQuery builds a range clause with bounds encoded like indexed terms.
func (r *ResourceFields) TypedFieldRangeQuery(
	field, from, to string, includeFrom, includeTo bool, t value.Type,
) (clause.Clause, error) {
	rc := clause.Range{
		Field: field, IncludeLower: includeFrom, IncludeUpper: includeTo,
		Numeric: t.IsNumeric() || t.IsTemporal(),
	}
	if from != "" {
		enc, err := r.codec.QueryTerm(from, t, false)
		if err != nil {
			return nil, err
		}
		rc.Lower = enc
	}
	if to != "" {
		enc, err := r.codec.QueryTerm(to, t, false)
		if err != nil {
			return nil, err
		}
		rc.Upper = enc
	}
	return rc, nil
}
