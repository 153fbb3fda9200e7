package querybuild

import (
	"path"
	"strconv"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

func invert(c clause.Clause, inverted bool) clause.Clause {
	if inverted {
		return clause.Not(c)
	}
	return c
}

func unsupported(field string, op query.Operator, t value.Type, reason string) error {
	return &domain.QueryBuildError{Field: field, Operator: op.String(), Type: t.String(), Reason: reason}
}

// AclExists matches grants of a privilege, optionally widened to its super-privileges.
// Without a principal it is a presence test on the ace fields.
func (b *Builder) AclExists(q query.AclExists) (clause.Clause, error) {
	privileges := []acl.Privilege{q.Privilege}
	if q.SuperPrivileges {
		privileges = append(privileges, q.Privilege.SuperPrivileges()...)
	}

	if q.Principal == nil {
		names := make([]string, 0, 2*len(privileges))
		for _, p := range privileges {
			names = append(names, fields.AceFieldName(p, acl.User), fields.AceFieldName(p, acl.Group))
		}
		return invert(clause.TermsSet{Field: fields.FieldNamesField, Terms: names}, q.Inverted), nil
	}

	terms := make([]clause.Clause, 0, len(privileges))
	for _, p := range privileges {
		terms = append(terms, clause.Term{
			Field: fields.AceFieldName(p, q.Principal.Type), Text: q.Principal.QualifiedName,
		})
	}
	if !q.Inverted {
		return clause.AnyOf(terms...), nil
	}
	out := clause.Bool{Clauses: make([]clause.BoolClause, 0, len(terms)+1)}
	for _, t := range terms {
		out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.MustNot, Clause: t})
	}
	out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.Must, Clause: clause.MatchAll{}})
	return out, nil
}

// AclInheritedFrom matches the acl inheritance source.
func (b *Builder) AclInheritedFrom(q query.AclInheritedFrom) (clause.Clause, error) {
	c := clause.Term{Field: fields.AclInheritedFromField, Text: fields.EncodeNumeric(q.ResourceID)}
	return invert(c, q.Inverted), nil
}

// UriTerm compares the exact uri.
func (b *Builder) UriTerm(q query.UriTerm) (clause.Clause, error) {
	switch q.Operator {
	case query.EQ:
		return clause.Term{Field: fields.URIField, Text: q.URI}, nil
	case query.NE:
		return clause.Not(clause.Term{Field: fields.URIField, Text: q.URI}), nil
	default:
		return nil, unsupported(fields.URIField, q.Operator, value.TypeString, "uri terms support EQ and NE")
	}
}

// UriPrefix matches descendants through the ancestors field.
func (b *Builder) UriPrefix(q query.UriPrefix) (clause.Clause, error) {
	uri := path.Clean(q.URI)
	var c clause.Clause = clause.Term{Field: fields.URIAncestorsField, Text: uri}
	if q.IncludeSelf {
		c = clause.AnyOf(c, clause.Term{Field: fields.URIField, Text: uri})
	}
	return invert(c, q.Inverted), nil
}

// UriSet matches any uri of a set.
func (b *Builder) UriSet(q query.UriSet) (clause.Clause, error) {
	c := clause.TermsSet{Field: fields.URIField, Terms: q.URIs}
	switch q.Operator {
	case query.IN:
		return c, nil
	case query.NI:
		return clause.Not(c), nil
	default:
		return nil, unsupported(fields.URIField, q.Operator, value.TypeString, "uri sets support IN and NI")
	}
}

// collapseURIs turns an OR of positive uri terms, prefixes and sets into at most two set lookups.
// It reports false when any child has another shape.
func collapseURIs(children []query.Query) (clause.Clause, bool) {
	var exact, ancestors []string
	for _, child := range children {
		switch n := child.(type) {
		case query.UriTerm:
			if n.Operator != query.EQ {
				return nil, false
			}
			exact = append(exact, n.URI)
		case query.UriSet:
			if n.Operator != query.IN {
				return nil, false
			}
			exact = append(exact, n.URIs...)
		case query.UriPrefix:
			if n.Inverted {
				return nil, false
			}
			uri := path.Clean(n.URI)
			ancestors = append(ancestors, uri)
			if n.IncludeSelf {
				exact = append(exact, uri)
			}
		default:
			return nil, false
		}
	}

	var cs []clause.Clause
	if len(exact) > 0 {
		cs = append(cs, clause.TermsSet{Field: fields.URIField, Terms: exact})
	}
	if len(ancestors) > 0 {
		cs = append(cs, clause.TermsSet{Field: fields.URIAncestorsField, Terms: ancestors})
	}
	if len(cs) == 0 {
		return clause.MatchNone{}, true
	}
	return clause.AnyOf(cs...), true
}

// UriDepth compares the number of uri segments.
func (b *Builder) UriDepth(q query.UriDepth) (clause.Clause, error) {
	return b.res.TypedFieldQuery(fields.URIDepthField, strconv.Itoa(q.Depth), value.TypeInt, q.Operator)
}

// NameTerm compares the resource name, case-insensitively through the lowercase field.
func (b *Builder) NameTerm(q query.NameTerm) (clause.Clause, error) {
	if q.Operator.IsIgnoreCase() {
		c := clause.Term{Field: fields.NameLowercaseField, Text: b.codec.Lowercase(q.Term)}
		return invert(c, q.Operator.IsNegated()), nil
	}
	return b.res.TypedFieldQuery(fields.NameField, q.Term, value.TypeString, q.Operator)
}

// NameRange matches names lexically between two bounds.
func (b *Builder) NameRange(q query.NameRange) (clause.Clause, error) {
	return b.res.TypedFieldRangeQuery(fields.NameField, q.From, q.To, q.FromInclusive, q.ToInclusive, value.TypeString)
}

// NamePrefix matches names starting with a term.
func (b *Builder) NamePrefix(q query.NamePrefix) (clause.Clause, error) {
	return invert(clause.Prefix{Field: fields.NameField, Prefix: q.Term}, q.Inverted), nil
}

// NameWildcard matches names against a pattern.
func (b *Builder) NameWildcard(q query.NameWildcard) (clause.Clause, error) {
	return invert(clause.Wildcard{Field: fields.NameField, Pattern: q.Term}, q.Inverted), nil
}

// TypeTerm compares the exact type with EQ and NE, and the type path with IN and NI.
func (b *Builder) TypeTerm(q query.TypeTerm) (clause.Clause, error) {
	switch q.Operator {
	case query.EQ:
		return clause.Term{Field: fields.TypeField, Text: q.Term}, nil
	case query.NE:
		return clause.Not(clause.Term{Field: fields.TypeField, Text: q.Term}), nil
	case query.IN:
		return clause.Term{Field: fields.TypesField, Text: q.Term}, nil
	case query.NI:
		return clause.Not(clause.Term{Field: fields.TypesField, Text: q.Term}), nil
	default:
		return nil, unsupported(fields.TypeField, q.Operator, value.TypeString, "resource types support EQ, NE, IN and NI")
	}
}
