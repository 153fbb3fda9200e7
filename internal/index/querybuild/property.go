package querybuild

import (
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// target is the resolved field of a property query.
type target struct {
	def   *property.Definition
	attr  string
	field string
	typ   value.Type
}

// resolve names the searchable field of def or of its JSON attribute.
func (b *Builder) resolve(def *property.Definition, attr string, op query.Operator) (target, error) {
	if def == nil {
		return target{}, &domain.QueryBuildError{Operator: op.String(), Reason: "property definition is required"}
	}
	field := b.props.FieldName(def, false)
	switch {
	case def.Type() == value.TypeJSON && attr == "":
		return target{}, unsupported(field, op, def.Type(), "json properties are searched by attribute")
	case def.Type() != value.TypeJSON && attr != "":
		return target{}, unsupported(field, op, def.Type(), "only json properties have attributes")
	case def.Type() == value.TypeBinary:
		return target{}, unsupported(field, op, def.Type(), "binary properties are not indexed")
	}
	if attr == "" {
		return target{def: def, field: field, typ: def.Type()}, nil
	}
	if !property.IsValidAttribute(attr) {
		return target{}, unsupported(field, op, def.Type(), "invalid json attribute "+attr)
	}
	return target{
		def: def, attr: attr,
		field: b.props.JSONFieldName(def, attr, false),
		typ:   b.props.JSONFieldDataType(def, attr),
	}, nil
}

// hasLowercase reports whether the target has a lowercase-indexed variant.
func (t target) hasLowercase() bool {
	if t.attr != "" {
		return t.typ.IsTextual()
	}
	return t.typ == value.TypeString || t.typ == value.TypeHTML
}

func (b *Builder) lowercaseField(t target) string {
	if t.attr != "" {
		return b.props.JSONFieldName(t.def, t.attr, true)
	}
	return b.props.FieldName(t.def, true)
}

// PropertyTerm compares a property value. Ignore-case operators use the lowercase variant,
// range operators compare the exact field.
func (b *Builder) PropertyTerm(q query.PropertyTerm) (clause.Clause, error) {
	t, err := b.resolve(q.Definition, q.Attribute, q.Operator)
	if err != nil {
		return nil, err
	}

	switch {
	case q.Operator.IsIgnoreCase():
		field := t.field
		lowercase := false
		switch {
		case t.hasLowercase():
			field, lowercase = b.lowercaseField(t), true
		case t.typ.IsTextual():
			return nil, unsupported(t.field, q.Operator, t.typ, "no case-insensitive variant is indexed")
		}
		term, err := b.codec.QueryTerm(q.Term, t.typ, lowercase)
		if err != nil {
			return nil, err
		}
		return invert(clause.Term{Field: field, Text: term}, q.Operator.IsNegated()), nil
	case q.Operator == query.EQ || q.Operator == query.NE:
		term, err := b.codec.QueryTerm(q.Term, t.typ, false)
		if err != nil {
			return nil, err
		}
		return invert(clause.Term{Field: t.field, Text: term}, q.Operator == query.NE), nil
	case q.Operator.IsRange():
		if q.Operator == query.GE || q.Operator == query.GT {
			return b.res.TypedFieldRangeQuery(t.field, q.Term, "", q.Operator == query.GE, false, t.typ)
		}
		return b.res.TypedFieldRangeQuery(t.field, "", q.Term, false, q.Operator == query.LE, t.typ)
	default:
		return nil, unsupported(t.field, q.Operator, t.typ, "use a terms query for set membership")
	}
}

// PropertyTerms matches any of a set of values.
func (b *Builder) PropertyTerms(q query.PropertyTerms) (clause.Clause, error) {
	t, err := b.resolve(q.Definition, q.Attribute, q.Operator)
	if err != nil {
		return nil, err
	}
	if q.Operator != query.IN && q.Operator != query.NI {
		return nil, unsupported(t.field, q.Operator, t.typ, "terms queries support IN and NI")
	}
	terms := make([]string, 0, len(q.Terms))
	for _, s := range q.Terms {
		term, err := b.codec.QueryTerm(s, t.typ, false)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return invert(clause.TermsSet{Field: t.field, Terms: terms}, q.Operator == query.NI), nil
}

// PropertyRange matches values between two bounds. Case-insensitive ranges are rejected.
func (b *Builder) PropertyRange(q query.PropertyRange) (clause.Clause, error) {
	t, err := b.resolve(q.Definition, q.Attribute, query.GE)
	if err != nil {
		return nil, err
	}
	if q.IgnoreCase {
		return nil, unsupported(t.field, query.EQIgnoreCase, t.typ, "case-insensitive range queries are not supported")
	}
	c, err := b.res.TypedFieldRangeQuery(t.field, q.From, q.To, q.FromInclusive, q.ToInclusive, t.typ)
	if err != nil {
		return nil, err
	}
	return invert(c, q.Inverted), nil
}

// textual returns the field prefix and wildcard queries match against.
func (b *Builder) textual(def *property.Definition, attr string, ignoreCase bool) (string, error) {
	op := query.EQ
	if ignoreCase {
		op = query.EQIgnoreCase
	}
	t, err := b.resolve(def, attr, op)
	if err != nil {
		return "", err
	}
	if !t.typ.IsTextual() {
		return "", unsupported(t.field, op, t.typ, "prefix and wildcard queries need a textual type, use a range query")
	}
	if !ignoreCase {
		return t.field, nil
	}
	if !t.hasLowercase() {
		return "", unsupported(t.field, op, t.typ, "no case-insensitive variant is indexed")
	}
	return b.lowercaseField(t), nil
}

// PropertyPrefix matches textual values starting with a term.
func (b *Builder) PropertyPrefix(q query.PropertyPrefix) (clause.Clause, error) {
	field, err := b.textual(q.Definition, q.Attribute, q.IgnoreCase)
	if err != nil {
		return nil, err
	}
	term := q.Term
	if q.IgnoreCase {
		term = b.codec.Lowercase(term)
	}
	return invert(clause.Prefix{Field: field, Prefix: term}, q.Inverted), nil
}

// PropertyWildcard matches textual values against a pattern.
func (b *Builder) PropertyWildcard(q query.PropertyWildcard) (clause.Clause, error) {
	field, err := b.textual(q.Definition, q.Attribute, q.IgnoreCase)
	if err != nil {
		return nil, err
	}
	term := q.Term
	if q.IgnoreCase {
		term = b.codec.Lowercase(term)
	}
	return invert(clause.Wildcard{Field: field, Pattern: term}, q.Inverted), nil
}

// PropertyExists tests field presence through the field-names index.
func (b *Builder) PropertyExists(q query.PropertyExists) (clause.Clause, error) {
	if q.Definition == nil {
		return nil, &domain.QueryBuildError{Reason: "property definition is required"}
	}
	field := b.props.FieldName(q.Definition, false)
	if q.Attribute != "" {
		if q.Definition.Type() != value.TypeJSON {
			return nil, unsupported(field, query.EQ, q.Definition.Type(), "only json properties have attributes")
		}
		field = b.props.JSONFieldName(q.Definition, q.Attribute, false)
	}
	return invert(clause.Term{Field: fields.FieldNamesField, Text: field}, q.Inverted), nil
}
