package query

import (
	"fmt"

	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
)

// Operator compares an indexed value against a query term.
type Operator uint8

// Operator constants.
const (
	EQ Operator = iota
	NE
	EQIgnoreCase
	NEIgnoreCase
	GE
	GT
	LE
	LT
	IN
	NI
)

var operatorNames = [...]string{"EQ", "NE", "EQ_IGNORECASE", "NE_IGNORECASE", "GE", "GT", "LE", "LT", "IN", "NI"}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", o)
}

// ParseOperator resolves an operator name.
func ParseOperator(s string) (Operator, error) {
	for i, name := range operatorNames {
		if name == s {
			return Operator(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// IsNegated reports whether the operator excludes matches.
func (o Operator) IsNegated() bool { return o == NE || o == NEIgnoreCase || o == NI }

// IsIgnoreCase reports whether the operator compares case-insensitively.
func (o Operator) IsIgnoreCase() bool { return o == EQIgnoreCase || o == NEIgnoreCase }

// IsRange reports whether the operator is an open range comparison.
func (o Operator) IsRange() bool { return o == GE || o == GT || o == LE || o == LT }

// Query is a node of a search query tree. The set of node kinds is closed.
type Query interface {
	isQuery()
}

// And matches documents matched by every child.
type And struct{ Children []Query }

// Or matches documents matched by any child.
type Or struct{ Children []Query }

// MatchAll matches every document.
type MatchAll struct{}

// AclExists matches documents granting Privilege to Principal.
// A nil Principal matches any grant of the privilege.
type AclExists struct {
	Privilege       acl.Privilege
	Principal       *acl.Principal
	SuperPrivileges bool
	Inverted        bool
}

// AclInheritedFrom matches documents whose acl is inherited from ResourceID.
// property.NoID matches documents with their own acl.
type AclInheritedFrom struct {
	ResourceID int64
	Inverted   bool
}

// UriTerm compares the resource URI. Operator is EQ or NE.
type UriTerm struct {
	URI      string
	Operator Operator
}

// UriPrefix matches descendants of URI, and URI itself when IncludeSelf is set.
type UriPrefix struct {
	URI         string
	IncludeSelf bool
	Inverted    bool
}

// UriSet matches a set of URIs. Operator is IN or NI.
type UriSet struct {
	URIs     []string
	Operator Operator
}

// UriDepth compares the number of URI segments.
type UriDepth struct {
	Depth    int
	Operator Operator
}

// NameTerm compares the resource name.
type NameTerm struct {
	Term     string
	Operator Operator
}

// NameRange matches names between From and To. Empty bounds are open.
type NameRange struct {
	From, To                   string
	FromInclusive, ToInclusive bool
}

// NamePrefix matches names starting with Term.
type NamePrefix struct {
	Term     string
	Inverted bool
}

// NameWildcard matches names against a pattern with '*' and '?'.
type NameWildcard struct {
	Term     string
	Inverted bool
}

// PropertyTerm compares a property value. Attribute selects a JSON attribute.
type PropertyTerm struct {
	Definition *property.Definition
	Attribute  string
	Term       string
	Operator   Operator
}

// PropertyTerms matches a property against a set of terms. Operator is IN or NI.
type PropertyTerms struct {
	Definition *property.Definition
	Attribute  string
	Terms      []string
	Operator   Operator
}

// PropertyRange matches property values between From and To. Empty bounds are open.
type PropertyRange struct {
	Definition                 *property.Definition
	Attribute                  string
	From, To                   string
	FromInclusive, ToInclusive bool
	IgnoreCase                 bool
	Inverted                   bool
}

// PropertyPrefix matches textual property values starting with Term.
type PropertyPrefix struct {
	Definition *property.Definition
	Attribute  string
	Term       string
	IgnoreCase bool
	Inverted   bool
}

// PropertyWildcard matches textual property values against a pattern with '*' and '?'.
type PropertyWildcard struct {
	Definition *property.Definition
	Attribute  string
	Term       string
	IgnoreCase bool
	Inverted   bool
}

// PropertyExists matches documents carrying the property, whatever its value.
type PropertyExists struct {
	Definition *property.Definition
	Attribute  string
	Inverted   bool
}

// TypeTerm compares the resource type. EQ and NE compare the exact type;
// IN and NI also match descendant types.
type TypeTerm struct {
	Term     string
	Operator Operator
}

func (And) isQuery()              {}
func (Or) isQuery()               {}
func (MatchAll) isQuery()         {}
func (AclExists) isQuery()        {}
func (AclInheritedFrom) isQuery() {}
func (UriTerm) isQuery()          {}
func (UriPrefix) isQuery()        {}
func (UriSet) isQuery()           {}
func (UriDepth) isQuery()         {}
func (NameTerm) isQuery()         {}
func (NameRange) isQuery()        {}
func (NamePrefix) isQuery()       {}
func (NameWildcard) isQuery()     {}
func (PropertyTerm) isQuery()     {}
func (PropertyTerms) isQuery()    {}
func (PropertyRange) isQuery()    {}
func (PropertyPrefix) isQuery()   {}
func (PropertyWildcard) isQuery() {}
func (PropertyExists) isQuery()   {}
func (TypeTerm) isQuery()         {}

// Visitor handles every query node kind. Adding a kind adds a method here,
// so every implementation must handle it.
type Visitor[T any] interface {
	And(q And) (T, error)
	Or(q Or) (T, error)
	MatchAll(q MatchAll) (T, error)
	AclExists(q AclExists) (T, error)
	AclInheritedFrom(q AclInheritedFrom) (T, error)
	UriTerm(q UriTerm) (T, error)
	UriPrefix(q UriPrefix) (T, error)
	UriSet(q UriSet) (T, error)
	UriDepth(q UriDepth) (T, error)
	NameTerm(q NameTerm) (T, error)
	NameRange(q NameRange) (T, error)
	NamePrefix(q NamePrefix) (T, error)
	NameWildcard(q NameWildcard) (T, error)
	PropertyTerm(q PropertyTerm) (T, error)
	PropertyTerms(q PropertyTerms) (T, error)
	PropertyRange(q PropertyRange) (T, error)
	PropertyPrefix(q PropertyPrefix) (T, error)
	PropertyWildcard(q PropertyWildcard) (T, error)
	PropertyExists(q PropertyExists) (T, error)
	TypeTerm(q TypeTerm) (T, error)
}

// Visit dispatches q to the matching Visitor method.
func Visit[T any](q Query, v Visitor[T]) (T, error) {
	switch n := q.(type) {
	case And:
		return v.And(n)
	case Or:
		return v.Or(n)
	case MatchAll:
		return v.MatchAll(n)
	case AclExists:
		return v.AclExists(n)
	case AclInheritedFrom:
		return v.AclInheritedFrom(n)
	case UriTerm:
		return v.UriTerm(n)
	case UriPrefix:
		return v.UriPrefix(n)
	case UriSet:
		return v.UriSet(n)
	case UriDepth:
		return v.UriDepth(n)
	case NameTerm:
		return v.NameTerm(n)
	case NameRange:
		return v.NameRange(n)
	case NamePrefix:
		return v.NamePrefix(n)
	case NameWildcard:
		return v.NameWildcard(n)
	case PropertyTerm:
		return v.PropertyTerm(n)
	case PropertyTerms:
		return v.PropertyTerms(n)
	case PropertyRange:
		return v.PropertyRange(n)
	case PropertyPrefix:
		return v.PropertyPrefix(n)
	case PropertyWildcard:
		return v.PropertyWildcard(n)
	case PropertyExists:
		return v.PropertyExists(n)
	case TypeTerm:
		return v.TypeTerm(n)
	default:
		var zero T
		return zero, fmt.Errorf("unsupported query node %T", q)
	}
}

// NewTypeTerm creates a TypeTerm. Only EQ, NE, IN and NI compare resource types.
func NewTypeTerm(term string, op Operator) (TypeTerm, error) {
	switch op {
	case EQ, NE, IN, NI:
		return TypeTerm{Term: term, Operator: op}, nil
	default:
		return TypeTerm{}, fmt.Errorf("operator %s is not supported for resource types", op)
	}
}
