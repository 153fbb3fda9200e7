package clause

import (
	"fmt"
	"strings"
)

// Clause is an executable index query. The set of clause kinds is closed;
// engines switch over the concrete types.
type Clause interface {
	fmt.Stringer
	isClause()
}

// Term matches documents holding the exact term in Field.
type Term struct {
	Field string
	Text  string
}

// TermsSet matches documents holding any of Terms in Field.
type TermsSet struct {
	Field string
	Terms []string
}

// Range matches terms between Lower and Upper. An empty bound is open.
// Numeric ranges carry encoded numeric terms.
type Range struct {
	Field        string
	Lower, Upper string
	IncludeLower bool
	IncludeUpper bool
	Numeric      bool
}

// Prefix matches terms starting with Prefix.
type Prefix struct {
	Field  string
	Prefix string
}

// Wildcard matches terms against Pattern: '*' is any run, '?' any single rune.
type Wildcard struct {
	Field   string
	Pattern string
}

// MatchAll matches every document.
type MatchAll struct{}

// MatchNone matches no document.
type MatchNone struct{}

// Occur is the role of a clause within a Bool.
type Occur uint8

// Occur constants.
const (
	Must Occur = iota
	Filter
	Should
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case Filter:
		return "#"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// BoolClause is one member of a Bool.
type BoolClause struct {
	Occur  Occur
	Clause Clause
}

// Bool combines clauses. With at least one Must or Filter clause, Should clauses
// do not restrict matches; otherwise at least one Should clause must match.
// A Bool made only of MustNot clauses matches nothing.
type Bool struct {
	Clauses []BoolClause
}

func (Term) isClause()      {}
func (TermsSet) isClause()  {}
func (Range) isClause()     {}
func (Prefix) isClause()    {}
func (Wildcard) isClause()  {}
func (MatchAll) isClause()  {}
func (MatchNone) isClause() {}
func (Bool) isClause()      {}

func (c Term) String() string { return c.Field + ":" + c.Text }

func (c TermsSet) String() string {
	return c.Field + ":(" + strings.Join(c.Terms, " ") + ")"
}

func (c Range) String() string {
	lo, hi := c.Lower, c.Upper
	if lo == "" {
		lo = "*"
	}
	if hi == "" {
		hi = "*"
	}
	open, closing := "{", "}"
	if c.IncludeLower {
		open = "["
	}
	if c.IncludeUpper {
		closing = "]"
	}
	return fmt.Sprintf("%s:%s%s TO %s%s", c.Field, open, lo, hi, closing)
}

func (c Prefix) String() string   { return c.Field + ":" + c.Prefix + "*" }
func (c Wildcard) String() string { return c.Field + ":" + c.Pattern }
func (MatchAll) String() string   { return "*:*" }
func (MatchNone) String() string  { return "MatchNone" }

func (c Bool) String() string {
	parts := make([]string, 0, len(c.Clauses))
	for _, bc := range c.Clauses {
		s := bc.Clause.String()
		if _, nested := bc.Clause.(Bool); nested {
			s = "(" + s + ")"
		}
		parts = append(parts, bc.Occur.String()+s)
	}
	return strings.Join(parts, " ")
}

// Not returns the negation of c as a Bool that also matches everything else.
func Not(c Clause) Bool {
	return Bool{Clauses: []BoolClause{
		{Occur: MustNot, Clause: c},
		{Occur: Must, Clause: MatchAll{}},
	}}
}

// AnyOf returns a disjunction of cs. A single clause is returned unwrapped.
func AnyOf(cs ...Clause) Clause {
	if len(cs) == 1 {
		return cs[0]
	}
	b := Bool{Clauses: make([]BoolClause, 0, len(cs))}
	for _, c := range cs {
		b.Clauses = append(b.Clauses, BoolClause{Occur: Should, Clause: c})
	}
	return b
}

// AllOf returns a conjunction of cs using Filter occurrence. A single clause is returned unwrapped.
func AllOf(cs ...Clause) Clause {
	if len(cs) == 1 {
		return cs[0]
	}
	b := Bool{Clauses: make([]BoolClause, 0, len(cs))}
	for _, c := range cs {
		b.Clauses = append(b.Clauses, BoolClause{Occur: Filter, Clause: c})
	}
	return b
}

// IsPureNegative reports whether b has clauses and all of them are MustNot.
func (c Bool) IsPureNegative() bool {
	if len(c.Clauses) == 0 {
		return false
	}
	for _, bc := range c.Clauses {
		if bc.Occur != MustNot {
			return false
		}
	}
	return true
}

// NegatedInner reports whether c has the shape produced by Not and returns the negated clause.
func NegatedInner(c Clause) (Clause, bool) {
	b, ok := c.(Bool)
	if !ok || len(b.Clauses) != 2 {
		return nil, false
	}
	if b.Clauses[0].Occur != MustNot {
		return nil, false
	}
	second := b.Clauses[1]
	if second.Occur != Must && second.Occur != Filter && second.Occur != Should {
		return nil, false
	}
	if _, all := second.Clause.(MatchAll); !all {
		return nil, false
	}
	return b.Clauses[0].Clause, true
}
