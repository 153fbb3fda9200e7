package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// expr is a rendered FT.SEARCH query. all and none mark the constant queries,
// which are folded away before reaching Redis.
type expr struct {
	q    string
	all  bool
	none bool
	leaf bool
}

var (
	matchAll  = expr{all: true}
	matchNone = expr{none: true}
)

// group parenthesizes compound expressions so they compose under any operator.
func (e expr) group() string {
	if e.leaf {
		return e.q
	}
	return "(" + e.q + ")"
}

func unsupported(c clause.Clause, reason string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrUnsupportedClause, c, reason)
}

// render translates c into the FT query syntax (DIALECT 2) against s.
func (s *Schema) render(c clause.Clause) (expr, error) {
	switch n := c.(type) {
	case clause.MatchAll:
		return matchAll, nil
	case clause.MatchNone:
		return matchNone, nil
	case clause.Term:
		a, err := s.tag(c, n.Field)
		if err != nil {
			return expr{}, err
		}
		return expr{q: "@" + a + ":{" + escapeTag(n.Text) + "}", leaf: true}, nil
	case clause.TermsSet:
		if len(n.Terms) == 0 {
			return matchNone, nil
		}
		a, err := s.tag(c, n.Field)
		if err != nil {
			return expr{}, err
		}
		terms := make([]string, len(n.Terms))
		for i, t := range n.Terms {
			terms[i] = escapeTag(t)
		}
		return expr{q: "@" + a + ":{" + strings.Join(terms, " | ") + "}", leaf: true}, nil
	case clause.Prefix:
		a, err := s.tag(c, n.Field)
		if err != nil {
			return expr{}, err
		}
		if len([]rune(n.Prefix)) < minPrefix {
			return expr{q: "@" + a + ":{" + wildcard(n.Prefix+"*") + "}", leaf: true}, nil
		}
		return expr{q: "@" + a + ":{" + escapeTag(n.Prefix) + "*}", leaf: true}, nil
	case clause.Wildcard:
		a, err := s.tag(c, n.Field)
		if err != nil {
			return expr{}, err
		}
		return expr{q: "@" + a + ":{" + wildcard(n.Pattern) + "}", leaf: true}, nil
	case clause.Range:
		return s.renderRange(n)
	case clause.Bool:
		return s.renderBool(n)
	default:
		return expr{}, unsupported(c, "unknown clause")
	}
}

// minPrefix is the shortest prefix RediSearch expands with its default MINPREFIX.
const minPrefix = 2

func (s *Schema) tag(c clause.Clause, field string) (string, error) {
	a, ok := s.attrs[field]
	if !ok {
		return "", unsupported(c, "field "+field+" is not indexed")
	}
	return a.tag, nil
}

func (s *Schema) renderRange(r clause.Range) (expr, error) {
	if !r.Numeric {
		return expr{}, unsupported(r, "lexical ranges are not supported")
	}
	a, ok := s.attrs[r.Field]
	if !ok || a.numeric == "" {
		return expr{}, unsupported(r, "field "+r.Field+" has no numeric index")
	}
	lo, err := bound(r.Lower, r.IncludeLower, "-inf")
	if err != nil {
		return expr{}, unsupported(r, err.Error())
	}
	hi, err := bound(r.Upper, r.IncludeUpper, "+inf")
	if err != nil {
		return expr{}, unsupported(r, err.Error())
	}
	return expr{q: "@" + a.numeric + ":[" + lo + " " + hi + "]", leaf: true}, nil
}

func bound(term string, inclusive bool, open string) (string, error) {
	if term == "" {
		return open, nil
	}
	n, err := fields.DecodeNumeric(term)
	if err != nil {
		return "", err
	}
	s := strconv.FormatInt(n, 10)
	if !inclusive {
		s = "(" + s
	}
	return s, nil
}

// renderBool follows the occur rules of clause.Bool. Intersection is juxtaposition,
// union is '|', and a leading '-' excludes.
func (s *Schema) renderBool(b clause.Bool) (expr, error) {
	var required, should, excluded []expr
	hasRequired := false
	shouldAll := false

	for _, bc := range b.Clauses {
		e, err := s.render(bc.Clause)
		if err != nil {
			return expr{}, err
		}
		switch bc.Occur {
		case clause.Must, clause.Filter:
			hasRequired = true
			if e.none {
				return matchNone, nil
			}
			if !e.all {
				required = append(required, e)
			}
		case clause.Should:
			switch {
			case e.all:
				shouldAll = true
			case !e.none:
				should = append(should, e)
			}
		case clause.MustNot:
			if e.all {
				return matchNone, nil
			}
			if !e.none {
				excluded = append(excluded, e)
			}
		}
	}

	var parts []string
	switch {
	case hasRequired:
		for _, e := range required {
			parts = append(parts, e.group())
		}
	case shouldAll:
	case len(should) == 1:
		parts = append(parts, should[0].group())
	case len(should) > 1:
		alts := make([]string, len(should))
		for i, e := range should {
			alts[i] = e.group()
		}
		parts = append(parts, "("+strings.Join(alts, " | ")+")")
	default:
		return matchNone, nil
	}

	if len(parts) == 0 && len(excluded) == 0 {
		return matchAll, nil
	}
	for _, e := range excluded {
		parts = append(parts, "-"+e.group())
	}
	if len(parts) == 1 && len(excluded) == 0 {
		return expr{q: parts[0], leaf: true}, nil
	}
	return expr{q: strings.Join(parts, " ")}, nil
}

// Query renders c as a complete FT.SEARCH query string. ok is false when c
// matches nothing and Redis need not be asked.
func (s *Schema) Query(c clause.Clause) (q string, ok bool, err error) {
	e, err := s.render(c)
	if err != nil {
		return "", false, err
	}
	switch {
	case e.none:
		return "", false, nil
	case e.all:
		return "*", true, nil
	default:
		return e.q, true, nil
	}
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"?", "\\?",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// wildcard renders a '*' and '?' pattern as a tag wildcard term.
func wildcard(pattern string) string {
	return "w'" + wildcardEscaper.Replace(pattern) + "'"
}
