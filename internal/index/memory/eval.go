package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/index/clause"
)

// eval returns the documents matched by c. Callers hold the read lock.
func (e *Engine) eval(c clause.Clause) (*roaring.Bitmap, error) {
	switch n := c.(type) {
	case clause.Term:
		if bm, ok := e.postings[n.Field][n.Text]; ok {
			return bm.Clone(), nil
		}
		return roaring.New(), nil
	case clause.TermsSet:
		terms := e.postings[n.Field]
		bms := make([]*roaring.Bitmap, 0, len(n.Terms))
		for _, t := range n.Terms {
			if bm, ok := terms[t]; ok {
				bms = append(bms, bm)
			}
		}
		return roaring.FastOr(bms...), nil
	case clause.Range:
		return e.matchTerms(n.Field, func(t string) bool { return inRange(n, t) }), nil
	case clause.Prefix:
		return e.matchTerms(n.Field, func(t string) bool { return strings.HasPrefix(t, n.Prefix) }), nil
	case clause.Wildcard:
		re, err := wildcardRegexp(n.Pattern)
		if err != nil {
			return nil, err
		}
		return e.matchTerms(n.Field, re.MatchString), nil
	case clause.MatchAll:
		return e.live.Clone(), nil
	case clause.MatchNone:
		return roaring.New(), nil
	case clause.Bool:
		return e.evalBool(n)
	default:
		e.logger.Error("unknown clause", zap.String("clause", fmt.Sprintf("%T", c)))
		return nil, fmt.Errorf("unsupported clause %T", c)
	}
}

// evalBool applies the occur rules: required clauses intersect and make Should optional,
// otherwise at least one Should clause must match; MustNot clauses subtract.
func (e *Engine) evalBool(b clause.Bool) (*roaring.Bitmap, error) {
	var required *roaring.Bitmap
	var should []*roaring.Bitmap
	var prohibited []*roaring.Bitmap

	for _, bc := range b.Clauses {
		bm, err := e.eval(bc.Clause)
		if err != nil {
			return nil, err
		}
		switch bc.Occur {
		case clause.Must, clause.Filter:
			if required == nil {
				required = bm
			} else {
				required.And(bm)
			}
		case clause.Should:
			should = append(should, bm)
		case clause.MustNot:
			prohibited = append(prohibited, bm)
		}
	}

	out := required
	if out == nil {
		out = roaring.FastOr(should...)
	}
	if len(prohibited) > 0 {
		out.AndNot(roaring.FastOr(prohibited...))
	}
	return out, nil
}

func (e *Engine) matchTerms(field string, match func(string) bool) *roaring.Bitmap {
	var bms []*roaring.Bitmap
	for t, bm := range e.postings[field] {
		if match(t) {
			bms = append(bms, bm)
		}
	}
	return roaring.FastOr(bms...)
}

// inRange compares terms lexically. Numeric terms are encoded so that lexical order is numeric order.
func inRange(r clause.Range, t string) bool {
	if r.Lower != "" {
		c := strings.Compare(t, r.Lower)
		if c < 0 || (c == 0 && !r.IncludeLower) {
			return false
		}
	}
	if r.Upper != "" {
		c := strings.Compare(t, r.Upper)
		if c > 0 || (c == 0 && !r.IncludeUpper) {
			return false
		}
	}
	return true
}

// wildcardRegexp translates '*' and '?' into an anchored regular expression.
func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`^(?s:`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`)$`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("wildcard %q: %w", pattern, err)
	}
	return re, nil
}
