// Package querybuild compiles search query trees into index clauses.
package querybuild

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/metrics"
)

// Builder compiles query trees. It holds no mutable state and is safe for concurrent use.
type Builder struct {
	codec  *fields.Codec
	props  fields.PropertyFields
	res    *fields.ResourceFields
	logger *zap.Logger
}

var _ query.Visitor[clause.Clause] = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New creates a Builder encoding terms with codec.
func New(codec *fields.Codec, opts ...Option) *Builder {
	b := &Builder{codec: codec, res: fields.NewResourceFields(codec), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile builds the clause of q. A purely negative result gets a match-all clause
// so that it matches everything the negations do not exclude.
func (b *Builder) Compile(q query.Query) (clause.Clause, error) {
	c, err := b.Build(q)
	if err != nil {
		metrics.QueryCompileTotal.WithLabelValues("error").Inc()
		b.logger.Debug("query compilation failed", zap.Error(err))
		return nil, err
	}
	metrics.QueryCompileTotal.WithLabelValues("ok").Inc()
	return positive(c), nil
}

// Build compiles q without the top-level fix-up.
func (b *Builder) Build(q query.Query) (clause.Clause, error) {
	return query.Visit[clause.Clause](q, b)
}

// And combines children as filters, then lifts negations directly into the conjunction.
func (b *Builder) And(q query.And) (clause.Clause, error) {
	if len(q.Children) == 0 {
		return clause.MatchAll{}, nil
	}
	out := clause.Bool{Clauses: make([]clause.BoolClause, 0, len(q.Children))}
	for _, child := range q.Children {
		c, err := b.Build(child)
		if err != nil {
			return nil, err
		}
		if nb, ok := c.(clause.Bool); ok && nb.IsPureNegative() {
			out.Clauses = append(out.Clauses, nb.Clauses...)
			continue
		}
		out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.Filter, Clause: c})
	}
	out = simplifyNegations(out)
	if len(out.Clauses) == 1 && out.Clauses[0].Occur == clause.Filter {
		return out.Clauses[0].Clause, nil
	}
	return out, nil
}

// simplifyNegations rewrites conjunction members shaped like Not(x) into MustNot x.
// The result may be purely negative; Compile and the enclosing builders fix that up.
func simplifyNegations(b clause.Bool) clause.Bool {
	out := clause.Bool{Clauses: make([]clause.BoolClause, 0, len(b.Clauses))}
	for _, bc := range b.Clauses {
		if bc.Occur == clause.Must || bc.Occur == clause.Filter {
			if inner, ok := clause.NegatedInner(bc.Clause); ok {
				out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.MustNot, Clause: inner})
				continue
			}
		}
		out.Clauses = append(out.Clauses, bc)
	}
	return out
}

// Or combines children as alternatives. Pure URI disjunctions collapse into set lookups.
func (b *Builder) Or(q query.Or) (clause.Clause, error) {
	if len(q.Children) == 0 {
		return clause.MatchNone{}, nil
	}
	if c, ok := collapseURIs(q.Children); ok {
		return c, nil
	}
	cs := make([]clause.Clause, 0, len(q.Children))
	for _, child := range q.Children {
		c, err := b.Build(child)
		if err != nil {
			return nil, err
		}
		cs = append(cs, positive(c))
	}
	return clause.AnyOf(cs...), nil
}

// MatchAll matches every document.
func (b *Builder) MatchAll(query.MatchAll) (clause.Clause, error) {
	return clause.MatchAll{}, nil
}

// positive adds a match-all clause to a purely negative Bool.
func positive(c clause.Clause) clause.Clause {
	nb, ok := c.(clause.Bool)
	if !ok || !nb.IsPureNegative() {
		return c
	}
	out := clause.Bool{Clauses: append([]clause.BoolClause(nil), nb.Clauses...)}
	out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.Must, Clause: clause.MatchAll{}})
	return out
}
