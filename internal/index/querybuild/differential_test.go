package querybuild

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/resourcetype"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
	"github.com/kailas-cloud/propdex/internal/index/memory"
)

var corpusURIs = []string{
	"/", "/a", "/a/b", "/a/b/c", "/a/b/c/d", "/a/e", "/f", "/f/g", "/f/g/h", "/i",
}

const corpusTypes = `
types:
  - name: file
    properties:
      - name: title
      - name: size
        type: long
  - name: folder
    parent: file
`

func newCorpus(t *testing.T) (*Builder, *memory.Engine) {
	t.Helper()
	types, namespaces, err := resourcetype.Parse([]byte(corpusTypes))
	require.NoError(t, err)
	tree, err := resourcetype.NewTree(types, namespaces)
	require.NoError(t, err)

	codec := fields.NewCodec(language.English, time.UTC)
	m := mapper.New(tree, codec)
	titleDef, _ := tree.Definition("", "title")
	sizeDef, _ := tree.Definition("", "size")

	e := memory.New()
	for i, uri := range corpusURIs {
		typ := "file"
		if i%3 == 0 {
			typ = "folder"
		}
		ps := property.NewResource(uri, typ).Add(
			property.Must(titleDef, value.NewString([]string{"alpha", "beta", "gamma"}[i%3])),
			property.Must(sizeDef, value.NewLong(int64(i))),
		)
		doc, err := m.GetDocument(ps, nil)
		require.NoError(t, err)
		require.NoError(t, e.Index(context.Background(), doc))
	}
	return New(codec), e
}

func randomURI(r *rand.Rand) string {
	extra := []string{"/missing", "/a/b/", "/a/x/y"}
	if r.IntN(5) == 0 {
		return extra[r.IntN(len(extra))]
	}
	return corpusURIs[r.IntN(len(corpusURIs))]
}

func randomURIClause(r *rand.Rand) query.Query {
	switch r.IntN(3) {
	case 0:
		return query.UriTerm{URI: randomURI(r), Operator: query.EQ}
	case 1:
		n := r.IntN(3)
		uris := make([]string, 0, n)
		for range n {
			uris = append(uris, randomURI(r))
		}
		return query.UriSet{URIs: uris, Operator: query.IN}
	default:
		return query.UriPrefix{URI: randomURI(r), IncludeSelf: r.IntN(2) == 0}
	}
}

func match(t *testing.T, e *memory.Engine, c clause.Clause) []string {
	t.Helper()
	uris, err := e.Match(c)
	require.NoError(t, err)
	return uris
}

func TestOrCollapse_MatchesPlainDisjunction(t *testing.T) {
	b, e := newCorpus(t)
	r := rand.New(rand.NewPCG(7, 11))

	for i := range 300 {
		n := 1 + r.IntN(5)
		or := query.Or{Children: make([]query.Query, 0, n)}
		plain := make([]clause.Clause, 0, n)
		for range n {
			child := randomURIClause(r)
			or.Children = append(or.Children, child)
			c, err := b.Build(child)
			require.NoError(t, err)
			plain = append(plain, c)
		}

		collapsed, err := b.Compile(or)
		require.NoError(t, err)
		if _, ok := collapseURIs(or.Children); !ok {
			t.Fatalf("iteration %d: %v did not collapse", i, or)
		}
		require.ElementsMatch(t, match(t, e, clause.AnyOf(plain...)), match(t, e, collapsed),
			"iteration %d: %s", i, collapsed)
	}
}

func randomLeaf(r *rand.Rand) query.Query {
	switch r.IntN(5) {
	case 0:
		return query.UriTerm{URI: randomURI(r), Operator: []query.Operator{query.EQ, query.NE}[r.IntN(2)]}
	case 1:
		return query.TypeTerm{Term: []string{"file", "folder"}[r.IntN(2)],
			Operator: []query.Operator{query.EQ, query.NE, query.IN, query.NI}[r.IntN(4)]}
	case 2:
		return query.UriPrefix{URI: randomURI(r), IncludeSelf: r.IntN(2) == 0, Inverted: r.IntN(2) == 0}
	case 3:
		return query.PropertyTerm{
			Definition: property.MustDefinition(property.DefaultNamespace, "title", value.TypeString),
			Term:       []string{"alpha", "Beta", "gamma"}[r.IntN(3)],
			Operator:   []query.Operator{query.EQ, query.NE, query.EQIgnoreCase, query.NEIgnoreCase}[r.IntN(4)],
		}
	default:
		return query.PropertyTerm{
			Definition: property.MustDefinition(property.DefaultNamespace, "size", value.TypeLong),
			Term:       []string{"0", "3", "5", "9"}[r.IntN(4)],
			Operator:   []query.Operator{query.GE, query.LT, query.NE}[r.IntN(3)],
		}
	}
}

func randomTree(r *rand.Rand, depth int) query.Query {
	if depth == 0 || r.IntN(3) == 0 {
		return randomLeaf(r)
	}
	n := 1 + r.IntN(3)
	children := make([]query.Query, 0, n)
	for range n {
		children = append(children, randomTree(r, depth-1))
	}
	if r.IntN(2) == 0 {
		return query.And{Children: children}
	}
	return query.Or{Children: children}
}

// naive compiles q with plain filter and should combinations and no rewriting.
func naive(t *testing.T, b *Builder, q query.Query) clause.Clause {
	t.Helper()
	switch n := q.(type) {
	case query.And:
		out := clause.Bool{}
		for _, child := range n.Children {
			out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.Filter, Clause: naive(t, b, child)})
		}
		return out
	case query.Or:
		out := clause.Bool{}
		for _, child := range n.Children {
			out.Clauses = append(out.Clauses, clause.BoolClause{Occur: clause.Should, Clause: naive(t, b, child)})
		}
		return out
	default:
		c, err := b.Build(q)
		require.NoError(t, err)
		return c
	}
}

func TestNegationRewrite_PreservesMatches(t *testing.T) {
	b, e := newCorpus(t)
	r := rand.New(rand.NewPCG(3, 5))

	for i := range 500 {
		q := randomTree(r, 3)
		compiled, err := b.Compile(q)
		require.NoError(t, err)
		require.ElementsMatch(t, match(t, e, naive(t, b, q)), match(t, e, compiled),
			"iteration %d: %s", i, compiled)
	}
}

func TestNegationRewrite_ConjunctionOfNegations(t *testing.T) {
	b, e := newCorpus(t)

	q := query.And{Children: []query.Query{
		query.UriPrefix{URI: "/a", IncludeSelf: true, Inverted: true},
		query.TypeTerm{Term: "folder", Operator: query.NE},
	}}
	compiled, err := b.Compile(q)
	require.NoError(t, err)

	got := match(t, e, compiled)
	require.ElementsMatch(t, []string{"/f/g", "/f/g/h"}, got)
	require.ElementsMatch(t, match(t, e, naive(t, b, q)), got)
}
