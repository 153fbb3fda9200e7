package querybuild

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/clause"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

var (
	dc       = property.Namespace{Prefix: "dc", URI: "http://purl.org/dc/elements/1.1/"}
	title    = property.MustDefinition(property.DefaultNamespace, "title", value.TypeString)
	tags     = property.MustDefinition(property.DefaultNamespace, "tags", value.TypeString, property.Multiple())
	size     = property.MustDefinition(property.DefaultNamespace, "size", value.TypeLong)
	modified = property.MustDefinition(property.DefaultNamespace, "modified", value.TypeDate)
	creator  = property.MustDefinition(dc, "creator", value.TypePrincipal)
	content  = property.MustDefinition(property.DefaultNamespace, "content", value.TypeBinary)
	meta     = property.MustDefinition(property.DefaultNamespace, "meta", value.TypeJSON,
		property.WithJSONAttribute("size", value.TypeLong),
		property.WithJSONAttribute("author", value.TypeString))
)

func newBuilder() *Builder {
	return New(fields.NewCodec(language.English, time.UTC))
}

func TestCompile_Clauses(t *testing.T) {
	b := newBuilder()
	uriA := clause.Term{Field: fields.URIField, Text: "/a"}
	uriB := clause.Term{Field: fields.URIField, Text: "/b"}

	cases := []struct {
		name string
		q    query.Query
		want clause.Clause
	}{
		{"match all", query.MatchAll{}, clause.MatchAll{}},
		{"uri eq", query.UriTerm{URI: "/a", Operator: query.EQ}, uriA},
		{"uri ne", query.UriTerm{URI: "/a", Operator: query.NE}, clause.Not(uriA)},
		{"uri prefix", query.UriPrefix{URI: "/a/"}, clause.Term{Field: fields.URIAncestorsField, Text: "/a"}},
		{"uri prefix with self", query.UriPrefix{URI: "/a", IncludeSelf: true}, clause.AnyOf(
			clause.Term{Field: fields.URIAncestorsField, Text: "/a"}, uriA)},
		{"uri set ni", query.UriSet{URIs: []string{"/a", "/b"}, Operator: query.NI},
			clause.Not(clause.TermsSet{Field: fields.URIField, Terms: []string{"/a", "/b"}})},
		{"uri depth", query.UriDepth{Depth: 2, Operator: query.GE}, clause.Range{
			Field: fields.URIDepthField, Lower: fields.EncodeNumeric(2), IncludeLower: true, Numeric: true}},
		{"name ignore case", query.NameTerm{Term: "ReadMe", Operator: query.NEIgnoreCase},
			clause.Not(clause.Term{Field: fields.NameLowercaseField, Text: "readme"})},
		{"name lt", query.NameTerm{Term: "m", Operator: query.LT},
			clause.Range{Field: fields.NameField, Upper: "m"}},
		{"name wildcard", query.NameWildcard{Term: "*.txt", Inverted: true},
			clause.Not(clause.Wildcard{Field: fields.NameField, Pattern: "*.txt"})},
		{"type in", query.TypeTerm{Term: "file", Operator: query.IN},
			clause.Term{Field: fields.TypesField, Text: "file"}},
		{"acl inherited", query.AclInheritedFrom{ResourceID: property.NoID},
			clause.Term{Field: fields.AclInheritedFromField, Text: fields.EncodeNumeric(-1)}},
		{"acl wildcard", query.AclExists{Privilege: acl.ReadWrite, SuperPrivileges: true},
			clause.TermsSet{Field: fields.FieldNamesField, Terms: []string{
				"acl_read-write_u", "acl_read-write_g", "acl_all_u", "acl_all_g"}}},
		{"property ignore case", query.PropertyTerm{Definition: title, Term: "Hello", Operator: query.EQIgnoreCase},
			clause.Term{Field: "l_p_title", Text: "hello"}},
		{"property range op", query.PropertyTerm{Definition: size, Term: "5", Operator: query.GT},
			clause.Range{Field: "p_size", Lower: fields.EncodeNumeric(5), Numeric: true}},
		{"property date", query.PropertyTerm{Definition: modified, Term: "1700000000999", Operator: query.EQ},
			clause.Term{Field: "p_modified", Text: fields.EncodeNumeric(1700000000000)}},
		{"property terms", query.PropertyTerms{Definition: size, Terms: []string{"1", "2"}, Operator: query.IN},
			clause.TermsSet{Field: "p_size", Terms: []string{fields.EncodeNumeric(1), fields.EncodeNumeric(2)}}},
		{"json attribute", query.PropertyTerm{Definition: meta, Attribute: "size", Term: "7", Operator: query.EQ},
			clause.Term{Field: "p_meta@size", Text: fields.EncodeNumeric(7)}},
		{"json prefix ignore case", query.PropertyPrefix{Definition: meta, Attribute: "author", Term: "An", IgnoreCase: true},
			clause.Prefix{Field: "l_p_meta@author", Prefix: "an"}},
		{"principal prefix", query.PropertyPrefix{Definition: creator, Term: "ali"},
			clause.Prefix{Field: "p_dc:creator", Prefix: "ali"}},
		{"property exists", query.PropertyExists{Definition: meta, Attribute: "size", Inverted: true},
			clause.Not(clause.Term{Field: fields.FieldNamesField, Text: "p_meta@size"})},
		{"property range", query.PropertyRange{Definition: size, From: "1", To: "9", ToInclusive: true},
			clause.Range{Field: "p_size", Lower: fields.EncodeNumeric(1), Upper: fields.EncodeNumeric(9),
				IncludeUpper: true, Numeric: true}},
		{"and lifts negation", query.And{Children: []query.Query{
			query.UriTerm{URI: "/a", Operator: query.NE},
			query.TypeTerm{Term: "file", Operator: query.EQ},
		}}, clause.Bool{Clauses: []clause.BoolClause{
			{Occur: clause.MustNot, Clause: uriA},
			{Occur: clause.Filter, Clause: clause.Term{Field: fields.TypeField, Text: "file"}},
		}}},
		{"negative and gets match all", query.And{Children: []query.Query{
			query.UriTerm{URI: "/a", Operator: query.NE},
			query.UriTerm{URI: "/b", Operator: query.NE},
		}}, clause.Bool{Clauses: []clause.BoolClause{
			{Occur: clause.MustNot, Clause: uriA},
			{Occur: clause.MustNot, Clause: uriB},
			{Occur: clause.Must, Clause: clause.MatchAll{}},
		}}},
		{"single child and", query.And{Children: []query.Query{query.UriTerm{URI: "/a", Operator: query.EQ}}}, uriA},
		{"empty and", query.And{}, clause.MatchAll{}},
		{"empty or", query.Or{}, clause.MatchNone{}},
		{"uri or collapses", query.Or{Children: []query.Query{
			query.UriTerm{URI: "/a", Operator: query.EQ},
			query.UriSet{URIs: []string{"/b"}, Operator: query.IN},
			query.UriPrefix{URI: "/c", IncludeSelf: true},
			query.UriPrefix{URI: "/d"},
		}}, clause.AnyOf(
			clause.TermsSet{Field: fields.URIField, Terms: []string{"/a", "/b", "/c"}},
			clause.TermsSet{Field: fields.URIAncestorsField, Terms: []string{"/c", "/d"}},
		)},
		{"uri or with negation does not collapse", query.Or{Children: []query.Query{
			query.UriTerm{URI: "/a", Operator: query.EQ},
			query.UriTerm{URI: "/b", Operator: query.NE},
		}}, clause.AnyOf(uriA, clause.Not(uriB))},
		{"or makes negative children positive", query.Or{Children: []query.Query{
			query.TypeTerm{Term: "file", Operator: query.EQ},
			query.And{Children: []query.Query{query.UriTerm{URI: "/a", Operator: query.NE}}},
		}}, clause.AnyOf(
			clause.Term{Field: fields.TypeField, Text: "file"},
			clause.Bool{Clauses: []clause.BoolClause{
				{Occur: clause.MustNot, Clause: uriA},
				{Occur: clause.Must, Clause: clause.MatchAll{}},
			}},
		)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.Compile(tc.q)
			require.NoError(t, err)
			require.Equal(t, tc.want, got, "got %s", got)
		})
	}
}

func TestCompile_AclPrincipal(t *testing.T) {
	b := newBuilder()
	staff := acl.NewGroup("staff")

	got, err := b.Compile(query.AclExists{Privilege: acl.ReadWrite, Principal: &staff, SuperPrivileges: true})
	require.NoError(t, err)
	require.Equal(t, clause.AnyOf(
		clause.Term{Field: "acl_read-write_g", Text: "staff"},
		clause.Term{Field: "acl_all_g", Text: "staff"},
	), got)

	got, err = b.Compile(query.AclExists{Privilege: acl.All, Principal: &staff, Inverted: true})
	require.NoError(t, err)
	require.Equal(t, clause.Bool{Clauses: []clause.BoolClause{
		{Occur: clause.MustNot, Clause: clause.Term{Field: "acl_all_g", Text: "staff"}},
		{Occur: clause.Must, Clause: clause.MatchAll{}},
	}}, got)
}

func TestCompile_Errors(t *testing.T) {
	b := newBuilder()

	cases := []struct {
		name     string
		q        query.Query
		wantType string
		sentinel error
	}{
		{"prefix on long", query.PropertyPrefix{Definition: size, Term: "1"}, "long", domain.ErrQueryBuild},
		{"wildcard on date", query.PropertyWildcard{Definition: modified, Term: "2024*"}, "date", domain.ErrQueryBuild},
		{"json without attribute", query.PropertyTerm{Definition: meta, Term: "x", Operator: query.EQ}, "json", domain.ErrQueryBuild},
		{"json prefix without attribute", query.PropertyPrefix{Definition: meta, Term: "x"}, "json", domain.ErrQueryBuild},
		{"attribute on string", query.PropertyTerm{Definition: title, Attribute: "a", Term: "x", Operator: query.EQ}, "string", domain.ErrQueryBuild},
		{"binary", query.PropertyTerm{Definition: content, Term: "x", Operator: query.EQ}, "binary", domain.ErrQueryBuild},
		{"ignore case range", query.PropertyRange{Definition: title, From: "a", IgnoreCase: true}, "string", domain.ErrQueryBuild},
		{"set op on term", query.PropertyTerm{Definition: title, Term: "x", Operator: query.IN}, "string", domain.ErrQueryBuild},
		{"term op on terms", query.PropertyTerms{Definition: title, Terms: []string{"x"}, Operator: query.EQ}, "string", domain.ErrQueryBuild},
		{"principal ignore case", query.PropertyTerm{Definition: creator, Term: "x", Operator: query.EQIgnoreCase}, "principal", domain.ErrQueryBuild},
		{"type range", query.TypeTerm{Term: "file", Operator: query.GE}, "string", domain.ErrQueryBuild},
		{"uri range", query.UriTerm{URI: "/a", Operator: query.LT}, "string", domain.ErrQueryBuild},
		{"bad date", query.PropertyTerm{Definition: modified, Term: "yesterday", Operator: query.EQ}, "", domain.ErrValueFormat},
		{"bad long in nested tree", query.Or{Children: []query.Query{
			query.MatchAll{},
			query.And{Children: []query.Query{query.PropertyTerm{Definition: size, Term: "x", Operator: query.EQ}}},
		}}, "", domain.ErrValueFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Compile(tc.q)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.sentinel), "error %v", err)
			if tc.wantType != "" {
				var qe *domain.QueryBuildError
				require.True(t, errors.As(err, &qe))
				require.Equal(t, tc.wantType, qe.Type)
			}
		})
	}
}

func TestSort(t *testing.T) {
	b := newBuilder()

	keys, err := b.Sort([]query.SortField{
		{Kind: query.SortName},
		{Kind: query.SortProperty, Definition: title, Descending: true},
		{Kind: query.SortProperty, Definition: size},
		{Kind: query.SortProperty, Definition: meta, Attribute: "author"},
		{Kind: query.SortProperty, Definition: meta, Attribute: "size"},
		{Kind: query.SortType},
	})
	require.NoError(t, err)
	require.Equal(t, []clause.SortKey{
		{Field: fields.NameSortField},
		{Field: "s_p_title", Descending: true},
		{Field: "p_size", Numeric: true},
		{Field: "s_p_meta@author"},
		{Field: "p_meta@size", Numeric: true},
		{Field: fields.TypeField},
	}, keys)

	_, err = b.Sort([]query.SortField{{Kind: query.SortProperty, Definition: tags}})
	require.ErrorIs(t, err, domain.ErrQueryBuild)
	_, err = b.Sort([]query.SortField{{Kind: query.SortProperty, Definition: meta}})
	require.ErrorIs(t, err, domain.ErrQueryBuild)
}
