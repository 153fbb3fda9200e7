package query

import "testing"

type kindVisitor struct{}

func (kindVisitor) And(And) (string, error)                           { return "and", nil }
func (kindVisitor) Or(Or) (string, error)                             { return "or", nil }
func (kindVisitor) MatchAll(MatchAll) (string, error)                 { return "all", nil }
func (kindVisitor) AclExists(AclExists) (string, error)               { return "acl", nil }
func (kindVisitor) AclInheritedFrom(AclInheritedFrom) (string, error) { return "aclfrom", nil }
func (kindVisitor) UriTerm(UriTerm) (string, error)                   { return "uri", nil }
func (kindVisitor) UriPrefix(UriPrefix) (string, error)               { return "uriprefix", nil }
func (kindVisitor) UriSet(UriSet) (string, error)                     { return "uriset", nil }
func (kindVisitor) UriDepth(UriDepth) (string, error)                 { return "uridepth", nil }
func (kindVisitor) NameTerm(NameTerm) (string, error)                 { return "name", nil }
func (kindVisitor) NameRange(NameRange) (string, error)               { return "namerange", nil }
func (kindVisitor) NamePrefix(NamePrefix) (string, error)             { return "nameprefix", nil }
func (kindVisitor) NameWildcard(NameWildcard) (string, error)         { return "namewildcard", nil }
func (kindVisitor) PropertyTerm(PropertyTerm) (string, error)         { return "prop", nil }
func (kindVisitor) PropertyTerms(PropertyTerms) (string, error)       { return "props", nil }
func (kindVisitor) PropertyRange(PropertyRange) (string, error)       { return "proprange", nil }
func (kindVisitor) PropertyPrefix(PropertyPrefix) (string, error)     { return "propprefix", nil }
func (kindVisitor) PropertyWildcard(PropertyWildcard) (string, error) { return "propwildcard", nil }
func (kindVisitor) PropertyExists(PropertyExists) (string, error)     { return "propexists", nil }
func (kindVisitor) TypeTerm(TypeTerm) (string, error)                 { return "type", nil }

func TestVisit_Dispatch(t *testing.T) {
	tests := []struct {
		q    Query
		want string
	}{
		{And{}, "and"},
		{Or{}, "or"},
		{MatchAll{}, "all"},
		{AclExists{}, "acl"},
		{UriPrefix{}, "uriprefix"},
		{UriSet{}, "uriset"},
		{PropertyExists{}, "propexists"},
		{TypeTerm{}, "type"},
	}
	for _, tt := range tests {
		got, err := Visit[string](tt.q, kindVisitor{})
		if err != nil {
			t.Fatalf("Visit(%T): %v", tt.q, err)
		}
		if got != tt.want {
			t.Errorf("Visit(%T) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestVisit_Nil(t *testing.T) {
	if _, err := Visit[string](nil, kindVisitor{}); err == nil {
		t.Error("expected error for nil query")
	}
}

func TestOperator_Predicates(t *testing.T) {
	if !NE.IsNegated() || !NI.IsNegated() || EQ.IsNegated() {
		t.Error("IsNegated mismatch")
	}
	if !EQIgnoreCase.IsIgnoreCase() || EQ.IsIgnoreCase() {
		t.Error("IsIgnoreCase mismatch")
	}
	if !GT.IsRange() || IN.IsRange() {
		t.Error("IsRange mismatch")
	}
	for i := range operatorNames {
		op := Operator(i)
		got, err := ParseOperator(op.String())
		if err != nil || got != op {
			t.Errorf("ParseOperator(%s) = %v, %v", op, got, err)
		}
	}
	if _, err := ParseOperator("LIKE"); err == nil {
		t.Error("expected error")
	}
}

func TestSearch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Search
		wantErr bool
	}{
		{"ok", Search{Query: MatchAll{}, Limit: 10}, false},
		{"nil query", Search{Limit: 10}, true},
		{"negative offset", Search{Query: MatchAll{}, Offset: -1}, true},
		{"limit too large", Search{Query: MatchAll{}, Limit: 1000}, true},
		{"property sort without definition", Search{Query: MatchAll{}, Sort: []SortField{{Kind: SortProperty}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate(100)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTypeTerm(t *testing.T) {
	if _, err := NewTypeTerm("file", GT); err == nil {
		t.Fatal("expected error for GT")
	}
	q, err := NewTypeTerm("file", NI)
	if err != nil {
		t.Fatalf("NewTypeTerm: %v", err)
	}
	if q != (TypeTerm{Term: "file", Operator: NI}) {
		t.Errorf("got %+v", q)
	}
}
