package property

import (
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/value"
)

func TestNewDefinition_Validation(t *testing.T) {
	tests := []struct {
		name    string
		ns      Namespace
		prop    string
		typ     value.Type
		opts    []Option
		wantErr bool
	}{
		{"plain", DefaultNamespace, "title", value.TypeString, nil, false},
		{"digits and hyphen", Namespace{Prefix: "dc-2"}, "x_1-y", value.TypeLong, nil, false},
		{"empty name", DefaultNamespace, "", value.TypeString, nil, true},
		{"colon in name", DefaultNamespace, "a:b", value.TypeString, nil, true},
		{"at in name", DefaultNamespace, "a@b", value.TypeString, nil, true},
		{"bad prefix", Namespace{Prefix: "a.b"}, "x", value.TypeString, nil, true},
		{"json attrs on string", DefaultNamespace, "x", value.TypeString,
			[]Option{WithJSONAttribute("a", value.TypeLong)}, true},
		{"bad attribute", DefaultNamespace, "x", value.TypeJSON,
			[]Option{WithJSONAttribute("a b", value.TypeLong)}, true},
		{"nested attribute", DefaultNamespace, "x", value.TypeJSON,
			[]Option{WithJSONAttribute("a.b", value.TypeDate)}, false},
		{"binary attribute", DefaultNamespace, "x", value.TypeJSON,
			[]Option{WithJSONAttribute("a", value.TypeBinary)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.ns, tt.prop, tt.typ, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidDefinition) {
				t.Errorf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestDefinition_JSONAttributes(t *testing.T) {
	d := MustDefinition(DefaultNamespace, "meta", value.TypeJSON,
		WithJSONAttribute("size", value.TypeLong),
		WithJSONAttribute("author.name", value.TypeString))

	if got := d.JSONAttributes(); !slices.Equal(got, []string{"author.name", "size"}) {
		t.Errorf("JSONAttributes() = %v", got)
	}
	if d.JSONAttributeType("size") != value.TypeLong {
		t.Error("expected declared type for size")
	}
	if d.JSONAttributeType("unknown") != value.TypeString {
		t.Error("expected STRING for undeclared attribute")
	}
}

func TestNew_Validation(t *testing.T) {
	single := MustDefinition(DefaultNamespace, "title", value.TypeString)
	multi := MustDefinition(DefaultNamespace, "tags", value.TypeString, Multiple())
	dead := NewDeadDefinition(DefaultNamespace, "gone", value.TypeLong, false)

	if _, err := New(single); err == nil {
		t.Error("expected error for no values")
	}
	if _, err := New(single, value.NewString("a"), value.NewString("b")); err == nil {
		t.Error("expected error for multiple values on single property")
	}
	if _, err := New(single, value.NewLong(1)); err == nil {
		t.Error("expected error for type mismatch")
	}
	if _, err := New(multi, value.NewString("a"), value.NewString("b")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := New(dead, value.NewString("stale")); err != nil {
		t.Errorf("dead definitions must accept any value type: %v", err)
	}
}

func TestProperty_AsInherited(t *testing.T) {
	p := Must(MustDefinition(DefaultNamespace, "title", value.TypeString), value.NewString("x"))
	ip := p.AsInherited()
	if p.IsInherited() || !ip.IsInherited() {
		t.Error("AsInherited must return a marked copy")
	}
	if !ip.Value().Equal(p.Value()) {
		t.Error("inherited copy must keep values")
	}
}

func TestResource_AddReplaces(t *testing.T) {
	def := MustDefinition(Namespace{Prefix: "dc"}, "title", value.TypeString)
	r := NewResource("/a/b", "file").
		Add(Must(def, value.NewString("one"))).
		Add(Must(def, value.NewString("two")))

	if len(r.Properties()) != 1 {
		t.Fatalf("expected 1 property, got %d", len(r.Properties()))
	}
	if got := r.PropertyByPrefix("dc", "title").Value().Text(); got != "two" {
		t.Errorf("value = %q, want two", got)
	}
	if r.Property(DefaultNamespace, "title") != nil {
		t.Error("namespace must be part of the lookup key")
	}
	if r.ID() != NoID || r.AclInheritedFrom() != NoID {
		t.Error("expected NoID defaults")
	}
	if r.Name() != "b" {
		t.Errorf("Name() = %q", r.Name())
	}
}

func TestAncestorsAndDepth(t *testing.T) {
	tests := []struct {
		uri   string
		want  []string
		depth int
	}{
		{"/", nil, 0},
		{"/a", []string{"/"}, 1},
		{"/a/b/c", []string{"/", "/a", "/a/b"}, 3},
	}
	for _, tt := range tests {
		if got := Ancestors(tt.uri); !slices.Equal(got, tt.want) {
			t.Errorf("Ancestors(%q) = %v, want %v", tt.uri, got, tt.want)
		}
		if got := Depth(tt.uri); got != tt.depth {
			t.Errorf("Depth(%q) = %d, want %d", tt.uri, got, tt.depth)
		}
	}
	if NameOf("/") != "/" || NameOf("/x/y.txt") != "y.txt" {
		t.Error("NameOf mismatch")
	}
}

func TestSelection(t *testing.T) {
	title := MustDefinition(DefaultNamespace, "title", value.TypeString)
	owner := MustDefinition(Namespace{Prefix: "dc"}, "title", value.TypeString)

	s := NewSelection().AddDefinition(title)
	if !s.IncludeProperty(title) || s.IncludeProperty(owner) {
		t.Error("selection must match on prefix and name")
	}
	if s.IncludeAcl() {
		t.Error("acl not selected")
	}
	if !s.WithAcl().IncludeAcl() {
		t.Error("acl selected")
	}
	if s.IncludeProperty(nil) {
		t.Error("nil definition must not be selected")
	}
	if !SelectAll.IncludeAll() || !SelectNone.IncludeNone() {
		t.Error("predefined selects mismatch")
	}
}
