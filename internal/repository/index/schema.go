package index

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/propdex/internal/db"
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// attribute is the RediSearch side of one index field. Every field is a
// case-sensitive TAG over its terms; numeric fields also get a NUMERIC attribute.
type attribute struct {
	tag     string
	numeric string
}

// Schema maps index field names to RediSearch attributes. It is immutable.
type Schema struct {
	name   string
	prefix string
	attrs  map[string]attribute
	order  []string
}

// alias derives a stable attribute name from an index field name. Field names
// carry characters that are not valid in attribute names or JSONPath keys.
func alias(field string) string {
	return "f" + strconv.FormatUint(xxhash.Sum64String(field), 36)
}

// BuildSchema declares the reserved resource and acl fields plus the fields of
// every property in defs. Binary properties are never indexed; JSON properties
// contribute their declared attributes only.
func BuildSchema(name, prefix string, defs []*property.Definition) (*Schema, error) {
	if !db.IsValidIdentifier(name) {
		return nil, fmt.Errorf("invalid index name %q", name)
	}
	if prefix == "" {
		return nil, fmt.Errorf("key prefix is required")
	}
	s := &Schema{name: name, prefix: prefix, attrs: make(map[string]attribute)}

	for _, f := range []string{
		fields.URIField, fields.URIAncestorsField, fields.NameField, fields.NameLowercaseField,
		fields.TypeField, fields.TypesField, fields.FieldNamesField,
	} {
		s.add(f, false)
	}
	for _, f := range []string{fields.IDField, fields.URIDepthField, fields.AclInheritedFromField} {
		s.add(f, true)
	}
	for _, p := range acl.Privileges {
		s.add(fields.AceFieldName(p, acl.User), false)
		s.add(fields.AceFieldName(p, acl.Group), false)
	}

	var pf fields.PropertyFields
	for _, def := range defs {
		switch def.Type() {
		case value.TypeBinary:
			continue
		case value.TypeJSON:
			for _, attr := range def.JSONAttributes() {
				at := def.JSONAttributeType(attr)
				s.add(pf.JSONFieldName(def, attr, false), isNumeric(at))
				if at.IsTextual() {
					s.add(pf.JSONFieldName(def, attr, true), false)
				}
			}
		default:
			s.add(pf.FieldName(def, false), isNumeric(def.Type()))
			if def.Type() == value.TypeString || def.Type() == value.TypeHTML {
				s.add(pf.FieldName(def, true), false)
			}
		}
	}
	return s, nil
}

func isNumeric(t value.Type) bool { return t.IsNumeric() || t.IsTemporal() }

func (s *Schema) add(field string, numeric bool) {
	if _, ok := s.attrs[field]; ok {
		return
	}
	a := alias(field)
	attr := attribute{tag: "t" + a}
	if numeric {
		attr.numeric = "n" + a
	}
	s.attrs[field] = attr
	s.order = append(s.order, field)
}

// Name returns the FT index name.
func (s *Schema) Name() string { return s.name }

// Prefix returns the document key prefix.
func (s *Schema) Prefix() string { return s.prefix }

// Has reports whether field is searchable.
func (s *Schema) Has(field string) bool {
	_, ok := s.attrs[field]
	return ok
}

// Definition returns the FT.CREATE definition over JSON documents.
func (s *Schema) Definition() *db.IndexDefinition {
	b := db.NewIndex(s.name, s.prefix)
	for _, f := range s.order {
		a := s.attrs[f]
		b.Tag("$.t."+a.tag+"[*]", a.tag)
		if a.numeric != "" {
			b.Numeric("$.n."+a.numeric+"[*]", a.numeric)
		}
	}
	return b.MustBuild()
}

// Fingerprint identifies the definition. Equal fingerprints mean the existing
// index can be reused.
func (s *Schema) Fingerprint() string {
	return strconv.FormatUint(xxhash.Sum64String(s.Definition().String()), 16)
}
