package fields

import (
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/value"
)

// Property field name grammar:
//
//	[l_|s_] p_ [<prefix>:] <name> [@<attribute>]
//
// Names and prefixes never contain ':' or '@', so decoding is unambiguous.
const (
	propertyMarker  = "p_"
	lowercaseMarker = "l_"
	sortMarker      = "s_"
	prefixSep       = ":"
	attributeSep    = "@"
)

// FieldName is a decoded property field name.
type FieldName struct {
	Prefix    string
	Name      string
	Attribute string
	Lowercase bool
	Sort      bool
}

// String encodes the field name.
func (f FieldName) String() string {
	var b strings.Builder
	switch {
	case f.Lowercase:
		b.WriteString(lowercaseMarker)
	case f.Sort:
		b.WriteString(sortMarker)
	}
	b.WriteString(propertyMarker)
	if f.Prefix != "" {
		b.WriteString(f.Prefix)
		b.WriteString(prefixSep)
	}
	b.WriteString(f.Name)
	if f.Attribute != "" {
		b.WriteString(attributeSep)
		b.WriteString(f.Attribute)
	}
	return b.String()
}

// Base returns the stored field name of the same property and attribute.
func (f FieldName) Base() FieldName {
	f.Lowercase, f.Sort = false, false
	return f
}

// PropertyFields names property fields.
type PropertyFields struct{}

// FieldName returns the field of def, or its lowercase variant.
func (PropertyFields) FieldName(def *property.Definition, lowercase bool) string {
	return FieldName{Prefix: def.Namespace().Prefix, Name: def.Name(), Lowercase: lowercase}.String()
}

// JSONFieldName returns the field of a JSON attribute of def, or its lowercase variant.
func (PropertyFields) JSONFieldName(def *property.Definition, attribute string, lowercase bool) string {
	return FieldName{
		Prefix: def.Namespace().Prefix, Name: def.Name(), Attribute: attribute, Lowercase: lowercase,
	}.String()
}

// SortFieldName returns the collated sort field of def, or of one of its JSON attributes.
func (PropertyFields) SortFieldName(def *property.Definition, attribute string) string {
	return FieldName{Prefix: def.Namespace().Prefix, Name: def.Name(), Attribute: attribute, Sort: true}.String()
}

// Decode parses a property field name. It reports false for anything that is not one.
func (PropertyFields) Decode(field string) (FieldName, bool) {
	var fn FieldName
	rest := field
	switch {
	case strings.HasPrefix(rest, lowercaseMarker+propertyMarker):
		fn.Lowercase = true
		rest = rest[len(lowercaseMarker):]
	case strings.HasPrefix(rest, sortMarker+propertyMarker):
		fn.Sort = true
		rest = rest[len(sortMarker):]
	}
	if !strings.HasPrefix(rest, propertyMarker) {
		return FieldName{}, false
	}
	rest = rest[len(propertyMarker):]

	if base, attr, ok := strings.Cut(rest, attributeSep); ok {
		if !property.IsValidAttribute(attr) {
			return FieldName{}, false
		}
		fn.Attribute = attr
		rest = base
	}
	if prefix, name, ok := strings.Cut(rest, prefixSep); ok {
		if !property.IsValidName(prefix) {
			return FieldName{}, false
		}
		fn.Prefix = prefix
		rest = name
	}
	if !property.IsValidName(rest) {
		return FieldName{}, false
	}
	fn.Name = rest
	return fn, true
}

// PropertyName returns the local property name encoded in field, or "".
func (pf PropertyFields) PropertyName(field string) string {
	fn, ok := pf.Decode(field)
	if !ok {
		return ""
	}
	return fn.Name
}

// NamespacePrefix returns the namespace prefix encoded in field, or "".
func (pf PropertyFields) NamespacePrefix(field string) string {
	fn, ok := pf.Decode(field)
	if !ok {
		return ""
	}
	return fn.Prefix
}

// JSONFieldDataType returns the declared type of a JSON attribute.
func (PropertyFields) JSONFieldDataType(def *property.Definition, attribute string) value.Type {
	return def.JSONAttributeType(attribute)
}

// IsPropertyField reports whether field is a stored property field, without decoding it.
func (PropertyFields) IsPropertyField(field string) bool {
	return strings.HasPrefix(field, propertyMarker)
}

// IsPropertyFieldInNamespace reports whether field is a stored property field of ns.
func (pf PropertyFields) IsPropertyFieldInNamespace(field string, ns property.Namespace) bool {
	if !pf.IsPropertyField(field) {
		return false
	}
	rest := field[len(propertyMarker):]
	if ns.IsDefault() {
		base, _, _ := strings.Cut(rest, attributeSep)
		return !strings.Contains(base, prefixSep)
	}
	return strings.HasPrefix(rest, ns.Prefix+prefixSep)
}
