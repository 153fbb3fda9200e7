package property

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/value"
)

// Namespace groups property names. The default namespace has an empty prefix.
type Namespace struct {
	Prefix string
	URI    string
}

// DefaultNamespace holds unprefixed properties.
var DefaultNamespace = Namespace{}

// IsDefault reports whether ns is the unprefixed namespace.
func (ns Namespace) IsDefault() bool { return ns.Prefix == "" }

func (ns Namespace) String() string {
	if ns.IsDefault() {
		return "default"
	}
	return ns.Prefix
}

// Definition is a property type definition: namespace, name, value type and multiplicity.
type Definition struct {
	namespace   Namespace
	name        string
	typ         value.Type
	multiple    bool
	inheritable bool
	dead        bool
	jsonAttrs   map[string]value.Type
}

// Option configures a Definition.
type Option func(*Definition)

// Multiple marks the definition as multi-valued.
func Multiple() Option { return func(d *Definition) { d.multiple = true } }

// Inheritable marks the definition as inheritable from ancestor resources.
func Inheritable() Option { return func(d *Definition) { d.inheritable = true } }

// WithJSONAttribute declares the type of a JSON attribute. Attributes default to STRING.
func WithJSONAttribute(spec string, t value.Type) Option {
	return func(d *Definition) {
		if d.jsonAttrs == nil {
			d.jsonAttrs = make(map[string]value.Type)
		}
		d.jsonAttrs[spec] = t
	}
}

// NewDefinition validates and creates a Definition.
// Name and prefix: ^[A-Za-z0-9_-]+$. JSON attribute specifiers additionally allow '.'.
func NewDefinition(ns Namespace, name string, t value.Type, opts ...Option) (*Definition, error) {
	if !IsValidName(name) {
		return nil, fmt.Errorf("%w: property name %q must be alphanumeric with underscores and hyphens",
			domain.ErrInvalidDefinition, name)
	}
	if !ns.IsDefault() && !IsValidName(ns.Prefix) {
		return nil, fmt.Errorf("%w: namespace prefix %q must be alphanumeric with underscores and hyphens",
			domain.ErrInvalidDefinition, ns.Prefix)
	}

	d := &Definition{namespace: ns, name: name, typ: t}
	for _, opt := range opts {
		opt(d)
	}

	if len(d.jsonAttrs) > 0 && t != value.TypeJSON {
		return nil, fmt.Errorf("%w: %s: json attributes declared on %s property",
			domain.ErrInvalidDefinition, d, t)
	}
	for spec, at := range d.jsonAttrs {
		if !IsValidAttribute(spec) {
			return nil, fmt.Errorf("%w: %s: invalid json attribute %q", domain.ErrInvalidDefinition, d, spec)
		}
		if at == value.TypeJSON || at == value.TypeBinary {
			return nil, fmt.Errorf("%w: %s: json attribute %q cannot be %s",
				domain.ErrInvalidDefinition, d, spec, at)
		}
	}
	return d, nil
}

// MustDefinition calls NewDefinition and panics on error.
func MustDefinition(ns Namespace, name string, t value.Type, opts ...Option) *Definition {
	d, err := NewDefinition(ns, name, t, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDeadDefinition describes a property whose definition is no longer configured.
// Dead definitions skip name validation so stale data can still be read.
func NewDeadDefinition(ns Namespace, name string, t value.Type, multiple bool) *Definition {
	return &Definition{namespace: ns, name: name, typ: t, multiple: multiple, dead: true}
}

// Namespace returns the namespace.
func (d *Definition) Namespace() Namespace { return d.namespace }

// Name returns the local property name.
func (d *Definition) Name() string { return d.name }

// Type returns the value type.
func (d *Definition) Type() value.Type { return d.typ }

// IsMultiple reports whether the property holds several values.
func (d *Definition) IsMultiple() bool { return d.multiple }

// IsInheritable reports whether the property is inherited from ancestor resources.
func (d *Definition) IsInheritable() bool { return d.inheritable }

// IsDead reports whether the definition was reconstructed without configuration.
func (d *Definition) IsDead() bool { return d.dead }

// JSONAttributes returns the declared JSON attribute specifiers, sorted.
func (d *Definition) JSONAttributes() []string {
	return slices.Sorted(maps.Keys(d.jsonAttrs))
}

// JSONAttributeType returns the declared type of a JSON attribute, STRING if undeclared.
func (d *Definition) JSONAttributeType(spec string) value.Type {
	if t, ok := d.jsonAttrs[spec]; ok {
		return t
	}
	return value.TypeString
}

// Is reports whether d names the same property as (ns prefix, name).
func (d *Definition) Is(prefix, name string) bool {
	return d.namespace.Prefix == prefix && d.name == name
}

func (d *Definition) String() string {
	if d.namespace.IsDefault() {
		return d.name
	}
	return d.namespace.Prefix + ":" + d.name
}

// IsValidName reports whether s matches [A-Za-z0-9_-]+.
func IsValidName(s string) bool {
	return isValid(s, false)
}

// IsValidAttribute reports whether s matches [A-Za-z0-9_.-]+.
func IsValidAttribute(s string) bool {
	return isValid(s, true)
}

func isValid(s string, allowDot bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-' || (allowDot && r == '.')
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
