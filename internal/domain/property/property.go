package property

import (
	"fmt"
	"path"

	"github.com/kailas-cloud/propdex/internal/domain/value"
)

// NoID marks an absent numeric resource id or acl inheritance source.
const NoID int64 = -1

// Property is a named, typed, possibly multi-valued piece of resource metadata.
type Property struct {
	def       *Definition
	values    []value.Value
	inherited bool
}

// New validates and creates a Property. Dead definitions accept values of any type.
func New(def *Definition, values ...value.Value) (*Property, error) {
	if def == nil {
		return nil, fmt.Errorf("property definition is required")
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("property %s: at least one value is required", def)
	}
	if !def.multiple && len(values) > 1 {
		return nil, fmt.Errorf("property %s: single-valued property given %d values", def, len(values))
	}
	if !def.dead {
		for _, v := range values {
			if v.Type() != def.typ {
				return nil, fmt.Errorf("property %s: value of type %s, want %s", def, v.Type(), def.typ)
			}
		}
	}
	return &Property{def: def, values: append([]value.Value(nil), values...)}, nil
}

// Must calls New and panics on error.
func Must(def *Definition, values ...value.Value) *Property {
	p, err := New(def, values...)
	if err != nil {
		panic(err)
	}
	return p
}

// AsInherited returns a copy of p marked as inherited from an ancestor resource.
func (p *Property) AsInherited() *Property {
	return &Property{def: p.def, values: p.values, inherited: true}
}

// Definition returns the property type definition.
func (p *Property) Definition() *Definition { return p.def }

// Namespace returns the namespace of the definition.
func (p *Property) Namespace() Namespace { return p.def.namespace }

// Name returns the local name of the definition.
func (p *Property) Name() string { return p.def.name }

// Type returns the value type of the definition.
func (p *Property) Type() value.Type { return p.def.typ }

// Value returns the first value.
func (p *Property) Value() value.Value { return p.values[0] }

// Values returns all values in order.
func (p *Property) Values() []value.Value { return p.values }

// IsInherited reports whether the property was inherited from an ancestor.
func (p *Property) IsInherited() bool { return p.inherited }

func (p *Property) String() string {
	return fmt.Sprintf("%s=%v", p.def, p.values)
}

// Set is a read-only view of a resource's properties.
type Set interface {
	URI() string
	// ID returns the numeric resource id, or NoID.
	ID() int64
	Name() string
	ResourceType() string
	// AclInheritedFrom returns the id of the resource the acl is inherited from, or NoID.
	AclInheritedFrom() int64
	Properties() []*Property
	Property(ns Namespace, name string) *Property
	PropertyByPrefix(prefix, name string) *Property
}

// Resource is the in-memory Set built by property evaluation.
type Resource struct {
	uri          string
	id           int64
	resourceType string
	aclFrom      int64
	props        []*Property
}

// NewResource creates an empty property set for uri.
func NewResource(uri, resourceType string) *Resource {
	return &Resource{uri: uri, id: NoID, resourceType: resourceType, aclFrom: NoID}
}

// WithID sets the numeric resource id.
func (r *Resource) WithID(id int64) *Resource {
	r.id = id
	return r
}

// WithAclInheritedFrom records the resource the acl is inherited from.
func (r *Resource) WithAclInheritedFrom(id int64) *Resource {
	r.aclFrom = id
	return r
}

// Add appends properties, replacing any existing property of the same definition.
func (r *Resource) Add(props ...*Property) *Resource {
	for _, p := range props {
		replaced := false
		for i, existing := range r.props {
			if existing.def.Is(p.def.namespace.Prefix, p.def.name) {
				r.props[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			r.props = append(r.props, p)
		}
	}
	return r
}

// URI returns the resource path.
func (r *Resource) URI() string { return r.uri }

// ID returns the numeric id, or NoID.
func (r *Resource) ID() int64 { return r.id }

// Name returns the last path segment of the URI.
func (r *Resource) Name() string { return NameOf(r.uri) }

// ResourceType returns the resource type name.
func (r *Resource) ResourceType() string { return r.resourceType }

// AclInheritedFrom returns the acl source id, or NoID.
func (r *Resource) AclInheritedFrom() int64 { return r.aclFrom }

// Properties returns all properties in insertion order.
func (r *Resource) Properties() []*Property { return r.props }

// Property returns the property named (ns, name), or nil.
func (r *Resource) Property(ns Namespace, name string) *Property {
	return r.PropertyByPrefix(ns.Prefix, name)
}

// PropertyByPrefix returns the property named (prefix, name), or nil.
func (r *Resource) PropertyByPrefix(prefix, name string) *Property {
	for _, p := range r.props {
		if p.def.Is(prefix, name) {
			return p
		}
	}
	return nil
}

// NameOf returns the last segment of a resource URI. The root URI is named "/".
func NameOf(uri string) string {
	if uri == "/" || uri == "" {
		return uri
	}
	return path.Base(uri)
}

// Ancestors returns the proper ancestor URIs of uri, root first.
func Ancestors(uri string) []string {
	if uri == "/" || uri == "" {
		return nil
	}
	var out []string
	for p := path.Dir(uri); ; p = path.Dir(p) {
		out = append(out, p)
		if p == "/" || p == "." {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Depth returns the number of segments in uri. The root has depth 0.
func Depth(uri string) int {
	return len(Ancestors(uri))
}
