package mapper

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// LazyMappedPropertySet is a read-only property.Set over loaded stored entries.
// Properties are decoded on access. Entries of one property field must be contiguous,
// which every engine in this module guarantees by returning stored entries in insertion order.
type LazyMappedPropertySet struct {
	id           int64
	uri          string
	resourceType string
	aclFrom      int64

	aclFields  []document.Field
	propFields []document.Field

	decoder PropertyDecoder
	logger  *zap.Logger
}

var _ property.Set = (*LazyMappedPropertySet)(nil)

// NewLazyMappedPropertySet partitions stored entries. It fails with a mapping error
// when the uri or resource type entry is missing.
func NewLazyMappedPropertySet(
	stored []document.Field, decoder PropertyDecoder, logger *zap.Logger,
) (*LazyMappedPropertySet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LazyMappedPropertySet{id: property.NoID, aclFrom: property.NoID, decoder: decoder, logger: logger}

	var pf fields.PropertyFields
	var haveURI, haveType bool
	for _, f := range stored {
		if f.Kind != document.Stored {
			continue
		}
		switch {
		case f.Name == fields.IDField:
			s.id = f.Num
		case f.Name == fields.URIField:
			s.uri, haveURI = f.Text, true
		case f.Name == fields.TypeField:
			s.resourceType, haveType = f.Text, true
		case f.Name == fields.AclInheritedFromField:
			s.aclFrom = f.Num
		case fields.IsAclField(f.Name):
			s.aclFields = append(s.aclFields, f)
		case pf.IsPropertyField(f.Name):
			s.propFields = append(s.propFields, f)
		}
	}
	if !haveURI {
		return nil, domain.NewMappingError(fields.URIField, "missing from stored fields")
	}
	if !haveType {
		return nil, domain.NewMappingError(fields.TypeField, "missing from stored fields")
	}
	return s, nil
}

// URI returns the resource path.
func (s *LazyMappedPropertySet) URI() string { return s.uri }

// ID returns the numeric id, or property.NoID when it was not stored.
func (s *LazyMappedPropertySet) ID() int64 { return s.id }

// Name returns the last path segment of the URI.
func (s *LazyMappedPropertySet) Name() string { return property.NameOf(s.uri) }

// ResourceType returns the resource type name.
func (s *LazyMappedPropertySet) ResourceType() string { return s.resourceType }

// AclInheritedFrom returns the acl source id, or property.NoID.
func (s *LazyMappedPropertySet) AclInheritedFrom() int64 { return s.aclFrom }

// IsInheritedAcl reports whether the acl is inherited from another resource.
func (s *LazyMappedPropertySet) IsInheritedAcl() bool { return s.aclFrom != property.NoID }

// Acl decodes the acl. ok is false when no acl entries were loaded.
func (s *LazyMappedPropertySet) Acl() (*acl.Acl, bool) {
	if len(s.aclFields) == 0 {
		return nil, false
	}
	a, err := fields.DecodeAcl(s.aclFields)
	if err != nil {
		s.logger.Warn("undecodable acl entries", zap.String("uri", s.uri), zap.Error(err))
		return nil, false
	}
	return a, true
}

// Properties decodes every loaded property. Runs that fail to decode are logged and skipped.
func (s *LazyMappedPropertySet) Properties() []*property.Property {
	var out []*property.Property
	s.runs(func(field string, run []document.Field) bool {
		p, err := s.decoder.PropertyFromFields(field, run)
		if err != nil {
			s.logger.Warn("skipping undecodable property",
				zap.String("uri", s.uri), zap.String("field", field), zap.Error(err))
			return true
		}
		out = append(out, p)
		return true
	})
	return out
}

// Property decodes only the property named (ns, name), or returns nil.
func (s *LazyMappedPropertySet) Property(ns property.Namespace, name string) *property.Property {
	return s.PropertyByPrefix(ns.Prefix, name)
}

// PropertyByPrefix decodes only the property named (prefix, name), or returns nil.
func (s *LazyMappedPropertySet) PropertyByPrefix(prefix, name string) *property.Property {
	want := fields.FieldName{Prefix: prefix, Name: name}.String()
	var out *property.Property
	s.runs(func(field string, run []document.Field) bool {
		if field != want {
			return true
		}
		p, err := s.decoder.PropertyFromFields(field, run)
		if err != nil {
			s.logger.Warn("undecodable property",
				zap.String("uri", s.uri), zap.String("field", field), zap.Error(err))
			return false
		}
		out = p
		return false
	})
	return out
}

// runs calls fn for each contiguous run of same-named property entries until fn returns false.
func (s *LazyMappedPropertySet) runs(fn func(field string, run []document.Field) bool) {
	for start := 0; start < len(s.propFields); {
		end := start + 1
		for end < len(s.propFields) && s.propFields[end].Name == s.propFields[start].Name {
			end++
		}
		if !fn(s.propFields[start].Name, s.propFields[start:end]) {
			return
		}
		start = end
	}
}
