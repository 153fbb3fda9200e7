package mapper

import (
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/index/document"
)

// TypeResolver resolves resource types and property definitions.
type TypeResolver interface {
	Path(typ string) ([]string, error)
	PropertyDefinitions(typ string) ([]*property.Definition, error)
	Definition(prefix, name string) (*property.Definition, bool)
	Namespace(prefix string) (property.Namespace, bool)
}

// PropertyDecoder materializes one property from its contiguous stored entries.
type PropertyDecoder interface {
	PropertyFromFields(field string, stored []document.Field) (*property.Property, error)
}
