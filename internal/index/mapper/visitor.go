package mapper

import (
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/fields"
)

// NewStoredFieldVisitor builds the loading policy of sel. The returned visitor is stateless
// and may be shared across documents.
func (m *Mapper) NewStoredFieldVisitor(sel property.Select) document.StoredFieldVisitor {
	switch {
	case sel == nil || sel.IncludeAll():
		return document.VisitorFunc(func(string) document.Status { return document.Yes })
	case sel.IncludeNone():
		return document.VisitorFunc(identityOnly)
	default:
		return &selectionVisitor{mapper: m, sel: sel}
	}
}

// identityOnly accepts the identifying entries. They are stored first, so the first
// other entry means both uri and resource type have been seen.
func identityOnly(name string) document.Status {
	switch name {
	case fields.IDField, fields.URIField, fields.TypeField:
		return document.Yes
	default:
		return document.Stop
	}
}

type selectionVisitor struct {
	mapper *Mapper
	sel    property.Select
}

func (v *selectionVisitor) NeedsField(name string) document.Status {
	switch {
	case fields.IsReserved(name):
		return document.Yes
	case fields.IsAclField(name):
		if v.sel.IncludeAcl() {
			return document.Yes
		}
		return document.No
	}

	def := v.mapper.Definition(name)
	if def == nil {
		fn, ok := v.mapper.props.Decode(name)
		if !ok {
			return document.No
		}
		ns, _ := v.mapper.types.Namespace(fn.Prefix)
		if ns.Prefix == "" {
			ns.Prefix = fn.Prefix
		}
		def = property.NewDeadDefinition(ns, fn.Name, value.TypeString, false)
	}
	if v.sel.IncludeProperty(def) {
		return document.Yes
	}
	return document.No
}
