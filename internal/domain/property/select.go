package property

// Select decides which parts of a property set are materialized on load.
type Select interface {
	IncludeAll() bool
	IncludeNone() bool
	IncludeAcl() bool
	IncludeProperty(def *Definition) bool
}

type allSelect struct{}

func (allSelect) IncludeAll() bool                 { return true }
func (allSelect) IncludeNone() bool                { return false }
func (allSelect) IncludeAcl() bool                 { return true }
func (allSelect) IncludeProperty(*Definition) bool { return true }

type noneSelect struct{}

func (noneSelect) IncludeAll() bool                 { return false }
func (noneSelect) IncludeNone() bool                { return true }
func (noneSelect) IncludeAcl() bool                 { return false }
func (noneSelect) IncludeProperty(*Definition) bool { return false }

var (
	// SelectAll loads every field.
	SelectAll Select = allSelect{}
	// SelectNone loads only the fields identifying the resource.
	SelectNone Select = noneSelect{}
)

// Selection is a custom Select listing the wanted properties.
type Selection struct {
	acl   bool
	names map[[2]string]struct{}
}

// NewSelection creates an empty custom selection.
func NewSelection() *Selection {
	return &Selection{names: make(map[[2]string]struct{})}
}

// WithAcl includes ACL fields.
func (s *Selection) WithAcl() *Selection {
	s.acl = true
	return s
}

// Add includes the property (prefix, name).
func (s *Selection) Add(prefix, name string) *Selection {
	s.names[[2]string{prefix, name}] = struct{}{}
	return s
}

// AddDefinition includes the property named by def.
func (s *Selection) AddDefinition(def *Definition) *Selection {
	return s.Add(def.namespace.Prefix, def.name)
}

// IncludeAll reports false: a selection is always partial.
func (s *Selection) IncludeAll() bool { return false }

// IncludeNone reports false.
func (s *Selection) IncludeNone() bool { return false }

// IncludeAcl reports whether ACL fields are selected.
func (s *Selection) IncludeAcl() bool { return s.acl }

// IncludeProperty reports whether def is selected.
func (s *Selection) IncludeProperty(def *Definition) bool {
	if def == nil {
		return false
	}
	_, ok := s.names[[2]string{def.namespace.Prefix, def.name}]
	return ok
}
