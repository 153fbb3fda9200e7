package document

// FieldSpec controls how a value is materialized into field entries.
// Doc-value variants are only valid for single-valued fields.
type FieldSpec uint8

// Field specifications.
const (
	None FieldSpec = iota
	IndexedOnly
	IndexedWithDocValue
	IndexedStored
	IndexedStoredWithDocValue
	IndexedLowercase
	StoredOnly
)

// Indexes reports whether the spec produces a searchable term.
func (s FieldSpec) Indexes() bool {
	switch s {
	case IndexedOnly, IndexedWithDocValue, IndexedStored, IndexedStoredWithDocValue, IndexedLowercase:
		return true
	default:
		return false
	}
}

// Stores reports whether the spec produces a stored entry.
func (s FieldSpec) Stores() bool {
	return s == IndexedStored || s == IndexedStoredWithDocValue || s == StoredOnly
}

// DocValue reports whether the spec produces a doc-value entry.
func (s FieldSpec) DocValue() bool {
	return s == IndexedWithDocValue || s == IndexedStoredWithDocValue
}

// Lowercase reports whether indexed terms are lowercased.
func (s FieldSpec) Lowercase() bool { return s == IndexedLowercase }

// Status is a StoredFieldVisitor decision.
type Status uint8

// Visitor decisions.
const (
	Yes Status = iota
	No
	Stop
)

// StoredFieldVisitor selects stored entries while a document is loaded.
type StoredFieldVisitor interface {
	NeedsField(name string) Status
}

// VisitorFunc adapts a function to StoredFieldVisitor.
type VisitorFunc func(name string) Status

// NeedsField calls f.
func (f VisitorFunc) NeedsField(name string) Status { return f(name) }
