package document

import (
	"fmt"
	"strconv"
)

// Kind is the role of a field entry inside a document.
type Kind uint8

// Field kinds.
const (
	// Indexed entries are searchable terms.
	Indexed Kind = iota
	// Stored entries are returned when the document is loaded.
	Stored
	// SortedDocValue entries hold a byte sort key, one per field and document.
	SortedDocValue
	// NumericDocValue entries hold an integer sort key, one per field and document.
	NumericDocValue
)

func (k Kind) String() string {
	switch k {
	case Indexed:
		return "indexed"
	case Stored:
		return "stored"
	case SortedDocValue:
		return "sorted"
	case NumericDocValue:
		return "numeric"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Field is one entry of a document. Text carries terms and stored strings,
// Num carries integers when Numeric is set, Bytes carries sorted doc values.
type Field struct {
	Name    string
	Kind    Kind
	Text    string
	Num     int64
	Numeric bool
	Bytes   []byte
}

// StoredValue returns the stored payload as a string.
func (f Field) StoredValue() string {
	if f.Numeric {
		return strconv.FormatInt(f.Num, 10)
	}
	return f.Text
}

func (f Field) String() string {
	switch f.Kind {
	case SortedDocValue:
		return fmt.Sprintf("%s[%s]=%x", f.Name, f.Kind, f.Bytes)
	case NumericDocValue:
		return fmt.Sprintf("%s[%s]=%d", f.Name, f.Kind, f.Num)
	default:
		return fmt.Sprintf("%s[%s]=%s", f.Name, f.Kind, f.StoredValue())
	}
}

// Document is an ordered list of field entries. Stored entries keep their
// insertion order, and the entries of one multi-valued field are contiguous.
type Document struct {
	fields []Field
}

// New creates a document from fields.
func New(fields ...Field) *Document {
	return &Document{fields: fields}
}

// Add appends entries.
func (d *Document) Add(fields ...Field) {
	d.fields = append(d.fields, fields...)
}

// Fields returns all entries in insertion order.
func (d *Document) Fields() []Field { return d.fields }

// Len returns the number of entries.
func (d *Document) Len() int { return len(d.fields) }

// Get returns the entries named name.
func (d *Document) Get(name string) []Field {
	var out []Field
	for _, f := range d.fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// Terms returns the indexed terms of name.
func (d *Document) Terms(name string) []string {
	var out []string
	for _, f := range d.fields {
		if f.Name == name && f.Kind == Indexed {
			out = append(out, f.Text)
		}
	}
	return out
}

// Has reports whether any entry is named name.
func (d *Document) Has(name string) bool {
	for _, f := range d.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Stored returns the stored entries in insertion order.
func (d *Document) Stored() []Field {
	var out []Field
	for _, f := range d.fields {
		if f.Kind == Stored {
			out = append(out, f)
		}
	}
	return out
}

// VisitStored returns the stored entries accepted by v, honoring Stop.
func VisitStored(stored []Field, v StoredFieldVisitor) []Field {
	var out []Field
	for _, f := range stored {
		switch v.NeedsField(f.Name) {
		case Yes:
			out = append(out, f)
		case Stop:
			return out
		}
	}
	return out
}
