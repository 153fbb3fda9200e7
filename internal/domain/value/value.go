package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Type is the data type of a property value.
type Type uint8

// Value type constants.
const (
	TypeString Type = iota
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeInt
	TypeLong
	TypePrincipal
	TypeBinary
	TypeHTML
	TypeJSON
	TypeImageRef
)

var typeNames = map[Type]string{
	TypeString:    "string",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeTimestamp: "timestamp",
	TypeInt:       "int",
	TypeLong:      "long",
	TypePrincipal: "principal",
	TypeBinary:    "binary",
	TypeHTML:      "html",
	TypeJSON:      "json",
	TypeImageRef:  "image_ref",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// ParseType resolves a configuration type name.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}

// IsTextual reports whether prefix and wildcard matching is meaningful for the type.
func (t Type) IsTextual() bool {
	return t == TypeString || t == TypeHTML || t == TypePrincipal
}

// IsTemporal reports whether the type carries a point in time.
func (t Type) IsTemporal() bool { return t == TypeDate || t == TypeTimestamp }

// IsNumeric reports whether the type carries an integer.
func (t Type) IsNumeric() bool { return t == TypeInt || t == TypeLong }

// Binary is the payload of a BINARY value. Content is never indexed.
type Binary struct {
	data []byte
	ref  string
	mime string
}

// Data returns a copy of the content bytes.
func (b *Binary) Data() []byte { return bytes.Clone(b.data) }

// Ref returns the external reference of the content.
func (b *Binary) Ref() string { return b.ref }

// MIMEType returns the content type.
func (b *Binary) MIMEType() string { return b.mime }

// Value is an immutable typed value. Exactly one payload is populated, selected by the type.
type Value struct {
	typ  Type
	text string
	when time.Time
	num  int64
	flag bool
	bin  *Binary
}

// NewString creates a STRING value.
func NewString(s string) Value { return Value{typ: TypeString, text: s} }

// NewHTML creates an HTML value.
func NewHTML(s string) Value { return Value{typ: TypeHTML, text: s} }

// NewImageRef creates an IMAGE_REF value.
func NewImageRef(s string) Value { return Value{typ: TypeImageRef, text: s} }

// NewPrincipal creates a PRINCIPAL value from a qualified principal name.
func NewPrincipal(qualifiedName string) Value { return Value{typ: TypePrincipal, text: qualifiedName} }

// NewBool creates a BOOLEAN value.
func NewBool(b bool) Value { return Value{typ: TypeBoolean, flag: b} }

// NewDate creates a DATE value.
func NewDate(t time.Time) Value { return Value{typ: TypeDate, when: t} }

// NewTimestamp creates a TIMESTAMP value.
func NewTimestamp(t time.Time) Value { return Value{typ: TypeTimestamp, when: t} }

// NewInt creates an INT value.
func NewInt(n int32) Value { return Value{typ: TypeInt, num: int64(n)} }

// NewLong creates a LONG value.
func NewLong(n int64) Value { return Value{typ: TypeLong, num: n} }

// NewBinary creates a BINARY value. The content is copied.
func NewBinary(data []byte, ref, mime string) Value {
	return Value{typ: TypeBinary, bin: &Binary{data: bytes.Clone(data), ref: ref, mime: mime}}
}

// NewJSON creates a JSON value from its textual form.
func NewJSON(raw string) (Value, error) {
	if !json.Valid([]byte(raw)) {
		return Value{}, &FormatError{Value: raw, Type: TypeJSON}
	}
	return Value{typ: TypeJSON, text: raw}, nil
}

// Type returns the value type.
func (v Value) Type() Type { return v.typ }

// Text returns the text payload of STRING, HTML, IMAGE_REF, PRINCIPAL and JSON values.
func (v Value) Text() string { return v.text }

// Time returns the temporal payload of DATE and TIMESTAMP values.
func (v Value) Time() time.Time { return v.when }

// Long returns the integer payload of INT and LONG values.
func (v Value) Long() int64 { return v.num }

// Bool returns the payload of BOOLEAN values.
func (v Value) Bool() bool { return v.flag }

// Binary returns the payload of BINARY values, nil otherwise.
func (v Value) Binary() *Binary { return v.bin }

// JSON decodes the payload of a JSON value.
func (v Value) JSON() (any, error) {
	if v.typ != TypeJSON {
		return nil, fmt.Errorf("value of type %s is not json", v.typ)
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader([]byte(v.text)))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, &FormatError{Value: v.text, Type: TypeJSON, Err: err}
	}
	return out, nil
}

// Format returns the canonical string form: text payloads as-is, booleans as
// "true"/"false", integers in base 10 and temporal values as epoch milliseconds.
func (v Value) Format() string {
	switch v.typ {
	case TypeBoolean:
		return strconv.FormatBool(v.flag)
	case TypeDate, TypeTimestamp:
		return strconv.FormatInt(v.when.UnixMilli(), 10)
	case TypeInt, TypeLong:
		return strconv.FormatInt(v.num, 10)
	case TypeBinary:
		return v.bin.ref
	default:
		return v.text
	}
}

func (v Value) String() string { return v.Format() }

// Equal reports whether both values carry the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBoolean:
		return v.flag == o.flag
	case TypeDate, TypeTimestamp:
		return v.when.Equal(o.when)
	case TypeInt, TypeLong:
		return v.num == o.num
	case TypeBinary:
		return v.bin.ref == o.bin.ref && v.bin.mime == o.bin.mime && bytes.Equal(v.bin.data, o.bin.data)
	default:
		return v.text == o.text
	}
}
