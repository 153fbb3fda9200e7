package fields

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/document"
)

// Codec converts typed values into field entries and query terms.
// It is safe for concurrent use.
type Codec struct {
	locale    language.Tag
	loc       *time.Location
	casers    sync.Pool
	collators sync.Pool
}

// NewCodec creates a Codec for a locale. loc interprets dates without a zone; nil means UTC.
func NewCodec(locale language.Tag, loc *time.Location) *Codec {
	if loc == nil {
		loc = time.UTC
	}
	c := &Codec{locale: locale, loc: loc}
	c.casers.New = func() any {
		cs := cases.Lower(locale)
		return &cs
	}
	c.collators.New = func() any {
		return collate.New(locale)
	}
	return c
}

// Locale returns the configured locale.
func (c *Codec) Locale() language.Tag { return c.locale }

// Lowercase lowercases s with the locale rules.
func (c *Codec) Lowercase(s string) string {
	cs := c.casers.Get().(*cases.Caser)
	defer c.casers.Put(cs)
	return cs.String(s)
}

// SortKey returns the collation key of s. Byte order of keys is the natural language order.
func (c *Codec) SortKey(s string) []byte {
	col := c.collators.Get().(*collate.Collator)
	defer c.collators.Put(col)
	var buf collate.Buffer
	key := col.KeyFromString(&buf, s)
	return append([]byte(nil), key...)
}

// StringFields materializes a string. Lowercasing applies to the indexed term only;
// doc-value and stored entries keep the raw string.
func (c *Codec) StringFields(name, s string, spec document.FieldSpec) []document.Field {
	var out []document.Field
	if spec.Indexes() {
		term := s
		if spec.Lowercase() {
			term = c.Lowercase(s)
		}
		out = append(out, document.Field{Name: name, Kind: document.Indexed, Text: term})
	}
	if spec.DocValue() {
		out = append(out, document.Field{Name: name, Kind: document.SortedDocValue, Bytes: []byte(s)})
	}
	if spec.Stores() {
		out = append(out, document.Field{Name: name, Kind: document.Stored, Text: s})
	}
	return out
}

// StringSortField produces the collated sort entry for a string.
func (c *Codec) StringSortField(name, s string) document.Field {
	return document.Field{Name: name, Kind: document.SortedDocValue, Bytes: c.SortKey(s)}
}

// LongFields materializes an integer with an order-preserving term.
func (c *Codec) LongFields(name string, n int64, spec document.FieldSpec) []document.Field {
	var out []document.Field
	if spec.Indexes() {
		out = append(out, document.Field{
			Name: name, Kind: document.Indexed, Text: EncodeNumeric(n), Num: n, Numeric: true,
		})
	}
	if spec.DocValue() {
		out = append(out, document.Field{Name: name, Kind: document.NumericDocValue, Num: n, Numeric: true})
	}
	if spec.Stores() {
		out = append(out, document.Field{Name: name, Kind: document.Stored, Num: n, Numeric: true})
	}
	return out
}

// DateFields materializes a DATE. The indexed term is truncated to the second;
// doc-value and stored entries keep milliseconds.
func (c *Codec) DateFields(name string, t time.Time, spec document.FieldSpec) []document.Field {
	return c.timeFields(name, t.UnixMilli(), true, spec)
}

// TimestampFields materializes a TIMESTAMP at millisecond resolution.
func (c *Codec) TimestampFields(name string, t time.Time, spec document.FieldSpec) []document.Field {
	return c.timeFields(name, t.UnixMilli(), false, spec)
}

func (c *Codec) timeFields(name string, ms int64, truncate bool, spec document.FieldSpec) []document.Field {
	var out []document.Field
	if spec.Indexes() {
		indexed := ms
		if truncate {
			indexed = TruncateToSecond(ms)
		}
		out = append(out, document.Field{
			Name: name, Kind: document.Indexed, Text: EncodeNumeric(indexed), Num: indexed, Numeric: true,
		})
	}
	if spec.DocValue() {
		out = append(out, document.Field{Name: name, Kind: document.NumericDocValue, Num: ms, Numeric: true})
	}
	if spec.Stores() {
		out = append(out, document.Field{Name: name, Kind: document.Stored, Num: ms, Numeric: true})
	}
	return out
}

// BoolFields materializes a boolean as "true" or "false". Lowercasing has no effect.
func (c *Codec) BoolFields(name string, b bool, spec document.FieldSpec) []document.Field {
	s := strconv.FormatBool(b)
	var out []document.Field
	if spec.Indexes() {
		out = append(out, document.Field{Name: name, Kind: document.Indexed, Text: s})
	}
	if spec.DocValue() {
		out = append(out, document.Field{Name: name, Kind: document.SortedDocValue, Bytes: []byte(s)})
	}
	if spec.Stores() {
		out = append(out, document.Field{Name: name, Kind: document.Stored, Text: s})
	}
	return out
}

// ValueFields materializes a typed value. BINARY values produce no entries.
func (c *Codec) ValueFields(name string, v value.Value, spec document.FieldSpec) []document.Field {
	switch v.Type() {
	case value.TypeBinary:
		return nil
	case value.TypeBoolean:
		return c.BoolFields(name, v.Bool(), spec)
	case value.TypeDate:
		return c.DateFields(name, v.Time(), spec)
	case value.TypeTimestamp:
		return c.TimestampFields(name, v.Time(), spec)
	case value.TypeInt, value.TypeLong:
		return c.LongFields(name, v.Long(), spec)
	default:
		return c.StringFields(name, v.Text(), spec)
	}
}

// QueryTerm encodes a query literal exactly as the indexed term of the same value.
func (c *Codec) QueryTerm(s string, t value.Type, lowercase bool) (string, error) {
	switch t {
	case value.TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return "", &value.FormatError{Value: s, Type: t, Err: err}
		}
		return strconv.FormatBool(b), nil
	case value.TypeDate:
		d, err := c.ParseDate(s)
		if err != nil {
			return "", err
		}
		return EncodeNumeric(d.UnixMilli()), nil
	case value.TypeTimestamp:
		ts, err := value.ParseTime(s, c.loc)
		if err != nil {
			return "", &value.FormatError{Value: s, Type: t}
		}
		return EncodeNumeric(ts.UnixMilli()), nil
	case value.TypeInt, value.TypeLong:
		n, err := c.ParseNumber(s, t)
		if err != nil {
			return "", err
		}
		return EncodeNumeric(n), nil
	case value.TypeBinary:
		return "", &value.FormatError{Value: s, Type: t, Err: fmt.Errorf("binary values are not indexed")}
	default:
		if lowercase {
			return c.Lowercase(s), nil
		}
		return s, nil
	}
}

// ParseValue parses a literal of type t. Temporal literals without a zone use the codec location.
func (c *Codec) ParseValue(s string, t value.Type) (value.Value, error) {
	switch t {
	case value.TypeDate, value.TypeTimestamp:
		ts, err := value.ParseTime(s, c.loc)
		if err != nil {
			return value.Value{}, &value.FormatError{Value: s, Type: t}
		}
		if t == value.TypeDate {
			return value.NewDate(ts), nil
		}
		return value.NewTimestamp(ts), nil
	default:
		return value.Parse(t, s)
	}
}

// ParseNumber parses an INT or LONG literal.
func (c *Codec) ParseNumber(s string, t value.Type) (int64, error) {
	bits := 64
	if t == value.TypeInt {
		bits = 32
	}
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, &value.FormatError{Value: s, Type: t, Err: err}
	}
	return n, nil
}

// ParseDate parses epoch milliseconds or one of value.DateFormats in the codec
// location and truncates the result to the second.
func (c *Codec) ParseDate(s string) (time.Time, error) {
	t, err := value.ParseTime(s, c.loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(TruncateToSecond(t.UnixMilli())).In(c.loc), nil
}

// TruncateToSecond floors epoch milliseconds to the start of their second.
func TruncateToSecond(ms int64) int64 {
	r := ms % 1000
	if r < 0 {
		r += 1000
	}
	return ms - r
}

// EncodeNumeric renders n as 16 hex digits whose lexicographic order is the numeric order.
func EncodeNumeric(n int64) string {
	return fmt.Sprintf("%016x", uint64(n)^(1<<63))
}

// DecodeNumeric reverses EncodeNumeric.
func DecodeNumeric(s string) (int64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("numeric term %q: want 16 hex digits", s)
	}
	u, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("numeric term %q: %w", s, err)
	}
	return int64(u ^ (1 << 63)), nil
}
