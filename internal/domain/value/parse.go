package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrFormat signals malformed input for a declared value type.
var ErrFormat = errors.New("invalid value format")

// FormatError carries the offending input and its target type.
type FormatError struct {
	Value string
	Type  Type
	Err   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %q is not a valid %s", ErrFormat.Error(), e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// DateFormats are tried in order, most specific first. The first match wins.
var DateFormats = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	"2006-01-02",
}

// ParseTime parses an epoch-millisecond number, an RFC 3339 timestamp or one of
// DateFormats. Layouts without a zone are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &FormatError{Value: s, Type: TypeDate}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range DateFormats {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Value: s, Type: TypeDate}
}

// Parse converts the canonical string form back into a Value of the given type.
// Temporal values without a zone are read as UTC.
func Parse(t Type, s string) (Value, error) {
	switch t {
	case TypeString:
		return NewString(s), nil
	case TypeHTML:
		return NewHTML(s), nil
	case TypeImageRef:
		return NewImageRef(s), nil
	case TypePrincipal:
		if s == "" {
			return Value{}, &FormatError{Value: s, Type: t}
		}
		return NewPrincipal(s), nil
	case TypeJSON:
		return NewJSON(s)
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, &FormatError{Value: s, Type: t, Err: err}
		}
		return NewBool(b), nil
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Value{}, &FormatError{Value: s, Type: t, Err: err}
		}
		return NewInt(int32(n)), nil
	case TypeLong:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, &FormatError{Value: s, Type: t, Err: err}
		}
		return NewLong(n), nil
	case TypeDate, TypeTimestamp:
		tm, err := ParseTime(s, time.UTC)
		if err != nil {
			return Value{}, &FormatError{Value: s, Type: t}
		}
		if t == TypeDate {
			return NewDate(tm), nil
		}
		return NewTimestamp(tm), nil
	default:
		return Value{}, &FormatError{Value: s, Type: t, Err: errors.New("type has no string form")}
	}
}
