package db

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType enumerates the FT attribute types the index uses.
type FieldType int

const (
	// FieldTag is an exact, case-sensitive tag attribute.
	FieldTag FieldType = iota
	// FieldNumeric is a numeric attribute.
	FieldNumeric
)

func (t FieldType) String() string {
	switch t {
	case FieldTag:
		return "TAG"
	case FieldNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// IndexField maps a JSONPath to a queryable attribute.
type IndexField struct {
	Path  string
	Alias string
	Type  FieldType
}

// IndexDefinition is an FT index over the JSON documents under Prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("invalid index name %q", idx.Name)
	}
	if idx.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if !strings.HasPrefix(f.Path, "$") {
			return fmt.Errorf("field %d: path %q is not a JSONPath", i, f.Path)
		}
		if !IsValidIdentifier(f.Alias) {
			return fmt.Errorf("field %d: invalid alias %q", i, f.Alias)
		}
		if f.Type != FieldTag && f.Type != FieldNumeric {
			return fmt.Errorf("field %s: unknown type %d", f.Alias, f.Type)
		}
		if seen[f.Alias] {
			return errors.New("duplicate field alias: " + f.Alias)
		}
		seen[f.Alias] = true
	}
	return nil
}

// Args renders the FT.CREATE arguments after the command name.
func (idx *IndexDefinition) Args() []string {
	args := make([]string, 0, 6+4*len(idx.Fields))
	args = append(args, idx.Name, "ON", "JSON", "PREFIX", "1", idx.Prefix, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		args = append(args, f.Path, "AS", f.Alias, f.Type.String())
		if f.Type == FieldTag {
			args = append(args, "CASESENSITIVE")
		}
	}
	return args
}

// String renders the full FT.CREATE command. It is stable for a given
// definition and fingerprints index schemas.
func (idx *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(idx.Args(), " ")
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
