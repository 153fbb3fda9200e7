package domain

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/propdex/internal/domain/value"
)

var (
	// ErrValueFormat signals malformed input for a declared value type.
	ErrValueFormat = value.ErrFormat
	// ErrDocumentMapping signals a loaded document missing a required field.
	ErrDocumentMapping = errors.New("document mapping failed")
	// ErrQueryBuild signals an unsupported operator/type combination in a query.
	ErrQueryBuild = errors.New("query build failed")
	// ErrTypeNotFound signals an unknown resource type.
	ErrTypeNotFound = errors.New("resource type not found")
	// ErrDefinitionNotFound signals a field name that resolves to no property definition.
	ErrDefinitionNotFound = errors.New("property definition not found")
	// ErrUnsupportedClause signals a clause the selected index engine cannot execute.
	ErrUnsupportedClause = errors.New("clause not supported by engine")
	// ErrInvalidDefinition signals an invalid property or resource type definition.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// MappingError wraps ErrDocumentMapping with the offending field.
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", ErrDocumentMapping.Error(), e.Field, e.Reason)
}

func (e *MappingError) Unwrap() error { return ErrDocumentMapping }

// NewMappingError creates a document mapping error.
func NewMappingError(field, reason string) error {
	return &MappingError{Field: field, Reason: reason}
}

// QueryBuildError wraps ErrQueryBuild with enough context to explain the rejection.
type QueryBuildError struct {
	Field    string
	Operator string
	Type     string
	Reason   string
}

func (e *QueryBuildError) Error() string {
	msg := ErrQueryBuild.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Operator != "" {
		msg += fmt.Sprintf(", operator %s", e.Operator)
	}
	if e.Type != "" {
		msg += fmt.Sprintf(", type %s", e.Type)
	}
	return msg + ": " + e.Reason
}

func (e *QueryBuildError) Unwrap() error { return ErrQueryBuild }
