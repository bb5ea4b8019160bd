// Package codecerr defines the two user-visible error kinds the codec
// raises and shares between internal/decode, internal/encode, and the
// root tlb package (which re-exports these types so callers never import
// an internal package directly).
package codecerr

import "fmt"

// SchemaError means the supplied TL-B source cannot be parsed, or does
// not resolve to at least one type, or that one of its expressions
// cannot be evaluated during a decode or encode call (an unbound
// variable or a division by zero). It is never caught internally.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("tlb: schema error: %s", e.Message) }

// Code names one of DataError's exhaustive reasons (spec §7), plus the
// recursion-depth guard (see SPEC_FULL.md §4) and the no-match code this
// implementation adds.
type Code string

const (
	BadInput             Code = "BadInput"
	TagShort             Code = "TagShort"
	TagMismatch          Code = "TagMismatch"
	ConstraintFailed     Code = "ConstraintFailed"
	DataShort            Code = "DataShort"
	UnknownType          Code = "UnknownType"
	UnknownConstructor   Code = "UnknownConstructor"
	NotTyped             Code = "NotTyped"
	UnsupportedFieldType Code = "UnsupportedFieldType"
	AddressLoadFailed    Code = "AddressLoadFailed"
	RecursionDepth       Code = "RecursionDepth"
	NoMatch              Code = "NoMatch"
)

// DataError means a specific datum does not conform to the schema. It is
// caught at a constructor-attempt boundary during decodeType and
// converted into "this attempt failed"; it only surfaces to the caller
// once every candidate has been exhausted.
type DataError struct {
	Code    Code
	Message string
}

func (e *DataError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tlb: data error: %s", e.Code)
	}
	return fmt.Sprintf("tlb: data error: %s: %s", e.Code, e.Message)
}

// New constructs a DataError with a formatted message.
func New(code Code, format string, args ...any) *DataError {
	return &DataError{Code: code, Message: fmt.Sprintf(format, args...)}
}
