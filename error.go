package tlb

import "github.com/tlbgo/tlb/internal/codecerr"

// SchemaError reports a failure to parse or build a TL-B schema, as
// returned by [Compile]. Decode and encode calls also return one when a
// schema expression cannot be evaluated (an unbound variable or a
// division by zero).
type SchemaError = codecerr.SchemaError

// DataErrorCode enumerates the ways a decode or encode call can fail
// against a value that does not match the compiled schema.
type DataErrorCode = codecerr.Code

const (
	BadInput             = codecerr.BadInput
	TagShort             = codecerr.TagShort
	TagMismatch          = codecerr.TagMismatch
	ConstraintFailed     = codecerr.ConstraintFailed
	DataShort            = codecerr.DataShort
	UnknownType          = codecerr.UnknownType
	UnknownConstructor   = codecerr.UnknownConstructor
	NotTyped             = codecerr.NotTyped
	UnsupportedFieldType = codecerr.UnsupportedFieldType
	AddressLoadFailed    = codecerr.AddressLoadFailed

	// RecursionDepth is raised when a decode or encode call recurses past
	// [MaxDepth]. Not one of the named codes in the original taxonomy, but
	// needed since unbounded recursive types are otherwise a stack-
	// exhaustion vector.
	RecursionDepth = codecerr.RecursionDepth

	// NoMatch is raised when root-selection or tag-directed decoding
	// exhausts every candidate constructor without a match.
	NoMatch = codecerr.NoMatch
)

// DataError reports a failure to decode or encode a specific cell or
// value against an otherwise valid schema.
type DataError = codecerr.DataError
