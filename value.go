package tlb

import "github.com/tlbgo/tlb/internal/value"

// Kind discriminates the shape a [Value] holds.
type Kind = value.Kind

const (
	KindRecord     = value.KindRecord
	KindInt        = value.KindInt
	KindBigInt     = value.KindBigInt
	KindBool       = value.KindBool
	KindBits       = value.KindBits
	KindText       = value.KindText
	KindCellRef    = value.KindCellRef
	KindSequence   = value.KindSequence
	KindAbsent     = value.KindAbsent
	KindDictionary = value.KindDictionary
	KindTuple      = value.KindTuple
	KindAddress    = value.KindAddress
)

// Value is the tagged union every decoded field, and every value passed
// to [Runtime.Encode], is represented as. Exactly the fields matching
// Kind are meaningful; the rest are zero.
type Value = value.Value

// Field is one named field of a KindRecord Value.
type Field = value.Field

// DictEntry is one key/value pair of a KindDictionary Value.
type DictEntry = value.DictEntry

// Absent is the value produced for a Cond field whose condition is
// false; such fields are omitted from their parent record entirely
// rather than appearing as Absent, but Absent remains available for
// callers constructing values to pass to [Runtime.Encode].
var Absent = value.Absent
