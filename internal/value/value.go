// Package value defines the decoded/encoded value representation shared
// by internal/decode, internal/encode, and the root tlb package. It lives
// under internal so both sides of the codec can depend on it without the
// root package importing back into internal/decode or internal/encode.
package value

import "math/big"

// Kind discriminates the shape a Value holds.
type Kind int

const (
	KindRecord Kind = iota
	KindInt
	KindBigInt
	KindBool
	KindBits
	KindText
	KindCellRef
	KindSequence
	KindAbsent
	KindDictionary
	KindTuple
	KindAddress
)

// Value is the tagged union every decoded field (and every value passed
// to Encode) is represented as. Exactly the fields matching Kind are
// meaningful; the rest are zero.
type Value struct {
	Kind Kind

	// KindRecord: the kind discriminator (Constructor.Kind(): "Type" or
	// "Type_Ctor") and its fields in declaration order.
	RecordType string
	Fields     []Field

	Int    int64    // KindInt
	BigInt *big.Int // KindBigInt (including large Coins amounts); also KindAddress's hash
	Bool   bool     // KindBool

	Bits    []byte // KindBits: raw MSB-first packed bits
	BitLen  int    // KindBits: number of valid bits in Bits
	Text    string // KindText: auto-detected Bits text, or a VarInteger's decimal digits

	CellRef any // KindCellRef: *boc.Cell, held as `any` to avoid an internal/boc import here

	Sequence []Value // KindSequence: repeated-field elements

	Dictionary []DictEntry // KindDictionary

	Tuple []Value // KindTuple

	AddressNone      bool  // KindAddress
	AddressWorkchain int8  // KindAddress
	// KindAddress's hash occupies BigInt.
}

// Field is one named field of a KindRecord Value.
type Field struct {
	Name  string
	Value Value
}

// DictEntry is one key/value pair of a KindDictionary Value.
type DictEntry struct {
	Key   *big.Int
	Value Value
}

// Absent is the zero-field-occupying value produced when a Cond field's
// condition is false.
var Absent = Value{Kind: KindAbsent}
