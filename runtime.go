package tlb

import (
	"github.com/tlbgo/tlb/internal/boc"
	"github.com/tlbgo/tlb/internal/decode"
	"github.com/tlbgo/tlb/internal/encode"
	"github.com/tlbgo/tlb/internal/model"
	"github.com/tlbgo/tlb/internal/tagindex"
)

// Runtime is a compiled TL-B schema (spec's Schema Model plus its Tag
// Index), ready to decode and encode cells. A Runtime never changes once
// [Compile] returns it, so a single Runtime can be shared across
// goroutines and reused for any number of Decode/Encode calls.
type Runtime struct {
	model *model.Model
	index *tagindex.Index
}

// Cell is a loaded boc cell: at most 1023 bits and 4 references, the
// unit every TL-B record decodes from and encodes into.
type Cell = boc.Cell

// NewBuilder starts a fresh cell under construction.
func NewBuilder() *boc.Builder { return boc.NewBuilder() }

// ParseCell decodes a base64-encoded BoC (bag of cells) into its root
// Cell.
func ParseCell(text string) (*Cell, error) { return boc.FromBase64(text) }

// Decode decodes cell against the Runtime's root-selection rules (spec
// §4.E): by default, lastTypeName is tried first, then every other type,
// tagged constructors before untagged-only ones, all in lexicographic
// order; pass [WithByTag] to instead select by reading the cell's
// leading tag bits.
func (r *Runtime) Decode(cell *Cell, opts ...DecodeOption) (Value, error) {
	return r.decode(cell, "", opts)
}

// DecodeByType decodes cell directly against the named type, skipping
// root selection entirely. typeName must name a type in the compiled
// schema.
func (r *Runtime) DecodeByType(cell *Cell, typeName string, opts ...DecodeOption) (Value, error) {
	return r.decode(cell, typeName, opts)
}

func (r *Runtime) decode(cell *Cell, typeName string, opts []DecodeOption) (Value, error) {
	o := decode.Options{AutoText: true}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return decode.Root(r.model, r.index, cell, typeName, o)
}

// Encode serializes v, a KindRecord [Value] naming one of the compiled
// schema's constructors (spec's "kind" string, e.g. "Pair" or
// "U_a" for a named constructor of type U), into a new Cell.
func (r *Runtime) Encode(v Value) (*Cell, error) {
	return encode.Root(r.model, v)
}

// EncodeByType is [Encode] for a caller that already knows which type it
// means and has built v without setting RecordType: it fills the type in
// before encoding. If v.RecordType is already set (naming a specific
// constructor such as "U_a"), it is left untouched.
func (r *Runtime) EncodeByType(typeName string, v Value) (*Cell, error) {
	if v.RecordType == "" {
		v.RecordType = typeName
	}
	return encode.Root(r.model, v)
}
