// Package boc is the bit-addressed cell/slice/builder primitive layer
// spec §6 calls "consumed" (component A of spec §2's table) rather than
// built by the core — matching spec §5's actual requirement (immutability
// plus call-local state) rather than the teacher's performance envelope,
// so Cell/Slice/Builder stay simple Go types instead of an arena of
// unsafe-aliased buffers.
//
// The package's own Cell is a tree of bitstrings and references, used
// throughout internal/decode and internal/encode; at the BOC-facing
// boundary (FromBase64/Cell.Serialize), it is converted to and from
// github.com/xssnick/tonutils-go's tvm/cell.Cell, which implements the
// real TON bag-of-cells wire format (cell index, completion hashes, CRC)
// that this package does not reimplement.
package boc

import (
	"encoding/base64"
	"fmt"

	tonCell "github.com/xssnick/tonutils-go/tvm/cell"
)

// MaxBits is the maximum number of data bits a single Cell may hold.
const MaxBits = 1023

// MaxRefs is the maximum number of references a single Cell may hold.
const MaxRefs = 4

// bitstring is a packed, MSB-first run of bits.
type bitstring struct {
	data []byte
	len  int
}

func newBitstring(length int) *bitstring {
	return &bitstring{data: make([]byte, (length+7)/8), len: length}
}

func (b *bitstring) get(i int) int {
	byteIdx := i / 8
	shift := uint(7 - i%8)
	return int((b.data[byteIdx] >> shift) & 1)
}

func (b *bitstring) set(i, v int) {
	byteIdx := i / 8
	shift := uint(7 - i%8)
	if v != 0 {
		b.data[byteIdx] |= 1 << shift
	} else {
		b.data[byteIdx] &^= 1 << shift
	}
}

// Cell is an immutable container of up to MaxBits bits plus up to MaxRefs
// references to further cells.
type Cell struct {
	bits *bitstring
	refs []*Cell
}

// BitLen returns the number of data bits this cell holds.
func (c *Cell) BitLen() int { return c.bits.len }

// Refs returns the cell's outgoing references.
func (c *Cell) Refs() []*Cell { return c.refs }

// AsSlice returns a read cursor positioned at the start of the cell.
func (c *Cell) AsSlice() *Slice {
	return &Slice{cell: c}
}

// BeginParse is AsSlice, with an exotic flag used when reading sub-field
// groups (spec §4.E), to permit inspection of special cells. This
// implementation has no exotic-cell concept (no pruned/library/merkle
// cells), so the flag is accepted for interface compatibility and
// otherwise unused.
func (c *Cell) BeginParse(exotic bool) *Slice {
	s := c.AsSlice()
	s.exotic = exotic
	return s
}

// FromBase64 decodes a base64-encoded bag of cells (TON's real BOC wire
// format) into its root Cell, via tonutils-go's cell.FromBOC.
func FromBase64(text string) (*Cell, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("tlb: invalid base64 input: %w", err)
	}
	root, err := tonCell.FromBOC(data)
	if err != nil {
		return nil, fmt.Errorf("tlb: invalid bag of cells: %w", err)
	}
	return fromTonCell(root)
}

// ToBase64 serialises the cell to base64-encoded bytes via Serialize.
func (c *Cell) ToBase64() string {
	return base64.StdEncoding.EncodeToString(c.Serialize())
}

// Serialize writes the cell (and its subtree) as a real TON bag of
// cells, via tonutils-go's cell.Builder and Cell.ToBOC.
func (c *Cell) Serialize() []byte {
	return c.toTonCell().ToBOC()
}

func (c *Cell) toTonCell() *tonCell.Cell {
	b := tonCell.BeginCell()
	if err := b.StoreSlice(c.bits.data, c.bits.len); err != nil {
		panic(fmt.Sprintf("tlb: cell exceeds BOC limits: %v", err))
	}
	for _, r := range c.refs {
		if err := b.StoreRef(r.toTonCell()); err != nil {
			panic(fmt.Sprintf("tlb: cell exceeds BOC limits: %v", err))
		}
	}
	return b.EndCell()
}

func fromTonCell(tc *tonCell.Cell) (*Cell, error) {
	s := tc.BeginParse()
	n := int(s.BitsLeft())
	data, err := s.LoadSlice(n)
	if err != nil {
		return nil, fmt.Errorf("tlb: reading cell bits: %w", err)
	}
	bits := &bitstring{data: data, len: n}

	numRefs := s.RefsNum()
	if numRefs > MaxRefs {
		return nil, fmt.Errorf("tlb: cell declares %d refs, max is %d", numRefs, MaxRefs)
	}
	refs := make([]*Cell, 0, numRefs)
	for i := 0; i < numRefs; i++ {
		ref, err := s.LoadRef()
		if err != nil {
			return nil, fmt.Errorf("tlb: reading cell ref: %w", err)
		}
		child, err := fromTonCell(ref)
		if err != nil {
			return nil, err
		}
		refs = append(refs, child)
	}
	return &Cell{bits: bits, refs: refs}, nil
}
