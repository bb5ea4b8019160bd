package boc

import (
	"fmt"
	"math/big"
	"sort"
)

// Builder is a write cursor that accumulates bits and references before
// being sealed into an immutable Cell.
type Builder struct {
	bits *bitstring
	used int
	refs []*Cell
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{bits: newBitstring(MaxBits)}
}

func (b *Builder) checkRoom(n int) error {
	if b.used+n > MaxBits {
		return fmt.Errorf("tlb: builder overflow: %d + %d exceeds %d bits", b.used, n, MaxBits)
	}
	return nil
}

// StoreUint appends the low n bits of v, most-significant bit first.
func (b *Builder) StoreUint(v uint64, n int) error {
	if err := b.checkRoom(n); err != nil {
		return err
	}
	for i := n - 1; i >= 0; i-- {
		b.bits.set(b.used, int((v>>uint(i))&1))
		b.used++
	}
	return nil
}

// StoreUintBig appends the low n bits of v, most-significant bit first.
func (b *Builder) StoreUintBig(v *big.Int, n int) error {
	if err := b.checkRoom(n); err != nil {
		return err
	}
	for i := n - 1; i >= 0; i-- {
		b.bits.set(b.used, int(v.Bit(i)))
		b.used++
	}
	return nil
}

// StoreBit appends a single bit (0 or 1).
func (b *Builder) StoreBit(v int) error {
	return b.StoreUint(uint64(v), 1)
}

// StoreBits appends n raw bits taken MSB-first from data.
func (b *Builder) StoreBits(data []byte, n int) error {
	if err := b.checkRoom(n); err != nil {
		return err
	}
	src := &bitstring{data: data, len: n}
	for i := 0; i < n; i++ {
		b.bits.set(b.used, src.get(i))
		b.used++
	}
	return nil
}

// StoreRef appends a reference to an already-built Cell.
func (b *Builder) StoreRef(c *Cell) error {
	if len(b.refs) >= MaxRefs {
		return fmt.Errorf("tlb: builder already holds %d references", MaxRefs)
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreMaybeRef writes the presence bit followed by the ref, or just the
// cleared presence bit when c is nil.
func (b *Builder) StoreMaybeRef(c *Cell) error {
	if c == nil {
		return b.StoreBit(0)
	}
	if err := b.StoreBit(1); err != nil {
		return err
	}
	return b.StoreRef(c)
}

// StoreVarUintBig writes a VarUInteger n value: a length-bits byte-count
// prefix, then that many big-endian magnitude bytes.
func (b *Builder) StoreVarUintBig(v *big.Int, n int) error {
	lenBits := lenBitsForMax(n)
	if v.Sign() == 0 {
		return b.StoreUint(0, lenBits)
	}
	data := v.Bytes()
	if err := b.StoreUint(uint64(len(data)), lenBits); err != nil {
		return err
	}
	return b.StoreBits(data, len(data)*8)
}

// StoreVarIntBig writes a VarUInteger-shaped value whose magnitude bytes
// are the two's-complement encoding of v (which may be negative).
func (b *Builder) StoreVarIntBig(v *big.Int, n int) error {
	lenBits := lenBitsForMax(n)
	if v.Sign() == 0 {
		return b.StoreUint(0, lenBits)
	}
	data := twosComplementBytes(v)
	if err := b.StoreUint(uint64(len(data)), lenBits); err != nil {
		return err
	}
	return b.StoreBits(data, len(data)*8)
}

// StoreCoins writes v as a VarUInteger 16 (TON's Coins convention).
func (b *Builder) StoreCoins(v *big.Int) error {
	return b.StoreVarUintBig(v, 16)
}

func twosComplementBytes(v *big.Int) []byte {
	if v.Sign() >= 0 {
		data := v.Bytes()
		if len(data) == 0 || data[0]&0x80 != 0 {
			data = append([]byte{0}, data...)
		}
		return data
	}
	bitLen := v.BitLen() + 1
	nbytes := (bitLen + 7) / 8
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nbytes)*8)
	twos := new(big.Int).Add(mod, v)
	out := make([]byte, nbytes)
	twos.FillBytes(out)
	return out
}

// DictSource is one key/value pair to serialise with StoreDict.
type DictSource struct {
	Key   *big.Int
	Value *Cell
}

// StoreDict writes a dictionary as a binary trie chained across cells
// (see Slice.LoadDict and DESIGN.md): each node is either a fork (a bit,
// then a left and a right subtree ref, one per value of the next key
// bit) or a leaf (a bit, the entry's full key, and a ref to its value).
// Chaining across cells this way, rather than storing every entry as a
// direct ref of one node, means entry count is bounded only by recursion
// depth (keyBits), not by Builder.StoreRef's MaxRefs-per-cell cap.
// Entries are processed in ascending key order regardless of input
// order, matching SPEC_FULL.md's determinism rule for encoder output.
func (b *Builder) StoreDict(keyBits int, entries []DictSource) error {
	if len(entries) == 0 {
		return b.StoreBit(0)
	}
	sorted := append([]DictSource(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Cmp(sorted[j].Key) < 0 })

	root, err := buildDictNode(sorted, keyBits, keyBits-1)
	if err != nil {
		return err
	}
	if err := b.StoreBit(1); err != nil {
		return err
	}
	return b.StoreRef(root)
}

// buildDictNode builds one trie node for entries, all of which still
// need to be told apart by some bit at position pos or lower (pos counts
// down from keyBits-1, matching big.Int.Bit's from-the-LSB indexing).
// While every remaining entry shares the same bit at pos, that bit
// contributes nothing to the trie shape, so the loop skips it without
// spending a cell — the real TL-B encoding calls this a compressed
// label; this is the same idea without a separate length-prefixed label
// field, since a leaf always carries its full key.
func buildDictNode(entries []DictSource, keyBits, pos int) (*Cell, error) {
	for len(entries) > 1 && pos >= 0 {
		var left, right []DictSource
		for _, e := range entries {
			if e.Key.Bit(pos) == 0 {
				left = append(left, e)
			} else {
				right = append(right, e)
			}
		}
		pos--
		if len(left) == 0 {
			entries = right
			continue
		}
		if len(right) == 0 {
			entries = left
			continue
		}

		node := NewBuilder()
		if err := node.StoreBit(1); err != nil {
			return nil, err
		}
		leftCell, err := buildDictNode(left, keyBits, pos)
		if err != nil {
			return nil, err
		}
		rightCell, err := buildDictNode(right, keyBits, pos)
		if err != nil {
			return nil, err
		}
		if err := node.StoreRef(leftCell); err != nil {
			return nil, err
		}
		if err := node.StoreRef(rightCell); err != nil {
			return nil, err
		}
		return node.EndCell()
	}

	if len(entries) != 1 {
		return nil, fmt.Errorf("tlb: dictionary has duplicate key")
	}
	node := NewBuilder()
	if err := node.StoreBit(0); err != nil {
		return nil, err
	}
	if err := node.StoreUintBig(entries[0].Key, keyBits); err != nil {
		return nil, err
	}
	if err := node.StoreRef(entries[0].Value); err != nil {
		return nil, err
	}
	return node.EndCell()
}

// EndCell seals the builder into an immutable Cell.
func (b *Builder) EndCell() (*Cell, error) {
	bits := newBitstring(b.used)
	for i := 0; i < b.used; i++ {
		bits.set(i, b.bits.get(i))
	}
	return &Cell{bits: bits, refs: append([]*Cell(nil), b.refs...)}, nil
}
