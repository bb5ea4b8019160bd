package boc

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Slice is a read cursor over a Cell's bits and references.
type Slice struct {
	cell   *Cell
	bitPos int
	refPos int
	exotic bool
}

// RemainingBits returns the number of unread data bits.
func (s *Slice) RemainingBits() int { return s.cell.bits.len - s.bitPos }

// RemainingRefs returns the number of unread references.
func (s *Slice) RemainingRefs() int { return len(s.cell.refs) - s.refPos }

// Snapshot is an opaque cursor position, used to roll back a failed
// constructor attempt (spec §4.E "Rollback").
type Snapshot struct {
	bitPos, refPos int
}

// Snapshot captures the current cursor position.
func (s *Slice) Snapshot() Snapshot { return Snapshot{s.bitPos, s.refPos} }

// Restore resets the cursor to a previously captured Snapshot.
func (s *Slice) Restore(snap Snapshot) { s.bitPos, s.refPos = snap.bitPos, snap.refPos }

// Skip moves the bit cursor by delta, which may be negative to rewind
// within the current frame (spec §6).
func (s *Slice) Skip(delta int) error {
	next := s.bitPos + delta
	if next < 0 || next > s.cell.bits.len {
		return fmt.Errorf("tlb: skip(%d) out of range", delta)
	}
	s.bitPos = next
	return nil
}

func (s *Slice) checkBits(n int) error {
	if n < 0 || n > s.RemainingBits() {
		return fmt.Errorf("tlb: need %d bits, have %d", n, s.RemainingBits())
	}
	return nil
}

// PreloadUint reads n bits without advancing the cursor.
func (s *Slice) PreloadUint(n int) (uint64, error) {
	if err := s.checkBits(n); err != nil {
		return 0, err
	}
	if n > 64 {
		return 0, fmt.Errorf("tlb: PreloadUint: width %d exceeds 64", n)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<1 | uint64(s.cell.bits.get(s.bitPos+i))
	}
	return v, nil
}

// LoadUint reads and consumes n bits as an unsigned integer.
func (s *Slice) LoadUint(n int) (uint64, error) {
	v, err := s.PreloadUint(n)
	if err != nil {
		return 0, err
	}
	s.bitPos += n
	return v, nil
}

// LoadUintBig reads and consumes n bits as an unsigned big integer.
func (s *Slice) LoadUintBig(n int) (*big.Int, error) {
	if err := s.checkBits(n); err != nil {
		return nil, err
	}
	v := new(big.Int)
	for i := 0; i < n; i++ {
		v.Lsh(v, 1)
		if s.cell.bits.get(s.bitPos+i) != 0 {
			v.SetBit(v, 0, 1)
		}
	}
	s.bitPos += n
	return v, nil
}

// LoadBit reads and consumes a single bit.
func (s *Slice) LoadBit() (int, error) {
	v, err := s.LoadUint(1)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// LoadBits reads n raw bits, returning them MSB-first-packed.
func (s *Slice) LoadBits(n int) ([]byte, error) {
	if err := s.checkBits(n); err != nil {
		return nil, err
	}
	out := newBitstring(n)
	for i := 0; i < n; i++ {
		out.set(i, s.cell.bits.get(s.bitPos+i))
	}
	s.bitPos += n
	return out.data, nil
}

// LoadCoins reads a TON-style VarUInteger 16 amount: a 4-bit byte-length
// prefix followed by that many bytes, big-endian, unsigned.
func (s *Slice) LoadCoins() (*big.Int, error) {
	return s.LoadVarUintBig(16)
}

func lenBitsForMax(maxLen int) int {
	if maxLen <= 1 {
		return 0
	}
	return bits.Len(uint(maxLen - 1))
}

// LoadVarUintBig reads a VarUInteger n value (n is the max byte count).
func (s *Slice) LoadVarUintBig(n int) (*big.Int, error) {
	lenBits := lenBitsForMax(n)
	length, err := s.LoadUint(lenBits)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return big.NewInt(0), nil
	}
	data, err := s.LoadBits(int(length) * 8)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

// LoadVarIntBig is LoadVarUintBig's signed counterpart: the magnitude
// bytes are interpreted as two's complement.
func (s *Slice) LoadVarIntBig(n int) (*big.Int, error) {
	lenBits := lenBitsForMax(n)
	length, err := s.LoadUint(lenBits)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return big.NewInt(0), nil
	}
	data, err := s.LoadBits(int(length) * 8)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(data)
	if data[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(data))*8))
	}
	return v, nil
}

// LoadRef consumes and returns the next reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RemainingRefs() < 1 {
		return nil, fmt.Errorf("tlb: no references remaining")
	}
	r := s.cell.refs[s.refPos]
	s.refPos++
	return r, nil
}

// LoadMaybeRef reads one bit; if set, it consumes and returns the next
// reference, else it returns (nil, nil).
func (s *Slice) LoadMaybeRef() (*Cell, error) {
	bit, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if bit == 0 {
		return nil, nil
	}
	return s.LoadRef()
}

// DictEntry is one key/value pair of a loaded dictionary; Value is the
// cell the entry's value was encoded into (spec §4.F: "each value is
// encoded into a fresh cell"), left for the caller to open and decode
// against the declared value FieldType.
type DictEntry struct {
	Key   *big.Int
	Value *Cell
}

// LoadDict reads a dictionary whose keys are signed big integers of
// keyBits width, chained as a binary trie across cells (see StoreDict
// for the node shapes this walks). Entries come back in trie-traversal
// order, not necessarily ascending by key; callers that need a
// deterministic order sort the result themselves.
func (s *Slice) LoadDict(keyBits int) ([]DictEntry, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	root, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	return loadDictNode(root, keyBits)
}

func loadDictNode(c *Cell, keyBits int) ([]DictEntry, error) {
	node := c.AsSlice()
	tag, err := node.LoadBit()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		raw, err := node.LoadUintBig(keyBits)
		if err != nil {
			return nil, err
		}
		valueCell, err := node.LoadRef()
		if err != nil {
			return nil, err
		}
		return []DictEntry{{Key: signExtend(raw, keyBits), Value: valueCell}}, nil
	}

	leftCell, err := node.LoadRef()
	if err != nil {
		return nil, err
	}
	rightCell, err := node.LoadRef()
	if err != nil {
		return nil, err
	}
	left, err := loadDictNode(leftCell, keyBits)
	if err != nil {
		return nil, err
	}
	right, err := loadDictNode(rightCell, keyBits)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// SignExtend reinterprets the low bitLen bits of raw (an unsigned
// magnitude) as two's complement, returning a possibly-negative value.
func SignExtend(raw *big.Int, bitLen int) *big.Int {
	return signExtend(raw, bitLen)
}

func signExtend(raw *big.Int, bitLen int) *big.Int {
	if bitLen == 0 || raw.Bit(bitLen-1) == 0 {
		return raw
	}
	full := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
	return new(big.Int).Sub(raw, full)
}
