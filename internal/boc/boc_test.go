package boc

import (
	"math/big"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSliceRoundTrip(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreUint(0b101, 3))
	require.NoError(t, b.StoreBit(1))
	require.NoError(t, b.StoreUintBig(big.NewInt(12345), 32))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.AsSlice()
	v, err := s.LoadUint(3)
	require.NoError(t, err)
	assert.EqualValues(t, 0b101, v)

	bit, err := s.LoadBit()
	require.NoError(t, err)
	assert.Equal(t, 1, bit)

	big32, err := s.LoadUintBig(32)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), big32.Int64())
	assert.Zero(t, s.RemainingBits())
}

func TestRefsAndMaybeRef(t *testing.T) {
	leaf := NewBuilder()
	require.NoError(t, leaf.StoreUint(7, 8))
	leafCell, err := leaf.EndCell()
	require.NoError(t, err)

	root := NewBuilder()
	require.NoError(t, root.StoreMaybeRef(leafCell))
	require.NoError(t, root.StoreMaybeRef(nil))
	rootCell, err := root.EndCell()
	require.NoError(t, err)

	s := rootCell.AsSlice()
	ref, err := s.LoadMaybeRef()
	require.NoError(t, err)
	require.NotNil(t, ref)
	v, err := ref.AsSlice().LoadUint(8)
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	ref2, err := s.LoadMaybeRef()
	require.NoError(t, err)
	assert.Nil(t, ref2)
}

func TestSnapshotRestore(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreUint(0xAB, 8))
	require.NoError(t, b.StoreUint(0xCD, 8))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.AsSlice()
	snap := s.Snapshot()
	_, err = s.LoadUint(8)
	require.NoError(t, err)
	s.Restore(snap)

	v, err := s.LoadUint(16)
	require.NoError(t, err)
	assert.EqualValues(t, 0xABCD, v)
}

func TestSkipNegativeRewind(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreUint(0xFF, 8))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.AsSlice()
	_, err = s.LoadUint(8)
	require.NoError(t, err)
	require.NoError(t, s.Skip(-8))
	v, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.EqualValues(t, 0xFF, v)
}

func TestCoinsRoundTrip(t *testing.T) {
	amounts := []int64{0, 1, 255, 1 << 20, 1 << 40}
	for _, amt := range amounts {
		b := NewBuilder()
		require.NoError(t, b.StoreCoins(big.NewInt(amt)))
		cell, err := b.EndCell()
		require.NoError(t, err)
		got, err := cell.AsSlice().LoadCoins()
		require.NoError(t, err)
		assert.Equal(t, amt, got.Int64())
	}
}

func TestVarIntSigned(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1000, -1000} {
		b := NewBuilder()
		require.NoError(t, b.StoreVarIntBig(big.NewInt(v), 16))
		cell, err := b.EndCell()
		require.NoError(t, err)
		got, err := cell.AsSlice().LoadVarIntBig(16)
		require.NoError(t, err)
		assert.Equal(t, v, got.Int64())
	}
}

func TestAddressRoundTrip(t *testing.T) {
	a := Address{Workchain: -1, Hash: big.NewInt(0xdeadbeef)}
	b := NewBuilder()
	require.NoError(t, b.StoreAddress(a))
	cell, err := b.EndCell()
	require.NoError(t, err)
	got, err := cell.AsSlice().LoadAddress()
	require.NoError(t, err)
	assert.Equal(t, a.Workchain, got.Workchain)
	assert.Equal(t, a.Hash, got.Hash)

	text := got.String()
	parsed, err := ParseAddress(text)
	require.NoError(t, err)
	assert.Equal(t, got.Workchain, parsed.Workchain)
	assert.Equal(t, got.Hash, parsed.Hash)
}

func TestAddressNone(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreAddress(Address{None: true}))
	cell, err := b.EndCell()
	require.NoError(t, err)
	got, err := cell.AsSlice().LoadAddress()
	require.NoError(t, err)
	assert.True(t, got.None)
	assert.Equal(t, "none", got.String())
}

func TestDictRoundTrip(t *testing.T) {
	valCell, err := NewBuilder().EndCell()
	require.NoError(t, err)
	entries := []DictSource{
		{Key: big.NewInt(5), Value: valCell},
		{Key: big.NewInt(-3), Value: valCell},
		{Key: big.NewInt(100), Value: valCell},
	}
	b := NewBuilder()
	require.NoError(t, b.StoreDict(16, entries))
	cell, err := b.EndCell()
	require.NoError(t, err)

	got, err := cell.AsSlice().LoadDict(16)
	require.NoError(t, err)
	require.Len(t, got, 3)
	sort.Slice(got, func(i, j int) bool { return got[i].Key.Cmp(got[j].Key) < 0 })
	assert.Equal(t, int64(-3), got[0].Key.Int64())
	assert.Equal(t, int64(5), got[1].Key.Int64())
	assert.Equal(t, int64(100), got[2].Key.Int64())
}

// TestDictManyEntries exercises a dictionary with more entries than a
// single cell's MaxRefs, which only a chained trie (rather than one
// content cell holding a direct ref per entry) can encode.
func TestDictManyEntries(t *testing.T) {
	valCell, err := NewBuilder().EndCell()
	require.NoError(t, err)

	keys := []int64{-500, -12, -1, 0, 1, 2, 17, 63, 128, 9999}
	var entries []DictSource
	for _, k := range keys {
		entries = append(entries, DictSource{Key: big.NewInt(k), Value: valCell})
	}

	b := NewBuilder()
	require.NoError(t, b.StoreDict(16, entries))
	cell, err := b.EndCell()
	require.NoError(t, err)

	got, err := cell.AsSlice().LoadDict(16)
	require.NoError(t, err)
	require.Len(t, got, len(keys))

	sort.Slice(got, func(i, j int) bool { return got[i].Key.Cmp(got[j].Key) < 0 })
	sorted := append([]int64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, k := range sorted {
		assert.Equal(t, k, got[i].Key.Int64())
	}
}

func TestEmptyDict(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreDict(8, nil))
	cell, err := b.EndCell()
	require.NoError(t, err)
	got, err := cell.AsSlice().LoadDict(8)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCellSerializeRoundTrip(t *testing.T) {
	leafBuilder := NewBuilder()
	require.NoError(t, leafBuilder.StoreUint(42, 16))
	leaf, err := leafBuilder.EndCell()
	require.NoError(t, err)

	rootBuilder := NewBuilder()
	require.NoError(t, rootBuilder.StoreBit(1))
	require.NoError(t, rootBuilder.StoreRef(leaf))
	root, err := rootBuilder.EndCell()
	require.NoError(t, err)

	text := root.ToBase64()
	decoded, err := FromBase64(text)
	require.NoError(t, err)
	assert.Equal(t, root.BitLen(), decoded.BitLen())
	require.Len(t, decoded.Refs(), 1)

	v, err := decoded.Refs()[0].AsSlice().LoadUint(16)
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestBuilderOverflow(t *testing.T) {
	b := NewBuilder()
	err := b.StoreUint(0, MaxBits+1)
	assert.Error(t, err)
}

func TestLoadRefExhausted(t *testing.T) {
	cell, err := NewBuilder().EndCell()
	require.NoError(t, err)
	_, err = cell.AsSlice().LoadRef()
	assert.Error(t, err)
}
