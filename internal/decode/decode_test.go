package decode_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlbgo/tlb/internal/boc"
	"github.com/tlbgo/tlb/internal/decode"
	"github.com/tlbgo/tlb/internal/model"
	"github.com/tlbgo/tlb/internal/tagindex"
	"github.com/tlbgo/tlb/internal/tlbparse"
	"github.com/tlbgo/tlb/internal/value"
)

func buildModel(t *testing.T, src string) *model.Model {
	t.Helper()
	schema, err := tlbparse.Parse(src)
	require.NoError(t, err)
	m, err := model.Build(schema)
	require.NoError(t, err)
	return m
}

func fieldByName(rec value.Value, name string) (value.Value, bool) {
	for _, f := range rec.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

func TestTagSelection(t *testing.T) {
	m := buildModel(t, "a$0 = U;\nb$1 = U;\n")
	idx := tagindex.Build(m)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreBit(0))
	zeroBit, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, zeroBit, "", decode.Options{ByTag: true, AutoText: true})
	require.NoError(t, err)
	assert.Equal(t, "U_a", v.RecordType)

	b1 := boc.NewBuilder()
	require.NoError(t, b1.StoreBit(1))
	oneBit, err := b1.EndCell()
	require.NoError(t, err)

	v, err = decode.Root(m, idx, oneBit, "", decode.Options{ByTag: true, AutoText: true})
	require.NoError(t, err)
	assert.Equal(t, "U_b", v.RecordType)
}

func TestDependentWidth(t *testing.T) {
	m := buildModel(t, "x$_ n:#5 v:(## n) = X;\n")
	idx := tagindex.Build(m)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreUint(3, 5))
	require.NoError(t, b.StoreUint(5, 3))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, cell, "X", decode.Options{AutoText: true})
	require.NoError(t, err)
	assert.Equal(t, "X", v.RecordType)

	n, ok := fieldByName(v, "n")
	require.True(t, ok)
	assert.EqualValues(t, 3, n.Int)

	vv, ok := fieldByName(v, "v")
	require.True(t, ok)
	assert.EqualValues(t, 5, vv.Int)
}

func TestConstraintEnforcement(t *testing.T) {
	m := buildModel(t, "pair n:#8 m:#8 { n + m = 10 } = Pair;\n")
	idx := tagindex.Build(m)

	good := boc.NewBuilder()
	require.NoError(t, good.StoreUint(3, 8))
	require.NoError(t, good.StoreUint(7, 8))
	goodCell, err := good.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, goodCell, "Pair", decode.Options{AutoText: true})
	require.NoError(t, err)
	n, _ := fieldByName(v, "n")
	mm, _ := fieldByName(v, "m")
	assert.EqualValues(t, 3, n.Int)
	assert.EqualValues(t, 7, mm.Int)

	bad := boc.NewBuilder()
	require.NoError(t, bad.StoreUint(3, 8))
	require.NoError(t, bad.StoreUint(8, 8))
	badCell, err := bad.EndCell()
	require.NoError(t, err)

	_, err = decode.Root(m, idx, badCell, "Pair", decode.Options{AutoText: true})
	require.Error(t, err)
}

func TestConditionalField(t *testing.T) {
	m := buildModel(t, "msg has:Bool body:has?(^Cell) = Msg;\n")
	idx := tagindex.Build(m)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreBit(0))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, cell, "Msg", decode.Options{AutoText: true})
	require.NoError(t, err)
	has, ok := fieldByName(v, "has")
	require.True(t, ok)
	assert.False(t, has.Bool)
	_, hasBody := fieldByName(v, "body")
	assert.False(t, hasBody)
}

func TestTextAutoDetection(t *testing.T) {
	m := buildModel(t, "lbl text:(bits 24) = L;\n")
	idx := tagindex.Build(m)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreBits([]byte{0x41, 0x42, 0x43}, 24))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, cell, "L", decode.Options{AutoText: true})
	require.NoError(t, err)
	text, ok := fieldByName(v, "text")
	require.True(t, ok)
	assert.Equal(t, value.KindText, text.Kind)
	assert.Equal(t, "ABC", text.Text)

	v, err = decode.Root(m, idx, cell, "L", decode.Options{AutoText: false})
	require.NoError(t, err)
	text, ok = fieldByName(v, "text")
	require.True(t, ok)
	assert.Equal(t, value.KindBits, text.Kind)
}

func TestHashmapRoundTrip(t *testing.T) {
	m := buildModel(t, "cfg m:(HashmapE 8 ^Cell) = Cfg;\n")
	idx := tagindex.Build(m)

	leaf1, err := boc.NewBuilder().EndCell()
	require.NoError(t, err)
	leaf2b := boc.NewBuilder()
	require.NoError(t, leaf2b.StoreUint(99, 8))
	leaf2, err := leaf2b.EndCell()
	require.NoError(t, err)

	wrapped1 := boc.NewBuilder()
	require.NoError(t, wrapped1.StoreRef(leaf1))
	wrappedCell1, err := wrapped1.EndCell()
	require.NoError(t, err)

	wrapped2 := boc.NewBuilder()
	require.NoError(t, wrapped2.StoreRef(leaf2))
	wrappedCell2, err := wrapped2.EndCell()
	require.NoError(t, err)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreDict(8, []boc.DictSource{
		{Key: big.NewInt(1), Value: wrappedCell1},
		{Key: big.NewInt(2), Value: wrappedCell2},
	}))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, cell, "Cfg", decode.Options{AutoText: true})
	require.NoError(t, err)
	mField, ok := fieldByName(v, "m")
	require.True(t, ok)
	require.Equal(t, value.KindDictionary, mField.Kind)
	require.Len(t, mField.Dictionary, 2)
	assert.EqualValues(t, 1, mField.Dictionary[0].Key.Int64())
	assert.EqualValues(t, 2, mField.Dictionary[1].Key.Int64())
	assert.Equal(t, value.KindCellRef, mField.Dictionary[0].Value.Kind)
}

func TestRollbackCleanliness(t *testing.T) {
	m := buildModel(t, "a$0 x:#8 = U;\nb$1 y:#16 = U;\n")
	idx := tagindex.Build(m)

	b := boc.NewBuilder()
	require.NoError(t, b.StoreBit(1))
	require.NoError(t, b.StoreUint(0xABCD, 16))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := decode.Root(m, idx, cell, "", decode.Options{AutoText: true})
	require.NoError(t, err)
	assert.Equal(t, "U_b", v.RecordType)
	y, ok := fieldByName(v, "y")
	require.True(t, ok)
	assert.EqualValues(t, 0xABCD, y.Int)
}
