package encode_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlbgo/tlb/internal/boc"
	"github.com/tlbgo/tlb/internal/decode"
	"github.com/tlbgo/tlb/internal/encode"
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

func TestEncodeDecodeRoundTripPair(t *testing.T) {
	m := buildModel(t, "pair n:#8 m:#8 { n + m = 10 } = Pair;\n")
	idx := tagindex.Build(m)

	v := value.Value{Kind: value.KindRecord, RecordType: "Pair", Fields: []value.Field{
		{Name: "n", Value: value.Value{Kind: value.KindInt, Int: 3}},
		{Name: "m", Value: value.Value{Kind: value.KindInt, Int: 7}},
	}}
	cell, err := encode.Root(m, v)
	require.NoError(t, err)

	got, err := decode.Root(m, idx, cell, "Pair", decode.Options{AutoText: true})
	require.NoError(t, err)
	assert.Equal(t, "Pair", got.RecordType)
}

func TestEncodeConstraintViolation(t *testing.T) {
	m := buildModel(t, "pair n:#8 m:#8 { n + m = 10 } = Pair;\n")

	v := value.Value{Kind: value.KindRecord, RecordType: "Pair", Fields: []value.Field{
		{Name: "n", Value: value.Value{Kind: value.KindInt, Int: 3}},
		{Name: "m", Value: value.Value{Kind: value.KindInt, Int: 8}},
	}}
	_, err := encode.Root(m, v)
	assert.Error(t, err)
}

func TestEncodeConditionalFalse(t *testing.T) {
	m := buildModel(t, "msg has:Bool body:has?(^Cell) = Msg;\n")

	v := value.Value{Kind: value.KindRecord, RecordType: "Msg", Fields: []value.Field{
		{Name: "has", Value: value.Value{Kind: value.KindBool, Bool: false}},
	}}
	cell, err := encode.Root(m, v)
	require.NoError(t, err)
	assert.Equal(t, 1, cell.BitLen())
	assert.Len(t, cell.Refs(), 0)

	s := cell.AsSlice()
	bit, err := s.LoadBit()
	require.NoError(t, err)
	assert.Equal(t, 0, bit)
}

func TestEncodeConditionalTrue(t *testing.T) {
	m := buildModel(t, "msg has:Bool body:has?(^Cell) = Msg;\n")

	inner, err := boc.NewBuilder().EndCell()
	require.NoError(t, err)

	v := value.Value{Kind: value.KindRecord, RecordType: "Msg", Fields: []value.Field{
		{Name: "has", Value: value.Value{Kind: value.KindBool, Bool: true}},
		{Name: "body", Value: value.Value{Kind: value.KindCellRef, CellRef: inner}},
	}}
	cell, err := encode.Root(m, v)
	require.NoError(t, err)
	assert.Equal(t, 1, cell.BitLen())
	require.Len(t, cell.Refs(), 1)
	assert.Same(t, inner, cell.Refs()[0])
}

func TestEncodeHashmapRoundTrip(t *testing.T) {
	m := buildModel(t, "cfg m:(HashmapE 8 ^Cell) = Cfg;\n")
	idx := tagindex.Build(m)

	leaf1, err := boc.NewBuilder().EndCell()
	require.NoError(t, err)
	leafBuilder2 := boc.NewBuilder()
	require.NoError(t, leafBuilder2.StoreUint(99, 8))
	leaf2, err := leafBuilder2.EndCell()
	require.NoError(t, err)

	v := value.Value{Kind: value.KindRecord, RecordType: "Cfg", Fields: []value.Field{
		{Name: "m", Value: value.Value{Kind: value.KindDictionary, Dictionary: []value.DictEntry{
			{Key: big.NewInt(1), Value: value.Value{Kind: value.KindCellRef, CellRef: leaf1}},
			{Key: big.NewInt(2), Value: value.Value{Kind: value.KindCellRef, CellRef: leaf2}},
		}}},
	}}
	cell, err := encode.Root(m, v)
	require.NoError(t, err)

	got, err := decode.Root(m, idx, cell, "Cfg", decode.Options{AutoText: true})
	require.NoError(t, err)
	var mField value.Value
	for _, f := range got.Fields {
		if f.Name == "m" {
			mField = f.Value
		}
	}
	require.Equal(t, value.KindDictionary, mField.Kind)
	require.Len(t, mField.Dictionary, 2)
}

func TestEncodeTextBits(t *testing.T) {
	m := buildModel(t, "lbl text:(bits 24) = L;\n")
	idx := tagindex.Build(m)

	v := value.Value{Kind: value.KindRecord, RecordType: "L", Fields: []value.Field{
		{Name: "text", Value: value.Value{Kind: value.KindText, Text: "ABC"}},
	}}
	cell, err := encode.Root(m, v)
	require.NoError(t, err)

	got, err := decode.Root(m, idx, cell, "L", decode.Options{AutoText: true})
	require.NoError(t, err)
	var text value.Value
	for _, f := range got.Fields {
		if f.Name == "text" {
			text = f.Value
		}
	}
	assert.Equal(t, "ABC", text.Text)
}

func TestEncodeUnknownType(t *testing.T) {
	m := buildModel(t, "a$0 = U;\n")
	v := value.Value{Kind: value.KindRecord, RecordType: "NotAType"}
	_, err := encode.Root(m, v)
	assert.Error(t, err)
}

func TestEncodeNotTyped(t *testing.T) {
	m := buildModel(t, "a$0 = U;\n")
	_, err := encode.Root(m, value.Value{Kind: value.KindInt, Int: 5})
	assert.Error(t, err)
}
