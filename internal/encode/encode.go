// Package encode implements the TL-B encoder (spec component F):
// constructor selection by a `kind` discriminator on the input value,
// recursive field encoding with variable binding and constraint
// checking. Mirrors internal/decode's structure field-by-field, the way
// the teacher's encode-side code mirrors its decode-side code.
package encode

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/tlbgo/tlb/internal/boc"
	"github.com/tlbgo/tlb/internal/codecerr"
	"github.com/tlbgo/tlb/internal/debug"
	"github.com/tlbgo/tlb/internal/eval"
	"github.com/tlbgo/tlb/internal/model"
	"github.com/tlbgo/tlb/internal/value"
)

// MaxDepth mirrors internal/decode.MaxDepth for the encode-side recursion.
const MaxDepth = 256

// Root encodes a top-level value.Value (Kind must be KindRecord, with a
// non-empty RecordType) into a Cell.
func Root(m *model.Model, v value.Value) (*boc.Cell, error) {
	if v.Kind != value.KindRecord || v.RecordType == "" {
		return nil, codecerr.New(codecerr.NotTyped, "value has no kind")
	}
	b := boc.NewBuilder()
	if err := encodeRecord(m, v, b, 0); err != nil {
		return nil, err
	}
	return b.EndCell()
}

func splitKind(kind string) (typeName, ctorName string) {
	i := strings.IndexByte(kind, '_')
	if i < 0 {
		return kind, ""
	}
	return kind[:i], kind[i+1:]
}

func resolveConstructor(m *model.Model, kind string) (*model.Type, *model.Constructor, error) {
	typeName, ctorName := splitKind(kind)
	t, ok := m.Types[typeName]
	if !ok {
		return nil, nil, codecerr.New(codecerr.UnknownType, "%q", typeName)
	}
	if ctorName == "" {
		if len(t.Constructors) == 0 {
			return nil, nil, codecerr.New(codecerr.UnknownConstructor, "type %q has no constructors", typeName)
		}
		return t, t.Constructors[0], nil
	}
	for _, c := range t.Constructors {
		if c.Name == ctorName {
			return t, c, nil
		}
	}
	return nil, nil, codecerr.New(codecerr.UnknownConstructor, "%q has no constructor %q", typeName, ctorName)
}

func encodeRecord(m *model.Model, v value.Value, b *boc.Builder, depth int) error {
	if depth > MaxDepth {
		return codecerr.New(codecerr.RecursionDepth, "exceeded depth %d", MaxDepth)
	}
	_, c, err := resolveConstructor(m, v.RecordType)
	if err != nil {
		if debug.Enabled {
			debug.Log(nil, "resolve", "record type %q: %v", v.RecordType, err)
		}
		return err
	}
	debug.Assert(c != nil, "resolveConstructor returned nil constructor without an error")
	if c.Tag.BitLen > 0 {
		if err := b.StoreUint(c.Tag.Value, c.Tag.BitLen); err != nil {
			return codecerr.New(codecerr.DataShort, "%v", err)
		}
	}

	env := eval.Env{}
	for _, p := range c.Params {
		if p.HasConst {
			env[p.Name] = p.Const
			continue
		}
		if fv, ok := lookupField(v, p.Name); ok {
			if n, ok := intOf(fv); ok {
				env[p.Name] = n
			}
		}
	}

	for _, f := range c.Fields {
		if err := encodeField(m, v, f, b, env, depth); err != nil {
			return err
		}
	}

	for _, constraint := range c.Constraints {
		r, err := eval.Eval(constraint, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		if r == 0 {
			return codecerr.New(codecerr.ConstraintFailed, "constructor %q", c.Name)
		}
	}
	return nil
}

func lookupField(container value.Value, name string) (value.Value, bool) {
	if container.Kind != value.KindRecord {
		return value.Value{}, false
	}
	for _, f := range container.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

func encodeField(m *model.Model, container value.Value, f model.Field, b *boc.Builder, env eval.Env, depth int) error {
	if len(f.SubFields) > 0 {
		sub := container
		if f.Name != "" {
			v, ok := lookupField(container, f.Name)
			if !ok {
				v = value.Value{Kind: value.KindRecord}
			}
			sub = v
		}
		nested := boc.NewBuilder()
		for _, sf := range f.SubFields {
			if err := encodeField(m, sub, sf, nested, env, depth+1); err != nil {
				return err
			}
		}
		cell, err := nested.EndCell()
		if err != nil {
			return codecerr.New(codecerr.DataShort, "%v", err)
		}
		return b.StoreRef(cell)
	}

	fv, present := lookupField(container, f.Name)
	if err := encodeFieldType(m, f.Type, fv, present, b, env, depth); err != nil {
		return err
	}
	if f.Name != "" {
		bindEnv(env, f.Name, f.Type, fv, present)
	}
	return nil
}

func bindEnv(env eval.Env, name string, ft model.FieldType, fv value.Value, present bool) {
	switch ft.(type) {
	case model.Named, model.Number, model.VarInteger, model.Bool:
		if !present {
			env[name] = 0
			return
		}
		if n, ok := intOf(fv); ok {
			env[name] = n
		}
	}
}

func intOf(v value.Value) (int64, bool) {
	switch v.Kind {
	case value.KindInt:
		return v.Int, true
	case value.KindBigInt:
		return v.BigInt.Int64(), true
	case value.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case value.KindText:
		if n, err := strconv.ParseInt(v.Text, 10, 64); err == nil {
			return n, true
		}
		if bi, ok := new(big.Int).SetString(v.Text, 10); ok {
			return bi.Int64(), true
		}
	}
	return 0, false
}

func bigOf(v value.Value, present bool) *big.Int {
	if !present {
		return big.NewInt(0)
	}
	switch v.Kind {
	case value.KindInt:
		return big.NewInt(v.Int)
	case value.KindBigInt:
		return v.BigInt
	case value.KindText:
		if bi, ok := new(big.Int).SetString(v.Text, 10); ok {
			return bi
		}
	}
	return big.NewInt(0)
}

var genericPlaceholder = regexp.MustCompile(`^[A-Z][a-zA-Z]*Type?$`)

func isGenericPlaceholder(name string) bool {
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		return true
	}
	if name == "Any" || name == "Arg" {
		return true
	}
	return genericPlaceholder.MatchString(name)
}

func resolvePlaceholderTarget(m *model.Model, kind string) (string, bool) {
	if _, ok := m.Types[kind]; ok {
		return kind, true
	}
	if i := strings.IndexByte(kind, '_'); i >= 0 {
		prefix := kind[:i]
		if _, ok := m.Types[prefix]; ok {
			return prefix, true
		}
	}
	return "", false
}

func encodeFieldType(m *model.Model, ft model.FieldType, v value.Value, present bool, b *boc.Builder, env eval.Env, depth int) error {
	if depth > MaxDepth {
		if debug.Enabled {
			debug.Log(nil, "depth", "field type %T exceeded depth %d", ft, MaxDepth)
		}
		return codecerr.New(codecerr.RecursionDepth, "exceeded depth %d", MaxDepth)
	}
	switch t := ft.(type) {
	case model.Number:
		width, err := eval.Eval(t.Bits, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		if width < 0 {
			return codecerr.New(codecerr.UnsupportedFieldType, "negative width %d", width)
		}
		bi := bigOf(v, present)
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
		masked := new(big.Int).And(bi, mask)
		return b.StoreUintBig(masked, int(width))

	case model.Bool:
		if t.HasFixed {
			return nil
		}
		bit := 0
		if present && v.Kind == value.KindBool && v.Bool {
			bit = 1
		}
		return b.StoreBit(bit)

	case model.Bits:
		n, err := eval.Eval(t.Bits, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		data := bitsBytes(v, present, int(n))
		return b.StoreBits(data, int(n))

	case model.Named:
		if t.Name == "Bool" {
			bit := 0
			if present && v.Kind == value.KindBool && v.Bool {
				bit = 1
			}
			return b.StoreBit(bit)
		}
		if isGenericPlaceholder(t.Name) {
			if !present || v.Kind != value.KindRecord {
				return nil
			}
			if _, ok := resolvePlaceholderTarget(m, v.RecordType); !ok {
				return nil
			}
			return encodeRecord(m, v, b, depth+1)
		}
		if !present {
			return codecerr.New(codecerr.UnsupportedFieldType, "missing value for named field %q", t.Name)
		}
		return encodeRecord(m, v, b, depth+1)

	case model.Coins:
		return b.StoreCoins(bigOf(v, present))

	case model.Address:
		addr := boc.Address{None: true}
		if present {
			switch v.Kind {
			case value.KindAddress:
				addr = boc.Address{None: v.AddressNone, Workchain: v.AddressWorkchain, Hash: v.BigInt}
			case value.KindText:
				parsed, err := boc.ParseAddress(v.Text)
				if err != nil {
					return codecerr.New(codecerr.AddressLoadFailed, "%v", err)
				}
				addr = parsed
			}
		}
		if err := b.StoreAddress(addr); err != nil {
			return codecerr.New(codecerr.AddressLoadFailed, "%v", err)
		}
		return nil

	case model.Cell:
		if !present || v.Kind == value.KindAbsent {
			return b.StoreMaybeRef(nil)
		}
		cell, ok := v.CellRef.(*boc.Cell)
		if !ok {
			return codecerr.New(codecerr.UnsupportedFieldType, "cell field requires a cell reference")
		}
		return b.StoreMaybeRef(cell)

	case model.CellInside:
		if _, isBareCell := t.Inner.(model.Cell); isBareCell {
			cell, ok := v.CellRef.(*boc.Cell)
			if !present || !ok {
				return codecerr.New(codecerr.UnsupportedFieldType, "^cell field requires a cell reference")
			}
			return b.StoreRef(cell)
		}
		nested := boc.NewBuilder()
		if err := encodeFieldType(m, t.Inner, v, present, nested, env, depth+1); err != nil {
			return err
		}
		cell, err := nested.EndCell()
		if err != nil {
			return codecerr.New(codecerr.DataShort, "%v", err)
		}
		return b.StoreRef(cell)

	case model.Hashmap:
		keyBits, err := eval.Eval(t.KeyBits, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		var sources []boc.DictSource
		if present && v.Kind == value.KindDictionary {
			for _, e := range v.Dictionary {
				entryBuilder := boc.NewBuilder()
				entryEnv := copyEnv(env)
				if err := encodeFieldType(m, t.Value, e.Value, true, entryBuilder, entryEnv, depth+1); err != nil {
					return err
				}
				cell, err := entryBuilder.EndCell()
				if err != nil {
					return codecerr.New(codecerr.DataShort, "%v", err)
				}
				sources = append(sources, boc.DictSource{Key: e.Key, Value: cell})
			}
		}
		if debug.Enabled {
			debug.Log(nil, "hashmap", "storing %d entries at depth %d", len(sources), depth)
		}
		return b.StoreDict(int(keyBits), sources)

	case model.VarInteger:
		n, err := eval.Eval(t.N, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		bi := bigOf(v, present)
		if t.Signed {
			return b.StoreVarIntBig(bi, int(n))
		}
		return b.StoreVarUintBig(bi, int(n))

	case model.Multiple:
		times, err := eval.Eval(t.Times, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		var seq []value.Value
		if present && v.Kind == value.KindSequence {
			seq = v.Sequence
		}
		for i := int64(0); i < times; i++ {
			var elem value.Value
			has := false
			if int(i) < len(seq) {
				elem = seq[i]
				has = true
			}
			if err := encodeFieldType(m, t.Elem, elem, has, b, env, depth+1); err != nil {
				return err
			}
		}
		return nil

	case model.Cond:
		cond, err := eval.Eval(t.Condition, env)
		if err != nil {
			return &codecerr.SchemaError{Message: err.Error()}
		}
		if cond == 0 {
			return nil
		}
		return encodeFieldType(m, t.Inner, v, present, b, env, depth+1)

	case model.Tuple:
		var items []boc.TupleItem
		if present && v.Kind == value.KindTuple {
			items = valuesToTupleItems(v.Tuple)
		}
		return b.StoreTuple(items)

	default:
		return codecerr.New(codecerr.UnsupportedFieldType, "%T", ft)
	}
}

func bitsBytes(v value.Value, present bool, n int) []byte {
	nbytes := (n + 7) / 8
	if !present {
		return make([]byte, nbytes)
	}
	var data []byte
	switch v.Kind {
	case value.KindText:
		data = []byte(v.Text)
	case value.KindBits:
		data = v.Bits
	default:
		data = nil
	}
	out := make([]byte, nbytes)
	copy(out, data)
	return out
}

func copyEnv(env eval.Env) eval.Env {
	out := make(eval.Env, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func valuesToTupleItems(vs []value.Value) []boc.TupleItem {
	out := make([]boc.TupleItem, 0, len(vs))
	for _, v := range vs {
		switch v.Kind {
		case value.KindInt:
			out = append(out, boc.TupleInt{Value: big.NewInt(v.Int)})
		case value.KindBigInt:
			out = append(out, boc.TupleInt{Value: v.BigInt})
		case value.KindCellRef:
			if cell, ok := v.CellRef.(*boc.Cell); ok {
				out = append(out, boc.TupleCell{Value: cell})
			}
		case value.KindTuple:
			out = append(out, boc.TupleList{Items: valuesToTupleItems(v.Tuple)})
		}
	}
	return out
}
