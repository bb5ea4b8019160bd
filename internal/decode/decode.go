// Package decode implements the TL-B decoder (spec component E):
// tag-directed and fallback constructor selection, recursive field
// decoding with variable binding and constraint checking, and rollback
// on mismatch. Grounded on the teacher's parse.go constructor-walking
// loop and message.go field dispatch, generalised from protobuf field
// kinds to TL-B FieldType variants.
package decode

import (
	"math/big"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/tlbgo/tlb/internal/boc"
	"github.com/tlbgo/tlb/internal/codecerr"
	"github.com/tlbgo/tlb/internal/debug"
	"github.com/tlbgo/tlb/internal/eval"
	"github.com/tlbgo/tlb/internal/model"
	"github.com/tlbgo/tlb/internal/tagindex"
	"github.com/tlbgo/tlb/internal/value"
)

// MaxDepth bounds recursive decodeType/decodeFieldType nesting, guarding
// against pathological cyclic schemas (spec §5's suggested cap).
const MaxDepth = 256

// Options controls decode-time behaviour (spec §6's configuration
// surface).
type Options struct {
	ByTag    bool
	AutoText bool
}

// Root decodes a root value from a Cell. When typeName is empty, root
// selection follows spec §4.E: by_tag lookup when Options.ByTag is set,
// else lastTypeName first, then every other type with tagged
// constructors scheduled before untagged-only types, all in
// lexicographic order.
func Root(m *model.Model, idx *tagindex.Index, cell *boc.Cell, typeName string, opts Options) (value.Value, error) {
	s := cell.AsSlice()
	if typeName != "" {
		return decodeType(m, typeName, s, nil, opts, 0)
	}
	if opts.ByTag {
		return decodeByTag(m, idx, s, opts)
	}
	return decodeGuessRoot(m, s, opts)
}

func decodeByTag(m *model.Model, idx *tagindex.Index, s *boc.Slice, opts Options) (value.Value, error) {
	maxLen := idx.MaxTagBits
	if s.RemainingBits() < maxLen {
		maxLen = s.RemainingBits()
	}
	for l := maxLen; l >= 1; l-- {
		v, err := s.PreloadUint(l)
		if err != nil {
			continue
		}
		entry, ok := idx.Lookup(l, v)
		if !ok {
			continue
		}
		return decodeConstructor(m, entry.Constructor, s, nil, opts, 0)
	}
	return value.Value{}, codecerr.New(codecerr.NoMatch, "no tag prefix matched")
}

func decodeGuessRoot(m *model.Model, s *boc.Slice, opts Options) (value.Value, error) {
	tagged, untagged := model.TypeNamesByTagPresence(m)
	order := orderedCandidates(m.LastTypeName, tagged, untagged)

	var lastErr error
	attempts := 0
	for _, name := range order {
		snap := s.Snapshot()
		v, err := decodeType(m, name, s, nil, opts, 0)
		attempts++
		if err == nil {
			return v, nil
		}
		s.Restore(snap)
		if _, isSchema := err.(*codecerr.SchemaError); isSchema {
			return value.Value{}, err
		}
		lastErr = err
	}
	return value.Value{}, codecerr.New(codecerr.NoMatch, "no type matched after %d attempts (last: %v)", attempts, lastErr)
}

func orderedCandidates(lastTypeName string, tagged, untagged []string) []string {
	seen := map[string]bool{}
	var order []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}
	add(lastTypeName)
	for _, n := range tagged {
		add(n)
	}
	for _, n := range untagged {
		add(n)
	}
	return order
}

func decodeType(m *model.Model, typeName string, s *boc.Slice, args []int64, opts Options, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return value.Value{}, codecerr.New(codecerr.RecursionDepth, "exceeded depth %d decoding type %q", MaxDepth, typeName)
	}
	t, ok := m.Types[typeName]
	if !ok {
		return value.Value{}, codecerr.New(codecerr.UnknownType, "%q", typeName)
	}
	var lastErr error
	for _, c := range t.Constructors {
		snap := s.Snapshot()
		v, err := decodeConstructor(m, c, s, args, opts, depth)
		if err == nil {
			return v, nil
		}
		if debug.Enabled {
			debug.Log(nil, "rollback", "type %q: constructor %q failed at depth %d: %v", typeName, c.Name, depth, err)
		}
		s.Restore(snap)
		if _, isSchema := err.(*codecerr.SchemaError); isSchema {
			return value.Value{}, err
		}
		lastErr = err
	}
	return value.Value{}, codecerr.New(codecerr.NoMatch, "type %q: no constructor matched (last: %v)", typeName, lastErr)
}

func decodeConstructor(m *model.Model, c *model.Constructor, s *boc.Slice, args []int64, opts Options, depth int) (value.Value, error) {
	if c.Tag.BitLen > 0 {
		if s.RemainingBits() < c.Tag.BitLen {
			return value.Value{}, codecerr.New(codecerr.TagShort, "constructor %q needs %d tag bits", c.Name, c.Tag.BitLen)
		}
		got, err := s.PreloadUint(c.Tag.BitLen)
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.TagShort, "%v", err)
		}
		if got != c.Tag.Value {
			return value.Value{}, codecerr.New(codecerr.TagMismatch, "constructor %q wanted tag %d, got %d", c.Name, c.Tag.Value, got)
		}
		if _, err := s.LoadUint(c.Tag.BitLen); err != nil {
			return value.Value{}, codecerr.New(codecerr.TagShort, "%v", err)
		}
	}

	env := eval.Env{}
	for i, p := range c.Params {
		if p.HasConst {
			env[p.Name] = p.Const
		} else if i < len(args) {
			env[p.Name] = args[i]
		}
	}

	rec := value.Value{Kind: value.KindRecord, RecordType: c.Kind()}
	for _, f := range c.Fields {
		debug.Assert(s.RemainingBits() >= 0, "constructor %q: negative remaining bits before field %q", c.Name, f.Name)
		fv, err := decodeField(m, c, f, s, env, opts, depth)
		if err != nil {
			return value.Value{}, err
		}
		if f.Name == "" {
			if fv.Kind == value.KindRecord {
				rec.Fields = append(rec.Fields, fv.Fields...)
			}
			continue
		}
		if fv.Kind == value.KindAbsent {
			continue
		}
		rec.Fields = append(rec.Fields, value.Field{Name: f.Name, Value: fv})
	}

	for _, constraint := range c.Constraints {
		r, err := eval.Eval(constraint, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		if r == 0 {
			return value.Value{}, codecerr.New(codecerr.ConstraintFailed, "constructor %q", c.Name)
		}
	}
	return rec, nil
}

func decodeField(m *model.Model, c *model.Constructor, f model.Field, s *boc.Slice, env eval.Env, opts Options, depth int) (value.Value, error) {
	if len(f.SubFields) > 0 {
		ref, err := s.LoadRef()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "sub-field group %q: %v", f.Name, err)
		}
		sub := ref.BeginParse(true)
		rec := value.Value{Kind: value.KindRecord}
		for _, sf := range f.SubFields {
			sv, err := decodeField(m, c, sf, sub, env, opts, depth)
			if err != nil {
				return value.Value{}, err
			}
			if sf.Name == "" {
				if sv.Kind == value.KindRecord {
					rec.Fields = append(rec.Fields, sv.Fields...)
				}
				continue
			}
			if sv.Kind == value.KindAbsent {
				continue
			}
			rec.Fields = append(rec.Fields, value.Field{Name: sf.Name, Value: sv})
		}
		return rec, nil
	}

	// A bare Named field whose name matches one of this constructor's own
	// parameters is a polymorphic type-variable reference rather than a
	// type lookup (spec §4.E step 4's "substitute ... by position"); the
	// simplification here resolves it to the parameter's already-bound
	// integer value rather than a substituted FieldType, which covers the
	// common numeric-generic pattern without a second substitution pass.
	ft := f.Type
	if named, ok := ft.(model.Named); ok && len(named.Arguments) == 0 && c.ParamIndex(named.Name) >= 0 {
		if v, bound := env[named.Name]; bound {
			return value.Value{Kind: value.KindInt, Int: v}, nil
		}
	}

	fv, err := decodeFieldType(m, ft, s, env, opts, depth)
	if err != nil {
		return value.Value{}, err
	}
	if f.Name != "" {
		bindEnv(env, f.Name, ft, fv)
	}
	return fv, nil
}

func bindEnv(env eval.Env, name string, ft model.FieldType, fv value.Value) {
	switch ft.(type) {
	case model.Named, model.Number, model.VarInteger, model.Bool:
		switch fv.Kind {
		case value.KindInt:
			env[name] = fv.Int
		case value.KindBigInt:
			env[name] = fv.BigInt.Int64()
		case value.KindBool:
			if fv.Bool {
				env[name] = 1
			} else {
				env[name] = 0
			}
		case value.KindText:
			if n, err := strconv.ParseInt(fv.Text, 10, 64); err == nil {
				env[name] = n
			} else if bi, ok := new(big.Int).SetString(fv.Text, 10); ok {
				env[name] = bi.Int64()
			}
		}
	}
}

func decodeFieldType(m *model.Model, ft model.FieldType, s *boc.Slice, env eval.Env, opts Options, depth int) (value.Value, error) {
	if depth > MaxDepth {
		if debug.Enabled {
			debug.Log(nil, "depth", "field type %T exceeded depth %d", ft, MaxDepth)
		}
		return value.Value{}, codecerr.New(codecerr.RecursionDepth, "exceeded depth %d", MaxDepth)
	}
	switch t := ft.(type) {
	case model.Number:
		width, err := eval.Eval(t.Bits, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		if width < 0 {
			return value.Value{}, codecerr.New(codecerr.UnsupportedFieldType, "negative width %d", width)
		}
		if s.RemainingBits() < int(width) {
			return value.Value{}, codecerr.New(codecerr.DataShort, "number field needs %d bits, has %d", width, s.RemainingBits())
		}
		raw, err := s.LoadUintBig(int(width))
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "%v", err)
		}
		signed := raw
		if t.Signed {
			signed = boc.SignExtend(raw, int(width))
		}
		if width <= 32 {
			return value.Value{Kind: value.KindInt, Int: signed.Int64()}, nil
		}
		return value.Value{Kind: value.KindBigInt, BigInt: signed}, nil

	case model.Bool:
		if t.HasFixed {
			return value.Value{Kind: value.KindBool, Bool: t.Fixed}, nil
		}
		bit, err := s.LoadBit()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "bool field: %v", err)
		}
		return value.Value{Kind: value.KindBool, Bool: bit != 0}, nil

	case model.Bits:
		n, err := eval.Eval(t.Bits, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		data, err := s.LoadBits(int(n))
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "bits(%d): %v", n, err)
		}
		if opts.AutoText && n%8 == 0 && n > 0 && utf8.Valid(data) {
			return value.Value{Kind: value.KindText, Text: string(data)}, nil
		}
		return value.Value{Kind: value.KindBits, Bits: data, BitLen: int(n)}, nil

	case model.Named:
		if t.Name == "Bool" {
			bit, err := s.LoadBit()
			if err != nil {
				return value.Value{}, codecerr.New(codecerr.DataShort, "Bool field: %v", err)
			}
			return value.Value{Kind: value.KindBool, Bool: bit != 0}, nil
		}
		argInts := make([]int64, len(t.Arguments))
		for i, a := range t.Arguments {
			v, ok := evalArgument(a, env)
			if ok {
				argInts[i] = v
			}
		}
		return decodeType(m, t.Name, s, argInts, opts, depth+1)

	case model.Coins:
		v, err := s.LoadCoins()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "coins: %v", err)
		}
		return bigOrInt(v), nil

	case model.Address:
		a, err := s.LoadAddress()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.AddressLoadFailed, "%v", err)
		}
		if a.None {
			return value.Value{Kind: value.KindAddress, AddressNone: true}, nil
		}
		return value.Value{Kind: value.KindAddress, AddressWorkchain: a.Workchain, BigInt: a.Hash}, nil

	case model.Cell:
		ref, err := s.LoadMaybeRef()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "cell: %v", err)
		}
		if ref == nil {
			return value.Absent, nil
		}
		return value.Value{Kind: value.KindCellRef, CellRef: ref}, nil

	case model.CellInside:
		ref, err := s.LoadRef()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "^cell: %v", err)
		}
		if _, isBareCell := t.Inner.(model.Cell); isBareCell {
			return value.Value{Kind: value.KindCellRef, CellRef: ref}, nil
		}
		return decodeFieldType(m, t.Inner, ref.BeginParse(true), env, opts, depth+1)

	case model.Hashmap:
		keyBits, err := eval.Eval(t.KeyBits, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		entries, err := s.LoadDict(int(keyBits))
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "hashmap: %v", err)
		}
		if debug.Enabled {
			debug.Log(nil, "hashmap", "loaded %d entries at depth %d", len(entries), depth)
		}
		out := make([]value.DictEntry, 0, len(entries))
		for _, e := range entries {
			entryEnv := copyEnv(env)
			ev, err := decodeFieldType(m, t.Value, e.Value.BeginParse(true), entryEnv, opts, depth+1)
			if err != nil {
				return value.Value{}, err
			}
			out = append(out, value.DictEntry{Key: e.Key, Value: ev})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key.Cmp(out[j].Key) < 0 })
		return value.Value{Kind: value.KindDictionary, Dictionary: out}, nil

	case model.VarInteger:
		n, err := eval.Eval(t.N, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		var v *big.Int
		if t.Signed {
			v, err = s.LoadVarIntBig(int(n))
		} else {
			v, err = s.LoadVarUintBig(int(n))
		}
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "varinteger: %v", err)
		}
		return value.Value{Kind: value.KindText, Text: v.String()}, nil

	case model.Multiple:
		times, err := eval.Eval(t.Times, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		if times < 0 {
			return value.Value{}, codecerr.New(codecerr.UnsupportedFieldType, "negative repetition count %d", times)
		}
		seq := make([]value.Value, 0, times)
		for i := int64(0); i < times; i++ {
			ev, err := decodeFieldType(m, t.Elem, s, env, opts, depth+1)
			if err != nil {
				return value.Value{}, err
			}
			seq = append(seq, ev)
		}
		return value.Value{Kind: value.KindSequence, Sequence: seq}, nil

	case model.Cond:
		cond, err := eval.Eval(t.Condition, env)
		if err != nil {
			return value.Value{}, &codecerr.SchemaError{Message: err.Error()}
		}
		if cond == 0 {
			return value.Absent, nil
		}
		return decodeFieldType(m, t.Inner, s, env, opts, depth+1)

	case model.Tuple:
		items, err := s.LoadTuple()
		if err != nil {
			return value.Value{}, codecerr.New(codecerr.DataShort, "tuple: %v", err)
		}
		return value.Value{Kind: value.KindTuple, Tuple: tupleItemsToValues(items)}, nil

	default:
		return value.Value{}, codecerr.New(codecerr.UnsupportedFieldType, "%T", ft)
	}
}

func bigOrInt(v *big.Int) value.Value {
	if v.IsInt64() {
		return value.Value{Kind: value.KindInt, Int: v.Int64()}
	}
	return value.Value{Kind: value.KindBigInt, BigInt: v}
}

func copyEnv(env eval.Env) eval.Env {
	out := make(eval.Env, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

// evalArgument interprets a generic Named-type argument as an integer
// expression: a Number field contributes its bit-width expression
// (the `## n`-style generic numeral pattern), a bare Named contributes a
// variable lookup. Any other shape is not supported as a numeric
// argument and contributes no binding.
func evalArgument(ft model.FieldType, env eval.Env) (int64, bool) {
	switch t := ft.(type) {
	case model.Number:
		v, err := eval.Eval(t.Bits, env)
		if err != nil {
			return 0, false
		}
		return v, true
	case model.Named:
		if len(t.Arguments) == 0 {
			if v, ok := env[t.Name]; ok {
				return v, true
			}
		}
	}
	return 0, false
}

func tupleItemsToValues(items []boc.TupleItem) []value.Value {
	out := make([]value.Value, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case boc.TupleInt:
			out = append(out, bigOrInt(v.Value))
		case boc.TupleCell:
			out = append(out, value.Value{Kind: value.KindCellRef, CellRef: v.Value})
		case boc.TupleList:
			out = append(out, value.Value{Kind: value.KindTuple, Tuple: tupleItemsToValues(v.Items)})
		}
	}
	return out
}
