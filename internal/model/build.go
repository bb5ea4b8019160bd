package model

import (
	"fmt"
	"sort"

	"github.com/tlbgo/tlb/internal/ast"
	"github.com/tlbgo/tlb/internal/debug"
)

// BuildError is a SchemaError (spec §7): the schema text parsed but does
// not form a valid model (an unresolvable type reference, a tag
// collision, or similar).
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("tlb: schema error: %s", e.Message)
}

// Build materialises a Model from a parsed Schema. It is the only place
// ast.FieldTypeNode and ast.TypeDef are interpreted; everything
// downstream works against Model only.
func Build(schema *ast.Schema) (*Model, error) {
	if len(schema.Defs) == 0 {
		return nil, &BuildError{Message: "schema defines no types"}
	}

	m := &Model{Types: map[string]*Type{}}
	for _, def := range schema.Defs {
		t, ok := m.Types[def.ResultName]
		if !ok {
			t = &Type{Name: def.ResultName}
			m.Types[def.ResultName] = t
			m.Order = append(m.Order, def.ResultName)
		}
		ctor, err := buildConstructor(t, def)
		if err != nil {
			return nil, err
		}
		t.Constructors = append(t.Constructors, ctor)
	}
	m.LastTypeName = schema.LastTypeName

	if err := validateTags(m); err != nil {
		return nil, err
	}
	if err := validateReferences(m); err != nil {
		return nil, err
	}
	if debug.Enabled {
		debug.Log(nil, "build", "schema built: %d types, last=%q", len(m.Order), m.LastTypeName)
	}
	return m, nil
}

func buildConstructor(t *Type, def ast.TypeDef) (*Constructor, error) {
	ctor := &Constructor{
		Type:       t,
		Name:       def.ConstructorName,
		Tag:        Tag{BitLen: def.Tag.BitLen, Value: def.Tag.Value},
		Constraints: def.Constraints,
		paramIndex: map[string]int{},
	}
	for i, p := range def.Params {
		ctor.Params = append(ctor.Params, Parameter{Name: p.Name, HasConst: p.HasConst, Const: p.Const})
		ctor.paramIndex[p.Name] = i
	}
	for _, f := range def.Fields {
		field, err := buildField(f)
		if err != nil {
			return nil, err
		}
		ctor.Fields = append(ctor.Fields, field)
	}
	return ctor, nil
}

func buildField(f ast.FieldDef) (Field, error) {
	field := Field{Name: f.Name}
	if len(f.SubFields) > 0 {
		for _, sub := range f.SubFields {
			built, err := buildField(sub)
			if err != nil {
				return Field{}, err
			}
			field.SubFields = append(field.SubFields, built)
		}
		return field, nil
	}
	ft, err := buildFieldType(f.Type)
	if err != nil {
		return Field{}, err
	}
	field.Type = ft
	return field, nil
}

func buildFieldType(n ast.FieldTypeNode) (FieldType, error) {
	switch t := n.(type) {
	case ast.NodeNumber:
		return Number{Bits: t.Bits, Signed: t.Signed}, nil
	case ast.NodeBool:
		return Bool{HasFixed: t.HasFixed, Fixed: t.Fixed}, nil
	case ast.NodeBits:
		return Bits{Bits: t.Bits}, nil
	case ast.NodeNamed:
		args := make([]FieldType, len(t.Arguments))
		for i, a := range t.Arguments {
			ft, err := buildFieldType(a)
			if err != nil {
				return nil, err
			}
			args[i] = ft
		}
		return Named{Name: t.Name, Arguments: args}, nil
	case ast.NodeCoins:
		return Coins{}, nil
	case ast.NodeAddress:
		return Address{}, nil
	case ast.NodeCell:
		return Cell{}, nil
	case ast.NodeCellInside:
		inner, err := buildFieldType(t.Inner)
		if err != nil {
			return nil, err
		}
		return CellInside{Inner: inner}, nil
	case ast.NodeHashmap:
		value, err := buildFieldType(t.Value)
		if err != nil {
			return nil, err
		}
		return Hashmap{KeyBits: t.KeyBits, Value: value}, nil
	case ast.NodeVarInteger:
		return VarInteger{N: t.N, Signed: t.Signed}, nil
	case ast.NodeMultiple:
		elem, err := buildFieldType(t.Elem)
		if err != nil {
			return nil, err
		}
		return Multiple{Times: t.Times, Elem: elem}, nil
	case ast.NodeCond:
		inner, err := buildFieldType(t.Inner)
		if err != nil {
			return nil, err
		}
		return Cond{Condition: t.Condition, Inner: inner}, nil
	case ast.NodeTuple:
		return Tuple{}, nil
	default:
		return nil, &BuildError{Message: fmt.Sprintf("unrecognised field type node %T", n)}
	}
}

// validateTags enforces invariant 1 of spec §3: within one Type, no two
// constructors share the same (bitLen, value) tag.
func validateTags(m *Model) error {
	for _, name := range m.Order {
		t := m.Types[name]
		seen := map[Tag]string{}
		for _, c := range t.Constructors {
			if c.Tag.BitLen == 0 {
				continue
			}
			if other, ok := seen[c.Tag]; ok {
				if debug.Enabled {
					debug.Log(nil, "tag-collision", "type %q: %q and %q both claim (len=%d, value=%d)",
						t.Name, other, c.Name, c.Tag.BitLen, c.Tag.Value)
				}
				return &BuildError{Message: fmt.Sprintf(
					"type %q: constructors %q and %q share tag (len=%d, value=%d)",
					t.Name, other, c.Name, c.Tag.BitLen, c.Tag.Value)}
			}
			seen[c.Tag] = c.Name
		}
	}
	return nil
}

// validateReferences enforces invariant 2: every Named field type,
// including those inside sub-field groups, must resolve to a Type in the
// Model, except the built-in Bool and the enclosing constructor's own
// parameter names (which decoding resolves to the bound parameter value).
func validateReferences(m *Model) error {
	var cur *Constructor
	var walk func(ft FieldType) error
	walk = func(ft FieldType) error {
		switch t := ft.(type) {
		case Named:
			if t.Name != "Bool" && cur.ParamIndex(t.Name) < 0 {
				if _, ok := m.Types[t.Name]; !ok {
					return &BuildError{Message: fmt.Sprintf("unresolved type reference %q", t.Name)}
				}
			}
			for _, a := range t.Arguments {
				if err := walk(a); err != nil {
					return err
				}
			}
		case CellInside:
			return walk(t.Inner)
		case Hashmap:
			return walk(t.Value)
		case Multiple:
			return walk(t.Elem)
		case Cond:
			return walk(t.Inner)
		}
		return nil
	}
	var walkField func(f Field) error
	walkField = func(f Field) error {
		if len(f.SubFields) == 0 {
			return walk(f.Type)
		}
		for _, sf := range f.SubFields {
			if err := walkField(sf); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range m.Order {
		for _, c := range m.Types[name].Constructors {
			cur = c
			for _, f := range c.Fields {
				if err := walkField(f); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// TypeNamesByTagPresence returns type names sorted lexicographically,
// split into those with at least one tagged constructor and those with
// none — spec §4.E's root-selection fallback order.
func TypeNamesByTagPresence(m *Model) (tagged, untagged []string) {
	for _, name := range m.Order {
		t := m.Types[name]
		hasTag := false
		for _, c := range t.Constructors {
			if c.Tag.BitLen > 0 {
				hasTag = true
				break
			}
		}
		if hasTag {
			tagged = append(tagged, name)
		} else {
			untagged = append(untagged, name)
		}
	}
	sort.Strings(tagged)
	sort.Strings(untagged)
	return tagged, untagged
}
