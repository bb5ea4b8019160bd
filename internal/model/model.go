// Package model holds the immutable in-memory representation of a TL-B
// schema (spec §3): Types, Constructors, Tags, Parameters, Fields, and
// FieldTypes. A Model is built once, by Build, from an internal/ast tree,
// and is never mutated afterwards — internal/decode and internal/encode
// only ever read it.
package model

import "github.com/tlbgo/tlb/internal/eval"

// Model is an immutable collection of Types, keyed by name, plus the
// decoding hint spec §4.C calls lastTypeName.
type Model struct {
	Types        map[string]*Type
	Order        []string // type names in declaration order
	LastTypeName string
}

// Type is a TL-B sum type: a name and its ordered Constructors.
type Type struct {
	Name         string
	Constructors []*Constructor
}

// Tag is a constructor's bit-prefix discriminator. BitLen == 0 means "no
// tag bits".
type Tag struct {
	BitLen int
	Value  uint64
}

// Constructor is one alternative of a Type.
type Constructor struct {
	Type        *Type
	Name        string // may be empty (anonymous constructor)
	Tag         Tag
	Params      []Parameter
	paramIndex  map[string]int
	Fields      []Field
	Constraints []eval.Expr
}

// ParamIndex returns the position of a parameter by name, or -1.
func (c *Constructor) ParamIndex(name string) int {
	if i, ok := c.paramIndex[name]; ok {
		return i
	}
	return -1
}

// Kind is the Value discriminator for this constructor: "Type_Ctor" when
// the type has more than one constructor, else "Type".
func (c *Constructor) Kind() string {
	if len(c.Type.Constructors) > 1 {
		return c.Type.Name + "_" + c.Name
	}
	return c.Type.Name
}

// Parameter is a constructor-level polymorphic integer variable.
type Parameter struct {
	Name     string
	HasConst bool
	Const    int64
}

// Field is one field of a Constructor.
type Field struct {
	Name      string // empty for an anonymous field
	Type      FieldType
	SubFields []Field // non-empty: fields live in a referenced sub-cell
}

// FieldType is the tagged union of field-type shapes from spec §3.
type FieldType interface{ isFieldType() }

type Number struct {
	Bits   eval.Expr
	Signed bool
}

type Bool struct {
	HasFixed bool
	Fixed    bool
}

type Bits struct {
	Bits eval.Expr
}

// Named references another Type by name (or the built-in "Bool").
// Arguments are positional actual parameters, substituted into the
// referenced constructor's parameter environment.
type Named struct {
	Name      string
	Arguments []FieldType
}

type Coins struct{}

type Address struct{}

// Cell loads an optional reference: one bit, then a ref if the bit is set.
type Cell struct{}

// CellInside loads an unconditional reference, opens it, and decodes
// Inner from the opened slice. When Inner is a Cell, the reference is
// returned raw rather than itself recursing into the optional-ref
// protocol a second time, because `^Cell` denotes an unconditional
// reference to an opaque cell, while bare `Cell` denotes spec §4.E's own
// optional-ref protocol — the two would otherwise double-consume a
// presence bit when nested.
type CellInside struct {
	Inner FieldType
}

type Hashmap struct {
	KeyBits eval.Expr
	Value   FieldType
}

type VarInteger struct {
	N      eval.Expr
	Signed bool
}

type Multiple struct {
	Times eval.Expr
	Elem  FieldType
}

type Cond struct {
	Condition eval.Expr
	Inner     FieldType
}

type Tuple struct{}

func (Number) isFieldType()     {}
func (Bool) isFieldType()       {}
func (Bits) isFieldType()       {}
func (Named) isFieldType()      {}
func (Coins) isFieldType()      {}
func (Address) isFieldType()    {}
func (Cell) isFieldType()       {}
func (CellInside) isFieldType() {}
func (Hashmap) isFieldType()    {}
func (VarInteger) isFieldType() {}
func (Multiple) isFieldType()   {}
func (Cond) isFieldType()       {}
func (Tuple) isFieldType()      {}
