// Package ast defines the typed syntax tree TL-B schema text is parsed
// into. Spec §1 treats the parser that produces this tree as an external
// collaborator; internal/tlbparse is this repository's implementation of
// that collaborator, and internal/model is the sole consumer of the tree.
package ast

import "github.com/tlbgo/tlb/internal/eval"

// Schema is the parse result of an entire TL-B source text: an ordered
// list of type definitions (several TypeDefs may share a Name — each
// contributes one Constructor to that Type), plus the name of the last
// type defined, used as the "guess the root type" decoding hint.
type Schema struct {
	Defs         []TypeDef
	LastTypeName string
}

// TypeDef is one `tag fields... = ResultType;` declaration: exactly one
// constructor of the type named by ResultName.
type TypeDef struct {
	ConstructorName string // empty for an anonymous constructor ("_")
	ResultName      string
	Tag             TagSpec
	Params          []ParamDef
	Fields          []FieldDef
	Constraints     []eval.Expr
}

// TagSpec is a parsed constructor tag. BitLen == 0 means no tag bits.
type TagSpec struct {
	BitLen int
	Value  uint64
}

// ParamDef is a constructor-level polymorphic variable declared in a
// `{n:#}` brace group. Bare arguments after the result type name are
// parsed but not turned into ParamDefs.
type ParamDef struct {
	Name     string
	HasConst bool
	Const    int64
}

// FieldDef is one field of a constructor. SubFields is non-empty when the
// field's declaration groups further fields inside a new referenced cell
// (TL-B's `[ ... ]` sub-field cell syntax).
type FieldDef struct {
	Name      string // empty for an anonymous field
	Type      FieldTypeNode
	SubFields []FieldDef
}

// FieldTypeNode is the tagged union of field-type shapes from spec §3.
// Concrete kinds are the Node* types below.
type FieldTypeNode interface{ isFieldTypeNode() }

type NodeNumber struct {
	Bits   eval.Expr
	Signed bool
}

type NodeBool struct {
	HasFixed bool
	Fixed    bool
}

type NodeBits struct {
	Bits eval.Expr
}

type NodeNamed struct {
	Name      string
	Arguments []FieldTypeNode
}

type NodeCoins struct{}

type NodeAddress struct{}

type NodeCell struct{}

type NodeCellInside struct {
	Inner FieldTypeNode
}

type NodeHashmap struct {
	KeyBits eval.Expr
	Value   FieldTypeNode
}

type NodeVarInteger struct {
	N      eval.Expr
	Signed bool
}

type NodeMultiple struct {
	Times eval.Expr
	Elem  FieldTypeNode
}

type NodeCond struct {
	Condition eval.Expr
	Inner     FieldTypeNode
}

type NodeTuple struct{}

func (NodeNumber) isFieldTypeNode()     {}
func (NodeBool) isFieldTypeNode()       {}
func (NodeBits) isFieldTypeNode()       {}
func (NodeNamed) isFieldTypeNode()      {}
func (NodeCoins) isFieldTypeNode()      {}
func (NodeAddress) isFieldTypeNode()    {}
func (NodeCell) isFieldTypeNode()       {}
func (NodeCellInside) isFieldTypeNode() {}
func (NodeHashmap) isFieldTypeNode()    {}
func (NodeVarInteger) isFieldTypeNode() {}
func (NodeMultiple) isFieldTypeNode()   {}
func (NodeCond) isFieldTypeNode()       {}
func (NodeTuple) isFieldTypeNode()      {}
