// Package tlb implements a runtime-interpretable codec for TL-B (Type
// Language — Binary), the schema language used by TON blockchain to
// describe cell-based binary messages.
//
// Unlike a classic TL-B compiler, this package never generates Go code for
// a schema: [Compile] builds an in-memory [Runtime] (a schema model plus a
// tag index) once, and that Runtime can then [Runtime.Decode] and
// [Runtime.Encode] any number of cells against it, the same schema text
// driving every call.
//
// # Support Status
//
// The decoder supports tag-directed constructor selection (with
// longest-prefix fallback), dependent field widths and counts, arithmetic
// constraints, conditional fields, hashmaps, and recursive types. The
// following are deliberately out of scope:
//
//   - Exotic/pruned cell levels (library cells, merkle proofs).
//   - Full TVM-stack-accurate tuple serialization; tuples round-trip
//     within this package but are not wire-compatible with TON's own
//     stack encoding.
//   - Polymorphic type-variable substitution beyond a constructor's own
//     bound parameters: a field whose type is one of its constructor's
//     parameter names decodes as that parameter's bound integer value,
//     never as a substituted field type.
package tlb
