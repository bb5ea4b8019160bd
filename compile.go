package tlb

import (
	"github.com/tlbgo/tlb/internal/model"
	"github.com/tlbgo/tlb/internal/tagindex"
	"github.com/tlbgo/tlb/internal/tlbparse"
)

// Compile parses TL-B schema text and builds a [Runtime] against it.
//
// Compile performs all schema-level work up front: parsing, constructor
// and tag validation, and building the tag index used by by-tag root
// decoding. The returned Runtime is immutable and safe to share across
// goroutines without synchronization (spec §5); only [Runtime.Decode]
// and [Runtime.Encode] calls carry per-call state.
func Compile(schemaText string) (*Runtime, error) {
	schema, err := tlbparse.Parse(schemaText)
	if err != nil {
		return nil, &SchemaError{Message: err.Error()}
	}

	m, err := model.Build(schema)
	if err != nil {
		return nil, &SchemaError{Message: err.Error()}
	}

	return &Runtime{
		model: m,
		index: tagindex.Build(m),
	}, nil
}
