package tlb

import "github.com/tlbgo/tlb/internal/decode"

// DecodeOption configures a [Runtime.Decode] or [Runtime.DecodeByType] call.
type DecodeOption struct{ apply func(*decode.Options) }

// WithByTag makes a root-level [Runtime.Decode] call select its
// constructor by reading the cell's leading tag bits against the
// Runtime's tag index, trying tag lengths from longest to shortest and
// taking the first match, instead of trying lastTypeName and then every
// other type in lexicographic order.
func WithByTag(byTag bool) DecodeOption {
	return DecodeOption{func(o *decode.Options) { o.ByTag = byTag }}
}

// WithAutoText makes Bits fields whose width is a multiple of 8 decode as
// text when their bytes form valid UTF-8, instead of always surfacing as
// raw bits.
func WithAutoText(autoText bool) DecodeOption {
	return DecodeOption{func(o *decode.Options) { o.AutoText = autoText }}
}
