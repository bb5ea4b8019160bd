package tlb_test

import (
	"fmt"

	"github.com/tlbgo/tlb"
)

func Example() {
	rt, err := tlb.Compile(`
		pair n:#8 m:#8 { n + m = 10 } = Pair;
	`)
	if err != nil {
		panic(err)
	}

	b := tlb.NewBuilder()
	_ = b.StoreUint(3, 8)
	_ = b.StoreUint(7, 8)
	cell, err := b.EndCell()
	if err != nil {
		panic(err)
	}

	v, err := rt.DecodeByType(cell, "Pair")
	if err != nil {
		panic(err)
	}

	for _, f := range v.Fields {
		fmt.Printf("%s = %d\n", f.Name, f.Value.Int)
	}
	// Output:
	// n = 3
	// m = 7
}
