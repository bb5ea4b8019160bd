package boc

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Address is a simplified MsgAddress (spec's "address" field type): either
// absent, or a workchain/hash pair. This is not a full implementation of
// TON's MsgAddressInt/MsgAddressExt sum type (no anycast, no variable-
// length external addresses) — see DESIGN.md.
type Address struct {
	None       bool
	Workchain  int8
	Hash       *big.Int // 256-bit unsigned
}

// LoadAddress reads a 2-bit tag (0 = none, 2 = addr_std), followed by an
// 8-bit signed workchain and a 256-bit hash when present.
func (s *Slice) LoadAddress() (Address, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return Address{}, err
	}
	switch tag {
	case 0:
		return Address{None: true}, nil
	case 2:
		wc, err := s.LoadUintBig(8)
		if err != nil {
			return Address{}, err
		}
		hash, err := s.LoadUintBig(256)
		if err != nil {
			return Address{}, err
		}
		return Address{Workchain: int8(signExtend(wc, 8).Int64()), Hash: hash}, nil
	default:
		return Address{}, fmt.Errorf("tlb: unsupported address tag %d", tag)
	}
}

// StoreAddress writes an Address in the same shape LoadAddress reads.
func (b *Builder) StoreAddress(a Address) error {
	if a.None {
		return b.StoreUint(0, 2)
	}
	if err := b.StoreUint(2, 2); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(uint8(a.Workchain)), 8); err != nil {
		return err
	}
	return b.StoreUintBig(a.Hash, 256)
}

// String renders the address as "wc:hash", a simplified text form — not
// TON's base58Check user-facing representation.
func (a Address) String() string {
	if a.None {
		return "none"
	}
	return strconv.Itoa(int(a.Workchain)) + ":" + fmt.Sprintf("%064x", a.Hash)
}

// ParseAddress parses the String() text form back into an Address.
func ParseAddress(text string) (Address, error) {
	if text == "none" {
		return Address{None: true}, nil
	}
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("tlb: malformed address %q", text)
	}
	wc, err := strconv.Atoi(parts[0])
	if err != nil {
		return Address{}, fmt.Errorf("tlb: malformed workchain in address %q: %w", text, err)
	}
	hash, ok := new(big.Int).SetString(parts[1], 16)
	if !ok {
		return Address{}, fmt.Errorf("tlb: malformed hash in address %q", text)
	}
	return Address{Workchain: int8(wc), Hash: hash}, nil
}
