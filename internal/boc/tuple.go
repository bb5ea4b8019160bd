package boc

import (
	"fmt"
	"math/big"
)

// TupleItem is one element of a Tuple value (spec's "tuple" field type):
// either an integer, a cell reference, or a nested list of TupleItems.
type TupleItem interface{ isTupleItem() }

type TupleInt struct{ Value *big.Int }

type TupleCell struct{ Value *Cell }

type TupleList struct{ Items []TupleItem }

func (TupleInt) isTupleItem()  {}
func (TupleCell) isTupleItem() {}
func (TupleList) isTupleItem() {}

const (
	tupleTagInt  = 0
	tupleTagCell = 1
	tupleTagList = 2
)

// StoreTuple writes items into a fresh cell, referenced from b: an 8-bit
// count, then for each item a 2-bit tag and its payload (a signed
// VarInteger 33 — a 6-bit byte count, then that many two's-complement
// bytes — a ref, or a nested tuple cell).
func (b *Builder) StoreTuple(items []TupleItem) error {
	content := NewBuilder()
	if err := content.StoreUint(uint64(len(items)), 8); err != nil {
		return err
	}
	for _, it := range items {
		if err := content.storeTupleItem(it); err != nil {
			return err
		}
	}
	cell, err := content.EndCell()
	if err != nil {
		return err
	}
	return b.StoreRef(cell)
}

func (b *Builder) storeTupleItem(it TupleItem) error {
	switch v := it.(type) {
	case TupleInt:
		if err := b.StoreUint(tupleTagInt, 2); err != nil {
			return err
		}
		return b.StoreVarIntBig(v.Value, 33)
	case TupleCell:
		if err := b.StoreUint(tupleTagCell, 2); err != nil {
			return err
		}
		return b.StoreRef(v.Value)
	case TupleList:
		if err := b.StoreUint(tupleTagList, 2); err != nil {
			return err
		}
		return b.StoreTuple(v.Items)
	default:
		return fmt.Errorf("tlb: unknown tuple item %T", it)
	}
}

// LoadTuple reads a tuple written by StoreTuple from the next reference.
func (s *Slice) LoadTuple() ([]TupleItem, error) {
	ref, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	content := ref.AsSlice()
	count, err := content.LoadUint(8)
	if err != nil {
		return nil, err
	}
	items := make([]TupleItem, 0, count)
	for i := uint64(0); i < count; i++ {
		item, err := content.loadTupleItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Slice) loadTupleItem() (TupleItem, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tupleTagInt:
		v, err := s.LoadVarIntBig(33)
		if err != nil {
			return nil, err
		}
		return TupleInt{Value: v}, nil
	case tupleTagCell:
		c, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		return TupleCell{Value: c}, nil
	case tupleTagList:
		items, err := s.LoadTuple()
		if err != nil {
			return nil, err
		}
		return TupleList{Items: items}, nil
	default:
		return nil, fmt.Errorf("tlb: unknown tuple item tag %d", tag)
	}
}
