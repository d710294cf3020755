// Package symtab indexes ELF-style symbols by name and by address range so
// the disassembler can turn a raw address into a label or a function
// reference.
package symtab

import (
	"fmt"
	"sort"
)

// Kind distinguishes function symbols (which carry the Thumb low-bit tag and
// whose start needs masking) from everything else.
type Kind int

const (
	// KindOther covers data symbols and anything that isn't a function.
	KindOther Kind = iota
	// KindFunction marks a Thumb function entry point.
	KindFunction
)

// ROM addresses are memory-mapped into this window; anything outside it
// can't be turned into a file offset.
const (
	romBase = 0x08000000
	romEnd  = 0x09FFFFFF
)

// ErrAddressOutOfROM is returned by AddressToOffset for addresses outside
// [0x08000000, 0x09FFFFFF].
type ErrAddressOutOfROM struct {
	Address uint32
}

func (e *ErrAddressOutOfROM) Error() string {
	return fmt.Sprintf("address 0x%08X is not in ROM", e.Address)
}

// AddressToOffset maps a ROM address to a file offset, or fails if the
// address falls outside the mapped ROM window.
func AddressToOffset(address uint32) (uint32, error) {
	if address < romBase || address > romEnd {
		return 0, &ErrAddressOutOfROM{Address: address}
	}
	return address - romBase, nil
}

// Symbol is a named location in the binary: a name, an address (which, for
// functions, still carries the Thumb low-bit tag as read from the symbol
// table), a size in bytes (may be zero), and a kind.
type Symbol struct {
	Name  string
	Value uint32
	Size  uint32
	Kind  Kind
}

// EffectiveStart strips the Thumb low-bit tag from a function's value. For
// non-function symbols this is a no-op (the bit is assumed clear already).
func (s Symbol) EffectiveStart() uint32 {
	if s.Kind == KindFunction {
		return s.Value &^ 1
	}
	return s.Value
}

// Lookup pairs a resolved symbol with the displacement from its effective
// start to the address that was queried.
type Lookup struct {
	Symbol Symbol
	Disp   uint32
}

// Index is an in-memory symbol table: a name->symbol map plus a sorted
// interval index keyed by effective start address.
type Index struct {
	byName map[string]Symbol

	start []uint32
	end   []uint32
	sym   []Symbol
}

// NewIndex builds an Index from a flat list of symbols. Symbols are sorted
// by effective start; ties are broken by a stable sort, so callers querying
// an address covered by more than one zero-size symbol at the same start
// must tolerate receiving whichever symbol sorted first.
func NewIndex(symbols []Symbol) *Index {
	idx := &Index{
		byName: make(map[string]Symbol, len(symbols)),
	}

	type entry struct {
		start, end uint32
		sym        Symbol
	}
	entries := make([]entry, 0, len(symbols))

	for _, s := range symbols {
		idx.byName[s.Name] = s
		start := s.EffectiveStart()
		entries = append(entries, entry{start: start, end: start + s.Size, sym: s})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].start < entries[j].start
	})

	idx.start = make([]uint32, len(entries))
	idx.end = make([]uint32, len(entries))
	idx.sym = make([]Symbol, len(entries))
	for i, e := range entries {
		idx.start[i] = e.start
		idx.end[i] = e.end
		idx.sym[i] = e.sym
	}

	return idx
}

// LookupName returns the symbol with the given name, if any.
func (idx *Index) LookupName(name string) (Symbol, bool) {
	s, ok := idx.byName[name]
	return s, ok
}

// Lookup finds the symbol enclosing address, returning the symbol and the
// displacement from its effective start. A non-zero-size symbol matches any
// address in [start, start+size); a zero-size symbol is a landmark without a
// known extent, so it matches any address at or past its start, up to the
// next symbol's start.
func (idx *Index) Lookup(address uint32) (Lookup, bool) {
	// Greatest start <= address.
	i := sort.Search(len(idx.start), func(i int) bool {
		return idx.start[i] > address
	})
	if i == 0 {
		return Lookup{}, false
	}
	i--
	// Of several symbols sharing that start, take the one that sorted first.
	for i > 0 && idx.start[i-1] == idx.start[i] {
		i--
	}

	s := idx.sym[i]
	if s.Size == 0 || address < idx.end[i] {
		return Lookup{Symbol: s, Disp: address - idx.start[i]}, true
	}

	return Lookup{}, false
}
