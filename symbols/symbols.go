// Package symbols provides a symbol table for address resolution during
// tracing and disassembly, and a thin wrapper around
// github.com/jenska/m68kdasm for turning raw opcode words into text.
package symbols

// Symbol names a range of the address space, [Address, Address+Size).
type Symbol struct {
	Name    string
	Address uint32
	Size    uint32
}

// Table is a set of symbols. Lookup by address is a linear scan: symbol
// tables in this domain are at most a few thousand entries, loaded once at
// startup, so a sorted or map-backed index isn't worth the complexity.
type Table struct {
	symbols []Symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{}
}

// Add appends a symbol. Symbols are not required to be sorted or
// non-overlapping; when two symbols both cover an address, Resolve returns
// the one with the largest Address, i.e. the most specific (closest
// preceding) match, regardless of insertion order.
func (t *Table) Add(name string, address, size uint32) {
	t.symbols = append(t.symbols, Symbol{Name: name, Address: address, Size: size})
}

// Resolve returns the symbol containing address and the offset into it, or
// ok=false if none does. When more than one symbol's range covers address,
// the one with the largest Address wins: a narrower symbol nested inside a
// broader one (e.g. a function inside its enclosing section) takes
// priority over the section regardless of which was added first. Address 0
// never resolves, even if a symbol was added at address 0: an unrelocated
// null pointer should never be misreported as a legitimate symbol
// reference.
func (t *Table) Resolve(address uint32) (sym Symbol, offset uint32, ok bool) {
	if address == 0 {
		return Symbol{}, 0, false
	}
	for _, s := range t.symbols {
		size := s.Size
		if size == 0 {
			size = 1
		}
		if address < s.Address || address >= s.Address+size {
			continue
		}
		if !ok || s.Address > sym.Address {
			sym, ok = s, true
		}
	}
	if !ok {
		return Symbol{}, 0, false
	}
	return sym, address - sym.Address, true
}

// Format renders address as "name+offset" when it resolves, or a bare hex
// address otherwise.
func (t *Table) Format(address uint32) string {
	sym, offset, ok := t.Resolve(address)
	if !ok {
		return hex32(address)
	}
	if offset == 0 {
		return sym.Name
	}
	return sym.Name + "+" + hex32(offset)
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	buf := [10]byte{'0', 'x'}
	for i := 0; i < 8; i++ {
		buf[9-i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[:])
}
