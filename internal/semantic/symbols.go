package semantic

import (
	"github.com/kolkov/awkjit/internal/token"
)

// Symbol holds what the resolver learned about one variable.
type Symbol struct {
	Name     string         // Variable name
	Index    int            // Storage index, in order of first appearance
	Pos      token.Position // First appearance
	Assigned bool           // Target of at least one assignment
	Read     bool           // Read at least once
}

// SymbolTable is the flat table of program variables.
type SymbolTable struct {
	symbols map[string]*Symbol
	order   []*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Define returns the symbol for name, creating it with the next index
// on first use.
func (st *SymbolTable) Define(name string, pos token.Position) *Symbol {
	if sym, ok := st.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Index: len(st.order), Pos: pos}
	st.symbols[name] = sym
	st.order = append(st.order, sym)
	return sym
}

// Lookup returns the symbol for name and true if found, nil and false
// otherwise.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// Names returns the variable names by index.
func (st *SymbolTable) Names() []string {
	names := make([]string, len(st.order))
	for i, sym := range st.order {
		names[i] = sym.Name
	}
	return names
}

// ForEach iterates over all symbols by index.
func (st *SymbolTable) ForEach(fn func(sym *Symbol)) {
	for _, sym := range st.order {
		fn(sym)
	}
}

// Count returns the number of symbols.
func (st *SymbolTable) Count() int {
	return len(st.order)
}

// specialVars lists the AWK built-in variables. Programs that use one
// would silently compute something else here, so they are rejected.
var specialVars = map[string]bool{
	"ARGC":     true,
	"ARGV":     true,
	"CONVFMT":  true,
	"ENVIRON":  true,
	"FILENAME": true,
	"FNR":      true,
	"FS":       true,
	"NF":       true,
	"NR":       true,
	"OFMT":     true,
	"OFS":      true,
	"ORS":      true,
	"RLENGTH":  true,
	"RS":       true,
	"RSTART":   true,
	"SUBSEP":   true,
}

// IsSpecialVar returns true if name is an AWK built-in variable.
func IsSpecialVar(name string) bool {
	return specialVars[name]
}
