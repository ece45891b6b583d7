package compiler

import (
	"slices"
)

// Slot is a variable's storage triple.
type Slot struct {
	Tag Reg // runtime tag
	F   Reg // float payload
	P   Reg // string handle, null unless the tag is string
}

// VarStore allocates one storage triple per distinct variable name.
// Storage is flat: every name has a single slot for the whole routine.
//
// Scopes do not affect storage. They track which names are written while
// a branch or loop body is compiled, so the merge point that follows can
// be reconciled.
type VarStore struct {
	alloc  func(Class) Reg
	slots  map[string]Slot
	names  []string
	scopes []map[string]bool
}

// NewVarStore creates a store that takes registers from alloc.
func NewVarStore(alloc func(Class) Reg) *VarStore {
	return &VarStore{
		alloc: alloc,
		slots: make(map[string]Slot),
	}
}

// Define returns the slot of name, allocating it on first use.
func (vs *VarStore) Define(name string) Slot {
	if slot, ok := vs.slots[name]; ok {
		return slot
	}
	slot := Slot{
		Tag: vs.alloc(ClassTag),
		F:   vs.alloc(ClassFloat),
		P:   vs.alloc(ClassPtr),
	}
	vs.slots[name] = slot
	vs.names = append(vs.names, name)
	return slot
}

// Lookup returns the slot of a defined name.
func (vs *VarStore) Lookup(name string) (Slot, bool) {
	slot, ok := vs.slots[name]
	return slot, ok
}

// Names returns the defined names in definition order.
func (vs *VarStore) Names() []string {
	return slices.Clone(vs.names)
}

// BeginScope starts recording writes.
func (vs *VarStore) BeginScope() {
	vs.scopes = append(vs.scopes, make(map[string]bool))
}

// NoteWrite records a write to name in the innermost scope.
func (vs *VarStore) NoteWrite(name string) {
	if n := len(vs.scopes); n > 0 {
		vs.scopes[n-1][name] = true
	}
}

// EndScope closes the innermost scope and returns the sorted names
// written in it. The names count as written in the enclosing scope too.
func (vs *VarStore) EndScope() []string {
	n := len(vs.scopes)
	if n == 0 {
		panic(&CompileError{Message: "EndScope without BeginScope"})
	}
	written := vs.scopes[n-1]
	vs.scopes = vs.scopes[:n-1]

	names := make([]string, 0, len(written))
	for name := range written {
		names = append(names, name)
		vs.NoteWrite(name)
	}
	slices.Sort(names)
	return names
}
