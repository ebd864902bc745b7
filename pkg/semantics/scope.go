// Package semantics implements scope resolution and type analysis for
// the pixardis language. The scope forest it builds is shared with the
// code generator, which re-traverses it in creation order.
package semantics

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeKind int

const (
	KindUndefined TypeKind = iota
	KindBool
	KindInt
	KindFloat
	KindColour
	KindFunction
)

// Type describes a declared or inferred type. Array types carry a
// fixed element count; Undefined is a recovery sentinel and never a
// legal declared type.
type Type struct {
	Kind   TypeKind
	Array  bool
	Length int
}

var (
	TypeUndefined = Type{Kind: KindUndefined}
	TypeBool      = Type{Kind: KindBool}
	TypeInt       = Type{Kind: KindInt}
	TypeFloat     = Type{Kind: KindFloat}
	TypeColour    = Type{Kind: KindColour}
	TypeFunction  = Type{Kind: KindFunction}
)

// TypeFromString parses a declared type name such as "int" or
// "colour[4]", back-filling the array classification from the suffix.
func TypeFromString(s string) (Type, bool) {
	name := s
	length := 0
	isArray := false

	if open := strings.IndexByte(s, '['); open >= 0 && strings.HasSuffix(s, "]") {
		name = s[:open]
		n, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || n <= 0 {
			return TypeUndefined, false
		}
		length = n
		isArray = true
	}

	var kind TypeKind
	switch name {
	case "bool":
		kind = KindBool
	case "int":
		kind = KindInt
	case "float":
		kind = KindFloat
	case "colour":
		kind = KindColour
	case "function":
		kind = KindFunction
	default:
		return TypeUndefined, false
	}

	return Type{Kind: kind, Array: isArray, Length: length}, true
}

// Elem returns the scalar element type of an array type.
func (t Type) Elem() Type {
	return Type{Kind: t.Kind}
}

// Units returns the number of frame slots the type occupies.
func (t Type) Units() int {
	if t.Array {
		return t.Length
	}

	return 1
}

func (t Type) Equal(other Type) bool {
	return t.Kind == other.Kind && t.Array == other.Array && t.Length == other.Length
}

func (t Type) String() string {
	var name string
	switch t.Kind {
	case KindBool:
		name = "bool"
	case KindInt:
		name = "int"
	case KindFloat:
		name = "float"
	case KindColour:
		name = "colour"
	case KindFunction:
		name = "function"
	default:
		name = "undefined"
	}

	if t.Array {
		return fmt.Sprintf("%s[%d]", name, t.Length)
	}

	return name
}

// SymbolEntry records one declared name. Params and ReturnType are set
// for functions only. Offset is the frame-relative slot assigned at
// insertion and never renumbered.
type SymbolEntry struct {
	Name       string
	Type       Type
	Params     []SymbolEntry
	ReturnType *Type
	Offset     int
}

// SymbolTable is one lexical scope: a symbol map plus its position in
// the scope forest.
type SymbolTable struct {
	ID         int
	Parent     int // -1 for the root scope
	IsFunction bool
	ReturnType *Type

	symbols map[string]SymbolEntry
	units   int
}

// NewSymbolTable creates a new SymbolTable instance
func NewSymbolTable(id, parent int, isFunction bool, returnType *Type) *SymbolTable {
	return &SymbolTable{
		ID:         id,
		Parent:     parent,
		IsFunction: isFunction,
		ReturnType: returnType,
		symbols:    make(map[string]SymbolEntry),
	}
}

// Insert adds a symbol, assigning its offset from the units already
// consumed by earlier symbols in this scope.
func (s *SymbolTable) Insert(name string, entry SymbolEntry) {
	entry.Offset = s.units
	s.symbols[name] = entry
	s.units += entry.Type.Units()
}

// Exists is the shallow, non-recursive lookup used for re-declaration
// checks.
func (s *SymbolTable) Exists(name string) bool {
	_, ok := s.symbols[name]
	return ok
}

// Get returns the entry declared in this scope, if any.
func (s *SymbolTable) Get(name string) (SymbolEntry, bool) {
	entry, ok := s.symbols[name]
	return entry, ok
}

// Size returns the total frame units consumed by this scope's symbols.
func (s *SymbolTable) Size() int {
	return s.units
}

// ScopeManager owns the scope forest. Scopes are created by Open in a
// deterministic order (ids are sequential) and never destroyed; Close
// only moves the active pointer back to the parent.
type ScopeManager struct {
	scopes  []*SymbolTable
	current int
}

// NewScopeManager creates a new ScopeManager instance
func NewScopeManager() *ScopeManager {
	return &ScopeManager{
		scopes:  make([]*SymbolTable, 0, 8),
		current: -1,
	}
}

// Open creates a scope under the active one (or the root, if the
// store is empty) and activates it, returning its id.
func (m *ScopeManager) Open(isFunction bool, returnType *Type) int {
	parent := -1
	if m.current >= 0 {
		parent = m.current
	}

	id := len(m.scopes)
	m.scopes = append(m.scopes, NewSymbolTable(id, parent, isFunction, returnType))
	m.current = id

	return id
}

// Close re-activates the parent of the active scope.
func (m *ScopeManager) Close() error {
	scope := m.Current()
	if scope == nil {
		return fmt.Errorf("no active scope to close")
	}
	if scope.Parent < 0 {
		return fmt.Errorf("cannot close the root scope")
	}

	m.current = scope.Parent
	return nil
}

// Activate selects a previously created scope by id. The generator
// uses this to revisit scopes in the order the analyzer created them.
func (m *ScopeManager) Activate(id int) error {
	if id < 0 || id >= len(m.scopes) {
		return fmt.Errorf("unknown scope id %d", id)
	}

	m.current = id
	return nil
}

// Current returns the active scope, or nil if the store is empty.
func (m *ScopeManager) Current() *SymbolTable {
	if m.current < 0 {
		return nil
	}

	return m.scopes[m.current]
}

// Get returns a scope by id.
func (m *ScopeManager) Get(id int) *SymbolTable {
	if id < 0 || id >= len(m.scopes) {
		return nil
	}

	return m.scopes[id]
}

// Count returns the number of scopes created so far.
func (m *ScopeManager) Count() int {
	return len(m.scopes)
}

// Find searches the active scope and its ancestor chain, returning
// the owning scope id, the ancestor distance (0 = active scope) and
// the entry.
func (m *ScopeManager) Find(name string) (int, int, SymbolEntry, bool) {
	return m.FindFrom(name, m.current)
}

// FindFrom is Find starting at an explicit scope id.
func (m *ScopeManager) FindFrom(name string, scopeID int) (int, int, SymbolEntry, bool) {
	distance := 0

	for scopeID >= 0 {
		scope := m.scopes[scopeID]

		if entry, ok := scope.Get(name); ok {
			return scopeID, distance, entry, true
		}

		scopeID = scope.Parent
		distance++
	}

	return 0, 0, SymbolEntry{}, false
}
