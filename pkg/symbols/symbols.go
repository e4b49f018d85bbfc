// Package symbols implements the symbol table shared by the semantic
// pass and the code generator: typed entries, a scope tree that can be
// replayed positionally by a second traversal, and subprogram name
// mangling.
package symbols

import "strings"

// TypeCategory classifies the storage and coercion behavior of a value.
type TypeCategory int

const (
	Unknown TypeCategory = iota
	Integer
	Real
	Boolean
	Array
)

func (c TypeCategory) String() string {
	switch c {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case Array:
		return "array"
	}
	return "unknown"
}

// Code returns the single-letter signature code used in mangled names.
func (c TypeCategory) Code() byte {
	switch c {
	case Integer:
		return 'i'
	case Real:
		return 'r'
	case Boolean:
		return 'b'
	case Array:
		return 'a'
	}
	return 'u'
}

// Kind says what a symbol names and therefore how it is addressed.
type Kind int

const (
	Variable Kind = iota
	Parameter
	Function
	Procedure
)

func (k Kind) String() string {
	switch k {
	case Parameter:
		return "parameter"
	case Function:
		return "function"
	case Procedure:
		return "procedure"
	}
	return "variable"
}

// ScopeKind is attached to variable references by the semantic pass and
// selects global vs. frame-relative instructions.
type ScopeKind int

const (
	Global ScopeKind = iota
	Local
)

// ArrayDetails describes the bounds and element type of an array symbol.
type ArrayDetails struct {
	ElementType TypeCategory
	LowBound    int
	HighBound   int
	Initialized bool
}

// Size is the number of cells the array occupies. Non-positive sizes
// are rejected during code generation, not here.
func (ad ArrayDetails) Size() int { return ad.HighBound - ad.LowBound + 1 }

// Entry is one named symbol. Entries are owned by the Table; callers
// hold transient references obtained via lookup.
type Entry struct {
	Name          string
	Kind          Kind
	Type          TypeCategory
	Offset        int
	ArrayDetails  ArrayDetails
	MangledName   string
	NumParameters int
	ReturnType    TypeCategory
	Line          int
	Column        int
}

// MangledName builds the subprogram identity key encoding kind and
// parameter signature: f_name_i_r for `function name(a: integer; b:
// real)`. It is the only place this key is computed; both the semantic
// pass and the code generator resolve subprograms through it.
func MangledName(kind Kind, name string, params []TypeCategory) string {
	var sb strings.Builder
	if kind == Function {
		sb.WriteString("f_")
	} else {
		sb.WriteString("p_")
	}
	sb.WriteString(name)
	for _, p := range params {
		sb.WriteByte('_')
		sb.WriteByte(p.Code())
	}
	return sb.String()
}

type scope struct {
	symbols  map[string]*Entry
	order    []string
	parent   *scope
	children []*scope
	next     int
}

func newScope(parent *scope) *scope {
	return &scope{symbols: make(map[string]*Entry), parent: parent}
}

// Table is a stack of lexical scopes recorded as a tree. The semantic
// pass builds the tree; Rewind resets a cursor so the code generator
// can re-enter the same scopes in the same nesting order and find the
// entries (and offsets) recorded during analysis.
type Table struct {
	root      *scope
	current   *scope
	recording bool
}

func NewTable() *Table {
	root := newScope(nil)
	return &Table{root: root, current: root, recording: true}
}

// EnterScope descends into a new child scope while recording, or into
// the next recorded child while replaying. A replay that outruns the
// recording falls back to a fresh scope so lookups still resolve
// outward.
func (t *Table) EnterScope() {
	if !t.recording && t.current.next < len(t.current.children) {
		child := t.current.children[t.current.next]
		t.current.next++
		t.current = child
		return
	}
	child := newScope(t.current)
	t.current.children = append(t.current.children, child)
	t.current = child
}

func (t *Table) ExitScope() {
	if t.current.parent != nil {
		t.current = t.current.parent
	}
}

// Rewind resets the replay cursors and returns to the global scope.
// Called once between the semantic pass and code generation.
func (t *Table) Rewind() {
	var reset func(s *scope)
	reset = func(s *scope) {
		s.next = 0
		for _, c := range s.children {
			reset(c)
		}
	}
	reset(t.root)
	t.current = t.root
	t.recording = false
}

func (t *Table) IsGlobalScope() bool { return t.current == t.root }

// AddSymbol inserts an entry into the current scope. Re-adding a name
// in the same scope replaces the previous entry; the code generator
// relies on this when it re-creates parameter entries in a re-entered
// scope.
func (t *Table) AddSymbol(e *Entry) {
	if _, exists := t.current.symbols[e.Name]; !exists {
		t.current.order = append(t.current.order, e.Name)
	}
	t.current.symbols[e.Name] = e
}

// Lookup resolves a name innermost-first. found reports success and
// global whether the winning scope was the global one.
func (t *Table) Lookup(name string) (entry *Entry, global bool, found bool) {
	for s := t.current; s != nil; s = s.parent {
		if e, ok := s.symbols[name]; ok {
			return e, s == t.root, true
		}
	}
	return nil, false, false
}

// LookupCurrent checks only the current scope level.
func (t *Table) LookupCurrent(name string) (*Entry, bool) {
	e, ok := t.current.symbols[name]
	return e, ok
}

// CurrentEntries returns the current scope's entries in insertion
// order, for diagnostics and tests.
func (t *Table) CurrentEntries() []*Entry {
	entries := make([]*Entry, 0, len(t.current.order))
	for _, name := range t.current.order {
		entries = append(entries, t.current.symbols[name])
	}
	return entries
}
