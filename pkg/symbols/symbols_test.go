package symbols

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestMangledName(t *testing.T) {
	be.Equal(t, MangledName(Function, "half", []TypeCategory{Integer}), "f_half_i")
	be.Equal(t, MangledName(Procedure, "swap", []TypeCategory{Real, Real}), "p_swap_r_r")
	be.Equal(t, MangledName(Function, "five", nil), "f_five")
	be.Equal(t, MangledName(Procedure, "fill", []TypeCategory{Array, Boolean}), "p_fill_a_b")
	be.Equal(t, MangledName(Function, "odd", []TypeCategory{Unknown}), "f_odd_u")
}

func TestLookupWalksOutward(t *testing.T) {
	table := NewTable()
	table.AddSymbol(&Entry{Name: "g", Kind: Variable, Type: Integer, Offset: 0})

	table.EnterScope()
	table.AddSymbol(&Entry{Name: "x", Kind: Variable, Type: Real, Offset: 0})

	entry, global, found := table.Lookup("x")
	be.True(t, found)
	be.True(t, !global)
	be.Equal(t, entry.Type, Real)

	entry, global, found = table.Lookup("g")
	be.True(t, found)
	be.True(t, global)
	be.Equal(t, entry.Type, Integer)

	_, _, found = table.Lookup("missing")
	be.True(t, !found)

	table.ExitScope()
	_, _, found = table.Lookup("x")
	be.True(t, !found)
}

func TestAddSymbolReplacesSameName(t *testing.T) {
	table := NewTable()
	table.AddSymbol(&Entry{Name: "x", Kind: Variable, Type: Integer, Offset: 3})
	table.AddSymbol(&Entry{Name: "x", Kind: Parameter, Type: Integer, Offset: 0})

	entry, _, found := table.Lookup("x")
	be.True(t, found)
	be.Equal(t, entry.Kind, Parameter)
	be.Equal(t, entry.Offset, 0)
	be.Equal(t, len(table.CurrentEntries()), 1)
}

// The replay walk must enter the same scopes in the same order the
// recording walk created them, including sibling scopes.
func TestRewindReplaysScopeOrder(t *testing.T) {
	table := NewTable()

	table.EnterScope()
	table.AddSymbol(&Entry{Name: "a", Kind: Parameter, Type: Integer, Offset: 0})
	table.ExitScope()

	table.EnterScope()
	table.AddSymbol(&Entry{Name: "b", Kind: Parameter, Type: Real, Offset: 0})
	table.ExitScope()

	table.Rewind()

	table.EnterScope()
	entry, _, found := table.Lookup("a")
	be.True(t, found)
	be.Equal(t, entry.Type, Integer)
	table.ExitScope()

	table.EnterScope()
	entry, _, found = table.Lookup("b")
	be.True(t, found)
	be.Equal(t, entry.Type, Real)
	table.ExitScope()
}

func TestRewindIsRepeatable(t *testing.T) {
	table := NewTable()
	table.EnterScope()
	table.AddSymbol(&Entry{Name: "x", Kind: Variable, Type: Boolean, Offset: 0})
	table.ExitScope()

	for i := 0; i < 2; i++ {
		table.Rewind()
		table.EnterScope()
		_, _, found := table.Lookup("x")
		be.True(t, found)
		table.ExitScope()
	}
}

func TestIsGlobalScope(t *testing.T) {
	table := NewTable()
	be.True(t, table.IsGlobalScope())
	table.EnterScope()
	be.True(t, !table.IsGlobalScope())
	table.ExitScope()
	be.True(t, table.IsGlobalScope())
}

func TestArraySize(t *testing.T) {
	be.Equal(t, ArrayDetails{LowBound: 1, HighBound: 5}.Size(), 5)
	be.Equal(t, ArrayDetails{LowBound: -2, HighBound: 2}.Size(), 5)
	be.Equal(t, ArrayDetails{LowBound: 3, HighBound: 3}.Size(), 1)
}

func TestTypeCodes(t *testing.T) {
	be.Equal(t, Integer.Code(), byte('i'))
	be.Equal(t, Real.Code(), byte('r'))
	be.Equal(t, Boolean.Code(), byte('b'))
	be.Equal(t, Array.Code(), byte('a'))
	be.Equal(t, Unknown.Code(), byte('u'))
}
