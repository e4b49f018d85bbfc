package vm

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestRendering(t *testing.T) {
	p := &Program{}
	p.Emit(OpStart)
	p.Mark("main_entry")
	p.EmitArg(OpPushI, Int{Value: 42})
	p.EmitArg(OpStoreL, Int{Value: -2})
	p.Emit(OpStop)

	want := "    start\n" +
		"main_entry:\n" +
		"    pushi 42\n" +
		"    storel -2\n" +
		"    stop\n"
	be.Equal(t, p.String(), want)
}

func TestFloatRendering(t *testing.T) {
	be.Equal(t, Float{Value: 2.5}.String(), "2.5")
	be.Equal(t, Float{Value: 0}.String(), "0.0")
	be.Equal(t, Float{Value: -1}.String(), "-1.0")
	be.Equal(t, Float{Value: 0.125}.String(), "0.125")
}

func TestStrRendering(t *testing.T) {
	be.Equal(t, Str{Value: "hello"}.String(), `"hello"`)
	be.Equal(t, Str{Value: "\n"}.String(), `"\n"`)
	be.Equal(t, Str{Value: `say "hi"`}.String(), `"say \"hi\""`)
}

func TestLabels(t *testing.T) {
	p := &Program{}
	p.Mark("a")
	p.EmitArg(OpJump, Label{Name: "b"})
	p.Mark("b")
	be.Equal(t, p.Labels(), []string{"a", "b"})
}

func TestOpNamesCovered(t *testing.T) {
	for op := OpStart; op <= OpLabelMark; op++ {
		name := op.String()
		be.True(t, name != "")
		be.True(t, !strings.HasPrefix(name, "op("))
	}
}
