package mir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSmallModule returns a module with one block holding a literal
// and an assign that uses it.
func buildSmallModule(t *testing.T) (mod, lit, use *Node, b *Builder) {
	t.Helper()
	b = NewBuilder(NewArena())
	mod = b.BuildModule(Location{File: "t.c"})
	blk := b.Build(KindBlock, Location{}, WithRegions(1))
	b.PopulateRegion(blk, 0, func(b *Builder) {
		lit = b.Build(KindIntLit, Location{Line: 2}, WithAttr("value", AttrInt(1)))
		use = b.Build(KindAssign, Location{Line: 3}, WithOperands(lit, lit))
	})
	return mod, lit, use, b
}

func TestWalk_PreOrder(t *testing.T) {
	mod, _, _, _ := buildSmallModule(t)

	var kinds []Kind
	Walk(mod, func(n *Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})

	assert.Equal(t, []Kind{KindModule, KindBlock, KindIntLit, KindAssign}, kinds)
}

func TestWalk_FalseSkipsRegions(t *testing.T) {
	mod, _, _, _ := buildSmallModule(t)

	var kinds []Kind
	Walk(mod, func(n *Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindBlock
	})

	assert.Equal(t, []Kind{KindModule, KindBlock}, kinds)
}

func TestReplace_SwapsAndRedirectsUses(t *testing.T) {
	mod, lit, use, b := buildSmallModule(t)
	parent := lit.Parent()

	repl := b.Detached(KindOffsetOf, Location{},
		WithAttr("type", AttrSymbol("foo")),
		WithAttr("member", AttrSymbol("bar")),
	)
	Replace(mod, lit, repl)

	require.NotNil(t, parent)
	assert.Same(t, repl, parent.Nodes()[0])
	assert.Same(t, parent, repl.Parent())
	assert.Nil(t, lit.Parent())
	assert.Same(t, repl, use.Operand(0))
	assert.Same(t, repl, use.Operand(1))
}

func TestReplace_PreservesLocationWhenReplHasNone(t *testing.T) {
	mod, lit, _, b := buildSmallModule(t)

	repl := b.Detached(KindOffsetOf, Location{})
	Replace(mod, lit, repl)

	assert.Equal(t, Location{Line: 2}, repl.Loc())
}

func TestReplace_KeepsReplLocationWhenSet(t *testing.T) {
	mod, lit, _, b := buildSmallModule(t)

	repl := b.Detached(KindOffsetOf, Location{Line: 9})
	Replace(mod, lit, repl)

	assert.Equal(t, Location{Line: 9}, repl.Loc())
}

func TestRemove_DetachesNode(t *testing.T) {
	_, lit, use, _ := buildSmallModule(t)
	parent := lit.Parent()

	Remove(lit)

	assert.Nil(t, lit.Parent())
	require.Equal(t, 1, parent.NumNodes())
	assert.Same(t, use, parent.Nodes()[0])
}
