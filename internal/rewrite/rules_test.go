package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/lower"
	"github.com/macrolens/macrolens/internal/mir"
	"github.com/macrolens/macrolens/internal/testutil"
)

// convert lowers the unit and runs a full conversion pass over it.
func convert(t *testing.T, tb *testutil.TreeBuilder, tu *cst.TranslationUnit, opts ...Option) *mir.Node {
	t.Helper()
	arena := mir.NewArena()
	lw := lower.New(arena, tb.Sentinels)
	mod := lw.LowerTranslationUnit(tu)
	opts = append([]Option{WithSentinels(tb.Sentinels)}, opts...)
	NewRewriter(mod, arena, opts...).Apply()
	return mod
}

// firstOfKind returns the first node of the given kind in pre-order.
func firstOfKind(mod *mir.Node, kind mir.Kind) *mir.Node {
	var found *mir.Node
	mir.Walk(mod, func(n *mir.Node) bool {
		if found == nil && n.Kind() == kind {
			found = n
		}
		return found == nil
	})
	return found
}

func countKind(mod *mir.Node, kind mir.Kind) int {
	c := 0
	mir.Walk(mod, func(n *mir.Node) bool {
		if n.Kind() == kind {
			c++
		}
		return true
	})
	return c
}

func TestRuleNames_TableOrder(t *testing.T) {
	assert.Equal(t, []string{
		"get_user", "offsetof", "container_of", "rcu_dereference",
		"smp_mb", "list_for_each", "rcu_read_unlock", "safe_unsafe",
	}, RuleNames())
}

func TestGetUser_Recognized(t *testing.T) {
	tb := testutil.NewTreeBuilder("get_user.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("int", "x", nil),
		tb.Decl("int __user *", "p", nil),
		tb.MacroStmt("get_user",
			[]string{"x", "p"},
			[]cst.Expr{tb.Ident("x"), tb.Ident("p")},
			tb.Expr(tb.Assign(tb.Ident("x"), tb.Unary("*", tb.Ident("p")))),
		),
	))

	mod := convert(t, tb, tu)

	n := firstOfKind(mod, mir.KindGetUser)
	require.NotNil(t, n)
	dest, _ := n.StringAttr("dest")
	assert.Equal(t, "x", dest)
	require.Equal(t, 1, n.NumOperands())
	xDecl := firstOfKind(mod, mir.KindDecl)
	// The pointer operand threads through from the second declaration.
	body := xDecl.Parent()
	assert.Same(t, body.Nodes()[1], n.Operand(0))
	assert.Equal(t, 0, countKind(mod, mir.KindMacroExpansion))
}

func TestGetUser_WrongArityDeclined(t *testing.T) {
	tb := testutil.NewTreeBuilder("get_user_bad.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("int", "x", nil),
		tb.MacroStmt("get_user",
			[]string{"x"},
			[]cst.Expr{tb.Ident("x")},
			tb.Expr(tb.Ident("x")),
		),
	))

	mod := convert(t, tb, tu)

	assert.Nil(t, firstOfKind(mod, mir.KindGetUser))
	assert.Equal(t, 1, countKind(mod, mir.KindMacroExpansion))
}

func TestOffsetOf_Recognized(t *testing.T) {
	tb := testutil.NewTreeBuilder("offsetof.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("unsigned long", "off", nil),
		tb.Expr(tb.Assign(tb.Ident("off"),
			tb.MacroExpr("offsetof",
				[]string{"struct task_struct", "pid"},
				nil,
				tb.Cast("unsigned long", tb.Unary("&", tb.Arrow(tb.Cast("struct task_struct *", tb.Int(0)), "pid"))),
			))),
	))

	mod := convert(t, tb, tu)

	n := firstOfKind(mod, mir.KindOffsetOf)
	require.NotNil(t, n)
	typ, _ := n.StringAttr("type")
	member, _ := n.StringAttr("member")
	assert.Equal(t, "struct task_struct", typ)
	assert.Equal(t, "pid", member)
	assert.Equal(t, 0, n.NumOperands())
	// The expanded pointer arithmetic is gone with the expansion region.
	assert.Equal(t, 0, countKind(mod, mir.KindCast))
}

func TestContainerOf_RoundTrip(t *testing.T) {
	tb := testutil.NewTreeBuilder("container_of.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct list_head *", "lh", nil),
		tb.Expr(tb.MacroExpr("container_of",
			[]string{"lh", "struct task_struct", "tasks"},
			[]cst.Expr{tb.Ident("lh")},
			tb.Raw("((struct task_struct *)((char *)lh - offsetof(struct task_struct, tasks)))"),
		)),
	))

	mod := convert(t, tb, tu)

	n := firstOfKind(mod, mir.KindContainerOf)
	require.NotNil(t, n)
	typ, _ := n.StringAttr("type")
	member, _ := n.StringAttr("member")
	assert.Equal(t, "struct task_struct", typ)
	assert.Equal(t, "tasks", member)
	// The member pointer survives the rewrite as the sole operand.
	require.Equal(t, 1, n.NumOperands())
	decl := firstOfKind(mod, mir.KindDecl)
	assert.Same(t, decl, n.Operand(0))
}

func TestRCUDereference_Recognized(t *testing.T) {
	tb := testutil.NewTreeBuilder("rcu_deref.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct foo *", "gp", nil),
		tb.Expr(tb.MacroExpr("rcu_dereference",
			[]string{"gp"},
			[]cst.Expr{tb.Ident("gp")},
			tb.Ident("gp"),
		)),
	))

	mod := convert(t, tb, tu)

	n := firstOfKind(mod, mir.KindRCUDereference)
	require.NotNil(t, n)
	require.Equal(t, 1, n.NumOperands())
	assert.Same(t, firstOfKind(mod, mir.KindDecl), n.Operand(0))
}

func TestSMPMB_MacroForm(t *testing.T) {
	tb := testutil.NewTreeBuilder("smp_mb.c")
	tu := tb.Unit(tb.Func("f",
		tb.MacroStmt("smp_mb", nil, nil, tb.Expr(tb.Call("__smp_mb"))),
	))

	mod := convert(t, tb, tu)

	assert.NotNil(t, firstOfKind(mod, mir.KindMemoryBarrier))
	assert.Equal(t, 0, countKind(mod, mir.KindMacroExpansion))
	assert.Equal(t, 0, countKind(mod, mir.KindCall))
}

func TestSMPMB_BareCallForm(t *testing.T) {
	tb := testutil.NewTreeBuilder("smp_mb_call.c")
	tu := tb.Unit(tb.Func("f",
		tb.Expr(tb.Call("smp_mb")),
	))

	mod := convert(t, tb, tu)

	assert.NotNil(t, firstOfKind(mod, mir.KindMemoryBarrier))
	assert.Equal(t, 0, countKind(mod, mir.KindCall))
}

func TestSMPMB_VariantNameNotRecognized(t *testing.T) {
	tb := testutil.NewTreeBuilder("smp_mb_variant.c")
	tu := tb.Unit(tb.Func("f",
		tb.Expr(tb.Call("smp_mb_variant")),
	))

	mod := convert(t, tb, tu)

	// Name matching is exact; near-misses pass through untouched.
	assert.Nil(t, firstOfKind(mod, mir.KindMemoryBarrier))
	call := firstOfKind(mod, mir.KindCall)
	require.NotNil(t, call)
	callee, _ := call.StringAttr("callee")
	assert.Equal(t, "smp_mb_variant", callee)
}

func TestRCUReadUnlock_CallForm(t *testing.T) {
	tb := testutil.NewTreeBuilder("rcu_unlock.c")
	tu := tb.Unit(tb.Func("f",
		tb.Expr(tb.Call("rcu_read_unlock")),
	))

	mod := convert(t, tb, tu)

	assert.NotNil(t, firstOfKind(mod, mir.KindRCUReadUnlock))
	assert.Equal(t, 0, countKind(mod, mir.KindCall))
}

func TestListForEach_MacroForm(t *testing.T) {
	tb := testutil.NewTreeBuilder("list.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct list_head *", "head", nil),
		tb.Decl("struct list_head *", "pos", nil),
		tb.MacroStmt("list_for_each",
			[]string{"pos", "head"},
			[]cst.Expr{tb.Ident("pos"), tb.Ident("head")},
			tb.ListLoop("pos", "head", tb.Block(tb.Expr(tb.Call("visit", tb.Ident("pos"))))),
		),
	))

	mod := convert(t, tb, tu)

	iter := firstOfKind(mod, mir.KindListIteration)
	require.NotNil(t, iter)
	// The head operand is the head declaration, not a copy.
	head := firstOfKind(mod, mir.KindDecl)
	assert.Same(t, head, iter.Operand(0))
	// The body moved over verbatim, visit call included.
	require.Equal(t, 1, iter.NumRegions())
	assert.Equal(t, 1, countKind(mod, mir.KindCall))
	assert.Equal(t, 0, countKind(mod, mir.KindFor))
	assert.Equal(t, 0, countKind(mod, mir.KindMacroExpansion))
}

func TestListForEach_BareLoopForm(t *testing.T) {
	tb := testutil.NewTreeBuilder("list_bare.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct list_head *", "head", nil),
		tb.Decl("struct list_head *", "pos", nil),
		tb.ListLoop("pos", "head", tb.Block()),
	))

	mod := convert(t, tb, tu)

	assert.NotNil(t, firstOfKind(mod, mir.KindListIteration))
	assert.Equal(t, 0, countKind(mod, mir.KindFor))
}

func TestListForEach_ShapeDeviationDeclined(t *testing.T) {
	tb := testutil.NewTreeBuilder("list_dev.c")
	// cond compares against a different node than the init head.
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct list_head *", "head", nil),
		tb.Decl("struct list_head *", "other", nil),
		tb.Decl("struct list_head *", "pos", nil),
		tb.For(
			tb.Assign(tb.Ident("pos"), tb.Arrow(tb.Ident("head"), "next")),
			tb.Binary("!=", tb.Ident("pos"), tb.Ident("other")),
			tb.Assign(tb.Ident("pos"), tb.Arrow(tb.Ident("pos"), "next")),
			tb.Block(),
		),
	))

	mod := convert(t, tb, tu)

	assert.Nil(t, firstOfKind(mod, mir.KindListIteration))
	assert.Equal(t, 1, countKind(mod, mir.KindFor))
}

func TestListForEach_WrongMemberDeclined(t *testing.T) {
	tb := testutil.NewTreeBuilder("list_prev.c")
	tu := tb.Unit(tb.Func("f",
		tb.Decl("struct list_head *", "head", nil),
		tb.Decl("struct list_head *", "pos", nil),
		tb.For(
			tb.Assign(tb.Ident("pos"), tb.Arrow(tb.Ident("head"), "prev")),
			tb.Binary("!=", tb.Ident("pos"), tb.Ident("head")),
			tb.Assign(tb.Ident("pos"), tb.Arrow(tb.Ident("pos"), "prev")),
			tb.Block(),
		),
	))

	mod := convert(t, tb, tu)

	assert.Nil(t, firstOfKind(mod, mir.KindListIteration))
}

func TestSafeUnsafe_FallbackOnUntaggedConditional(t *testing.T) {
	// Build the conditional shape directly, bypassing the inline
	// tagging that would normally consume it.
	lits := cst.NewLitArena()
	sentinels := cst.NewSentinelSet()
	litID := lits.Next()
	sentinels.Add(litID)

	arena := mir.NewArena()
	b := mir.NewBuilder(arena)
	mod := b.BuildModule(mir.Location{File: "fallback.c"})
	cond := b.Build(mir.KindIntLit, mir.Location{},
		mir.WithAttr("value", mir.AttrInt(0)),
		mir.WithAttr("lit_id", mir.AttrInt(int64(litID))),
	)
	ifn := b.Build(mir.KindIf, mir.Location{Line: 4},
		mir.WithOperands(cond),
		mir.WithRegions(2),
	)
	b.PopulateRegion(ifn, 1, func(b *mir.Builder) {
		b.Build(mir.KindCall, mir.Location{}, mir.WithAttr("callee", mir.AttrSymbol("poke")))
	})

	NewRewriter(mod, arena, WithSentinels(sentinels)).Apply()

	region := mod.Region(0)
	require.Equal(t, 2, region.NumNodes())
	tagged := region.Nodes()[1]
	require.Equal(t, mir.KindUnsafeRegion, tagged.Kind())
	// Location carries over from the conditional.
	assert.Equal(t, 4, tagged.Loc().Line)
	require.Equal(t, 1, tagged.NumRegions())
	assert.Equal(t, 1, tagged.Region(0).NumNodes())
}

func TestSafeUnsafe_NonSentinelLiteralDeclined(t *testing.T) {
	lits := cst.NewLitArena()
	sentinels := cst.NewSentinelSet()
	litID := lits.Next() // never added to the set

	arena := mir.NewArena()
	b := mir.NewBuilder(arena)
	mod := b.BuildModule(mir.Location{})
	cond := b.Build(mir.KindIntLit, mir.Location{},
		mir.WithAttr("value", mir.AttrInt(0)),
		mir.WithAttr("lit_id", mir.AttrInt(int64(litID))),
	)
	b.Build(mir.KindIf, mir.Location{}, mir.WithOperands(cond), mir.WithRegions(2))

	NewRewriter(mod, arena, WithSentinels(sentinels)).Apply()

	assert.Equal(t, 1, countKind(mod, mir.KindIf))
	assert.Equal(t, 0, countKind(mod, mir.KindUnsafeRegion))
}

func TestSafeUnsafe_NoSentinelSetNeverMatches(t *testing.T) {
	arena := mir.NewArena()
	b := mir.NewBuilder(arena)
	mod := b.BuildModule(mir.Location{})
	cond := b.Build(mir.KindIntLit, mir.Location{}, mir.WithAttr("lit_id", mir.AttrInt(1)))
	b.Build(mir.KindIf, mir.Location{}, mir.WithOperands(cond), mir.WithRegions(2))

	NewRewriter(mod, arena).Apply()

	assert.Equal(t, 0, countKind(mod, mir.KindUnsafeRegion))
}

func TestDisabledRules_SkipNamedRule(t *testing.T) {
	tb := testutil.NewTreeBuilder("disable.c")
	tu := tb.Unit(tb.Func("f",
		tb.Expr(tb.Call("smp_mb")),
		tb.Expr(tb.Call("rcu_read_unlock")),
	))

	mod := convert(t, tb, tu, WithDisabledRules("smp_mb"))

	assert.Nil(t, firstOfKind(mod, mir.KindMemoryBarrier))
	assert.NotNil(t, firstOfKind(mod, mir.KindRCUReadUnlock))
	// The shared table itself is untouched.
	assert.Len(t, Patterns, 8)
}
