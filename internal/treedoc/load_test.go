package treedoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/macrolens/internal/cst"
)

func load(t *testing.T, doc string) (*cst.TranslationUnit, *cst.SentinelSet) {
	t.Helper()
	lits := cst.NewLitArena()
	sentinels := cst.NewSentinelSet()
	tu, err := Load("doc.cue", []byte(doc), lits, sentinels)
	require.NoError(t, err)
	return tu, sentinels
}

func TestLoad_BasicUnit(t *testing.T) {
	tu, _ := load(t, `
unit: {
	file: "doc.c"
	funcs: [{
		name: "f"
		body: [
			{kind: "decl", type: "int", name: "x", value: {kind: "int", value: 1}},
			{kind: "expr", x: {kind: "assign", x: {kind: "ident", name: "x"}, y: {kind: "int", value: 2}}},
		]
	}]
}
`)

	assert.Equal(t, "doc.c", tu.File)
	require.Len(t, tu.Funcs, 1)
	fn := tu.Funcs[0]
	assert.Equal(t, "f", fn.Name)
	require.Len(t, fn.Body.Stmts, 2)

	decl, ok := fn.Body.Stmts[0].(*cst.DeclStmt)
	require.True(t, ok)
	assert.Equal(t, "int", decl.Type)
	lit, ok := decl.Init.(*cst.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(1), lit.Value)
	assert.NotZero(t, lit.ID)
}

func TestLoad_SentinelMarkRegistersIdentity(t *testing.T) {
	tu, sentinels := load(t, `
unit: {
	file: "doc.c"
	funcs: [{
		name: "f"
		body: [{
			kind: "if"
			cond: {kind: "int", value: 0, sentinel: true}
			then: []
			else: [{kind: "expr", x: {kind: "call", fun: {kind: "ident", name: "poke"}}}]
		}]
	}]
}
`)

	ifs, ok := tu.Funcs[0].Body.Stmts[0].(*cst.IfStmt)
	require.True(t, ok)
	lit, ok := ifs.Cond.(*cst.IntLit)
	require.True(t, ok)
	assert.True(t, sentinels.Contains(lit.ID))
	assert.Equal(t, 1, sentinels.Len())
	require.NotNil(t, ifs.Else)
}

func TestLoad_MacroStatement(t *testing.T) {
	tu, _ := load(t, `
unit: {
	file: "doc.c"
	funcs: [{
		name: "f"
		body: [{
			kind: "macro"
			macro: "smp_mb"
			expansion: [{kind: "expr", x: {kind: "call", fun: {kind: "ident", name: "__smp_mb"}}}]
		}]
	}]
}
`)

	macro, ok := tu.Funcs[0].Body.Stmts[0].(*cst.MacroStmt)
	require.True(t, ok)
	assert.Equal(t, "smp_mb", macro.Name)
	exp, ok := macro.Expansion.(*cst.CompoundStmt)
	require.True(t, ok)
	require.Len(t, exp.Stmts, 1)
}

func TestLoad_MissingUnitField(t *testing.T) {
	lits := cst.NewLitArena()
	sentinels := cst.NewSentinelSet()
	_, err := Load("doc.cue", []byte(`other: 1`), lits, sentinels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing "unit"`)
}

func TestLoad_UnknownStatementKind(t *testing.T) {
	lits := cst.NewLitArena()
	sentinels := cst.NewSentinelSet()
	_, err := Load("doc.cue", []byte(`
unit: {
	file: "doc.c"
	funcs: [{name: "f", body: [{kind: "switch"}]}]
}
`), lits, sentinels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statement kind")
}
