// Package testutil provides compact builders for source trees used in
// tests across the module.
package testutil

import (
	"strconv"

	"github.com/macrolens/macrolens/internal/cst"
)

// TreeBuilder builds source trees against a shared literal arena and
// sentinel set, so tests construct units the same way front ends do.
type TreeBuilder struct {
	File      string
	Lits      *cst.LitArena
	Sentinels *cst.SentinelSet
}

// NewTreeBuilder creates a builder with fresh arenas.
func NewTreeBuilder(file string) *TreeBuilder {
	return &TreeBuilder{
		File:      file,
		Lits:      cst.NewLitArena(),
		Sentinels: cst.NewSentinelSet(),
	}
}

// Unit wraps functions into a translation unit.
func (tb *TreeBuilder) Unit(funcs ...*cst.FuncDef) *cst.TranslationUnit {
	return &cst.TranslationUnit{File: tb.File, Funcs: funcs}
}

// Func builds a function whose body is the given statements.
func (tb *TreeBuilder) Func(name string, stmts ...cst.Stmt) *cst.FuncDef {
	return &cst.FuncDef{Name: name, Body: tb.Block(stmts...)}
}

// Block builds a compound statement.
func (tb *TreeBuilder) Block(stmts ...cst.Stmt) *cst.CompoundStmt {
	return &cst.CompoundStmt{Stmts: stmts}
}

// Int builds an integer literal with a fresh identity.
func (tb *TreeBuilder) Int(v int64) *cst.IntLit {
	return &cst.IntLit{ID: tb.Lits.Next(), Value: v, Text: strconv.FormatInt(v, 10)}
}

// SentinelInt builds an integer literal registered as a sentinel.
func (tb *TreeBuilder) SentinelInt(v int64) *cst.IntLit {
	lit := tb.Int(v)
	tb.Sentinels.Add(lit.ID)
	return lit
}

// Ident builds an identifier reference.
func (tb *TreeBuilder) Ident(name string) *cst.Ident {
	return &cst.Ident{Name: name}
}

// Decl builds a declaration statement.
func (tb *TreeBuilder) Decl(typ, name string, init cst.Expr) *cst.DeclStmt {
	return &cst.DeclStmt{Type: typ, Name: name, Init: init}
}

// Expr wraps an expression into a statement.
func (tb *TreeBuilder) Expr(x cst.Expr) *cst.ExprStmt {
	return &cst.ExprStmt{X: x}
}

// Call builds a direct call.
func (tb *TreeBuilder) Call(name string, args ...cst.Expr) *cst.CallExpr {
	return &cst.CallExpr{Fun: tb.Ident(name), Args: args}
}

// Unary builds a unary expression.
func (tb *TreeBuilder) Unary(op string, x cst.Expr) *cst.UnaryExpr {
	return &cst.UnaryExpr{Op: op, X: x}
}

// Binary builds a binary expression.
func (tb *TreeBuilder) Binary(op string, x, y cst.Expr) *cst.BinaryExpr {
	return &cst.BinaryExpr{Op: op, X: x, Y: y}
}

// Assign builds an assignment.
func (tb *TreeBuilder) Assign(lhs, rhs cst.Expr) *cst.AssignExpr {
	return &cst.AssignExpr{LHS: lhs, RHS: rhs}
}

// Arrow builds x->member.
func (tb *TreeBuilder) Arrow(x cst.Expr, member string) *cst.MemberExpr {
	return &cst.MemberExpr{X: x, Member: member, Arrow: true}
}

// Dot builds x.member.
func (tb *TreeBuilder) Dot(x cst.Expr, member string) *cst.MemberExpr {
	return &cst.MemberExpr{X: x, Member: member}
}

// Cast builds a cast expression.
func (tb *TreeBuilder) Cast(typ string, x cst.Expr) *cst.CastExpr {
	return &cst.CastExpr{Type: typ, X: x}
}

// Raw builds an opaque expression.
func (tb *TreeBuilder) Raw(text string) *cst.RawExpr {
	return &cst.RawExpr{Text: text}
}

// If builds an if statement. Pass nil for no else branch.
func (tb *TreeBuilder) If(cond cst.Expr, then, els cst.Stmt) *cst.IfStmt {
	return &cst.IfStmt{Cond: cond, Then: then, Else: els}
}

// For builds a for statement.
func (tb *TreeBuilder) For(init, cond, post cst.Expr, body cst.Stmt) *cst.ForStmt {
	return &cst.ForStmt{Init: init, Cond: cond, Post: post, Body: body}
}

// MacroExpr builds an expression macro with its recorded expansion.
func (tb *TreeBuilder) MacroExpr(name string, rawArgs []string, argExprs []cst.Expr, expansion cst.Expr) *cst.MacroExpr {
	return &cst.MacroExpr{Name: name, RawArgs: rawArgs, ArgExprs: argExprs, Expansion: expansion}
}

// MacroStmt builds a statement macro with its recorded expansion.
func (tb *TreeBuilder) MacroStmt(name string, rawArgs []string, argExprs []cst.Expr, expansion cst.Stmt) *cst.MacroStmt {
	return &cst.MacroStmt{Name: name, RawArgs: rawArgs, ArgExprs: argExprs, Expansion: expansion}
}

// ListLoop builds the canonical expanded shape of a list_for_each
// iteration: for (pos = head->next; pos != head; pos = pos->next).
func (tb *TreeBuilder) ListLoop(pos, head string, body cst.Stmt) *cst.ForStmt {
	return tb.For(
		tb.Assign(tb.Ident(pos), tb.Arrow(tb.Ident(head), "next")),
		tb.Binary("!=", tb.Ident(pos), tb.Ident(head)),
		tb.Assign(tb.Ident(pos), tb.Arrow(tb.Ident(pos), "next")),
		body,
	)
}

// SafetyBlock builds the expanded shape of a safety statement macro:
// if (sentinel-0) ; else body.
func (tb *TreeBuilder) SafetyBlock(body cst.Stmt) *cst.IfStmt {
	return tb.If(tb.SentinelInt(0), &cst.EmptyStmt{}, body)
}
