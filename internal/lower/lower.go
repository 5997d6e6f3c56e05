package lower

import (
	"fmt"
	"strconv"

	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/mir"
)

// StmtVisitor is a hook into statement lowering. A visitor either
// claims the statement and returns the node standing for it, or
// declines with ok=false and the next visitor (ultimately the default
// lowering) gets a turn.
type StmtVisitor interface {
	VisitStmt(s cst.Stmt, lw *Lowerer) (n *mir.Node, ok bool)
}

// Lowerer turns a cst tree into a mir tree. It owns the builder and
// the current lexical scope for the duration of one translation unit.
type Lowerer struct {
	b        *mir.Builder
	visitors []StmtVisitor
	scope    *Scope
}

// New creates a lowerer over the given arena. The safety tag
// recognizer is registered first in the visitor chain so tagging
// happens inline during construction.
func New(arena *mir.Arena, sentinels *cst.SentinelSet) *Lowerer {
	return &Lowerer{
		b: mir.NewBuilder(arena),
		visitors: []StmtVisitor{
			&SafetyVisitor{Sentinels: sentinels},
		},
		scope: NewScope(nil),
	}
}

// Builder exposes the underlying builder to visitors.
func (lw *Lowerer) Builder() *mir.Builder { return lw.b }

// LowerTranslationUnit lowers a whole unit and returns the module root.
func (lw *Lowerer) LowerTranslationUnit(tu *cst.TranslationUnit) *mir.Node {
	mod := lw.b.BuildModule(mir.Location{File: tu.File})
	for _, fn := range tu.Funcs {
		lw.lowerFunc(fn)
	}
	return mod
}

func (lw *Lowerer) lowerFunc(fn *cst.FuncDef) {
	node := lw.b.Build(mir.KindFunc, loc(fn.P),
		mir.WithAttr("name", mir.AttrSymbol(fn.Name)),
		mir.WithRegions(1),
	)
	saved := lw.scope
	lw.scope = NewScope(saved)
	lw.b.PopulateRegion(node, 0, func(*mir.Builder) {
		for _, s := range fn.Body.Stmts {
			lw.LowerStmt(s)
		}
	})
	lw.scope = saved
}

// LowerStmt lowers one statement through the visitor chain, falling
// through to the default lowering when every visitor declines. The
// returned node stands for the whole statement and may be nil for
// statements that produce nothing (empty statements).
func (lw *Lowerer) LowerStmt(s cst.Stmt) *mir.Node {
	for _, v := range lw.visitors {
		if n, ok := v.VisitStmt(s, lw); ok {
			return n
		}
	}
	return lw.LowerStmtDefault(s)
}

// LowerStmtDefault is the standard statement-lowering path, bypassing
// the visitor chain. The safety visitor calls this to lower the else
// branch it returns.
func (lw *Lowerer) LowerStmtDefault(s cst.Stmt) *mir.Node {
	switch st := s.(type) {
	case *cst.CompoundStmt:
		return lw.lowerCompound(st)
	case *cst.IfStmt:
		return lw.lowerIf(st)
	case *cst.ForStmt:
		return lw.lowerFor(st)
	case *cst.ExprStmt:
		return lw.LowerExpr(st.X)
	case *cst.DeclStmt:
		return lw.lowerDecl(st)
	case *cst.EmptyStmt:
		return nil
	case *cst.MacroStmt:
		return lw.lowerMacroStmt(st)
	default:
		// cst.Stmt is sealed; this is unreachable unless a new statement
		// shape is added without a lowering.
		panic(fmt.Sprintf("lower: unhandled statement %T", s))
	}
}

func (lw *Lowerer) lowerCompound(st *cst.CompoundStmt) *mir.Node {
	block := lw.b.Build(mir.KindBlock, loc(st.P), mir.WithRegions(1))
	saved := lw.scope
	lw.scope = NewScope(saved)
	lw.b.PopulateRegion(block, 0, func(*mir.Builder) {
		for _, s := range st.Stmts {
			lw.LowerStmt(s)
		}
	})
	lw.scope = saved
	return block
}

func (lw *Lowerer) lowerIf(st *cst.IfStmt) *mir.Node {
	cond := lw.LowerExpr(st.Cond)
	regions := 1
	if st.Else != nil {
		regions = 2
	}
	node := lw.b.Build(mir.KindIf, loc(st.P),
		mir.WithOperands(cond),
		mir.WithRegions(regions),
	)
	lw.b.PopulateRegion(node, 0, func(*mir.Builder) {
		lw.LowerStmt(st.Then)
	})
	if st.Else != nil {
		lw.b.PopulateRegion(node, 1, func(*mir.Builder) {
			lw.LowerStmt(st.Else)
		})
	}
	return node
}

// lowerFor builds a four-region loop node: init, cond, incr, body.
// Expressions in the header lower inside their own regions so the loop
// carries its whole shape, which is what the list_for_each rule
// structurally matches on.
func (lw *Lowerer) lowerFor(st *cst.ForStmt) *mir.Node {
	node := lw.b.Build(mir.KindFor, loc(st.P), mir.WithRegions(4))
	saved := lw.scope
	lw.scope = NewScope(saved)
	if st.Init != nil {
		lw.b.PopulateRegion(node, 0, func(*mir.Builder) {
			lw.LowerExpr(st.Init)
		})
	}
	if st.Cond != nil {
		lw.b.PopulateRegion(node, 1, func(*mir.Builder) {
			lw.LowerExpr(st.Cond)
		})
	}
	if st.Post != nil {
		lw.b.PopulateRegion(node, 2, func(*mir.Builder) {
			lw.LowerExpr(st.Post)
		})
	}
	lw.b.PopulateRegion(node, 3, func(*mir.Builder) {
		lw.LowerStmt(st.Body)
	})
	lw.scope = saved
	return node
}

func (lw *Lowerer) lowerDecl(st *cst.DeclStmt) *mir.Node {
	opts := []mir.BuildOpt{
		mir.WithAttr("name", mir.AttrSymbol(st.Name)),
	}
	if st.Type != "" {
		opts = append(opts, mir.WithAttr("type", mir.AttrString(st.Type)))
	}
	if st.Init != nil {
		init := lw.LowerExpr(st.Init)
		opts = append(opts, mir.WithOperands(init))
	}
	node := lw.b.Build(mir.KindDecl, loc(st.P), opts...)
	lw.scope.Define(st.Name, node)
	return node
}

func (lw *Lowerer) lowerMacroStmt(st *cst.MacroStmt) *mir.Node {
	return lw.lowerMacro(st.P, st.Name, st.RawArgs, st.ArgExprs, func() {
		if st.Expansion != nil {
			lw.LowerStmt(st.Expansion)
		}
	})
}

// lowerMacro builds the macro provenance node: macro name and raw
// argument text as attributes, lowered argument expressions as
// operands, and the expansion lowered into the node's single region.
// Provenance is additive metadata; the region's contents are ordinary
// nodes with their usual semantics.
func (lw *Lowerer) lowerMacro(p cst.Pos, name string, rawArgs []string, argExprs []cst.Expr, expand func()) *mir.Node {
	args := make([]*mir.Node, 0, len(argExprs))
	for _, ae := range argExprs {
		args = append(args, lw.LowerExpr(ae))
	}
	opts := []mir.BuildOpt{
		mir.WithAttr("macro", mir.AttrSymbol(name)),
		mir.WithOperands(args...),
		mir.WithRegions(1),
	}
	for i, raw := range rawArgs {
		opts = append(opts, mir.WithAttr("arg"+strconv.Itoa(i), mir.AttrString(raw)))
	}
	node := lw.b.Build(mir.KindMacroExpansion, loc(p), opts...)
	lw.b.PopulateRegion(node, 0, func(*mir.Builder) {
		expand()
	})
	return node
}

// LowerExpr lowers one expression and returns the node standing for
// its value.
func (lw *Lowerer) LowerExpr(e cst.Expr) *mir.Node {
	switch ex := e.(type) {
	case *cst.IntLit:
		return lw.b.Build(mir.KindIntLit, loc(ex.P),
			mir.WithAttr("value", mir.AttrInt(ex.Value)),
			mir.WithAttr("lit_id", mir.AttrInt(int64(ex.ID))),
		)
	case *cst.Ident:
		if def, ok := lw.scope.Lookup(ex.Name); ok {
			return def
		}
		return lw.b.Build(mir.KindSymbolRef, loc(ex.P),
			mir.WithAttr("name", mir.AttrSymbol(ex.Name)),
		)
	case *cst.CallExpr:
		return lw.lowerCall(ex)
	case *cst.UnaryExpr:
		x := lw.LowerExpr(ex.X)
		return lw.b.Build(mir.KindUnOp, loc(ex.P),
			mir.WithAttr("op", mir.AttrString(ex.Op)),
			mir.WithOperands(x),
		)
	case *cst.BinaryExpr:
		x := lw.LowerExpr(ex.X)
		y := lw.LowerExpr(ex.Y)
		return lw.b.Build(mir.KindBinOp, loc(ex.P),
			mir.WithAttr("op", mir.AttrString(ex.Op)),
			mir.WithOperands(x, y),
		)
	case *cst.AssignExpr:
		lhs := lw.LowerExpr(ex.LHS)
		rhs := lw.LowerExpr(ex.RHS)
		return lw.b.Build(mir.KindAssign, loc(ex.P),
			mir.WithOperands(lhs, rhs),
		)
	case *cst.MemberExpr:
		x := lw.LowerExpr(ex.X)
		arrow := int64(0)
		if ex.Arrow {
			arrow = 1
		}
		return lw.b.Build(mir.KindMember, loc(ex.P),
			mir.WithAttr("member", mir.AttrSymbol(ex.Member)),
			mir.WithAttr("arrow", mir.AttrInt(arrow)),
			mir.WithOperands(x),
		)
	case *cst.CastExpr:
		x := lw.LowerExpr(ex.X)
		return lw.b.Build(mir.KindCast, loc(ex.P),
			mir.WithAttr("type", mir.AttrString(ex.Type)),
			mir.WithOperands(x),
		)
	case *cst.RawExpr:
		return lw.b.Build(mir.KindOpaque, loc(ex.P),
			mir.WithAttr("text", mir.AttrString(ex.Text)),
		)
	case *cst.MacroExpr:
		return lw.lowerMacro(ex.P, ex.Name, ex.RawArgs, ex.ArgExprs, func() {
			if ex.Expansion != nil {
				lw.LowerExpr(ex.Expansion)
			}
		})
	default:
		panic(fmt.Sprintf("lower: unhandled expression %T", e))
	}
}

func (lw *Lowerer) lowerCall(ex *cst.CallExpr) *mir.Node {
	args := make([]*mir.Node, 0, len(ex.Args))
	for _, a := range ex.Args {
		args = append(args, lw.LowerExpr(a))
	}
	if fn, ok := ex.Fun.(*cst.Ident); ok {
		return lw.b.Build(mir.KindCall, loc(ex.P),
			mir.WithAttr("callee", mir.AttrSymbol(fn.Name)),
			mir.WithOperands(args...),
		)
	}
	// Indirect call: the callee value is the first operand.
	fn := lw.LowerExpr(ex.Fun)
	return lw.b.Build(mir.KindCall, loc(ex.P),
		mir.WithAttr("indirect", mir.AttrInt(1)),
		mir.WithOperands(append([]*mir.Node{fn}, args...)...),
	)
}

func loc(p cst.Pos) mir.Location {
	return mir.Location{File: p.File, Line: p.Line, Col: p.Col}
}
