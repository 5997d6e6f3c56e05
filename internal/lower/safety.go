package lower

import (
	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/mir"
)

// SafetyVisitor recognizes the project's safe/unsafe branch convention
// during tree construction and wraps the marked branch in an
// unsafe_region node.
//
// The convention: a conditional with an else branch whose condition is
// a single integer literal, where that literal's identity was recorded
// in the sentinel set by the front end (the literal the safety macro
// expands to). The then-branch is never the live path under the
// convention and is not lowered at all.
//
// This is best-effort classification, not a validated transformation:
// any statement that does not match the shape is declined and falls
// through to default lowering.
type SafetyVisitor struct {
	Sentinels *cst.SentinelSet
}

// VisitStmt implements StmtVisitor.
//
// On match it builds an unsafe_region at the statement's location,
// populating its region by lowering the else branch through the normal
// statement path, then lowers the else branch a second time through
// the default path and returns that node as the statement's node. The
// duplication is deliberate: it reproduces the shape the original
// tagging pass emits, where the tagging region and the returned
// statement are built by two independent lowerings. The fallback
// safe_unsafe rewrite rule in internal/rewrite covers conditionals
// this visitor never saw.
func (v *SafetyVisitor) VisitStmt(s cst.Stmt, lw *Lowerer) (*mir.Node, bool) {
	ifs, ok := s.(*cst.IfStmt)
	if !ok {
		return nil, false
	}
	if ifs.Else == nil {
		return nil, false
	}
	lit, ok := ifs.Cond.(*cst.IntLit)
	if !ok {
		return nil, false
	}
	if !v.Sentinels.Contains(lit.ID) {
		return nil, false
	}

	b := lw.Builder()
	tagged := b.Build(mir.KindUnsafeRegion, loc(ifs.P), mir.WithRegions(1))
	b.PopulateRegion(tagged, 0, func(*mir.Builder) {
		lw.LowerStmt(ifs.Else)
	})

	return lw.LowerStmtDefault(ifs.Else), true
}
