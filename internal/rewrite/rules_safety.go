package rewrite

import (
	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/mir"
)

// rewriteSafeUnsafe is the idempotent fallback for the safe/unsafe
// branch convention: a conditional whose condition is a sentinel
// integer literal and which has an else region, reached by the driver
// without having been tagged inline during construction. It wraps the
// else region in an unsafe_region at the conditional's location.
//
// The inline tagging in internal/lower consumes these conditionals
// before they ever become if nodes, so this rule fires only for trees
// built by front ends that bypass the safety visitor. After a rewrite
// the site is an unsafe_region, which this rule does not match, so a
// second pass is a no-op.
func rewriteSafeUnsafe(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	if n.Kind() != mir.KindIf {
		return nil, false
	}
	if n.NumOperands() != 1 || n.NumRegions() != 2 {
		return nil, false
	}
	cond := n.Operand(0)
	if cond.Kind() != mir.KindIntLit {
		return nil, false
	}
	litID, ok := cond.IntAttr("lit_id")
	if !ok {
		return nil, false
	}
	if rw.sentinels == nil || !rw.sentinels.Contains(sentinelID(litID)) {
		return nil, false
	}

	repl := rw.Builder().Detached(mir.KindUnsafeRegion, mir.Location{},
		mir.WithMovedRegion(n.Region(1)),
	)
	rw.Replace(n, repl)
	return repl, true
}

// sentinelID recovers the source literal identity from the lit_id
// attribute lowering stamps on integer literal nodes.
func sentinelID(v int64) cst.LitID {
	return cst.LitID(v)
}
