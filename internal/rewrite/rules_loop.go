package rewrite

import "github.com/macrolens/macrolens/internal/mir"

// rewriteListForEach replaces the list_for_each(pos, head) traversal
// idiom with a list_iteration node carrying the list head as its
// operand and the loop body region verbatim.
//
// The idiom appears two ways: as a macro expansion whose region holds
// the expanded loop, or as a bare loop node with the expanded shape
// (when provenance was lost upstream). Both reduce to the same
// structural match on the loop.
func rewriteListForEach(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	switch n.Kind() {
	case mir.KindMacroExpansion:
		name, _ := n.StringAttr("macro")
		if name != "list_for_each" {
			return nil, false
		}
		loop, ok := singleLoop(n)
		if !ok {
			return nil, false
		}
		head, ok := matchListLoop(loop)
		if !ok {
			return nil, false
		}
		repl := rw.Builder().Detached(mir.KindListIteration, mir.Location{},
			mir.WithOperands(head),
			mir.WithMovedRegion(loop.Region(3)),
		)
		rw.Replace(n, repl)
		return repl, true

	case mir.KindFor:
		head, ok := matchListLoop(n)
		if !ok {
			return nil, false
		}
		repl := rw.Builder().Detached(mir.KindListIteration, mir.Location{},
			mir.WithOperands(head),
			mir.WithMovedRegion(n.Region(3)),
		)
		rw.Replace(n, repl)
		return repl, true

	default:
		return nil, false
	}
}

// singleLoop returns the loop node when the macro expansion region
// holds exactly one node and it is a loop.
func singleLoop(n *mir.Node) (*mir.Node, bool) {
	if n.NumRegions() != 1 {
		return nil, false
	}
	body := n.Region(0)
	if body.NumNodes() != 1 {
		return nil, false
	}
	loop := body.Nodes()[0]
	if loop.Kind() != mir.KindFor {
		return nil, false
	}
	return loop, true
}

// matchListLoop structurally matches the expanded list_for_each shape:
//
//	for (pos = head->next; pos != head; pos = pos->next) body
//
// and returns the head node. Every part of the header must line up:
// the same pos definition threads through init, cond, and incr, and
// the same head node appears in init and cond. Any deviation declines.
func matchListLoop(loop *mir.Node) (*mir.Node, bool) {
	if loop.Kind() != mir.KindFor || loop.NumRegions() != 4 {
		return nil, false
	}

	// init: pos = head->next
	init := loop.Region(0)
	if init.NumNodes() != 2 {
		return nil, false
	}
	initMember, initAssign := init.Nodes()[0], init.Nodes()[1]
	if !isNextMember(initMember) || initAssign.Kind() != mir.KindAssign {
		return nil, false
	}
	if initAssign.NumOperands() != 2 || initAssign.Operand(1) != initMember {
		return nil, false
	}
	pos := initAssign.Operand(0)
	head := initMember.Operand(0)

	// cond: pos != head
	cond := loop.Region(1)
	if cond.NumNodes() != 1 {
		return nil, false
	}
	ne := cond.Nodes()[0]
	op, _ := ne.StringAttr("op")
	if ne.Kind() != mir.KindBinOp || op != "!=" || ne.NumOperands() != 2 {
		return nil, false
	}
	if ne.Operand(0) != pos || ne.Operand(1) != head {
		return nil, false
	}

	// incr: pos = pos->next
	incr := loop.Region(2)
	if incr.NumNodes() != 2 {
		return nil, false
	}
	incrMember, incrAssign := incr.Nodes()[0], incr.Nodes()[1]
	if !isNextMember(incrMember) || incrAssign.Kind() != mir.KindAssign {
		return nil, false
	}
	if incrMember.Operand(0) != pos {
		return nil, false
	}
	if incrAssign.NumOperands() != 2 || incrAssign.Operand(0) != pos || incrAssign.Operand(1) != incrMember {
		return nil, false
	}

	return head, true
}

// isNextMember matches an x->next member access.
func isNextMember(n *mir.Node) bool {
	if n.Kind() != mir.KindMember || n.NumOperands() != 1 {
		return false
	}
	member, _ := n.StringAttr("member")
	arrow, _ := n.IntAttr("arrow")
	return member == "next" && arrow == 1
}
