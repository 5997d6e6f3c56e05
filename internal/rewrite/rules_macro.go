package rewrite

import "github.com/macrolens/macrolens/internal/mir"

// rewriteGetUser replaces an expanded get_user(dest, ptr) with an
// explicit unchecked user-space read. The source pointer stays as the
// sole operand; the destination is carried as raw argument text.
func rewriteGetUser(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok || name != "get_user" {
		return nil, false
	}
	dest, ok := n.StringAttr("arg0")
	if !ok {
		return nil, false
	}
	if _, ok := n.StringAttr("arg1"); !ok {
		return nil, false
	}
	if n.NumOperands() != 2 {
		return nil, false
	}
	ptr := n.Operand(1)

	repl := rw.Builder().Detached(mir.KindGetUser, mir.Location{},
		mir.WithAttr("dest", mir.AttrString(dest)),
		mir.WithOperands(ptr),
	)
	rw.Replace(n, repl)
	return repl, true
}

// rewriteOffsetOf replaces an expanded offsetof(type, member) with a
// pure member-byte-offset computation keyed by type and member name.
// The expanded pointer arithmetic is dropped from the tree entirely.
func rewriteOffsetOf(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok || name != "offsetof" {
		return nil, false
	}
	typeName, ok := n.StringAttr("arg0")
	if !ok {
		return nil, false
	}
	member, ok := n.StringAttr("arg1")
	if !ok {
		return nil, false
	}
	// Both arguments are type-level text; an expression operand means
	// this is not the shape offsetof produces.
	if n.NumOperands() != 0 {
		return nil, false
	}

	repl := rw.Builder().Detached(mir.KindOffsetOf, mir.Location{},
		mir.WithAttr("type", mir.AttrSymbol(typeName)),
		mir.WithAttr("member", mir.AttrSymbol(member)),
	)
	rw.Replace(n, repl)
	return repl, true
}

// rewriteContainerOf replaces an expanded container_of(ptr, type,
// member) with a container-of cast: the member pointer as sole
// operand, the enclosing type and member name as attributes.
func rewriteContainerOf(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok || name != "container_of" {
		return nil, false
	}
	if _, ok := n.StringAttr("arg0"); !ok {
		return nil, false
	}
	typeName, ok := n.StringAttr("arg1")
	if !ok {
		return nil, false
	}
	member, ok := n.StringAttr("arg2")
	if !ok {
		return nil, false
	}
	// Only the pointer argument is an expression.
	if n.NumOperands() != 1 {
		return nil, false
	}
	ptr := n.Operand(0)

	repl := rw.Builder().Detached(mir.KindContainerOf, mir.Location{},
		mir.WithAttr("type", mir.AttrSymbol(typeName)),
		mir.WithAttr("member", mir.AttrSymbol(member)),
		mir.WithOperands(ptr),
	)
	rw.Replace(n, repl)
	return repl, true
}

// rewriteRCUDereference replaces an expanded rcu_dereference(p) with a
// critical-section dereference wrapping the pointer operand.
func rewriteRCUDereference(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok || name != "rcu_dereference" {
		return nil, false
	}
	if n.NumOperands() != 1 {
		return nil, false
	}
	ptr := n.Operand(0)

	repl := rw.Builder().Detached(mir.KindRCUDereference, mir.Location{},
		mir.WithOperands(ptr),
	)
	rw.Replace(n, repl)
	return repl, true
}

// rewriteSMPMB replaces smp_mb() with a full memory barrier. The
// idiom appears either as a macro expansion or as a bare call; the
// name must match exactly and the site must have no operands.
func rewriteSMPMB(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok {
		name, ok = callee(n)
	}
	if !ok || name != "smp_mb" {
		return nil, false
	}
	if n.NumOperands() != 0 {
		return nil, false
	}

	repl := rw.Builder().Detached(mir.KindMemoryBarrier, mir.Location{})
	rw.Replace(n, repl)
	return repl, true
}

// rewriteRCUReadUnlock replaces rcu_read_unlock() with an explicit
// critical-section exit.
func rewriteRCUReadUnlock(rw *Rewriter, n *mir.Node) (*mir.Node, bool) {
	name, ok := macroName(n)
	if !ok {
		name, ok = callee(n)
	}
	if !ok || name != "rcu_read_unlock" {
		return nil, false
	}
	if n.NumOperands() != 0 {
		return nil, false
	}

	repl := rw.Builder().Detached(mir.KindRCUReadUnlock, mir.Location{})
	rw.Replace(n, repl)
	return repl, true
}
