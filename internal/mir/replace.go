package mir

// Walk visits root and every node nested in its regions in pre-order,
// outer to inner. Region arguments are not visited. If f returns false
// for a node, its regions are skipped.
func Walk(root *Node, f func(*Node) bool) {
	if root == nil {
		return
	}
	if !f(root) {
		return
	}
	for _, r := range root.regions {
		for _, n := range r.nodes {
			Walk(n, f)
		}
	}
}

// Replace swaps old for repl at old's position in its owning region,
// redirects every operand use of old under root to repl, and preserves
// old's location when repl carries none. After Replace, old is detached
// and must not be reused.
//
// The swap is atomic from the tree's point of view: either the rule
// assembled a complete replacement and it lands in one step, or the
// rule declined and nothing was touched.
func Replace(root *Node, old, repl *Node) {
	if repl.loc.Unknown() {
		repl.loc = old.loc
	}
	RedirectUses(root, old, repl)
	parent := old.parent
	if parent == nil {
		return
	}
	if i := parent.indexOf(old); i >= 0 {
		parent.nodes[i] = repl
		repl.parent = parent
	}
	old.parent = nil
}

// RedirectUses rewrites every operand reference to old under root to
// point at repl instead. Uses inside old itself are left alone since
// old is about to be discarded.
func RedirectUses(root *Node, old, repl *Node) {
	Walk(root, func(n *Node) bool {
		if n == old {
			return false
		}
		for i, op := range n.operands {
			if op == old {
				n.operands[i] = repl
			}
		}
		return true
	})
}

// Remove detaches n from its owning region. Operand references to n
// are not redirected; callers that still have uses must Replace
// instead.
func Remove(n *Node) {
	parent := n.parent
	if parent == nil {
		return
	}
	if i := parent.indexOf(n); i >= 0 {
		parent.nodes = append(parent.nodes[:i], parent.nodes[i+1:]...)
	}
	n.parent = nil
}
