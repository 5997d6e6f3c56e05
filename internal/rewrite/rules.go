package rewrite

import "github.com/macrolens/macrolens/internal/mir"

// Rule is one named rewrite pattern. Rewrite returns the replacement
// node and true when it matched and rewrote the site; (nil, false)
// means the rule declined and the tree is unchanged.
type Rule struct {
	Name    string
	Rewrite func(rw *Rewriter, n *mir.Node) (*mir.Node, bool)
}

// Patterns is the fixed pattern library, assembled once per process
// and shared read-only across invocations. Order matters only for
// determinism; each rule targets a disjoint idiom.
var Patterns = []Rule{
	{Name: "get_user", Rewrite: rewriteGetUser},
	{Name: "offsetof", Rewrite: rewriteOffsetOf},
	{Name: "container_of", Rewrite: rewriteContainerOf},
	{Name: "rcu_dereference", Rewrite: rewriteRCUDereference},
	{Name: "smp_mb", Rewrite: rewriteSMPMB},
	{Name: "list_for_each", Rewrite: rewriteListForEach},
	{Name: "rcu_read_unlock", Rewrite: rewriteRCUReadUnlock},
	{Name: "safe_unsafe", Rewrite: rewriteSafeUnsafe},
}

// RuleNames returns the names in table order.
func RuleNames() []string {
	names := make([]string, len(Patterns))
	for i, r := range Patterns {
		names[i] = r.Name
	}
	return names
}

// macroName returns the provenance attribute of a macro expansion
// node, or ok=false for any other kind.
func macroName(n *mir.Node) (string, bool) {
	if n.Kind() != mir.KindMacroExpansion {
		return "", false
	}
	return n.StringAttr("macro")
}

// callee returns the direct callee of a call node, or ok=false for
// indirect calls and other kinds.
func callee(n *mir.Node) (string, bool) {
	if n.Kind() != mir.KindCall {
		return "", false
	}
	return n.StringAttr("callee")
}
