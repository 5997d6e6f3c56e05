package rewrite

import "github.com/macrolens/macrolens/internal/mir"

// allowedKinds restricts which nodes are ever offered to the pattern
// library: the plausible macro-idiom sites. Nodes of any other kind
// pass through untouched even when an idiom-shaped subtree hides
// beneath them; their region contents are still visited independently.
var allowedKinds = map[mir.Kind]bool{
	mir.KindMacroExpansion: true,
	mir.KindFor:            true,
	mir.KindCall:           true,
	mir.KindIf:             true,
}

// Apply walks every node in the module exactly once in pre-order,
// outer to inner, and applies the pattern library to each allow-listed
// node until no rule matches: a local fixpoint scoped to the single
// site, not a whole-tree repeated pass. The tree is mutated in place.
//
// A rule that declines or panics on a malformed shape does not abort
// the walk; the site is simply left as-is and the walk continues.
func (rw *Rewriter) Apply() {
	for _, r := range rw.root.Regions() {
		rw.applyRegion(r)
	}
}

func (rw *Rewriter) applyRegion(r *mir.Region) {
	for i := 0; i < r.NumNodes(); i++ {
		n := rw.applySite(r.Nodes()[i])
		for _, sub := range n.Regions() {
			rw.applyRegion(sub)
		}
	}
}

// applySite runs the local fixpoint at one node, following
// replacements so newly produced nodes occupying the position are
// offered to the library again. Returns whatever node holds the
// position when no rule matches any longer.
func (rw *Rewriter) applySite(n *mir.Node) *mir.Node {
	for {
		if !allowedKinds[n.Kind()] {
			return n
		}
		repl, ok := rw.applyRules(n)
		if !ok {
			return n
		}
		n = repl
	}
}

func (rw *Rewriter) applyRules(n *mir.Node) (repl *mir.Node, ok bool) {
	for _, rule := range rw.rules {
		if r, matched := rw.applyOne(rule, n); matched {
			return r, true
		}
	}
	return nil, false
}

// applyOne isolates a single rule application so a malformed match
// cannot take down the whole conversion pass.
func (rw *Rewriter) applyOne(rule Rule, n *mir.Node) (repl *mir.Node, ok bool) {
	defer func() {
		if recover() != nil {
			repl, ok = nil, false
		}
	}()
	return rule.Rewrite(rw, n)
}
