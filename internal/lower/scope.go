package lower

import "github.com/macrolens/macrolens/internal/mir"

// Scope maps names to their defining mir nodes during lowering. Scopes
// nest lexically; lookup walks outward.
type Scope struct {
	parent *Scope
	defs   map[string]*mir.Node
}

// NewScope creates a scope nested in parent (nil for the outermost).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, defs: make(map[string]*mir.Node)}
}

// Define binds name to its defining node in this scope, shadowing any
// outer binding.
func (s *Scope) Define(name string, n *mir.Node) {
	s.defs[name] = n
}

// Lookup resolves name against this scope and its ancestors.
func (s *Scope) Lookup(name string) (*mir.Node, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if n, ok := cur.defs[name]; ok {
			return n, true
		}
	}
	return nil, false
}
