package mir

import (
	"fmt"
	"slices"
)

// NodeID is the arena-assigned identity of a node. IDs are stable for
// the life of one translation session and are never reused, so identity
// comparisons (such as sentinel-set membership) are safe even after
// nodes are replaced or removed.
type NodeID uint32

// Location is a source position carried through lowering and rewriting.
// Rewrites preserve the location of the node they replace.
type Location struct {
	File string
	Line int
	Col  int
}

// Unknown reports whether the location carries no position.
func (l Location) Unknown() bool {
	return l.File == "" && l.Line == 0 && l.Col == 0
}

func (l Location) String() string {
	if l.Unknown() {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Node is a typed element of the intermediate tree. A node has a kind,
// an ordered sequence of operand references to other nodes, zero or
// more nested regions, a source location, and named attributes.
//
// Operand references must resolve to nodes that dominate their use
// (defined earlier in the owning region, in an enclosing region, or as
// a region argument). The front end is trusted to establish this; the
// core does not re-validate it.
type Node struct {
	id       NodeID
	kind     Kind
	loc      Location
	operands []*Node
	regions  []*Region
	attrs    map[string]AttrValue
	parent   *Region
}

// ID returns the node's arena-assigned identity.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// Loc returns the node's source location.
func (n *Node) Loc() Location { return n.loc }

// NumOperands returns the number of operand references.
func (n *Node) NumOperands() int { return len(n.operands) }

// Operand returns the i-th operand reference.
func (n *Node) Operand(i int) *Node { return n.operands[i] }

// Operands returns the operand slice. Callers must not mutate it;
// structural changes go through Replace and Remove.
func (n *Node) Operands() []*Node { return n.operands }

// NumRegions returns the number of nested regions.
func (n *Node) NumRegions() int { return len(n.regions) }

// Region returns the i-th nested region.
func (n *Node) Region(i int) *Region { return n.regions[i] }

// Regions returns the region slice. Callers must not mutate it.
func (n *Node) Regions() []*Region { return n.regions }

// Parent returns the region the node is inserted in, or nil for a
// detached node (the module root, or a replacement not yet inserted).
func (n *Node) Parent() *Region { return n.parent }

// Attr returns the named attribute value.
func (n *Node) Attr(name string) (AttrValue, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// StringAttr returns the named attribute as a string. It accepts both
// AttrString and AttrSymbol values, since shape matching cares about
// the text, not the flavor.
func (n *Node) StringAttr(name string) (string, bool) {
	switch v := n.attrs[name].(type) {
	case AttrString:
		return string(v), true
	case AttrSymbol:
		return string(v), true
	default:
		return "", false
	}
}

// IntAttr returns the named attribute as an int64.
func (n *Node) IntAttr(name string) (int64, bool) {
	if v, ok := n.attrs[name].(AttrInt); ok {
		return int64(v), true
	}
	return 0, false
}

// AttrNames returns the attribute names in sorted order for
// deterministic emission.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Region is an ordered sequence of nodes owned exclusively by the node
// that contains it. A region has zero or more formal arguments bound at
// its entry; arguments are KindRegionArg nodes and dominate everything
// in the region.
type Region struct {
	owner *Node
	args  []*Node
	nodes []*Node
}

// Owner returns the node that owns this region.
func (r *Region) Owner() *Node { return r.owner }

// Args returns the region's formal arguments.
func (r *Region) Args() []*Node { return r.args }

// Nodes returns the region's nodes in order. Callers must not mutate
// the slice.
func (r *Region) Nodes() []*Node { return r.nodes }

// NumNodes returns the number of nodes in the region.
func (r *Region) NumNodes() int { return len(r.nodes) }

// Empty reports whether the region holds no nodes.
func (r *Region) Empty() bool { return len(r.nodes) == 0 }

func (r *Region) append(n *Node) {
	n.parent = r
	r.nodes = append(r.nodes, n)
}

func (r *Region) indexOf(n *Node) int {
	for i, cand := range r.nodes {
		if cand == n {
			return i
		}
	}
	return -1
}
