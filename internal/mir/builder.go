package mir

// Arena assigns stable node identities for one translation session.
// Identity-based set membership (the safety sentinel set) relies on IDs
// never being reused, so the counter only moves forward.
type Arena struct {
	next NodeID
}

// NewArena creates an empty arena. The zero NodeID is reserved so an
// uninitialized ID never aliases a real node.
func NewArena() *Arena {
	return &Arena{next: 1}
}

func (a *Arena) nextID() NodeID {
	id := a.next
	a.next++
	return id
}

// BuildOpt configures a node under construction.
type BuildOpt func(*Node)

// WithOperands sets the node's operand references in order.
func WithOperands(ops ...*Node) BuildOpt {
	return func(n *Node) {
		n.operands = append(n.operands, ops...)
	}
}

// WithAttr sets a named attribute.
func WithAttr(name string, v AttrValue) BuildOpt {
	return func(n *Node) {
		if n.attrs == nil {
			n.attrs = make(map[string]AttrValue)
		}
		n.attrs[name] = v
	}
}

// WithRegions allocates count empty regions on the node.
func WithRegions(count int) BuildOpt {
	return func(n *Node) {
		for i := 0; i < count; i++ {
			n.regions = append(n.regions, &Region{owner: n})
		}
	}
}

// WithMovedRegion transfers an existing region onto the node, detaching
// it from its previous owner. The region's arguments and nodes move
// with it unchanged; this is how a rewrite preserves a loop body
// verbatim.
func WithMovedRegion(src *Region) BuildOpt {
	return func(n *Node) {
		if src.owner != nil {
			owner := src.owner
			for i, r := range owner.regions {
				if r == src {
					owner.regions = append(owner.regions[:i], owner.regions[i+1:]...)
					break
				}
			}
		}
		src.owner = n
		n.regions = append(n.regions, src)
	}
}

// Builder constructs nodes at a current insertion point. It is the only
// way nodes enter a region, which keeps ordering (and therefore
// dominance) an append-only property of construction.
type Builder struct {
	arena  *Arena
	insert *Region
}

// NewBuilder creates a builder over the given arena with no insertion
// point set.
func NewBuilder(arena *Arena) *Builder {
	return &Builder{arena: arena}
}

// Arena returns the builder's arena.
func (b *Builder) Arena() *Arena { return b.arena }

// SetInsertionPoint directs subsequent Build calls to append to r.
func (b *Builder) SetInsertionPoint(r *Region) { b.insert = r }

// InsertionPoint returns the current insertion region, or nil.
func (b *Builder) InsertionPoint() *Region { return b.insert }

// BuildModule creates a detached module root with a single region and
// leaves the insertion point inside it.
func (b *Builder) BuildModule(loc Location) *Node {
	mod := b.Detached(KindModule, loc, WithRegions(1))
	b.insert = mod.Region(0)
	return mod
}

// Build creates a node and appends it at the current insertion point.
func (b *Builder) Build(kind Kind, loc Location, opts ...BuildOpt) *Node {
	n := b.Detached(kind, loc, opts...)
	if b.insert != nil {
		b.insert.append(n)
	}
	return n
}

// Detached creates a node without inserting it anywhere. Rewrite rules
// use this to assemble a replacement before swapping it in atomically.
func (b *Builder) Detached(kind Kind, loc Location, opts ...BuildOpt) *Node {
	n := &Node{
		id:   b.arena.nextID(),
		kind: kind,
		loc:  loc,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddRegionArg binds a new formal argument at the entry of r and
// returns it. Arguments dominate every node in the region.
func (b *Builder) AddRegionArg(r *Region, name string, loc Location) *Node {
	arg := b.Detached(KindRegionArg, loc, WithAttr("name", AttrSymbol(name)))
	arg.parent = r
	r.args = append(r.args, arg)
	return arg
}

// PopulateRegion runs populate with the insertion point moved into the
// i-th region of n, restoring the previous insertion point afterwards.
// This is the explicit two-phase build: allocate the owning node first,
// then fill its region.
func (b *Builder) PopulateRegion(n *Node, i int, populate func(*Builder)) {
	saved := b.insert
	b.insert = n.Region(i)
	populate(b)
	b.insert = saved
}
