package mir

// Kind identifies the operation a Node performs.
//
// The enumeration is closed: every consumer (lowering, rewriting,
// emission) dispatches on Kind with an exhaustive switch, so adding a
// kind here forces every dispatch site to handle it. Kinds fall into
// three groups: structural kinds produced by lowering, the macro
// provenance kind, and semantic kernel kinds produced by rewriting.
type Kind int

const (
	KindInvalid Kind = iota

	// Structural kinds, produced by lowering.
	KindModule    // translation unit root, one region
	KindFunc      // function definition, one body region
	KindBlock     // compound statement, one region
	KindRegionArg // formal argument bound at a region's entry
	KindDecl      // local declaration, attrs: name, type; optional init operand
	KindIntLit    // integer literal, attrs: value, lit_id (source identity)
	KindSymbolRef // reference to a named symbol, attrs: name
	KindUnOp      // unary operation, attrs: op; one operand
	KindBinOp     // binary operation, attrs: op; two operands
	KindAssign    // assignment, two operands (lhs, rhs)
	KindMember    // member access, attrs: member, arrow; one operand
	KindCast      // cast, attrs: type; one operand
	KindCall      // call, attrs: callee; argument operands
	KindOpaque    // unmodeled source expression, attrs: text
	KindFor       // loop, four regions: init, cond, incr, body
	KindIf        // conditional, one cond operand, then/else regions

	// Macro provenance.
	KindMacroExpansion // attrs: macro, argN raw text; one expansion region

	// Safety tagging.
	KindUnsafeRegion // one region holding the tagged branch

	// Semantic kernel kinds, produced by the pattern library.
	KindGetUser        // unchecked user read, attrs: dest; one pointer operand
	KindOffsetOf       // member byte offset, attrs: type, member; no operands
	KindContainerOf    // container-of cast, attrs: type, member; one operand
	KindRCUDereference // critical-section dereference; one pointer operand
	KindRCUReadLock    // critical-section enter
	KindRCUReadUnlock  // critical-section exit
	KindMemoryBarrier  // full memory barrier, no operands
	KindListIteration  // list iteration, one head operand, one body region
)

var kindNames = map[Kind]string{
	KindInvalid:        "invalid",
	KindModule:         "module",
	KindFunc:           "func",
	KindBlock:          "block",
	KindRegionArg:      "region_arg",
	KindDecl:           "decl",
	KindIntLit:         "int_lit",
	KindSymbolRef:      "symbol_ref",
	KindUnOp:           "unop",
	KindBinOp:          "binop",
	KindAssign:         "assign",
	KindMember:         "member",
	KindCast:           "cast",
	KindCall:           "call",
	KindOpaque:         "opaque",
	KindFor:            "for",
	KindIf:             "if",
	KindMacroExpansion: "macro_expansion",
	KindUnsafeRegion:   "unsafe_region",
	KindGetUser:        "get_user",
	KindOffsetOf:       "offset_of",
	KindContainerOf:    "container_of",
	KindRCUDereference: "rcu_dereference",
	KindRCUReadLock:    "rcu_read_lock",
	KindRCUReadUnlock:  "rcu_read_unlock",
	KindMemoryBarrier:  "memory_barrier",
	KindListIteration:  "list_iteration",
}

// String returns the stable lowercase name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}
