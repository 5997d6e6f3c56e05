package frontend

import (
	"strings"

	"github.com/macrolens/macrolens/internal/cst"
)

// argShape says how one macro argument is treated: parsed as an
// expression, or carried as raw type-level text.
type argShape int

const (
	argExpr argShape = iota
	argText
)

// macroDef describes one catalog entry: its arity and argument
// shapes, whether it expands to a statement, whether it consumes a
// trailing block as a loop or safety body, and its expansion template.
type macroDef struct {
	name       string
	args       []argShape
	stmt       bool
	takesBlock bool
	expandExpr func(x *expander, inv *invocation) cst.Expr
	expandStmt func(x *expander, inv *invocation) cst.Stmt
}

// invocation is one recognized use of a catalog macro.
type invocation struct {
	pos      cst.Pos
	rawArgs  []string
	argExprs []cst.Expr // parallel to rawArgs; nil at argText positions
	body     cst.Stmt   // trailing block for takesBlock macros
}

// expander mints literals (and sentinel registrations) during template
// expansion on behalf of the session.
type expander struct {
	lits      *cst.LitArena
	sentinels *cst.SentinelSet
}

func (x *expander) intLit(pos cst.Pos, value int64, sentinel bool) *cst.IntLit {
	lit := &cst.IntLit{P: pos, ID: x.lits.Next(), Value: value, Text: "0"}
	if sentinel {
		x.sentinels.Add(lit.ID)
	}
	return lit
}

// Catalog is the fixed set of macros the front end knows how to
// expand. Safety macro names are configurable; the kernel idioms are
// not.
type Catalog struct {
	defs map[string]*macroDef
}

// NewCatalog builds the catalog. safetyMacros names the statement
// macros that encode the safe/unsafe convention (conventionally just
// "unsafe").
func NewCatalog(safetyMacros []string) *Catalog {
	c := &Catalog{defs: make(map[string]*macroDef)}
	c.add(&macroDef{
		name:       "offsetof",
		args:       []argShape{argText, argText},
		expandExpr: expandOffsetOf,
	})
	c.add(&macroDef{
		name:       "container_of",
		args:       []argShape{argExpr, argText, argText},
		expandExpr: expandContainerOf,
	})
	c.add(&macroDef{
		name:       "get_user",
		args:       []argShape{argExpr, argExpr},
		expandExpr: expandGetUser,
	})
	c.add(&macroDef{
		name:       "rcu_dereference",
		args:       []argShape{argExpr},
		expandExpr: expandRCUDereference,
	})
	c.add(&macroDef{
		name: "rcu_read_lock",
		stmt: true,
		expandStmt: func(x *expander, inv *invocation) cst.Stmt {
			return underscoreCall(inv.pos, "rcu_read_lock")
		},
	})
	c.add(&macroDef{
		name: "rcu_read_unlock",
		stmt: true,
		expandStmt: func(x *expander, inv *invocation) cst.Stmt {
			return underscoreCall(inv.pos, "rcu_read_unlock")
		},
	})
	c.add(&macroDef{
		name: "smp_mb",
		stmt: true,
		expandStmt: func(x *expander, inv *invocation) cst.Stmt {
			return underscoreCall(inv.pos, "smp_mb")
		},
	})
	c.add(&macroDef{
		name:       "list_for_each",
		args:       []argShape{argExpr, argExpr},
		stmt:       true,
		takesBlock: true,
		expandStmt: expandListForEach,
	})
	for _, name := range safetyMacros {
		c.add(&macroDef{
			name:       name,
			stmt:       true,
			takesBlock: true,
			expandStmt: expandSafetyBlock,
		})
	}
	return c
}

func (c *Catalog) add(def *macroDef) {
	c.defs[def.name] = def
}

// lookup returns the definition for name, if cataloged.
func (c *Catalog) lookup(name string) (*macroDef, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// expand builds the provenance-wrapped expansion for one invocation.
// The raw argument count must match the definition's arity; the caller
// validated that before calling.
func (c *Catalog) expand(x *expander, def *macroDef, inv *invocation) cst.Node {
	if def.stmt {
		return &cst.MacroStmt{
			P:         inv.pos,
			Name:      def.name,
			RawArgs:   inv.rawArgs,
			ArgExprs:  exprArgs(inv),
			Expansion: def.expandStmt(x, inv),
		}
	}
	return &cst.MacroExpr{
		P:         inv.pos,
		Name:      def.name,
		RawArgs:   inv.rawArgs,
		ArgExprs:  exprArgs(inv),
		Expansion: def.expandExpr(x, inv),
	}
}

func exprArgs(inv *invocation) []cst.Expr {
	args := make([]cst.Expr, 0, len(inv.argExprs))
	for _, e := range inv.argExprs {
		if e != nil {
			args = append(args, e)
		}
	}
	return args
}

// expandOffsetOf builds ((unsigned long)&((type *)0)->member).
func expandOffsetOf(x *expander, inv *invocation) cst.Expr {
	typeName := strings.TrimSpace(inv.rawArgs[0])
	member := strings.TrimSpace(inv.rawArgs[1])
	return &cst.CastExpr{
		P:    inv.pos,
		Type: "unsigned long",
		X: &cst.UnaryExpr{
			P:  inv.pos,
			Op: "&",
			X: &cst.MemberExpr{
				P: inv.pos,
				X: &cst.CastExpr{
					P:    inv.pos,
					Type: typeName + " *",
					X:    x.intLit(inv.pos, 0, false),
				},
				Member: member,
				Arrow:  true,
			},
		},
	}
}

// expandContainerOf builds ((type *)((char *)(ptr) - offsetof(type,
// member))). The inner offsetof goes through the catalog again, so the
// nested macro keeps its own provenance node.
func expandContainerOf(x *expander, inv *invocation) cst.Expr {
	ptr := inv.argExprs[0]
	typeName := strings.TrimSpace(inv.rawArgs[1])
	member := strings.TrimSpace(inv.rawArgs[2])
	inner := &invocation{
		pos:      inv.pos,
		rawArgs:  []string{typeName, member},
		argExprs: []cst.Expr{nil, nil},
	}
	offset := &cst.MacroExpr{
		P:         inv.pos,
		Name:      "offsetof",
		RawArgs:   inner.rawArgs,
		Expansion: expandOffsetOf(x, inner),
	}
	return &cst.CastExpr{
		P:    inv.pos,
		Type: typeName + " *",
		X: &cst.BinaryExpr{
			P:  inv.pos,
			Op: "-",
			X:  &cst.CastExpr{P: inv.pos, Type: "char *", X: ptr},
			Y:  offset,
		},
	}
}

// expandGetUser builds dest = *ptr, the unchecked shape the idiom
// reduces to once the access-ok ceremony is stripped.
func expandGetUser(x *expander, inv *invocation) cst.Expr {
	return &cst.AssignExpr{
		P:   inv.pos,
		LHS: inv.argExprs[0],
		RHS: &cst.UnaryExpr{P: inv.pos, Op: "*", X: inv.argExprs[1]},
	}
}

// expandRCUDereference keeps the pointer expression itself; the
// barrier ceremony contributes nothing structural.
func expandRCUDereference(x *expander, inv *invocation) cst.Expr {
	return inv.argExprs[0]
}

// expandListForEach builds the canonical traversal loop:
//
//	for (pos = head->next; pos != head; pos = pos->next) body
func expandListForEach(x *expander, inv *invocation) cst.Stmt {
	pos, head := inv.argExprs[0], inv.argExprs[1]
	body := inv.body
	if body == nil {
		body = &cst.EmptyStmt{P: inv.pos}
	}
	return &cst.ForStmt{
		P:    inv.pos,
		Init: &cst.AssignExpr{P: inv.pos, LHS: pos, RHS: nextOf(inv.pos, head)},
		Cond: &cst.BinaryExpr{P: inv.pos, Op: "!=", X: pos, Y: head},
		Post: &cst.AssignExpr{P: inv.pos, LHS: pos, RHS: nextOf(inv.pos, pos)},
		Body: body,
	}
}

// expandSafetyBlock builds if (0) ; else body, minting the sentinel
// literal and recording its identity for the safety tag recognizer.
func expandSafetyBlock(x *expander, inv *invocation) cst.Stmt {
	body := inv.body
	if body == nil {
		body = &cst.EmptyStmt{P: inv.pos}
	}
	return &cst.IfStmt{
		P:    inv.pos,
		Cond: x.intLit(inv.pos, 0, true),
		Then: &cst.EmptyStmt{P: inv.pos},
		Else: body,
	}
}

func nextOf(p cst.Pos, x cst.Expr) cst.Expr {
	return &cst.MemberExpr{P: p, X: x, Member: "next", Arrow: true}
}

func underscoreCall(p cst.Pos, name string) cst.Stmt {
	return &cst.ExprStmt{
		P: p,
		X: &cst.CallExpr{
			P:   p,
			Fun: &cst.Ident{P: p, Name: "__" + name},
		},
	}
}
