package treedoc

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/macrolens/macrolens/internal/cst"
)

// LoadFile reads a CUE tree document and builds the translation unit,
// drawing literal identities from lits and recording marked sentinels.
func LoadFile(path string, lits *cst.LitArena, sentinels *cst.SentinelSet) (*cst.TranslationUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree document: %w", err)
	}
	return Load(path, data, lits, sentinels)
}

// Load builds the translation unit from CUE document bytes.
func Load(path string, data []byte, lits *cst.LitArena, sentinels *cst.SentinelSet) (*cst.TranslationUnit, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile tree document %s: %w", path, err)
	}
	unit := v.LookupPath(cue.ParsePath("unit"))
	if !unit.Exists() {
		return nil, fmt.Errorf("tree document %s: missing \"unit\" field", path)
	}
	var doc docUnit
	if err := unit.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tree document %s: %w", path, err)
	}
	conv := &converter{lits: lits, sentinels: sentinels, file: doc.File}
	return conv.unit(&doc)
}

// Document shapes. CUE decodes through the JSON tags.

type docUnit struct {
	File  string    `json:"file"`
	Funcs []docFunc `json:"funcs"`
}

type docFunc struct {
	Name string    `json:"name"`
	Body []docStmt `json:"body"`
}

type docStmt struct {
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`

	// if
	Cond *docExpr  `json:"cond,omitempty"`
	Then []docStmt `json:"then,omitempty"`
	Else []docStmt `json:"else,omitempty"`

	// for
	Init *docExpr  `json:"init,omitempty"`
	Post *docExpr  `json:"post,omitempty"`
	Body []docStmt `json:"body,omitempty"`

	// expr
	X *docExpr `json:"x,omitempty"`

	// decl
	Type  string   `json:"type,omitempty"`
	Name  string   `json:"name,omitempty"`
	Value *docExpr `json:"value,omitempty"`

	// macro
	Macro     string    `json:"macro,omitempty"`
	RawArgs   []string  `json:"raw_args,omitempty"`
	Args      []docExpr `json:"args,omitempty"`
	Expansion []docStmt `json:"expansion,omitempty"`
}

type docExpr struct {
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`

	Value    int64  `json:"value,omitempty"`
	Sentinel bool   `json:"sentinel,omitempty"`
	Name     string `json:"name,omitempty"`
	Op       string `json:"op,omitempty"`
	Member   string `json:"member,omitempty"`
	Arrow    bool   `json:"arrow,omitempty"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`

	X    *docExpr  `json:"x,omitempty"`
	Y    *docExpr  `json:"y,omitempty"`
	Fun  *docExpr  `json:"fun,omitempty"`
	Args []docExpr `json:"args,omitempty"`

	Macro     string   `json:"macro,omitempty"`
	RawArgs   []string `json:"raw_args,omitempty"`
	Expansion *docExpr `json:"expansion,omitempty"`
}

type converter struct {
	lits      *cst.LitArena
	sentinels *cst.SentinelSet
	file      string
}

func (c *converter) pos(line, col int) cst.Pos {
	return cst.Pos{File: c.file, Line: line, Col: col}
}

func (c *converter) unit(doc *docUnit) (*cst.TranslationUnit, error) {
	tu := &cst.TranslationUnit{File: doc.File}
	for i := range doc.Funcs {
		fn := &doc.Funcs[i]
		body, err := c.stmts(fn.Body)
		if err != nil {
			return nil, fmt.Errorf("func %s: %w", fn.Name, err)
		}
		tu.Funcs = append(tu.Funcs, &cst.FuncDef{
			Name: fn.Name,
			Body: &cst.CompoundStmt{Stmts: body},
		})
	}
	return tu, nil
}

func (c *converter) stmts(docs []docStmt) ([]cst.Stmt, error) {
	out := make([]cst.Stmt, 0, len(docs))
	for i := range docs {
		s, err := c.stmt(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *converter) stmt(d *docStmt) (cst.Stmt, error) {
	p := c.pos(d.Line, d.Col)
	switch d.Kind {
	case "block":
		body, err := c.stmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &cst.CompoundStmt{P: p, Stmts: body}, nil

	case "if":
		if d.Cond == nil {
			return nil, fmt.Errorf("if statement without cond")
		}
		cond, err := c.expr(d.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.stmts(d.Then)
		if err != nil {
			return nil, err
		}
		s := &cst.IfStmt{P: p, Cond: cond, Then: &cst.CompoundStmt{P: p, Stmts: then}}
		if d.Else != nil {
			els, err := c.stmts(d.Else)
			if err != nil {
				return nil, err
			}
			s.Else = &cst.CompoundStmt{P: p, Stmts: els}
		}
		return s, nil

	case "for":
		s := &cst.ForStmt{P: p}
		var err error
		if d.Init != nil {
			if s.Init, err = c.expr(d.Init); err != nil {
				return nil, err
			}
		}
		if d.Cond != nil {
			if s.Cond, err = c.expr(d.Cond); err != nil {
				return nil, err
			}
		}
		if d.Post != nil {
			if s.Post, err = c.expr(d.Post); err != nil {
				return nil, err
			}
		}
		body, err := c.stmts(d.Body)
		if err != nil {
			return nil, err
		}
		s.Body = &cst.CompoundStmt{P: p, Stmts: body}
		return s, nil

	case "expr":
		if d.X == nil {
			return nil, fmt.Errorf("expr statement without x")
		}
		x, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		return &cst.ExprStmt{P: p, X: x}, nil

	case "decl":
		s := &cst.DeclStmt{P: p, Type: d.Type, Name: d.Name}
		if d.Value != nil {
			init, err := c.expr(d.Value)
			if err != nil {
				return nil, err
			}
			s.Init = init
		}
		return s, nil

	case "empty":
		return &cst.EmptyStmt{P: p}, nil

	case "macro":
		args, err := c.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		expansion, err := c.stmts(d.Expansion)
		if err != nil {
			return nil, err
		}
		return &cst.MacroStmt{
			P:         p,
			Name:      d.Macro,
			RawArgs:   d.RawArgs,
			ArgExprs:  args,
			Expansion: &cst.CompoundStmt{P: p, Stmts: expansion},
		}, nil

	default:
		return nil, fmt.Errorf("unknown statement kind %q", d.Kind)
	}
}

func (c *converter) exprs(docs []docExpr) ([]cst.Expr, error) {
	out := make([]cst.Expr, 0, len(docs))
	for i := range docs {
		e, err := c.expr(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *converter) expr(d *docExpr) (cst.Expr, error) {
	if d == nil {
		return nil, fmt.Errorf("missing expression")
	}
	p := c.pos(d.Line, d.Col)
	switch d.Kind {
	case "int":
		lit := &cst.IntLit{P: p, ID: c.lits.Next(), Value: d.Value}
		if d.Sentinel {
			c.sentinels.Add(lit.ID)
		}
		return lit, nil

	case "ident":
		return &cst.Ident{P: p, Name: d.Name}, nil

	case "call":
		if d.Fun == nil {
			return nil, fmt.Errorf("call without fun")
		}
		fun, err := c.expr(d.Fun)
		if err != nil {
			return nil, err
		}
		args, err := c.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &cst.CallExpr{P: p, Fun: fun, Args: args}, nil

	case "unary":
		x, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{P: p, Op: d.Op, X: x}, nil

	case "binary":
		x, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		y, err := c.expr(d.Y)
		if err != nil {
			return nil, err
		}
		return &cst.BinaryExpr{P: p, Op: d.Op, X: x, Y: y}, nil

	case "assign":
		lhs, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		rhs, err := c.expr(d.Y)
		if err != nil {
			return nil, err
		}
		return &cst.AssignExpr{P: p, LHS: lhs, RHS: rhs}, nil

	case "member":
		x, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		return &cst.MemberExpr{P: p, X: x, Member: d.Member, Arrow: d.Arrow}, nil

	case "cast":
		x, err := c.expr(d.X)
		if err != nil {
			return nil, err
		}
		return &cst.CastExpr{P: p, Type: d.Type, X: x}, nil

	case "raw":
		return &cst.RawExpr{P: p, Text: d.Text}, nil

	case "macro":
		args, err := c.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		var expansion cst.Expr
		if d.Expansion != nil {
			if expansion, err = c.expr(d.Expansion); err != nil {
				return nil, err
			}
		}
		return &cst.MacroExpr{
			P:         p,
			Name:      d.Macro,
			RawArgs:   d.RawArgs,
			ArgExprs:  args,
			Expansion: expansion,
		}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind %q", d.Kind)
	}
}
