package frontend

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"go.uber.org/zap"

	"github.com/macrolens/macrolens/internal/cst"
)

// Parser turns C source into cst trees using tree-sitter. One Parser
// serves one translation session: the literal arena and sentinel set
// it was created with are the session's.
type Parser struct {
	ts      *sitter.Parser
	catalog *Catalog
	x       *expander
	log     *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger attaches a logger for parse diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// NewParser creates a parser bound to a session's literal arena and
// sentinel set.
func NewParser(lits *cst.LitArena, sentinels *cst.SentinelSet, catalog *Catalog, opts ...Option) *Parser {
	ts := sitter.NewParser()
	ts.SetLanguage(c.GetLanguage())
	p := &Parser{
		ts:      ts,
		catalog: catalog,
		x:       &expander{lits: lits, sentinels: sentinels},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// ParseFile reads and parses one C file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*cst.TranslationUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.Parse(ctx, path, src)
}

// Parse parses one C translation unit.
func (p *Parser) Parse(ctx context.Context, file string, src []byte) (*cst.TranslationUnit, error) {
	tree, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	defer tree.Close()

	fc := &fileCtx{file: file, src: src}
	tu := &cst.TranslationUnit{File: file}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "function_definition" {
			continue
		}
		if fn := p.convertFunc(ctx, child, fc); fn != nil {
			tu.Funcs = append(tu.Funcs, fn)
		}
	}
	p.log.Debug("parsed translation unit",
		zap.String("file", file),
		zap.Int("functions", len(tu.Funcs)),
		zap.Int("sentinels", p.x.sentinels.Len()),
	)
	return tu, nil
}

// fileCtx is the per-file conversion state.
type fileCtx struct {
	file string
	src  []byte
}

func (fc *fileCtx) pos(n *sitter.Node) cst.Pos {
	pt := n.StartPoint()
	return cst.Pos{File: fc.file, Line: int(pt.Row) + 1, Col: int(pt.Column) + 1}
}

func (fc *fileCtx) text(n *sitter.Node) string {
	return n.Content(fc.src)
}

func (p *Parser) convertFunc(ctx context.Context, n *sitter.Node, fc *fileCtx) *cst.FuncDef {
	body := n.ChildByFieldName("body")
	if body == nil || body.Type() != "compound_statement" {
		return nil
	}
	name := funcName(n, fc)
	if name == "" {
		return nil
	}
	return &cst.FuncDef{
		P:    fc.pos(n),
		Name: name,
		Body: p.convertCompound(ctx, body, fc),
	}
}

// funcName digs through declarator nesting (pointers, attributes) to
// the function's identifier.
func funcName(n *sitter.Node, fc *fileCtx) string {
	decl := n.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "function_declarator":
			decl = decl.ChildByFieldName("declarator")
		case "pointer_declarator":
			decl = decl.ChildByFieldName("declarator")
		case "identifier":
			return fc.text(decl)
		default:
			return ""
		}
	}
	return ""
}

func (p *Parser) convertCompound(ctx context.Context, n *sitter.Node, fc *fileCtx) *cst.CompoundStmt {
	block := &cst.CompoundStmt{P: fc.pos(n)}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		// Block-taking macros (list_for_each, the safety macro) are
		// written as an invocation followed by a braced block; the block
		// belongs to the macro, not the enclosing compound.
		if def, inv, ok := p.stmtMacro(ctx, child, fc); ok {
			if def.takesBlock && i+1 < count && n.NamedChild(i+1).Type() == "compound_statement" {
				inv.body = p.convertCompound(ctx, n.NamedChild(i+1), fc)
				i++
			}
			block.Stmts = append(block.Stmts, p.catalog.expand(p.x, def, inv).(cst.Stmt))
			continue
		}
		if s := p.convertStmt(ctx, child, fc); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	return block
}

// stmtMacro recognizes a statement that is an invocation of a
// statement-shaped catalog macro: a call to a cataloged name, or for
// argument-less block macros like the safety macro, a bare identifier.
func (p *Parser) stmtMacro(ctx context.Context, n *sitter.Node, fc *fileCtx) (*macroDef, *invocation, bool) {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return nil, nil, false
	}
	inner := n.NamedChild(0)
	switch inner.Type() {
	case "identifier":
		def, ok := p.catalog.lookup(fc.text(inner))
		if !ok || !def.stmt || len(def.args) != 0 {
			return nil, nil, false
		}
		return def, &invocation{pos: fc.pos(inner)}, true
	case "call_expression":
		fn := inner.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			return nil, nil, false
		}
		def, ok := p.catalog.lookup(fc.text(fn))
		if !ok || !def.stmt {
			return nil, nil, false
		}
		inv, ok := p.invocationFor(ctx, def, inner, fc)
		if !ok {
			return nil, nil, false
		}
		return def, inv, true
	default:
		return nil, nil, false
	}
}

// invocationFor validates arity against the catalog definition and
// assembles the invocation: raw text for every argument, parsed
// expressions at expression positions. Any mismatch declines and the
// call is treated as an ordinary call.
func (p *Parser) invocationFor(ctx context.Context, def *macroDef, call *sitter.Node, fc *fileCtx) (*invocation, bool) {
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil, false
	}
	raw := splitArgs(fc.text(argsNode))
	if len(raw) != len(def.args) {
		return nil, false
	}
	pos := fc.pos(call)
	inv := &invocation{pos: pos, rawArgs: raw, argExprs: make([]cst.Expr, len(raw))}
	for i, shape := range def.args {
		if shape != argExpr {
			continue
		}
		e, ok := p.parseExprFragment(ctx, raw[i], pos)
		if !ok {
			return nil, false
		}
		inv.argExprs[i] = e
	}
	return inv, true
}

func (p *Parser) convertStmt(ctx context.Context, n *sitter.Node, fc *fileCtx) cst.Stmt {
	switch n.Type() {
	case "compound_statement":
		return p.convertCompound(ctx, n, fc)

	case "if_statement":
		cond := n.ChildByFieldName("condition")
		var condExpr cst.Expr
		if cond != nil {
			condExpr = p.convertExpr(ctx, unwrapParens(cond), fc)
		} else {
			condExpr = &cst.RawExpr{P: fc.pos(n), Text: ""}
		}
		s := &cst.IfStmt{P: fc.pos(n), Cond: condExpr}
		if then := n.ChildByFieldName("consequence"); then != nil {
			s.Then = p.convertStmt(ctx, then, fc)
		} else {
			s.Then = &cst.EmptyStmt{P: fc.pos(n)}
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// alternative is an else_clause wrapping the actual statement
			if alt.NamedChildCount() > 0 {
				s.Else = p.convertStmt(ctx, alt.NamedChild(0), fc)
			}
		}
		return s

	case "for_statement":
		s := &cst.ForStmt{P: fc.pos(n)}
		if init := n.ChildByFieldName("initializer"); init != nil {
			s.Init = p.convertExpr(ctx, init, fc)
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			s.Cond = p.convertExpr(ctx, cond, fc)
		}
		if post := n.ChildByFieldName("update"); post != nil {
			s.Post = p.convertExpr(ctx, post, fc)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = p.convertStmt(ctx, body, fc)
		} else {
			s.Body = &cst.EmptyStmt{P: fc.pos(n)}
		}
		return s

	case "expression_statement":
		if n.NamedChildCount() == 0 {
			return &cst.EmptyStmt{P: fc.pos(n)}
		}
		x := p.convertExpr(ctx, n.NamedChild(0), fc)
		return &cst.ExprStmt{P: fc.pos(n), X: x}

	case "declaration":
		return p.convertDecl(ctx, n, fc)

	default:
		// Statements outside the modeled subset stay opaque.
		return &cst.ExprStmt{
			P: fc.pos(n),
			X: &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)},
		}
	}
}

func (p *Parser) convertDecl(ctx context.Context, n *sitter.Node, fc *fileCtx) cst.Stmt {
	typeNode := n.ChildByFieldName("type")
	declNode := n.ChildByFieldName("declarator")
	if typeNode == nil || declNode == nil {
		return &cst.ExprStmt{P: fc.pos(n), X: &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}}
	}

	typeName := fc.text(typeNode)
	var init cst.Expr
	if declNode.Type() == "init_declarator" {
		if value := declNode.ChildByFieldName("value"); value != nil {
			init = p.convertExpr(ctx, value, fc)
		}
		declNode = declNode.ChildByFieldName("declarator")
	}
	stars := 0
	for declNode != nil && declNode.Type() == "pointer_declarator" {
		stars++
		declNode = declNode.ChildByFieldName("declarator")
	}
	if declNode == nil || declNode.Type() != "identifier" {
		return &cst.ExprStmt{P: fc.pos(n), X: &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}}
	}
	if stars > 0 {
		typeName += " " + strings.Repeat("*", stars)
	}
	return &cst.DeclStmt{
		P:    fc.pos(n),
		Type: typeName,
		Name: fc.text(declNode),
		Init: init,
	}
}

func (p *Parser) convertExpr(ctx context.Context, n *sitter.Node, fc *fileCtx) cst.Expr {
	switch n.Type() {
	case "parenthesized_expression":
		return p.convertExpr(ctx, unwrapParens(n), fc)

	case "number_literal":
		text := fc.text(n)
		value, err := strconv.ParseInt(strings.TrimRight(text, "uUlL"), 0, 64)
		if err != nil {
			return &cst.RawExpr{P: fc.pos(n), Text: text}
		}
		return &cst.IntLit{P: fc.pos(n), ID: p.x.lits.Next(), Value: value, Text: text}

	case "identifier":
		return &cst.Ident{P: fc.pos(n), Name: fc.text(n)}

	case "call_expression":
		return p.convertCall(ctx, n, fc)

	case "unary_expression", "pointer_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		if op == nil || arg == nil {
			return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
		}
		return &cst.UnaryExpr{P: fc.pos(n), Op: fc.text(op), X: p.convertExpr(ctx, arg, fc)}

	case "binary_expression":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		op := n.ChildByFieldName("operator")
		if left == nil || right == nil || op == nil {
			return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
		}
		return &cst.BinaryExpr{
			P:  fc.pos(n),
			Op: fc.text(op),
			X:  p.convertExpr(ctx, left, fc),
			Y:  p.convertExpr(ctx, right, fc),
		}

	case "assignment_expression":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		op := n.ChildByFieldName("operator")
		if left == nil || right == nil || op == nil || fc.text(op) != "=" {
			return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
		}
		return &cst.AssignExpr{
			P:   fc.pos(n),
			LHS: p.convertExpr(ctx, left, fc),
			RHS: p.convertExpr(ctx, right, fc),
		}

	case "field_expression":
		arg := n.ChildByFieldName("argument")
		field := n.ChildByFieldName("field")
		if arg == nil || field == nil {
			return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
		}
		sep := string(fc.src[arg.EndByte():field.StartByte()])
		return &cst.MemberExpr{
			P:      fc.pos(n),
			X:      p.convertExpr(ctx, arg, fc),
			Member: fc.text(field),
			Arrow:  strings.Contains(sep, "->"),
		}

	case "cast_expression":
		typeNode := n.ChildByFieldName("type")
		value := n.ChildByFieldName("value")
		if typeNode == nil || value == nil {
			return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
		}
		return &cst.CastExpr{
			P:    fc.pos(n),
			Type: fc.text(typeNode),
			X:    p.convertExpr(ctx, value, fc),
		}

	default:
		return &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
	}
}

// convertCall handles a call expression, routing cataloged
// expression macros through the catalog and everything else to a
// plain call node. A cataloged name whose arguments do not line up
// with the definition falls back to a plain call.
func (p *Parser) convertCall(ctx context.Context, n *sitter.Node, fc *fileCtx) cst.Expr {
	fn := n.ChildByFieldName("function")
	if fn != nil && fn.Type() == "identifier" {
		if def, ok := p.catalog.lookup(fc.text(fn)); ok && !def.stmt {
			if inv, ok := p.invocationFor(ctx, def, n, fc); ok {
				return p.catalog.expand(p.x, def, inv).(cst.Expr)
			}
		}
	}

	call := &cst.CallExpr{P: fc.pos(n)}
	if fn != nil {
		call.Fun = p.convertExpr(ctx, fn, fc)
	} else {
		call.Fun = &cst.RawExpr{P: fc.pos(n), Text: fc.text(n)}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			call.Args = append(call.Args, p.convertExpr(ctx, args.NamedChild(i), fc))
		}
	}
	return call
}

// parseExprFragment parses raw argument text as a standalone C
// expression by wrapping it in a scratch function. Macro arguments
// arrive as text because the surrounding invocation never went through
// the preprocessor.
func (p *Parser) parseExprFragment(ctx context.Context, fragment string, pos cst.Pos) (cst.Expr, bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, false
	}
	wrapped := []byte("void __fragment(void) { (" + fragment + "); }")
	tree, err := p.ts.ParseCtx(ctx, nil, wrapped)
	if err != nil {
		return nil, false
	}
	defer tree.Close()

	expr := digFragment(tree.RootNode())
	if expr == nil {
		return nil, false
	}
	fc := &fileCtx{file: pos.File, src: wrapped}
	converted := p.convertExpr(ctx, expr, fc)
	if _, opaque := converted.(*cst.RawExpr); opaque {
		return nil, false
	}
	return rebase(converted, pos), true
}

// digFragment walks translation_unit > function_definition >
// compound_statement > expression_statement > parenthesized_expression
// down to the wrapped expression.
func digFragment(root *sitter.Node) *sitter.Node {
	if root.HasError() {
		return nil
	}
	n := root
	for _, want := range []string{"function_definition", "compound_statement", "expression_statement", "parenthesized_expression"} {
		var next *sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child.Type() == want {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	if n.NamedChildCount() != 1 {
		return nil
	}
	return n.NamedChild(0)
}

// rebase pins a fragment expression to the invocation position, since
// positions inside the scratch wrapper are meaningless.
func rebase(e cst.Expr, pos cst.Pos) cst.Expr {
	switch ex := e.(type) {
	case *cst.IntLit:
		ex.P = pos
	case *cst.Ident:
		ex.P = pos
	case *cst.CallExpr:
		ex.P = pos
		for _, a := range ex.Args {
			rebase(a, pos)
		}
		rebase(ex.Fun, pos)
	case *cst.UnaryExpr:
		ex.P = pos
		rebase(ex.X, pos)
	case *cst.BinaryExpr:
		ex.P = pos
		rebase(ex.X, pos)
		rebase(ex.Y, pos)
	case *cst.AssignExpr:
		ex.P = pos
		rebase(ex.LHS, pos)
		rebase(ex.RHS, pos)
	case *cst.MemberExpr:
		ex.P = pos
		rebase(ex.X, pos)
	case *cst.CastExpr:
		ex.P = pos
		rebase(ex.X, pos)
	case *cst.RawExpr:
		ex.P = pos
	case *cst.MacroExpr:
		ex.P = pos
	}
	return e
}

// unwrapParens returns the expression inside a parenthesized
// expression, or the node itself.
func unwrapParens(n *sitter.Node) *sitter.Node {
	for n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}

// splitArgs splits the text of an argument list "(a, b, c)" at
// top-level commas, respecting nested parentheses, brackets, and
// braces.
func splitArgs(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = text[1 : len(text)-1]
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		args  []string
		depth int
		start int
	)
	for i, r := range text {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(text[start:]))
	return args
}
