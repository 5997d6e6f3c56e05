package cst

// Pos is a source position.
type Pos struct {
	File string
	Line int
	Col  int
}

// Node is the common interface of all source tree nodes.
type Node interface {
	Pos() Pos
}

// Stmt is a sealed interface over statement nodes. Only types in this
// package implement it; lowering type-switches over the closed set.
type Stmt interface {
	Node
	stmtNode() // Marker method - seals interface to this package
}

// Expr is a sealed interface over expression nodes.
type Expr interface {
	Node
	exprNode() // Marker method - seals interface to this package
}

// TranslationUnit is the root of one parsed file.
type TranslationUnit struct {
	File  string
	Funcs []*FuncDef
}

// FuncDef is a function definition with a lowered body.
type FuncDef struct {
	P    Pos
	Name string
	Body *CompoundStmt
}

func (f *FuncDef) Pos() Pos { return f.P }

// CompoundStmt is a braced statement sequence.
type CompoundStmt struct {
	P     Pos
	Stmts []Stmt
}

func (s *CompoundStmt) Pos() Pos { return s.P }
func (*CompoundStmt) stmtNode() {}

// IfStmt is a conditional statement. Else is nil when absent.
type IfStmt struct {
	P    Pos
	Cond Expr
	Then Stmt
	Else Stmt
}

func (s *IfStmt) Pos() Pos { return s.P }
func (*IfStmt) stmtNode() {}

// ForStmt is a for loop. Any of Init, Cond, Post may be nil.
type ForStmt struct {
	P    Pos
	Init Expr
	Cond Expr
	Post Expr
	Body Stmt
}

func (s *ForStmt) Pos() Pos { return s.P }
func (*ForStmt) stmtNode() {}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	P Pos
	X Expr
}

func (s *ExprStmt) Pos() Pos { return s.P }
func (*ExprStmt) stmtNode() {}

// DeclStmt declares a local variable with an optional initializer.
type DeclStmt struct {
	P    Pos
	Type string
	Name string
	Init Expr
}

func (s *DeclStmt) Pos() Pos { return s.P }
func (*DeclStmt) stmtNode() {}

// EmptyStmt is a lone semicolon. The safety convention's then-branch
// is usually one of these.
type EmptyStmt struct {
	P Pos
}

func (s *EmptyStmt) Pos() Pos { return s.P }
func (*EmptyStmt) stmtNode() {}

// MacroStmt records that a statement came from expanding a named
// macro. RawArgs holds the pre-expansion argument text; Expansion holds
// the statement the macro body produced (possibly containing further
// macro nodes).
type MacroStmt struct {
	P         Pos
	Name      string
	RawArgs   []string
	ArgExprs  []Expr
	Expansion Stmt
}

func (s *MacroStmt) Pos() Pos { return s.P }
func (*MacroStmt) stmtNode() {}

// IntLit is an integer literal. ID is the literal's stable identity,
// assigned by the front end at creation; the safety sentinel set stores
// these identities, never values.
type IntLit struct {
	P     Pos
	ID    LitID
	Value int64
	Text  string
}

func (e *IntLit) Pos() Pos { return e.P }
func (*IntLit) exprNode() {}

// Ident is a name reference.
type Ident struct {
	P    Pos
	Name string
}

func (e *Ident) Pos() Pos { return e.P }
func (*Ident) exprNode() {}

// CallExpr is a function call.
type CallExpr struct {
	P    Pos
	Fun  Expr
	Args []Expr
}

func (e *CallExpr) Pos() Pos { return e.P }
func (*CallExpr) exprNode() {}

// UnaryExpr is a prefix unary operation.
type UnaryExpr struct {
	P  Pos
	Op string
	X  Expr
}

func (e *UnaryExpr) Pos() Pos { return e.P }
func (*UnaryExpr) exprNode() {}

// BinaryExpr is an infix binary operation.
type BinaryExpr struct {
	P  Pos
	Op string
	X  Expr
	Y  Expr
}

func (e *BinaryExpr) Pos() Pos { return e.P }
func (*BinaryExpr) exprNode() {}

// AssignExpr is a simple assignment expression.
type AssignExpr struct {
	P   Pos
	LHS Expr
	RHS Expr
}

func (e *AssignExpr) Pos() Pos { return e.P }
func (*AssignExpr) exprNode() {}

// MemberExpr is a struct member access; Arrow distinguishes p->m from
// s.m.
type MemberExpr struct {
	P      Pos
	X      Expr
	Member string
	Arrow  bool
}

func (e *MemberExpr) Pos() Pos { return e.P }
func (*MemberExpr) exprNode() {}

// CastExpr is an explicit cast to a named type.
type CastExpr struct {
	P    Pos
	Type string
	X    Expr
}

func (e *CastExpr) Pos() Pos { return e.P }
func (*CastExpr) exprNode() {}

// RawExpr is an expression the front end chose not to model
// structurally; it carries the raw source text. Lowering keeps it
// opaque, so no rule can ever match inside it.
type RawExpr struct {
	P    Pos
	Text string
}

func (e *RawExpr) Pos() Pos { return e.P }
func (*RawExpr) exprNode() {}

// MacroExpr records that an expression came from expanding a named
// macro, mirroring MacroStmt for expression-shaped macros.
type MacroExpr struct {
	P         Pos
	Name      string
	RawArgs   []string
	ArgExprs  []Expr
	Expansion Expr
}

func (e *MacroExpr) Pos() Pos { return e.P }
func (*MacroExpr) exprNode() {}
