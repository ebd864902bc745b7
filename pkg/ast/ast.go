// Package ast defines the syntax tree for the pixardis language.
//
// Node categories are closed variant sets: Stmt and Factor are sealed
// interfaces and every consumer (semantic analysis, code generation)
// dispatches with a type switch rather than visitor callbacks.
package ast

// Program is the root node of the syntax tree.
type Program struct {
	Statements []Stmt
}

// Stmt is the closed set of statement variants.
type Stmt interface {
	stmtNode()
}

// VariableDecl declares a scalar or fixed-length array variable.
// For scalars Initializer is set; for arrays Elements holds one
// expression per declared element and Initializer is nil.
type VariableDecl struct {
	Identifier  string
	TypeName    string // e.g. "int", "colour", "int[3]"
	Initializer *Expr
	Elements    []*Expr
	Line        int
}

type FormalParam struct {
	Identifier string
	TypeName   string
	Line       int
}

type FunctionDecl struct {
	Identifier string
	Params     []FormalParam
	ReturnType string
	Body       Stmt
	Line       int
}

// Assignment writes to a scalar variable or, when Index is non-nil,
// to a single array element.
type Assignment struct {
	Identifier string
	Index      *Expr
	Expression *Expr
	Line       int
}

type Print struct {
	Expression *Expr
	Line       int
}

type Delay struct {
	Expression *Expr
	Line       int
}

type Clear struct {
	Expression *Expr
	Line       int
}

// Write plots one pixel: x, y, colour.
type Write struct {
	Args [3]*Expr
	Line int
}

// WriteBox fills a rectangle: x, y, width, height, colour.
type WriteBox struct {
	Args [5]*Expr
	Line int
}

// WriteLine draws a line segment: x0, y0, x1, y1, colour.
type WriteLine struct {
	Args [5]*Expr
	Line int
}

type Return struct {
	Expression *Expr
	Line       int
}

// Block opens a fresh lexical scope around its statements.
type Block struct {
	Statements []Stmt
}

// UnscopedBlock shares the enclosing scope; it never opens a frame of
// its own. Function bodies use it so parameters and locals live in one
// frame.
type UnscopedBlock struct {
	Statements []Stmt
}

type If struct {
	Condition *Expr
	Body      Stmt
	Else      Stmt
	Line      int
}

type While struct {
	Condition *Expr
	Body      Stmt
	Line      int
}

type For struct {
	Initializer Stmt
	Condition   *Expr
	Increment   Stmt
	Body        Stmt
	Line        int
}

func (*VariableDecl) stmtNode() {}
func (*FunctionDecl) stmtNode() {}
func (*Assignment) stmtNode()   {}
func (*Print) stmtNode()        {}
func (*Delay) stmtNode()        {}
func (*Clear) stmtNode()        {}
func (*Write) stmtNode()        {}
func (*WriteBox) stmtNode()     {}
func (*WriteLine) stmtNode()    {}
func (*Return) stmtNode()       {}
func (*Block) stmtNode()        {}
func (*UnscopedBlock) stmtNode() {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*For) stmtNode()          {}

// Expr is a right-leaning binary chain: factor [operator expr].
// The "as" operator stores its target type in CastType instead of a
// right-hand side.
type Expr struct {
	Factor   Factor
	Operator string
	Right    *Expr
	CastType string
	Line     int
}

// Factor is the closed set of operand variants.
type Factor interface {
	factorNode()
}

type BoolLit struct {
	Value bool
	Line  int
}

type IntLit struct {
	Value int64
	Line  int
}

type FloatLit struct {
	Value float64
	Line  int
}

// ColourLit keeps the literal in its source form, e.g. "#ff0000".
type ColourLit struct {
	Value string
	Line  int
}

type Width struct {
	Line int
}

type Height struct {
	Line int
}

type RandomInt struct {
	Expression *Expr
	Line       int
}

// Read queries one framebuffer pixel: x, y.
type Read struct {
	X    *Expr
	Y    *Expr
	Line int
}

type Identifier struct {
	Name string
	Line int
}

// ArrayAccess reads one element of an array variable.
type ArrayAccess struct {
	Name  string
	Index *Expr
	Line  int
}

type Call struct {
	Identifier string
	Arguments  []*Expr
	Line       int
}

type Subexpr struct {
	Expression *Expr
	Line       int
}

// Unary applies "-" or "not" to its operand.
type Unary struct {
	Operator   string
	Expression *Expr
	Line       int
}

func (*BoolLit) factorNode()     {}
func (*IntLit) factorNode()      {}
func (*FloatLit) factorNode()    {}
func (*ColourLit) factorNode()   {}
func (*Width) factorNode()       {}
func (*Height) factorNode()      {}
func (*RandomInt) factorNode()   {}
func (*Read) factorNode()        {}
func (*Identifier) factorNode()  {}
func (*ArrayAccess) factorNode() {}
func (*Call) factorNode()        {}
func (*Subexpr) factorNode()     {}
func (*Unary) factorNode()       {}
