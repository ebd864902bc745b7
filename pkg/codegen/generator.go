// Package codegen lowers an analysed syntax tree to stack-machine
// instructions. It re-traverses the scope forest built during
// analysis: scopes were created in traversal order, so the generator
// walks them with a sequential cursor instead of creating its own.
package codegen

import (
	"strconv"

	"pixardis/pkg/ast"
	"pixardis/pkg/isa"
	"pixardis/pkg/semantics"
)

// Generator emits code for one program. Forward jumps are emitted as
// placeholder push slots and patched once the target address is known.
type Generator struct {
	scopes     *semantics.ScopeManager
	scopeIndex int
	scopeStack []int

	program   isa.Program
	scopeTags []int

	status semantics.CompilationResult
}

// NewGenerator creates a new Generator instance. The scope manager
// must be the one populated by semantic analysis.
func NewGenerator(scopes *semantics.ScopeManager) *Generator {
	return &Generator{
		scopes:     scopes,
		scopeStack: make([]int, 0, 8),
		program:    make(isa.Program, 0, 64),
		status:     semantics.ResultPending,
	}
}

// Status reports the outcome of the last Generate call.
func (g *Generator) Status() semantics.CompilationResult {
	return g.status
}

// Program returns the generated instruction sequence.
func (g *Generator) Program() isa.Program {
	return g.program
}

// ScopeTags returns, per instruction slot, the id of the scope that
// was active when the slot was emitted. Used by program listings.
func (g *Generator) ScopeTags() []int {
	return g.scopeTags
}

// Generate emits the whole program.
//
// The prologue deserves a note: the loader requires a reachable halt
// before any label other than the entry point, so the program opens
// with a stub that jumps over an immediate halt into the real body.
func (g *Generator) Generate(program *ast.Program) isa.Program {
	g.status = semantics.ResultSuccess
	g.resetScope()

	g.emit(isa.Label("main"))
	g.emit(isa.PushImmediate("4"))
	g.emit(isa.Simple(isa.OpJump))
	g.emit(isa.Simple(isa.OpHalt))

	size := g.scopes.Current().Size()
	g.emit(isa.PushImmediate(strconv.Itoa(size)))
	g.emit(isa.Simple(isa.OpFrameOpen))

	for _, stmt := range program.Statements {
		g.genStmt(stmt)
	}

	g.emit(isa.Simple(isa.OpFrameClose))
	g.emit(isa.Simple(isa.OpHalt))

	return g.program
}

func (g *Generator) emit(instr isa.Instruction) {
	g.program = append(g.program, instr)
	g.scopeTags = append(g.scopeTags, g.scopes.Current().ID)
}

func (g *Generator) emitPatch(instr isa.Instruction, index int) {
	g.program[index] = instr
}

func (g *Generator) index() int {
	return len(g.program)
}

// Scope cursor. Scope ids were assigned sequentially during analysis,
// so entering the next lexical scope is a matter of advancing the
// cursor; leaving one re-activates the parent.
func (g *Generator) resetScope() {
	g.scopeIndex = 0
	g.scopeStack = g.scopeStack[:0]
	_ = g.scopes.Activate(0)
}

func (g *Generator) nextScope() {
	g.scopeIndex++
	_ = g.scopes.Activate(g.scopeIndex)
}

func (g *Generator) previousScope() {
	parent := g.scopes.Current().Parent
	if parent >= 0 {
		_ = g.scopes.Activate(parent)
	}
}

func (g *Generator) pushScope() {
	g.scopeStack = append(g.scopeStack, g.scopes.Current().ID)
}

func (g *Generator) popScope() {
	if n := len(g.scopeStack); n > 0 {
		_ = g.scopes.Activate(g.scopeStack[n-1])
		g.scopeStack = g.scopeStack[:n-1]
	}
}

func (g *Generator) genStmt(s ast.Stmt) {
	switch node := s.(type) {
	case *ast.VariableDecl:
		g.genVariableDecl(node)

	case *ast.FunctionDecl:
		g.genFunctionDecl(node)

	case *ast.Assignment:
		g.genAssignment(node)

	case *ast.Print:
		g.genPrint(node)

	case *ast.Delay:
		g.genExpr(node.Expression)
		g.emit(isa.Simple(isa.OpDelay))

	case *ast.Clear:
		g.genExpr(node.Expression)
		g.emit(isa.Simple(isa.OpClear))

	case *ast.Write:
		for i := len(node.Args) - 1; i >= 0; i-- {
			g.genExpr(node.Args[i])
		}
		g.emit(isa.Simple(isa.OpWrite))

	case *ast.WriteBox:
		for i := len(node.Args) - 1; i >= 0; i-- {
			g.genExpr(node.Args[i])
		}
		g.emit(isa.Simple(isa.OpWriteBox))

	case *ast.WriteLine:
		for i := len(node.Args) - 1; i >= 0; i-- {
			g.genExpr(node.Args[i])
		}
		g.emit(isa.Simple(isa.OpWriteLine))

	case *ast.Return:
		g.genReturn(node)

	case *ast.Block:
		g.genBlock(node)

	case *ast.UnscopedBlock:
		g.genUnscopedBlock(node, 0)

	case *ast.If:
		g.genIf(node)

	case *ast.While:
		g.genWhile(node)

	case *ast.For:
		g.genFor(node)
	}
}

func (g *Generator) genBlock(node *ast.Block) {
	g.nextScope()

	size := g.scopes.Current().Size()
	g.emit(isa.PushImmediate(strconv.Itoa(size)))
	g.emit(isa.Simple(isa.OpFrameOpen))

	for _, stmt := range node.Statements {
		g.genStmt(stmt)
	}

	g.emit(isa.Simple(isa.OpFrameClose))
	g.previousScope()
}

// genUnscopedBlock extends the active frame instead of opening one.
// Function bodies land here: the call already opened a frame holding
// the arguments, so only the slots beyond prealloc are allocated.
func (g *Generator) genUnscopedBlock(node *ast.UnscopedBlock, prealloc int) {
	size := g.scopes.Current().Size() - prealloc
	if size < 0 {
		size = 0
	}

	g.emit(isa.PushImmediate(strconv.Itoa(size)))
	g.emit(isa.Simple(isa.OpAlloc))

	for _, stmt := range node.Statements {
		g.genStmt(stmt)
	}
}

func (g *Generator) genVariableDecl(node *ast.VariableDecl) {
	symbol, _ := g.scopes.Current().Get(node.Identifier)

	if symbol.Type.Array {
		// Elements are pushed last-first so that element zero is
		// topmost when sta starts writing.
		for i := len(node.Elements) - 1; i >= 0; i-- {
			g.genExpr(node.Elements[i])
		}

		g.emit(isa.PushImmediate(strconv.Itoa(len(node.Elements))))
		g.emit(isa.PushImmediate(strconv.Itoa(symbol.Offset)))
		g.emit(isa.PushImmediate("0"))
		g.emit(isa.Simple(isa.OpStoreArray))
		return
	}

	g.genExpr(node.Initializer)

	g.emit(isa.PushImmediate(strconv.Itoa(symbol.Offset)))
	g.emit(isa.PushImmediate("0"))
	g.emit(isa.Simple(isa.OpStore))
}

// genFunctionDecl fences the body with a jump so that control never
// falls into a function without an explicit call.
func (g *Generator) genFunctionDecl(node *ast.FunctionDecl) {
	patchFence := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpJump))

	g.emit(isa.Label(node.Identifier))

	g.nextScope()

	// The call instruction opens the frame with one slot per
	// argument already populated.
	if body, ok := node.Body.(*ast.UnscopedBlock); ok {
		g.genUnscopedBlock(body, len(node.Params))
	} else {
		g.genStmt(node.Body)
	}

	g.previousScope()

	g.emitPatch(isa.PushOffset(int64(g.index()-patchFence)), patchFence)
}

func (g *Generator) genAssignment(node *ast.Assignment) {
	_, frame, symbol, ok := g.scopes.Find(node.Identifier)
	if !ok {
		g.status = semantics.ResultFailure
		return
	}

	if node.Index != nil {
		// Element slot is computed at runtime: base offset plus index.
		g.genExpr(node.Expression)
		g.genExpr(node.Index)
		g.emit(isa.PushImmediate(strconv.Itoa(symbol.Offset)))
		g.emit(isa.Simple(isa.OpAdd))
		g.emit(isa.PushImmediate(strconv.Itoa(frame)))
		g.emit(isa.Simple(isa.OpStore))
		return
	}

	g.genExpr(node.Expression)

	g.emit(isa.PushImmediate(strconv.Itoa(symbol.Offset)))
	g.emit(isa.PushImmediate(strconv.Itoa(frame)))
	g.emit(isa.Simple(isa.OpStore))
}

// genPrint prints a scalar with print. A bare array variable prints
// with pusha and printa instead, element zero first.
func (g *Generator) genPrint(node *ast.Print) {
	if ident, ok := node.Expression.Factor.(*ast.Identifier); ok && node.Expression.Operator == "" {
		if _, frame, symbol, found := g.scopes.Find(ident.Name); found && symbol.Type.Array {
			count := strconv.Itoa(symbol.Type.Length)
			g.emit(isa.PushImmediate(count))
			g.emit(isa.PushArray(int64(symbol.Offset), int64(frame)))
			g.emit(isa.PushImmediate(count))
			g.emit(isa.Simple(isa.OpPrintArray))
			return
		}
	}

	g.genExpr(node.Expression)
	g.emit(isa.Simple(isa.OpPrint))
}

func (g *Generator) genReturn(node *ast.Return) {
	g.genExpr(node.Expression)

	// Frames opened by blocks between here and the function frame
	// must be closed before ret; ret itself closes the function frame.
	g.pushScope()
	for !g.scopes.Current().IsFunction {
		if g.scopes.Current().Parent < 0 {
			break
		}
		g.emit(isa.Simple(isa.OpFrameClose))
		g.previousScope()
	}
	g.popScope()

	g.emit(isa.Simple(isa.OpReturn))
}

func (g *Generator) genIf(node *ast.If) {
	g.genExpr(node.Condition)

	patchBody := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpConditionalJump))

	patchElse := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpJump))

	g.emitPatch(isa.PushOffset(int64(g.index()-patchBody)), patchBody)

	g.genStmt(node.Body)

	offsetElse := int64(g.index() - patchElse)

	if node.Else != nil {
		patchEnd := g.index()
		g.emit(isa.PushOffset(0))
		g.emit(isa.Simple(isa.OpJump))

		offsetElse = int64(g.index() - patchElse)

		g.genStmt(node.Else)

		g.emitPatch(isa.PushOffset(int64(g.index()-patchEnd)), patchEnd)
	}

	g.emitPatch(isa.PushOffset(offsetElse), patchElse)
}

func (g *Generator) genWhile(node *ast.While) {
	condition := g.index()

	g.genExpr(node.Condition)

	patchBody := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpConditionalJump))

	patchEnd := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpJump))

	g.emitPatch(isa.PushOffset(int64(g.index()-patchBody)), patchBody)

	g.genStmt(node.Body)

	g.emit(isa.PushOffset(int64(condition - g.index())))
	g.emit(isa.Simple(isa.OpJump))

	g.emitPatch(isa.PushOffset(int64(g.index()-patchEnd)), patchEnd)
}

func (g *Generator) genFor(node *ast.For) {
	g.nextScope()

	size := g.scopes.Current().Size()
	g.emit(isa.PushImmediate(strconv.Itoa(size)))
	g.emit(isa.Simple(isa.OpFrameOpen))

	if node.Initializer != nil {
		g.genStmt(node.Initializer)
	}

	condition := g.index()

	if node.Condition != nil {
		g.genExpr(node.Condition)
	}

	patchBody := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpConditionalJump))

	patchEnd := g.index()
	g.emit(isa.PushOffset(0))
	g.emit(isa.Simple(isa.OpJump))

	g.emitPatch(isa.PushOffset(int64(g.index()-patchBody)), patchBody)

	g.genStmt(node.Body)

	if node.Increment != nil {
		g.genStmt(node.Increment)
	}

	g.emit(isa.PushOffset(int64(condition - g.index())))
	g.emit(isa.Simple(isa.OpJump))

	g.emitPatch(isa.PushOffset(int64(g.index()-patchEnd)), patchEnd)

	g.emit(isa.Simple(isa.OpFrameClose))
	g.previousScope()
}

// genExpr emits the right-hand side before the factor: binary
// instructions compute top-of-stack OP next, so the left operand must
// end up on top.
func (g *Generator) genExpr(e *ast.Expr) {
	if e == nil {
		return
	}

	if e.Right != nil {
		g.genExpr(e.Right)
	}

	g.genFactor(e.Factor)

	switch e.Operator {
	case "+", "||", "or":
		g.emit(isa.Simple(isa.OpAdd))
	case "-":
		g.emit(isa.Simple(isa.OpSub))
	case "*", "&&", "and":
		g.emit(isa.Simple(isa.OpMul))
	case "/":
		g.emit(isa.Simple(isa.OpDiv))
	case "%":
		g.emit(isa.Simple(isa.OpMod))
	case "==":
		g.emit(isa.Simple(isa.OpEqual))
	case "!=":
		g.emit(isa.Simple(isa.OpEqual))
		g.emit(isa.PushImmediate("1"))
		g.emit(isa.Simple(isa.OpSub))
	case "<":
		g.emit(isa.Simple(isa.OpLessThan))
	case ">":
		g.emit(isa.Simple(isa.OpGreaterThan))
	case "<=":
		g.emit(isa.Simple(isa.OpLessEqual))
	case ">=":
		g.emit(isa.Simple(isa.OpGreaterEqual))
	}

	// Casts carry no runtime representation change.
}

func (g *Generator) genFactor(f ast.Factor) {
	switch node := f.(type) {
	case *ast.BoolLit:
		if node.Value {
			g.emit(isa.PushImmediate("1"))
		} else {
			g.emit(isa.PushImmediate("0"))
		}

	case *ast.IntLit:
		g.emit(isa.PushImmediate(strconv.FormatInt(node.Value, 10)))

	case *ast.FloatLit:
		g.emit(isa.PushImmediate(strconv.FormatFloat(node.Value, 'f', -1, 64)))

	case *ast.ColourLit:
		g.emit(isa.PushImmediate(node.Value))

	case *ast.Width:
		g.emit(isa.Simple(isa.OpWidth))

	case *ast.Height:
		g.emit(isa.Simple(isa.OpHeight))

	case *ast.RandomInt:
		g.genExpr(node.Expression)
		g.emit(isa.Simple(isa.OpRandomInt))

	case *ast.Read:
		g.genExpr(node.Y)
		g.genExpr(node.X)
		g.emit(isa.Simple(isa.OpRead))

	case *ast.Identifier:
		_, frame, symbol, ok := g.scopes.Find(node.Name)
		if !ok {
			g.status = semantics.ResultFailure
			return
		}
		g.emit(isa.PushIndexed(int64(symbol.Offset), int64(frame)))

	case *ast.ArrayAccess:
		_, frame, symbol, ok := g.scopes.Find(node.Name)
		if !ok {
			g.status = semantics.ResultFailure
			return
		}
		g.genExpr(node.Index)
		g.emit(isa.PushIndexedOffset(int64(symbol.Offset), int64(frame)))

	case *ast.Call:
		for i := len(node.Arguments) - 1; i >= 0; i-- {
			g.genExpr(node.Arguments[i])
		}
		g.emit(isa.PushImmediate(strconv.Itoa(len(node.Arguments))))
		g.emit(isa.PushLabel(node.Identifier))
		g.emit(isa.Simple(isa.OpCall))

	case *ast.Subexpr:
		g.genExpr(node.Expression)

	case *ast.Unary:
		g.genExpr(node.Expression)
		if node.Operator == "not" {
			// Boolean values stay in {0, 1}: not x == 1 - x.
			g.emit(isa.PushImmediate("1"))
		} else {
			g.emit(isa.PushImmediate("0"))
		}
		g.emit(isa.Simple(isa.OpSub))
	}
}
